package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StatusPending  = "Pending"
	StatusAnalyzed = "Analyzed"
	StatusResolved = "Resolved"

	DefaultCategory = "Unidentified"
)

// Issue is the client-side view of one report, normalized for display.
// Issues are never mutated in place; the session controller replaces or
// prepends whole values.
type Issue struct {
	ID           string  `json:"id"`
	ImageURI     string  `json:"imageUri"`
	Timestamp    int64   `json:"timestamp"` // epoch milliseconds
	Status       string  `json:"status"`
	LocationText string  `json:"locationText"`
	Category     string  `json:"category"`
	Points       int     `json:"points"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
}

// createdAt arrives either as RFC 3339 or as a bare MySQL datetime,
// depending on the service version.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseCreatedAt(s string) int64 {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// ImageURI composes the displayable URI for a report image. Absolute URIs
// pass through, relative paths are joined with the public base URL.
func ImageURI(imagePath, publicBaseURL string) string {
	if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
		return imagePath
	}
	return strings.TrimSuffix(publicBaseURL, "/") + "/" + strings.TrimPrefix(imagePath, "/")
}

// IssueFromReport maps one server report to the client Issue shape.
func IssueFromReport(r Report, publicBaseURL string) Issue {
	status := r.Status
	if status == "" {
		status = StatusPending
	}
	locationText := r.AIResponse.Description
	if locationText == "" {
		locationText = fmt.Sprintf("%.4f, %.4f", r.Latitude, r.Longitude)
	}
	category := r.AIResponse.IssueType
	if category == "" {
		category = DefaultCategory
	}
	return Issue{
		ID:           strconv.FormatInt(r.ID, 10),
		ImageURI:     ImageURI(r.ImagePath, publicBaseURL),
		Timestamp:    parseCreatedAt(r.CreatedAt),
		Status:       status,
		LocationText: locationText,
		Category:     category,
		Points:       r.Points,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}

// IssuesFromReports maps a server report list and reverses it so the newest
// report comes first.
func IssuesFromReports(reports []Report, publicBaseURL string) []Issue {
	issues := make([]Issue, 0, len(reports))
	for i := len(reports) - 1; i >= 0; i-- {
		issues = append(issues, IssueFromReport(reports[i], publicBaseURL))
	}
	return issues
}
