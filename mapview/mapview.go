// Package mapview clusters the user's issues for map display. Nearby issues
// collapse into one pin with a count once the viewport is zoomed out far
// enough, using S2 cells at a level chosen from the viewport area.
package mapview

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"spotit/api"
)

// ViewPort is the visible map rectangle in degrees.
type ViewPort struct {
	LatMin float64
	LonMin float64
	LatMax float64
	LonMax float64
}

// Cluster is one map pin: either a single issue or a group of nearby ones.
type Cluster struct {
	Latitude  float64
	Longitude float64
	Count     int
	Issues    []api.Issue // populated only for small clusters
}

const (
	expectedCells = 16
	minLevel      = 2
	maxLevel      = 18

	// Clusters at or below this size keep their member issues so the UI can
	// expand them without another pass.
	maxExpandable = 10
)

// cellLevel picks the S2 cell level whose cells tile the viewport into
// roughly expectedCells pieces.
func cellLevel(vp ViewPort) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{Lo: minLL.Lat.Radians(), Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{Lo: minLL.Lng.Radians(), Hi: maxLL.Lng.Radians()},
	}
	vpArea := rect.Area()

	center := s2.CellIDFromLatLng(s2.LatLngFromDegrees(
		(vp.LatMin+vp.LatMax)/2, (vp.LonMin+vp.LonMax)/2))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cell := s2.CellFromCellID(center.Parent(lv))
		if vpArea/cell.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel
}

func inViewPort(vp ViewPort, issue api.Issue) bool {
	return issue.Latitude >= vp.LatMin && issue.Latitude <= vp.LatMax &&
		issue.Longitude >= vp.LonMin && issue.Longitude <= vp.LonMax
}

// Aggregate buckets the visible issues into clusters for the given viewport.
// Cluster pins sit at the centroid of their member issues.
func Aggregate(issues []api.Issue, vp ViewPort) []Cluster {
	level := cellLevel(vp)

	buckets := make(map[s2.CellID][]api.Issue)
	order := make([]s2.CellID, 0, len(issues))
	for _, issue := range issues {
		if !inViewPort(vp, issue) {
			continue
		}
		cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(issue.Latitude, issue.Longitude)).Parent(level)
		if _, ok := buckets[cell]; !ok {
			order = append(order, cell)
		}
		buckets[cell] = append(buckets[cell], issue)
	}

	clusters := make([]Cluster, 0, len(buckets))
	for _, cell := range order {
		members := buckets[cell]
		var latSum, lonSum float64
		for _, issue := range members {
			latSum += issue.Latitude
			lonSum += issue.Longitude
		}
		cluster := Cluster{
			Latitude:  latSum / float64(len(members)),
			Longitude: lonSum / float64(len(members)),
			Count:     len(members),
		}
		if len(members) <= maxExpandable {
			cluster.Issues = members
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}
