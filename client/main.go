// Dev/test client for exercising the full SpotIt client stack against a
// running dev service: login, report submission, issue listing, rewards.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"spotit/api"
	"spotit/i18n"
	"spotit/mapview"
	"spotit/remote"
	"spotit/session"
	"spotit/store"

	"github.com/apex/log"
)

var (
	baseURL   = flag.String("base_url", "http://127.0.0.1:8080", "Service URL.")
	publicURL = flag.String("public_url", "", "Public image host, defaults to the service URL.")
	statePath = flag.String("state", "spotit-state.json", "Path of the local session cache.")
	name      = flag.String("name", "Citizen User", "Name used when registering.")
	email     = flag.String("email", "citizen@example.com", "Login email.")
	password  = flag.String("password", "secret123", "Login password.")
	imagePath = flag.String("image", "", "JPEG to submit. A stub image is used when empty.")
	latitude  = flag.Float64("lat", 28.6139, "Report latitude.")
	longitude = flag.Float64("lon", 77.2090, "Report longitude.")
	buyReward = flag.Int64("buy_reward", 0, "Reward id to buy, 0 to skip.")
	language  = flag.String("lang", "", "Switch UI language before printing.")
)

func loadImage() []byte {
	if *imagePath == "" {
		// A JPEG header stub is enough for the dev service.
		return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	}
	data, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image %s: %v", *imagePath, err)
	}
	return data
}

func login(ctx context.Context, rc *remote.Client, ctl *session.Controller) {
	resp, err := rc.Login(ctx, *email, *password)
	if err != nil {
		log.Infof("Login failed (%v), registering...", err)
		if err := rc.Register(ctx, api.RegisterArgs{Name: *name, Email: *email, Password: *password}); err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
		if resp, err = rc.Login(ctx, *email, *password); err != nil {
			log.Fatalf("Login after registration failed: %v", err)
		}
	}
	ctl.Login(ctx, *resp.User, resp.Token)
	log.Infof("Logged in as %s, %d points", resp.User.Name, ctl.Points())

	if err := rc.RegisterPushToken(ctx, ctl.Token(), "dev-client-"+*email); err != nil {
		log.Errorf("Failed to register push token: %v", err)
	}
}

func submit(ctx context.Context, rc *remote.Client, ctl *session.Controller) {
	before := len(ctl.Issues())
	resp, err := rc.SubmitReport(ctx, ctl.Token(), loadImage(), *latitude, *longitude, time.Now().UnixMilli())
	if err != nil {
		log.Errorf("Submission failed: %v", err)
		return
	}
	log.Infof("Submitted report %d, category %s (%.2f)", resp.ID, resp.Category, resp.Confidence)

	ctl.RefreshIssues(ctx)
	if len(ctl.Issues()) > before {
		return
	}
	// Refresh could not confirm the new report; fall back to an optimistic
	// local entry so the user sees it immediately.
	ctl.AddIssue(ctx, api.Issue{
		ID:           "local-" + time.Now().Format("150405"),
		Timestamp:    time.Now().UnixMilli(),
		Status:       api.StatusPending,
		LocationText: "just now",
		Category:     resp.Category,
		Points:       50,
		Latitude:     *latitude,
		Longitude:    *longitude,
	})
}

func printIssues(ctl *session.Controller, tr *i18n.Translator) {
	issues := ctl.Issues()
	if len(issues) == 0 {
		log.Info(tr.T("noIssues"))
		return
	}
	log.Infof("%s (%d):", tr.T("issues"), len(issues))
	for _, issue := range issues {
		log.Infof("  #%s [%s] %s - %s, %d %s",
			issue.ID, issue.Status, issue.Category, issue.LocationText, issue.Points, tr.T("points"))
	}
	printMapPins(issues)
}

// printMapPins clusters the issues the way the map screen would, over a
// viewport padded around their bounding box.
func printMapPins(issues []api.Issue) {
	vp := mapview.ViewPort{
		LatMin: issues[0].Latitude, LatMax: issues[0].Latitude,
		LonMin: issues[0].Longitude, LonMax: issues[0].Longitude,
	}
	for _, issue := range issues[1:] {
		if issue.Latitude < vp.LatMin {
			vp.LatMin = issue.Latitude
		}
		if issue.Latitude > vp.LatMax {
			vp.LatMax = issue.Latitude
		}
		if issue.Longitude < vp.LonMin {
			vp.LonMin = issue.Longitude
		}
		if issue.Longitude > vp.LonMax {
			vp.LonMax = issue.Longitude
		}
	}
	vp.LatMin -= 0.01
	vp.LatMax += 0.01
	vp.LonMin -= 0.01
	vp.LonMax += 0.01

	for _, cluster := range mapview.Aggregate(issues, vp) {
		log.Infof("  pin %.4f,%.4f x%d", cluster.Latitude, cluster.Longitude, cluster.Count)
	}
}

func doRewards(ctx context.Context, rc *remote.Client, ctl *session.Controller, tr *i18n.Translator) {
	rewards, err := rc.ListRewards(ctx)
	if err != nil {
		log.Errorf("Failed to list rewards: %v", err)
		return
	}
	log.Infof("%s:", tr.T("rewardsTitle"))
	for _, reward := range rewards {
		log.Infof("  %d: %s, %d %s (worth %s)", reward.ID, reward.Title, reward.PointCost, tr.T("points"), reward.Value)
	}

	if *buyReward == 0 {
		return
	}
	resp, err := rc.BuyReward(ctx, ctl.Token(), *buyReward)
	if err != nil {
		log.Errorf("Purchase failed: %v", err)
		return
	}
	if !resp.Success {
		log.Infof("Purchase rejected: %s", resp.Message)
		return
	}
	ctl.UpdatePoints(ctx, resp.RemainingPoints)
	log.Infof("Bought reward %d, %d points left", *buyReward, ctl.Points())

	mine, err := rc.MyRewards(ctx, ctl.Token())
	if err != nil {
		log.Errorf("Failed to list bought rewards: %v", err)
		return
	}
	for _, reward := range mine {
		log.Infof("  owned: %s", reward.Title)
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	kv := store.NewFileStore(*statePath)
	rc := remote.NewClient(*baseURL, *publicURL)
	ctl := session.NewController(session.Config{
		Store:         kv,
		Reports:       rc,
		PublicBaseURL: rc.PublicBaseURL(),
	})

	tr := i18n.NewTranslator(kv)
	tr.Load(ctx)
	if *language != "" {
		tr.SetLanguage(ctx, *language)
	}

	ctl.Bootstrap(ctx)
	if ctl.Token() == "" || ctl.User() == nil {
		login(ctx, rc, ctl)
	} else {
		log.Infof("Restored session for %s, %d points", ctl.User().Name, ctl.Points())
	}

	submit(ctx, rc, ctl)
	printIssues(ctl, tr)
	doRewards(ctx, rc, ctl, tr)
}
