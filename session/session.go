// Package session owns the SpotIt application state: the logged-in user, the
// auth token, the reported issue list, the point balance and the last known
// device location. A subset of the state is mirrored into a key-value store
// as a best-effort cache; the store is never the source of truth for issues.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"spotit/api"
	"spotit/store"

	"github.com/apex/log"
)

// Storage keys owned by the controller. Nothing else writes them.
const (
	KeyUser   = "user"
	KeyToken  = "userToken"
	KeyPoints = "userPoints"

	// keyLegacyIssues held a serialized issue list in earlier releases. The
	// list is rebuilt from the service on every refresh now; bootstrap just
	// clears the leftover.
	keyLegacyIssues = "userIssues"
)

// ReportSource fetches the authoritative report list. *remote.Client
// satisfies it.
type ReportSource interface {
	ListReports(ctx context.Context, token string) ([]api.Report, error)
}

// ErrorReporter observes swallowed storage and refresh failures. Failures
// never change user-visible behavior; the hook exists so they stay
// observable.
type ErrorReporter func(op string, err error)

// UserLocation is the last known device location, advisory only and never
// persisted.
type UserLocation struct {
	Latitude  float64
	Longitude float64
	Address   string
	City      string
}

type Config struct {
	Store         store.Store
	Reports       ReportSource
	PublicBaseURL string
	OnError       ErrorReporter
}

// Controller serializes every session mutation behind one mutex, so
// overlapping Login/Logout calls resolve to whichever operation ran last as
// a whole, storage writes included.
type Controller struct {
	store         store.Store
	reports       ReportSource
	publicBaseURL string
	onError       ErrorReporter

	mu        sync.Mutex
	user      *api.UserRecord
	token     string
	gen       uint64 // bumped on Login/Logout; stale refresh results are dropped
	loading   bool
	confirmed []api.Issue // authoritative list from the last successful refresh
	pending   []api.Issue // optimistic additions, discarded on next refresh
	points    int
	location  *UserLocation
}

func NewController(cfg Config) *Controller {
	onError := cfg.OnError
	if onError == nil {
		onError = func(op string, err error) {
			log.Errorf("session %s: %v", op, err)
		}
	}
	return &Controller{
		store:         cfg.Store,
		reports:       cfg.Reports,
		publicBaseURL: cfg.PublicBaseURL,
		onError:       onError,
		loading:       true,
	}
}

func (c *Controller) report(op string, err error) {
	c.onError(op, err)
}

// getKey reads one storage key, treating a missing key as empty.
func (c *Controller) getKey(ctx context.Context, op, key string) (string, bool) {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.report(op, err)
		}
		return "", false
	}
	return v, true
}

func (c *Controller) setKey(ctx context.Context, op, key, value string) {
	if err := c.store.Set(ctx, key, value); err != nil {
		c.report(op, err)
	}
}

func (c *Controller) removeKey(ctx context.Context, op, key string) {
	if err := c.store.Remove(ctx, key); err != nil {
		c.report(op, err)
	}
}

// Bootstrap restores the persisted session. It is called once at process
// start, never fails visibly, and always ends the loading phase. A restored
// token triggers one refresh of the issue list.
func (c *Controller) Bootstrap(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	c.mu.Lock()
	if raw, ok := c.getKey(ctx, "bootstrap", KeyUser); ok {
		var u api.UserRecord
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			c.report("bootstrap", err)
		} else {
			c.user = &u
		}
	}
	if tok, ok := c.getKey(ctx, "bootstrap", KeyToken); ok {
		c.token = tok
	}
	if raw, ok := c.getKey(ctx, "bootstrap", KeyPoints); ok {
		if n, err := strconv.Atoi(raw); err != nil {
			c.report("bootstrap", err)
		} else {
			c.points = n
		}
	}
	c.removeKey(ctx, "bootstrap", keyLegacyIssues)
	token := c.token
	c.mu.Unlock()

	if token != "" {
		c.RefreshIssues(ctx)
	}
}

// RefreshIssues fetches the report list and replaces the issue state
// wholesale: the confirmed tier becomes the mapped server list, newest
// first, and all pending optimistic entries are dropped. On any failure the
// current state stays untouched. A Login or Logout that lands while the
// fetch is in flight wins: the stale result is discarded.
func (c *Controller) RefreshIssues(ctx context.Context) {
	c.mu.Lock()
	token := c.token
	gen := c.gen
	c.mu.Unlock()

	reports, err := c.reports.ListReports(ctx, token)
	if err != nil {
		c.report("refreshIssues", err)
		return
	}
	mapped := api.IssuesFromReports(reports, c.publicBaseURL)

	c.mu.Lock()
	if c.gen == gen {
		c.confirmed = mapped
		c.pending = nil
	}
	c.mu.Unlock()
}

// Login installs the authenticated session. In-memory state is set
// unconditionally and never rolled back; persistence is best effort. The
// server point balance is adopted only when the record carries one. Returns
// after triggering a refresh of the issue list.
func (c *Controller) Login(ctx context.Context, user api.UserRecord, token string) {
	c.mu.Lock()
	c.gen++
	c.user = &user
	c.token = token
	if user.Points != nil {
		c.points = *user.Points
		c.setKey(ctx, "login", KeyPoints, strconv.Itoa(c.points))
	}
	if raw, err := json.Marshal(&user); err != nil {
		c.report("login", err)
	} else {
		c.setKey(ctx, "login", KeyUser, string(raw))
	}
	if token != "" {
		c.setKey(ctx, "login", KeyToken, token)
	}
	c.mu.Unlock()

	c.RefreshIssues(ctx)
}

// Logout clears the session. The in-memory clear always succeeds; key
// removal is best effort. The persisted point balance is left in place.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.user = nil
	c.token = ""
	c.confirmed = nil
	c.pending = nil

	c.removeKey(ctx, "logout", KeyUser)
	c.removeKey(ctx, "logout", KeyToken)
}

// AddIssue prepends an optimistic issue and credits its points. Used when a
// submission went through but could not be confirmed by a refresh. Only the
// point total is persisted; the issue list is always rebuilt from the
// service.
func (c *Controller) AddIssue(ctx context.Context, issue api.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append([]api.Issue{issue}, c.pending...)
	c.points += issue.Points
	c.setKey(ctx, "addIssue", KeyPoints, strconv.Itoa(c.points))
}

// UpdatePoints overwrites the point balance, e.g. after a reward purchase
// debits it. The caller is responsible for the value; no validation happens
// here. When a user is set, its embedded points field is updated and
// re-persisted so both representations stay in sync.
func (c *Controller) UpdatePoints(ctx context.Context, newTotal int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.points = newTotal
	c.setKey(ctx, "updatePoints", KeyPoints, strconv.Itoa(newTotal))

	if c.user != nil {
		p := newTotal
		c.user.Points = &p
		if raw, err := json.Marshal(c.user); err != nil {
			c.report("updatePoints", err)
		} else {
			c.setKey(ctx, "updatePoints", KeyUser, string(raw))
		}
	}
}

// SetUserLocation records the last known device location.
func (c *Controller) SetUserLocation(loc *UserLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = loc
}

// User returns a copy of the current user record, or nil when logged out.
func (c *Controller) User() *api.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	if c.user.Points != nil {
		p := *c.user.Points
		u.Points = &p
	}
	return &u
}

func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) Points() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.points
}

func (c *Controller) UserLocation() *UserLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.location == nil {
		return nil
	}
	loc := *c.location
	return &loc
}

// Issues returns the display list: pending optimistic entries first, then
// the confirmed list, both newest first.
func (c *Controller) Issues() []api.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.Issue, 0, len(c.pending)+len(c.confirmed))
	out = append(out, c.pending...)
	out = append(out, c.confirmed...)
	return out
}
