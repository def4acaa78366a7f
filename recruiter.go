package talent

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-talent-session/notify"
)

const (
	msgDashboardFailed  = "Failed to load dashboard data"
	msgCandidateRemoved = "Candidate removed from shortlist"
)

// DashboardState holds the recruiter account and its shortlist
type DashboardState struct {
	Account   *Profile
	Shortlist []ShortlistEntry
	Loading   bool
	Error     string
}

// RecruiterDesk loads the recruiter dashboard data
type RecruiterDesk struct {
	api      RecruiterAPI
	notifier Notifier
	logger   Logger
	timeout  time.Duration

	mu         sync.RWMutex
	state      DashboardState
	generation uint64
}

// NewRecruiterDesk returns a desk in the loading state
func NewRecruiterDesk(api RecruiterAPI) *RecruiterDesk {
	return &RecruiterDesk{
		api:      api,
		notifier: noopNotifier{},
		logger:   defLogger{},
		timeout:  notify.DefaultTimeout,
		state:    DashboardState{Loading: true},
	}
}

func (d *RecruiterDesk) WithNotifier(notifier Notifier) *RecruiterDesk {
	if notifier != nil {
		d.notifier = notifier
	}
	return d
}

func (d *RecruiterDesk) WithLogger(logger Logger) *RecruiterDesk {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// State returns a copy of the dashboard state
func (d *RecruiterDesk) State() DashboardState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := d.state
	out.Shortlist = append([]ShortlistEntry(nil), d.state.Shortlist...)
	return out
}

// Load fetches the recruiter account, then the shortlist. Any failure
// leaves a single dashboard error.
func (d *RecruiterDesk) Load(ctx context.Context) bool {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.state.Loading = true
	d.state.Error = ""
	d.mu.Unlock()

	account, err := d.api.RecruiterAccount(ctx)
	if err != nil {
		return d.fail(gen, err)
	}

	shortlist, err := d.api.Shortlist(ctx)
	if err != nil {
		return d.fail(gen, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return false
	}
	d.state = DashboardState{
		Account:   account,
		Shortlist: shortlist,
	}
	return true
}

// Clear drops the account and shortlist. Wired to session logout; a load
// still in flight is discarded.
func (d *RecruiterDesk) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.state = DashboardState{}
}

// Remove drops a shortlist entry from the local view. Unknown ids are ignored.
func (d *RecruiterDesk) Remove(id string) bool {
	d.mu.Lock()
	removed := false
	for i, entry := range d.state.Shortlist {
		if entry.ID == id {
			d.state.Shortlist = append(d.state.Shortlist[:i], d.state.Shortlist[i+1:]...)
			removed = true
			break
		}
	}
	d.mu.Unlock()

	if removed {
		d.notifier.Push(msgCandidateRemoved, notify.SeveritySuccess, d.timeout)
	}
	return removed
}

func (d *RecruiterDesk) fail(gen uint64, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return false
	}
	d.logger.Error("load recruiter dashboard: %v", err)
	d.state.Loading = false
	d.state.Error = msgDashboardFailed
	return false
}
