package localfiles

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/grovetools/projsync/pkg/reactive"
	"github.com/sirupsen/logrus"
)

// Stage is the bridge's position in its load cycle.
type Stage int

const (
	// Uninitialized means no refresh has succeeded and none is running.
	Uninitialized Stage = iota
	// Loading means a provider request is outstanding.
	Loading
	// Ready means data from a successful refresh is available.
	Ready
)

func (s Stage) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Status describes the bridge's load state.
type Status struct {
	Stage Stage
	// Loaded is true once any refresh has succeeded.
	Loaded bool
	// Err is the most recent failure; cleared by the next success.
	Err         error
	RefreshedAt time.Time
	// Generation identifies the request whose data is currently published.
	Generation uint64
}

// Stale reports whether the published data predates a failed refresh.
func (s Status) Stale() bool {
	return s.Loaded && s.Err != nil
}

// request is one provider call. Waiters on a superseded request follow next.
type request struct {
	gen     uint64
	done    chan struct{}
	err     error
	next    *request
	waiters int // guarded by Bridge.mu
}

// Bridge owns the asynchronous handshake with a Provider and publishes the
// resulting inventory.
//
// At most one request is joined by Refresh; Reload always issues a new one and
// supersedes whatever is outstanding. Only the newest issued request may
// publish, so a slow older response never overwrites newer data.
type Bridge struct {
	provider Provider
	logger   *logrus.Entry

	files  *reactive.Store[models.ProjectFileMapping]
	status *reactive.Store[Status]

	mu          sync.Mutex
	issued      uint64
	applied     uint64
	inflight    *request
	data        models.ProjectFileMapping
	loaded      bool
	lastErr     error
	refreshedAt time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBridge creates an Uninitialized bridge over p.
func NewBridge(p Provider, opts ...Option) *Bridge {
	b := &Bridge{
		provider: p,
		logger:   logrus.NewEntry(logrus.StandardLogger()),
		files:    reactive.New[models.ProjectFileMapping](nil),
		status:   reactive.New(Status{Stage: Uninitialized}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Files exposes the published inventory. Published mappings are copies of the
// bridge's state and must be treated as read-only.
func (b *Bridge) Files() reactive.Readable[models.ProjectFileMapping] {
	return b.files
}

// Status exposes the load state.
func (b *Bridge) Status() reactive.Readable[Status] {
	return b.status
}

// Provider returns the underlying provider.
func (b *Bridge) Provider() Provider {
	return b.provider
}

// Refresh loads the inventory, joining the outstanding request if there is one.
// Cancelling ctx stops the wait, not the request.
func (b *Bridge) Refresh(ctx context.Context) error {
	b.mu.Lock()
	req := b.inflight
	joined := req != nil
	if !joined {
		req = b.issueLocked(ctx)
	}
	req.waiters++
	waiters := req.waiters
	b.mu.Unlock()

	if joined {
		b.logger.WithFields(logrus.Fields{
			"generation": req.gen,
			"waiters":    waiters,
		}).Debug("Joining in-flight inventory request")
	} else {
		b.publishStatus()
	}
	return b.wait(ctx, req)
}

// Reload issues a new request even if one is outstanding. The older request's
// result is discarded when it arrives, and its waiters receive this one's.
func (b *Bridge) Reload(ctx context.Context) error {
	b.mu.Lock()
	req := b.issueLocked(ctx)
	req.waiters++
	b.mu.Unlock()

	b.publishStatus()
	return b.wait(ctx, req)
}

func (b *Bridge) issueLocked(ctx context.Context) *request {
	b.issued++
	req := &request{gen: b.issued, done: make(chan struct{})}
	if prev := b.inflight; prev != nil {
		prev.next = req
		b.logger.WithFields(logrus.Fields{
			"superseded": prev.gen,
			"generation": req.gen,
		}).Debug("Superseding in-flight inventory request")
	}
	b.inflight = req

	go b.run(context.WithoutCancel(ctx), req)
	return req
}

func (b *Bridge) run(ctx context.Context, req *request) {
	start := time.Now()
	data, err := b.provider.FetchAllLocalFiles(ctx)
	switch {
	case err != nil:
		if !errors.Is(err, errors.ErrCodeProviderUnavailable) && !errors.Is(err, errors.ErrCodeMalformedResponse) {
			err = errors.ProviderUnavailable(b.provider.Name(), err)
		}
	default:
		if verr := data.Validate(); verr != nil {
			err = errors.MalformedResponse(b.provider.Name(), verr)
		}
	}

	// data must not be read after finish hands it to the waiters.
	log := b.logger.WithFields(logrus.Fields{
		"generation": req.gen,
		"duration":   time.Since(start),
		"projects":   len(data),
		"files":      data.FileCount(),
	})
	if b.finish(req, data, err) {
		if err != nil {
			log.WithError(err).Warn("Local inventory refresh failed, keeping previous data")
		} else {
			log.Debug("Local inventory refreshed")
		}
	} else {
		log.Debug("Discarding superseded inventory response")
	}
}

// finish records the outcome of req and reports whether it was applied.
func (b *Bridge) finish(req *request, data models.ProjectFileMapping, err error) bool {
	b.mu.Lock()
	if b.inflight != req {
		// A newer request was issued; its waiters get its outcome.
		close(req.done)
		b.mu.Unlock()
		return false
	}

	b.inflight = nil
	req.err = err
	if err == nil {
		b.data = data.Clone()
		b.applied = req.gen
		b.loaded = true
		b.lastErr = nil
		b.refreshedAt = time.Now()
	} else {
		b.lastErr = err
	}
	b.mu.Unlock()

	// Waiters are released only once subscribers have seen the outcome.
	if err == nil {
		b.publishFiles()
	}
	b.publishStatus()
	close(req.done)
	return true
}

func (b *Bridge) wait(ctx context.Context, req *request) error {
	for {
		select {
		case <-req.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if req.next == nil {
			return req.err
		}
		req = req.next
	}
}

// publishFiles and publishStatus read the bridge state inside the store's
// update so concurrent publishers can only ever leave the newest state behind.
func (b *Bridge) publishFiles() {
	b.files.Update(func(models.ProjectFileMapping) models.ProjectFileMapping {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.data.Clone()
	})
}

func (b *Bridge) publishStatus() {
	b.status.Update(func(Status) Status {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.statusLocked()
	})
}

// inflightWaiters returns how many Refresh and Reload calls are waiting on
// the outstanding request.
func (b *Bridge) inflightWaiters() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inflight == nil {
		return 0
	}
	return b.inflight.waiters
}

func (b *Bridge) statusLocked() Status {
	st := Status{
		Loaded:      b.loaded,
		Err:         b.lastErr,
		RefreshedAt: b.refreshedAt,
		Generation:  b.applied,
	}
	switch {
	case b.inflight != nil:
		st.Stage = Loading
	case b.loaded:
		st.Stage = Ready
	default:
		st.Stage = Uninitialized
	}
	return st
}

// Watch reloads the inventory every time n reports a change, until ctx is
// cancelled or the change stream ends. Bursts of events collapse into one reload.
func (b *Bridge) Watch(ctx context.Context, n Notifier) error {
	events, err := n.Changes(ctx)
	if err != nil {
		return errors.ProviderUnavailable(b.provider.Name(), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
		drain:
			for {
				select {
				case _, ok := <-events:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if err := b.Reload(ctx); err != nil && ctx.Err() == nil {
				b.logger.WithError(err).Warn("Reload after change notification failed")
			}
		}
	}
}
