package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hidectl/internal/models"
	"hidectl/internal/ranking"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by operations on a closed engine
var ErrClosed = errors.New("engine closed")

// DefaultTimeout bounds one background load or mutation
const DefaultTimeout = 2 * time.Minute

// Loader produces the application catalog
type Loader interface {
	Load(ctx context.Context) ([]models.AppEntry, error)
}

// Gateway reads and mutates the hide-list
type Gateway interface {
	List(ctx context.Context) (models.HideSet, error)
	Set(ctx context.Context, pkg string, hidden bool) error
}

// Options configures an Engine
type Options struct {
	Logger  *log.Logger
	Timeout time.Duration
}

// toggle is the latest local intent for one package
type toggle struct {
	hidden  bool   // Requested membership
	prev    bool   // Membership to restore if the mutation fails
	seq     uint64 // Logical time the toggle was made
	settled uint64 // Logical time the gateway confirmed it (0 while pending)
	pending bool   // Gateway has not answered yet
}

// Engine owns the published ViewState. All state changes go through mu
// and end in a publish; readers use Snapshot without locking.
type Engine struct {
	loader  Loader
	gateway Gateway
	logger  *log.Logger
	timeout time.Duration

	reloads singleflight.Group
	wg      sync.WaitGroup

	mu        sync.Mutex
	catalog   []models.AppEntry
	hidden    models.HideSet
	toggles   map[string]*toggle
	filter    string
	clock     uint64
	version   uint64
	closed    bool
	lastMut   chan struct{} // Completion of the most recently queued mutation
	listeners []func(*models.ViewState)
	statusFns []func(Status)

	view atomic.Pointer[models.ViewState]

	notifyMu  sync.Mutex
	delivered uint64
}

// New creates an engine. Nothing is loaded until Reload or Refresh.
func New(loader Loader, gateway Gateway, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	e := &Engine{
		loader:  loader,
		gateway: gateway,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		hidden:  models.NewHideSet(),
		toggles: make(map[string]*toggle),
	}
	e.view.Store(&models.ViewState{})
	return e
}

// Snapshot returns the current published ViewState
func (e *Engine) Snapshot() *models.ViewState {
	return e.view.Load()
}

// Count returns the number of rows in the current ViewState
func (e *Engine) Count() int {
	return e.Snapshot().Len()
}

// Entry returns row i of the current ViewState
func (e *Engine) Entry(i int) (models.ViewEntry, bool) {
	return e.Snapshot().At(i)
}

// Subscribe registers fn to be called after each publish.
// Calls are serialized in increasing version order; a delivery older than one
// already delivered is dropped. fn must not call back into the engine.
func (e *Engine) Subscribe(fn func(*models.ViewState)) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// OnStatus registers fn to receive load and mutation outcomes
func (e *Engine) OnStatus(fn func(Status)) {
	e.mu.Lock()
	e.statusFns = append(e.statusFns, fn)
	e.mu.Unlock()
}

// SetFilter changes the filter text and republishes
func (e *Engine) SetFilter(text string) {
	e.mu.Lock()
	if e.closed || text == e.filter {
		e.mu.Unlock()
		return
	}
	e.filter = text
	v, fns := e.publishLocked()
	e.mu.Unlock()

	e.notify(v, fns)
}

// Refresh starts a background reload
func (e *Engine) Refresh() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		_ = e.Reload(ctx)
	}()
}

// Reload loads the catalog and hide-list and publishes the result.
// Concurrent calls share one in-flight load.
func (e *Engine) Reload(ctx context.Context) error {
	_, err, _ := e.reloads.Do("reload", func() (any, error) {
		return nil, e.reload(ctx)
	})
	return err
}

func (e *Engine) reload(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	start := e.clock
	e.mu.Unlock()

	var (
		catalog []models.AppEntry
		hidden  models.HideSet
		catErr  error
		hideErr error
		loads   sync.WaitGroup
	)
	loads.Add(2)
	go func() {
		defer loads.Done()
		catalog, catErr = e.loader.Load(ctx)
	}()
	go func() {
		defer loads.Done()
		hidden, hideErr = e.gateway.List(ctx)
	}()
	loads.Wait()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Debug("discarding reload result after close")
		return nil
	}

	if catErr != nil {
		fns := e.statusFns
		e.mu.Unlock()
		e.logger.Error("catalog load failed", "err", catErr)
		e.report(fns, Status{Kind: StatusError, Op: OpReload, Err: catErr})
		return catErr
	}

	var warn error
	switch {
	case hideErr != nil:
		warn = hideErr
		hidden = models.NewHideSet()
	case hidden == nil:
		hidden = models.NewHideSet()
	default:
		hidden = hidden.Clone()
	}

	// Local intent newer than this load, or still in flight, wins over the fetched list
	for pkg, t := range e.toggles {
		if t.pending || t.seq > start || t.settled > start {
			hidden.Set(pkg, t.hidden)
			continue
		}
		delete(e.toggles, pkg)
	}

	e.catalog = catalog
	e.hidden = hidden
	v, fns := e.publishLocked()
	statusFns := e.statusFns
	e.mu.Unlock()

	e.notify(v, fns)
	if warn != nil {
		e.logger.Warn("hide-list unavailable, showing nothing as hidden", "err", warn)
		e.report(statusFns, Status{Kind: StatusWarning, Op: OpReload, Err: warn})
		return nil
	}
	e.logger.Debug("reload applied", "apps", len(catalog), "hidden", len(hidden), "version", v.Version)
	e.report(statusFns, Status{Kind: StatusInfo, Op: OpReload, Message: fmt.Sprintf("Loaded %d apps, %d hidden", len(catalog), v.HiddenCount())})
	return nil
}

// Toggle requests pkg to be hidden or shown. The ViewState reflects the
// request immediately; a failed mutation is rolled back and reported
// through OnStatus.
func (e *Engine) Toggle(pkg string, hidden bool) error {
	if !models.ValidPackageID(pkg) {
		return fmt.Errorf("invalid package id %q", pkg)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}

	cur := e.hidden.Has(pkg)
	prev := cur
	if t, ok := e.toggles[pkg]; ok && t.pending {
		if t.hidden == hidden {
			e.mu.Unlock()
			return nil
		}
		// Restore target stays the last state the gateway is known to hold
		prev = t.prev
	} else if cur == hidden {
		e.mu.Unlock()
		return nil
	}

	e.clock++
	seq := e.clock
	e.toggles[pkg] = &toggle{hidden: hidden, prev: prev, seq: seq, pending: true}
	e.hidden.Set(pkg, hidden)
	v, fns := e.publishLocked()

	// Mutations run in request order
	wait := e.lastMut
	done := make(chan struct{})
	e.lastMut = done
	e.mu.Unlock()

	e.notify(v, fns)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(done)
		if wait != nil {
			<-wait
		}
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		err := e.gateway.Set(ctx, pkg, hidden)
		e.settle(pkg, seq, hidden, err)
	}()
	return nil
}

// settle applies the gateway answer for the toggle made at seq
func (e *Engine) settle(pkg string, seq uint64, hidden bool, err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	t, ok := e.toggles[pkg]
	if !ok {
		e.mu.Unlock()
		return
	}
	if t.seq != seq {
		// Superseded; only its effect on the device matters now
		if err == nil {
			t.prev = hidden
		}
		e.mu.Unlock()
		return
	}

	if err != nil {
		e.hidden.Set(pkg, t.prev)
		delete(e.toggles, pkg)
	} else {
		e.clock++
		t.settled = e.clock
		t.pending = false
	}
	v, fns := e.publishLocked()
	statusFns := e.statusFns
	e.mu.Unlock()

	e.notify(v, fns)
	if err != nil {
		e.logger.Error("hide-list mutation failed, reverted", "package", pkg, "hidden", hidden, "err", err)
		e.report(statusFns, Status{Kind: StatusError, Op: OpToggle, Package: pkg, Err: err})
		return
	}
	e.logger.Info("hide-list updated", "package", pkg, "hidden", hidden)
	e.report(statusFns, Status{Kind: StatusInfo, Op: OpToggle, Package: pkg, Message: toggleMessage(pkg, hidden)})
}

// State returns the hide state of pkg as currently tracked
func (e *Engine) State(pkg string) models.HideState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(pkg)
}

func (e *Engine) stateLocked(pkg string) models.HideState {
	if t, ok := e.toggles[pkg]; ok && t.pending {
		if t.hidden {
			return models.PendingHide
		}
		return models.PendingUnhide
	}
	if e.hidden.Has(pkg) {
		return models.Hidden
	}
	return models.Visible
}

// publishLocked builds and stores a new ViewState. Caller holds mu.
func (e *Engine) publishLocked() (*models.ViewState, []func(*models.ViewState)) {
	e.version++
	v := ranking.Build(e.version, e.catalog, e.stateLocked, e.filter)
	e.view.Store(v)
	return v, e.listeners
}

func (e *Engine) notify(v *models.ViewState, fns []func(*models.ViewState)) {
	e.notifyMu.Lock()
	if v.Version <= e.delivered {
		e.notifyMu.Unlock()
		return
	}
	e.delivered = v.Version
	defer e.notifyMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (e *Engine) report(fns []func(Status), s Status) {
	for _, fn := range fns {
		fn(s)
	}
}

// Wait blocks until background reloads and mutations have finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close detaches the engine from its consumers. Work already in flight
// runs to completion but its results are discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.listeners = nil
	e.statusFns = nil
	e.mu.Unlock()
}

func toggleMessage(pkg string, hidden bool) string {
	if hidden {
		return "Hidden " + pkg
	}
	return "Unhidden " + pkg
}
