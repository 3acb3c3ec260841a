package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bmsuite/bms-session-server/internal/models"
	"github.com/rs/zerolog/log"
)

// Defaults per the dashboard's session policy.
const (
	DefaultExtendThreshold = 30 * time.Minute
	DefaultSweepInterval   = 5 * time.Minute
)

// DefaultActivityEvents is the interaction-event vocabulary that counts as
// user activity.
var DefaultActivityEvents = []string{"pointerdown", "pointermove", "keypress", "scroll", "touchstart"}

// SessionReader is the slice of the session store the monitor reads and
// sweeps through.
type SessionReader interface {
	Info(ctx context.Context, scope string) models.SessionInfo
	Clear(ctx context.Context, scope string) error
}

// SessionExtender renews a scope's session (the auth facade).
type SessionExtender interface {
	ExtendSession(ctx context.Context, scope string) error
}

// Options configures a Monitor.
type Options struct {
	Enabled         bool
	ExtendThreshold time.Duration
	SweepInterval   time.Duration
	ActivityEvents  []string
}

type eventKind int

const (
	eventActivity eventKind = iota
	eventVisibility
)

type event struct {
	kind    eventKind
	scope   string
	name    string
	visible bool
}

// Monitor watches client activity to keep live sessions alive and detect
// sessions that died while a tab was backgrounded. All handling runs on a
// single event-loop goroutine, so no two handlers ever execute concurrently.
// Event intake is passive: when the queue is full the event is dropped
// rather than blocking the caller.
type Monitor struct {
	sessions SessionReader
	auth     SessionExtender
	opts     Options

	allowed map[string]struct{}
	events  chan event
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool

	// scopes tracks which scopes have shown activity; owned by the loop
	// goroutine, no locking.
	scopes map[string]struct{}
}

// New creates a Monitor. Zero option fields fall back to the defaults above.
func New(sessions SessionReader, auth SessionExtender, opts Options) *Monitor {
	if opts.ExtendThreshold <= 0 {
		opts.ExtendThreshold = DefaultExtendThreshold
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if len(opts.ActivityEvents) == 0 {
		opts.ActivityEvents = DefaultActivityEvents
	}

	allowed := make(map[string]struct{}, len(opts.ActivityEvents))
	for _, name := range opts.ActivityEvents {
		allowed[name] = struct{}{}
	}

	return &Monitor{
		sessions: sessions,
		auth:     auth,
		opts:     opts,
		allowed:  allowed,
		events:   make(chan event, 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		scopes:   make(map[string]struct{}),
	}
}

// Start launches the event loop. No-op when disabled or already running.
func (m *Monitor) Start() {
	if !m.opts.Enabled {
		return
	}
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.loop()
}

// Stop shuts the loop down and waits for it to release its ticker. Safe to
// call once after Start; no-op if the monitor never ran.
func (m *Monitor) Stop() {
	if !m.started.Load() {
		return
	}
	close(m.stop)
	<-m.done
}

// RecordActivity reports a client interaction event for a scope. Events not
// in the configured vocabulary are ignored inside the loop.
func (m *Monitor) RecordActivity(scope, name string) {
	m.enqueue(event{kind: eventActivity, scope: scope, name: name})
}

// RecordVisibility reports a tab visibility transition for a scope.
func (m *Monitor) RecordVisibility(scope string, visible bool) {
	m.enqueue(event{kind: eventVisibility, scope: scope, visible: visible})
}

func (m *Monitor) enqueue(ev event) {
	if !m.started.Load() {
		return
	}
	select {
	case m.events <- ev:
	default:
		// Queue full; activity reporting must never block the client path.
	}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case ev := <-m.events:
			switch ev.kind {
			case eventActivity:
				m.handleActivity(ev.scope, ev.name)
			case eventVisibility:
				m.handleVisibility(ev.scope, ev.visible)
			}
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// handleActivity extends the scope's session when it is live but close to
// the timeout. Above the threshold, activity is a no-op.
func (m *Monitor) handleActivity(scope, name string) {
	if _, ok := m.allowed[name]; !ok {
		return
	}
	m.scopes[scope] = struct{}{}

	ctx := context.Background()
	info := m.sessions.Info(ctx, scope)
	if !info.HasSession || info.IsExpired || info.TimeRemaining <= 0 {
		return
	}
	if info.TimeRemaining >= m.opts.ExtendThreshold {
		return
	}

	log.Info().
		Str("scope", scope).
		Str("event", name).
		Dur("remaining", info.TimeRemaining).
		Msg("Extending session on activity")
	if err := m.auth.ExtendSession(ctx, scope); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to extend session")
	}
}

// handleVisibility flags sessions that expired while the tab was hidden.
// Whether to force a re-login is the caller's decision, not the monitor's.
func (m *Monitor) handleVisibility(scope string, visible bool) {
	if !visible {
		return
	}
	m.scopes[scope] = struct{}{}

	info := m.sessions.Info(context.Background(), scope)
	if info.HasSession && info.IsExpired {
		log.Warn().Str("scope", scope).Msg("Session expired while tab was inactive")
	}
}

// sweep proactively clears expired sessions for every tracked scope and
// forgets scopes that no longer hold a session.
func (m *Monitor) sweep() {
	ctx := context.Background()
	for scope := range m.scopes {
		info := m.sessions.Info(ctx, scope)
		if !info.HasSession {
			delete(m.scopes, scope)
			continue
		}
		if info.IsExpired {
			log.Info().Str("scope", scope).Msg("Sweep found expired session, clearing")
			if err := m.sessions.Clear(ctx, scope); err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("Failed to clear expired session")
				continue
			}
			delete(m.scopes, scope)
		}
	}
}

// ExtendSession is a pass-through to the auth facade.
func (m *Monitor) ExtendSession(ctx context.Context, scope string) error {
	return m.auth.ExtendSession(ctx, scope)
}

// SessionInfo is a pass-through to the session store.
func (m *Monitor) SessionInfo(ctx context.Context, scope string) models.SessionInfo {
	return m.sessions.Info(ctx, scope)
}

// ClearSession is a pass-through to the session store.
func (m *Monitor) ClearSession(ctx context.Context, scope string) error {
	return m.sessions.Clear(ctx, scope)
}
