package server

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/packetflow/pkg/anim"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// liveSession is one running animation loop.
type liveSession struct {
	id      uuid.UUID
	loop    *anim.Loop
	policy  anim.PendingPolicy
	created time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	lastUsed time.Time
}

func (ls *liveSession) touch() {
	ls.mu.Lock()
	ls.lastUsed = time.Now()
	ls.mu.Unlock()
}

func (ls *liveSession) idleSince() time.Time {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.lastUsed
}

func (ls *liveSession) stop() {
	ls.cancel()
	<-ls.done
}

// registry holds the live sessions of a server.
type registry struct {
	logger *log.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*liveSession
}

func newRegistry(logger *log.Logger) *registry {
	return &registry{logger: logger, sessions: make(map[uuid.UUID]*liveSession)}
}

// create starts a loop for a new session. The loop runs until the session is
// deleted or reaped, independent of the request that created it.
func (r *registry) create(surface *topology.Surface, policy anim.PendingPolicy, fps int) *liveSession {
	id := uuid.New()
	logger := r.logger.With("session", id.String()[:8])
	sess := anim.NewSession(surface, anim.WithPendingPolicy(policy), anim.WithLogger(logger))
	loop := anim.NewLoop(sess, anim.WithFPS(fps), anim.WithLoopLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	ls := &liveSession{
		id:       id,
		loop:     loop,
		policy:   policy,
		created:  now,
		lastUsed: now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(ls.done)
		_ = loop.Run(ctx)
	}()

	r.mu.Lock()
	r.sessions[id] = ls
	r.mu.Unlock()
	r.logger.Debug("session created", "id", id, "policy", policy, "fps", fps)
	return ls
}

// get returns the session with the given ID and marks it used.
func (r *registry) get(raw string) (*liveSession, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pferrors.New(pferrors.ErrCodeInvalidInput, "invalid session id %q", raw)
	}
	r.mu.RLock()
	ls, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, pferrors.New(pferrors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	ls.touch()
	return ls, nil
}

// remove stops and forgets a session.
func (r *registry) remove(raw string) error {
	ls, err := r.get(raw)
	if err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.sessions, ls.id)
	r.mu.Unlock()
	ls.stop()
	r.logger.Debug("session deleted", "id", ls.id)
	return nil
}

// list returns the live sessions ordered by creation time.
func (r *registry) list() []*liveSession {
	r.mu.RLock()
	out := make([]*liveSession, 0, len(r.sessions))
	for _, ls := range r.sessions {
		out = append(out, ls)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *liveSession) int { return a.created.Compare(b.created) })
	return out
}

// reap stops sessions unused for longer than idle and returns how many.
func (r *registry) reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	var stale []*liveSession

	r.mu.Lock()
	for id, ls := range r.sessions {
		if ls.idleSince().Before(cutoff) {
			stale = append(stale, ls)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, ls := range stale {
		ls.stop()
	}
	if len(stale) > 0 {
		r.logger.Info("reaped idle sessions", "count", len(stale), "idle", idle)
	}
	return len(stale)
}

func (r *registry) reapEvery(ctx context.Context, every, idle time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reap(idle)
		}
	}
}

func (r *registry) closeAll() {
	r.mu.Lock()
	all := make([]*liveSession, 0, len(r.sessions))
	for id, ls := range r.sessions {
		all = append(all, ls)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, ls := range all {
		ls.stop()
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
