package anim

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultFPS is the frame rate of a Loop when none is configured.
const DefaultFPS = 60

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFPS sets the tick rate. Values below 1 are ignored.
func WithFPS(fps int) LoopOption {
	return func(l *Loop) {
		if fps >= 1 {
			l.fps = fps
		}
	}
}

// WithLoopLogger sets the loop's logger.
func WithLoopLogger(logger *log.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop drives a Session in real time. Run owns the session: it ticks it
// from a ticker and applies commands sent through Do and the helpers built
// on it, all on one goroutine. Frames are published to subscribers on a
// latest-wins basis, so a slow subscriber skips frames instead of stalling
// the loop.
type Loop struct {
	session *Session
	fps     int
	logger  *log.Logger
	cmds    chan command

	mu     sync.Mutex
	latest Frame
	subs   map[int]chan Frame
	nextID int
}

type command struct {
	fn   func(*Session)
	done chan struct{}
}

// NewLoop returns a loop for s. The session must not be used directly once
// Run has started.
func NewLoop(s *Session, opts ...LoopOption) *Loop {
	l := &Loop{
		session: s,
		fps:     DefaultFPS,
		logger:  log.Default(),
		cmds:    make(chan command),
		subs:    make(map[int]chan Frame),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FPS returns the configured frame rate.
func (l *Loop) FPS() int { return l.fps }

// Run ticks the session until ctx is cancelled and returns ctx.Err().
// Session time is the wall-clock time elapsed since Run started.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.fps))
	defer ticker.Stop()
	defer l.closeSubscribers()

	start := time.Now()
	l.logger.Debug("animation loop started", "fps", l.fps)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("animation loop stopped", "elapsed", time.Since(start).Round(time.Millisecond))
			return ctx.Err()
		case c := <-l.cmds:
			c.fn(l.session)
			close(c.done)
		case now := <-ticker.C:
			l.publish(l.session.Tick(now.Sub(start)))
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It returns
// ctx.Err() if ctx ends before the loop accepts the command.
func (l *Loop) Do(ctx context.Context, fn func(*Session)) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case l.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle forwards req to the session.
func (l *Loop) Handle(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return l.Do(ctx, func(s *Session) { s.Handle(req) })
}

// Replay replays the session's last request.
func (l *Loop) Replay(ctx context.Context) error {
	return l.Do(ctx, func(s *Session) { s.Replay() })
}

// Clear empties the session's live packet set.
func (l *Loop) Clear(ctx context.Context) error {
	return l.Do(ctx, func(s *Session) { s.ClearPackets() })
}

// Resize applies a new viewport size.
func (l *Loop) Resize(ctx context.Context, width, height float64) error {
	return l.Do(ctx, func(s *Session) { s.Resize(width, height) })
}

// SetDPR applies a new device pixel ratio.
func (l *Loop) SetDPR(ctx context.Context, dpr float64) error {
	return l.Do(ctx, func(s *Session) { s.SetDPR(dpr) })
}

// Snapshot returns the latest published frame, or the session's static
// frame when nothing has been published yet.
func (l *Loop) Snapshot(ctx context.Context) (Frame, error) {
	if f := l.Latest(); f.Seq > 0 {
		return f, nil
	}
	var f Frame
	err := l.Do(ctx, func(s *Session) { f = s.staticFrame() })
	return f, err
}

// Subscribe returns a channel receiving published frames and a function
// that ends the subscription. The channel is closed when Run returns or the
// subscription ends.
func (l *Loop) Subscribe() (<-chan Frame, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	ch := make(chan Frame, 1)
	l.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if c, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(c)
			}
		})
	}
}

// Latest returns the most recently published frame.
func (l *Loop) Latest() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

func (l *Loop) publish(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest = f
	for _, ch := range l.subs {
		// Drop a stale frame so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

func (l *Loop) closeSubscribers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}
