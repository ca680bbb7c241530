package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"fundbridge/pkg/logger"
	"fundbridge/pkg/metrics"
)

// TypingIndicator is the composer-side heartbeat. While the user keeps
// typing, is_typing=true goes out at most once per throttle interval; after
// the idle window with no further keystrokes, is_typing=false goes out
// exactly once. Sending a message clears the signal immediately.
type TypingIndicator struct {
	client     TypingClient
	clock      clockwork.Clock
	metrics    *metrics.Metrics
	receiverID string
	throttle   time.Duration
	idleWindow time.Duration

	mutex      sync.Mutex
	active     bool
	lastSignal time.Time
	idleTimer  clockwork.Timer
	closed     bool
}

func NewTypingIndicator(client TypingClient, clock clockwork.Clock, m *metrics.Metrics, receiverID string, throttle, idleWindow time.Duration) *TypingIndicator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if throttle <= 0 {
		throttle = time.Second
	}
	if idleWindow <= 0 {
		idleWindow = 2 * time.Second
	}
	return &TypingIndicator{
		client:     client,
		clock:      clock,
		metrics:    m,
		receiverID: receiverID,
		throttle:   throttle,
		idleWindow: idleWindow,
	}
}

// NoteActivity records a keystroke. The true signal is throttled; the idle
// timer is pushed out on every call.
func (t *TypingIndicator) NoteActivity(ctx context.Context) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return
	}

	now := t.clock.Now()
	if !t.active || now.Sub(t.lastSignal) >= t.throttle {
		t.signalLocked(ctx, true)
		t.lastSignal = now
		t.active = true
	}

	if t.idleTimer == nil {
		t.idleTimer = t.clock.AfterFunc(t.idleWindow, t.expire)
	} else {
		t.idleTimer.Reset(t.idleWindow)
	}
}

// expire fires after the idle window with no keystrokes.
func (t *TypingIndicator) expire() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed || !t.active {
		return
	}
	t.signalLocked(context.Background(), false)
	t.active = false
}

// Clear sends is_typing=false immediately, used when a message goes out.
func (t *TypingIndicator) Clear(ctx context.Context) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closed {
		return
	}
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	if t.active {
		t.signalLocked(ctx, false)
		t.active = false
	}
}

// Close tears the indicator down without signalling; timers are cleared.
func (t *TypingIndicator) Close() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.closed = true
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
}

func (t *TypingIndicator) signalLocked(ctx context.Context, isTyping bool) {
	if err := t.client.UpdateTypingIndicator(ctx, t.receiverID, isTyping); err != nil {
		// Typing is best effort; a dropped signal self-heals on the next
		// keystroke or expiry.
		logger.Debug("typing signal failed: %v", err)
		return
	}
	t.metrics.TypingSignals.Inc()
}

// TypingPoller reads the peer's typing state on an interval. The indicator it
// feeds is eventually consistent within one polling interval.
type TypingPoller struct {
	client   TypingClient
	clock    clockwork.Clock
	peerID   string
	interval time.Duration

	mutex      sync.Mutex
	peerTyping bool

	stop     chan struct{}
	stopOnce sync.Once
}

func NewTypingPoller(client TypingClient, clock clockwork.Clock, peerID string, interval time.Duration) *TypingPoller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &TypingPoller{
		client:   client,
		clock:    clock,
		peerID:   peerID,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (p *TypingPoller) Start(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				p.pollOnce(ctx)
			}
		}
	}()
}

func (p *TypingPoller) pollOnce(ctx context.Context) {
	state, err := p.client.GetTypingStatus(ctx, p.peerID)
	if err != nil {
		logger.Debug("typing poll failed: %v", err)
		return
	}
	p.setPeerTyping(state.IsTyping)
}

func (p *TypingPoller) setPeerTyping(v bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.peerTyping = v
}

func (p *TypingPoller) PeerTyping() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.peerTyping
}

func (p *TypingPoller) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}
