package netstatus

import (
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Monitor answers the single question the send flow asks at failure time:
// is the client online right now. Offline means fail immediately, no
// automatic retries.
type Monitor interface {
	Online() bool
}

// Static is a fixed connectivity state, used by tests.
type Static bool

func (s Static) Online() bool { return bool(s) }

// Prober checks backend reachability with lightweight HEAD probes and caches
// the answer briefly so a retry loop does not hammer the health endpoint.
type Prober struct {
	url        string
	clock      clockwork.Clock
	httpClient *http.Client

	mutex     sync.Mutex
	online    bool
	checkedAt time.Time
}

const probeCacheWindow = 5 * time.Second

func NewProber(healthURL string, clock clockwork.Clock) *Prober {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Prober{
		url:    healthURL,
		clock:  clock,
		online: true,
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (p *Prober) Online() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := p.clock.Now()
	if !p.checkedAt.IsZero() && now.Sub(p.checkedAt) < probeCacheWindow {
		return p.online
	}

	resp, err := p.httpClient.Head(p.url)
	if err != nil {
		p.online = false
	} else {
		resp.Body.Close()
		p.online = resp.StatusCode < 500
	}
	p.checkedAt = now
	return p.online
}
