package poll

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/parlorgames/parlor/internal/message"
)

// DefaultInterval matches the board's expected polling cadence.
const DefaultInterval = time.Second

// Fetcher retrieves the board's full log, newest first.
type Fetcher interface {
	FetchRecords(ctx context.Context) ([]message.Record, error)
}

// Poller periodically fetches the log and publishes records it has not
// seen before, oldest first. Each record id is marked seen exactly once,
// immediately before delivery, so overlapping cycles can never deliver
// a record twice. Marking and delivery happen under one mutex, so no
// record can be published out of chronological order into the middle of
// another cycle's deliveries.
//
// Push sources do not inject records directly; they call Wake so the
// next cycle runs immediately and delivers everything new in log order.
type Poller struct {
	fetcher  Fetcher
	bus      *Bus
	interval time.Duration
	wake     chan struct{}

	// mu guards seen and serializes delivery to the bus.
	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates a poller publishing to bus. A non-positive interval falls
// back to DefaultInterval.
func New(fetcher Fetcher, bus *Bus, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		bus:      bus,
		interval: interval,
		wake:     make(chan struct{}, 1),
		seen:     make(map[string]struct{}),
	}
}

// Poll runs one fetch-and-deliver cycle. On fetch failure no record is
// marked seen; the next cycle retries the whole log.
func (p *Poller) Poll(ctx context.Context) error {
	records, err := p.fetcher.FetchRecords(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Newest first on the wire; deliver oldest first.
	for i := len(records) - 1; i >= 0; i-- {
		p.ingestLocked(records[i])
	}
	return nil
}

// Ingest publishes one record unless its id was already seen. It blocks
// while another cycle is delivering, so an ingested record can never
// land between two older records of that cycle. Must not be called from
// a bus subscriber.
func (p *Poller) Ingest(rec message.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ingestLocked(rec)
}

func (p *Poller) ingestLocked(rec message.Record) {
	if _, ok := p.seen[rec.ID]; ok {
		return
	}
	p.seen[rec.ID] = struct{}{}
	p.bus.Publish(message.Decode(rec))
}

// Wake requests an immediate poll cycle from Run. Wakes coalesce; at
// most one extra cycle is pending at a time.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. The first cycle runs immediately so
// startup replay happens before the first interval elapses. Fetch
// failures are logged and skipped; staleness is expected.
func (p *Poller) Run(ctx context.Context) {
	if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		log.Printf("poll cycle failed: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-ticker.C:
		}
		if err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("poll cycle failed: %v", err)
		}
	}
}
