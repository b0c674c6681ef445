package client

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"city-relay-server/domain"
)

// Publisher throttles local transform updates. Publish keeps only the most
// recent snapshot; Run emits at most limit updates per second, each carrying
// only the fields that changed since the previous emission.
type Publisher struct {
	limiter *rate.Limiter
	notify  chan struct{}

	mu      sync.Mutex
	latest  domain.TransformSnapshot
	pending bool
	seen    bool
	last    *domain.TransformSnapshot
}

func NewPublisher(limit rate.Limit, burst int) *Publisher {
	return &Publisher{
		limiter: rate.NewLimiter(limit, burst),
		notify:  make(chan struct{}, 1),
	}
}

// Publish never blocks.
func (p *Publisher) Publish(s domain.TransformSnapshot) {
	p.mu.Lock()
	p.latest = s
	p.pending = true
	p.seen = true
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Reset forgets the last emission so the next one carries every field.
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = nil
	p.pending = p.seen
}

// Run delivers pending updates through send until ctx is done or send fails.
func (p *Publisher) Run(ctx context.Context, send func(domain.PartialSnapshot) error) error {
	p.mu.Lock()
	if p.pending {
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
	p.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.notify:
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		update, snapshot, ok := p.take()
		if !ok {
			continue
		}
		if err := send(update); err != nil {
			return err
		}
		p.commit(snapshot)
	}
}

func (p *Publisher) take() (domain.PartialSnapshot, domain.TransformSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pending {
		return domain.PartialSnapshot{}, domain.TransformSnapshot{}, false
	}
	p.pending = false

	s := p.latest
	if p.last == nil {
		return s.Full(), s, true
	}
	update := s.Diff(*p.last)
	if update.Empty() {
		return update, s, false
	}
	return update, s, true
}

func (p *Publisher) commit(s domain.TransformSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &s
}
