package poller

import (
	"context"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/aamersadiq/cart-pricing/internal/cache"
	"github.com/aamersadiq/cart-pricing/internal/domain"
	"github.com/aamersadiq/cart-pricing/internal/events"
	"github.com/aamersadiq/cart-pricing/internal/repository"
)

// messageReader is the slice of *kafka.Reader the poller uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller consumes checkout completion events and drops the completed owner's
// cart from both storage and cache.
type Poller struct {
	repo   repository.CartRepository
	reader messageReader
	cache  cache.CartCache
}

func NewPoller(repo repository.CartRepository, cartCache cache.CartCache, brokers []string, group string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    events.TopicCheckoutCompleted,
		GroupID:  group,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{repo: repo, reader: reader, cache: cartCache}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("poller: read message: %v", err)
			}
			continue
		}
		p.handleMessage(ctx, m)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("poller: close reader: %v", err)
	}
}

func (p *Poller) handleMessage(ctx context.Context, m kafka.Message) {
	var env events.Envelope
	if err := events.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Printf("poller: parse message: %v", err)
		return
	}

	payload, err := events.UnwrapPayload[events.CheckoutCompletedPayload](env.Payload)
	if err != nil {
		log.Printf("poller: decode payload: %v", err)
		return
	}

	owner := domain.Actor{UserID: payload.UserID, SessionID: payload.SessionID}
	if err := owner.Validate(); err != nil {
		log.Printf("poller: checkout %s: %v", payload.CheckoutID, err)
		return
	}

	if err := p.repo.Delete(ctx, owner); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("poller: delete cart: %v", err)
	}
	if err := p.cache.Delete(ctx, owner); err != nil {
		log.Printf("poller: delete cache: %v", err)
	}
}
