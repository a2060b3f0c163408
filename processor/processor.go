// Package processor consumes the order queue and advances order state.
package processor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"abcretail/domain"
	"abcretail/storage"
)

// Store is the slice of the storage gateway the processor uses.
type Store interface {
	Dequeue(ctx context.Context, queue string) (*storage.QueueMessage, error)
	Ack(ctx context.Context, queue, id, popReceipt string) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o domain.Order) error
}

// Run polls the order queue until ctx is cancelled, marking each
// referenced order as processing. A message is acknowledged only after
// the table write succeeds; on failure it reappears once its visibility
// timeout lapses.
func Run(ctx context.Context, store Store, idle time.Duration) {
	for {
		msg, err := store.Dequeue(ctx, storage.QueueOrders)
		if err != nil {
			log.Errorf("dequeue: %v", err)
			if !sleep(ctx, idle) {
				return
			}
			continue
		}
		if msg == nil {
			if !sleep(ctx, idle) {
				return
			}
			continue
		}

		if err := processOne(ctx, store, msg.Text); err != nil {
			log.Errorf("process order %s: %v", msg.Text, err)
			continue
		}
		if err := store.Ack(ctx, storage.QueueOrders, msg.ID, msg.PopReceipt); err != nil {
			log.Errorf("ack order %s: %v", msg.Text, err)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func processOne(ctx context.Context, store Store, orderID string) error {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		// The order was deleted after it was enqueued; drop the message.
		log.Warnf("order %s not found, dropping message", orderID)
		return nil
	}
	if order.Status != domain.StatusPending {
		return nil
	}
	order.Status = domain.StatusProcessing
	return store.UpdateOrder(ctx, *order)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
