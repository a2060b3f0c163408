package storage

import (
	"context"
	"encoding/base64"
	"fmt"
)

// QueueMessage is a dequeued message together with the pop receipt needed
// to acknowledge it.
type QueueMessage struct {
	ID         string
	PopReceipt string
	Text       string
}

// Send base64-encodes the message text and enqueues it.
func (g *Gateway) Send(ctx context.Context, queue, message string) error {
	q, err := g.queue(queue)
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(message))
	if _, err := q.EnqueueMessage(ctx, encoded, nil); err != nil {
		return fmt.Errorf("send to %s: %w", queue, err)
	}
	return nil
}

// Dequeue pops at most one message without deleting it. The message stays
// invisible until its visibility timeout lapses; callers must Ack once
// processing succeeds. Returns (nil, nil) when the queue is empty.
func (g *Gateway) Dequeue(ctx context.Context, queue string) (*QueueMessage, error) {
	q, err := g.queue(queue)
	if err != nil {
		return nil, err
	}
	resp, err := q.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dequeue from %s: %w", queue, err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	msg := resp.Messages[0]
	decoded, err := base64.StdEncoding.DecodeString(*msg.MessageText)
	if err != nil {
		return nil, fmt.Errorf("decode message %s from %s: %w", *msg.MessageID, queue, err)
	}
	return &QueueMessage{
		ID:         *msg.MessageID,
		PopReceipt: *msg.PopReceipt,
		Text:       string(decoded),
	}, nil
}

// Ack deletes a previously dequeued message using its pop receipt.
func (g *Gateway) Ack(ctx context.Context, queue, id, popReceipt string) error {
	q, err := g.queue(queue)
	if err != nil {
		return err
	}
	if _, err := q.DeleteMessage(ctx, id, popReceipt, nil); err != nil {
		return fmt.Errorf("ack %s on %s: %w", id, queue, err)
	}
	return nil
}

// Receive pops one message and deletes it before returning, so delivery
// is at most once: a crash after Receive loses the message. Returns
// (nil, nil) when the queue is empty.
func (g *Gateway) Receive(ctx context.Context, queue string) (*string, error) {
	msg, err := g.Dequeue(ctx, queue)
	if err != nil || msg == nil {
		return nil, err
	}
	if err := g.Ack(ctx, queue, msg.ID, msg.PopReceipt); err != nil {
		return nil, err
	}
	return &msg.Text, nil
}

// QueueLength returns the approximate count of undelivered messages.
func (g *Gateway) QueueLength(ctx context.Context, queue string) (int32, error) {
	q, err := g.queue(queue)
	if err != nil {
		return 0, err
	}
	resp, err := q.GetProperties(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("queue length of %s: %w", queue, err)
	}
	if resp.ApproximateMessagesCount == nil {
		return 0, nil
	}
	return *resp.ApproximateMessagesCount, nil
}
