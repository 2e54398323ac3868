package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/buildorch/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func newTestPublisher(ch *fakeChannel) *Publisher {
	return newPublisher(func(_ context.Context, fn func(ch channelPublisher) error) error {
		return fn(ch)
	}, "llama-cuda", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublisher_RunEvents(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch)
	ctx := context.Background()

	run := domain.NewRun([]string{"compile"})
	run.MarkRunning()
	p.RunStarted(ctx, run)

	run.Steps[0].MarkRunning()
	run.Steps[0].MarkFailed("CompileError", "binary missing")
	p.StepFinished(ctx, run, &run.Steps[0])

	run.MarkFailed("compile", "binary missing")
	p.RunFinished(ctx, run)

	if len(ch.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(ch.sent))
	}

	wantKeys := []RoutingKey{RoutingKeyRunStarted, RoutingKeyStepFinished, RoutingKeyRunFinished}
	for i, s := range ch.sent {
		if s.exchange != string(ExchangeEvents) {
			t.Errorf("message %d: unexpected exchange %s", i, s.exchange)
		}
		if s.key != string(wantKeys[i]) {
			t.Errorf("message %d: expected key %s, got %s", i, wantKeys[i], s.key)
		}
		if s.msg.ContentType != "application/json" || s.msg.MessageId == "" {
			t.Errorf("message %d: bad publishing: %+v", i, s.msg)
		}
	}

	var step struct {
		Type    MessageType `json:"type"`
		Payload StepPayload `json:"payload"`
	}
	if err := json.Unmarshal(ch.sent[1].msg.Body, &step); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if step.Type != MessageTypeStepFinished || step.Payload.Step != "compile" || step.Payload.Kind != "CompileError" {
		t.Errorf("unexpected step payload: %+v", step)
	}

	var finished struct {
		Payload RunPayload `json:"payload"`
	}
	if err := json.Unmarshal(ch.sent[2].msg.Body, &finished); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if finished.Payload.Status != domain.RunStatusFailed || finished.Payload.FailedStep != "compile" {
		t.Errorf("unexpected run payload: %+v", finished.Payload)
	}
}

func TestPublisher_ErrorsAreSwallowed(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newTestPublisher(ch)

	// Не должно паниковать и не должно влиять на run.
	run := domain.NewRun([]string{"clone"})
	p.RunStarted(context.Background(), run)

	err := p.Publish(context.Background(), RoutingKeyRunStarted, &Message{ID: "x"})
	if err == nil {
		t.Error("Publish should surface the channel error")
	}
}
