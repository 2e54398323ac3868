package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/buildorch/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunStarted   MessageType = "run.started"
	MessageTypeStepFinished MessageType = "step.finished"
	MessageTypeRunFinished  MessageType = "run.finished"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunPayload — payload для run.started и run.finished.
type RunPayload struct {
	RunID      uuid.UUID        `json:"run_id"`
	Pipeline   string           `json:"pipeline"`
	Status     domain.RunStatus `json:"status"`
	State      string           `json:"state,omitempty"`
	Actions    int              `json:"actions"`
	FailedStep string           `json:"failed_step,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMS int64            `json:"duration_ms,omitempty"`
}

// StepPayload — payload для step.finished.
type StepPayload struct {
	RunID      uuid.UUID         `json:"run_id"`
	Pipeline   string            `json:"pipeline"`
	Step       string            `json:"step"`
	Status     domain.StepStatus `json:"status"`
	Kind       string            `json:"kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// channelPublisher — часть amqp.Channel, нужная для публикации.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// publishFunc отдаёт канал для публикации; подменяется в тестах.
type publishFunc func(ctx context.Context, fn func(ch channelPublisher) error) error

// Publisher публикует события run в RabbitMQ. Реализует pipeline.Observer.
//
// Ошибки публикации логируются и не влияют на результат run.
type Publisher struct {
	pipeline string
	withChan publishFunc
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, pipeline string, logger *slog.Logger) *Publisher {
	return newPublisher(func(ctx context.Context, fn func(ch channelPublisher) error) error {
		return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
			return fn(ch)
		})
	}, pipeline, logger)
}

func newPublisher(withChan publishFunc, pipeline string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		pipeline: pipeline,
		withChan: withChan,
		logger:   logger,
	}
}

// Publish публикует сообщение в exchange событий с routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.withChan(ctx, func(ch channelPublisher) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeEvents),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeEvents, routingKey, err)
		}

		p.logger.Debug("published message",
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

func (p *Publisher) publish(ctx context.Context, msgType MessageType, key RoutingKey, payload any) {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if err := p.Publish(ctx, key, msg); err != nil {
		p.logger.Warn("events: publish failed", "type", msgType, "error", err)
	}
}

func (p *Publisher) runPayload(run *domain.Run) RunPayload {
	return RunPayload{
		RunID:      run.ID,
		Pipeline:   p.pipeline,
		Status:     run.Status,
		State:      run.State,
		Actions:    run.Actions,
		FailedStep: run.FailedStep,
		Error:      run.Error,
		DurationMS: run.Duration().Milliseconds(),
	}
}

func (p *Publisher) RunStarted(ctx context.Context, run *domain.Run) {
	p.publish(ctx, MessageTypeRunStarted, RoutingKeyRunStarted, p.runPayload(run))
}

func (p *Publisher) StepFinished(ctx context.Context, run *domain.Run, step *domain.StepResult) {
	p.publish(ctx, MessageTypeStepFinished, RoutingKeyStepFinished, StepPayload{
		RunID:      run.ID,
		Pipeline:   p.pipeline,
		Step:       step.Name,
		Status:     step.Status,
		Kind:       step.Kind,
		Error:      step.Error,
		DurationMS: step.Duration().Milliseconds(),
	})
}

func (p *Publisher) RunFinished(ctx context.Context, run *domain.Run) {
	p.publish(ctx, MessageTypeRunFinished, RoutingKeyRunFinished, p.runPayload(run))
}
