package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/internal/domain"
	pkgkafka "github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/kafka"
	"github.com/Smart-University-Management-Platform/Smart-University-Platform-sub001/pkg/logger"
)

// Kafka topic constants for platform domain events.
const (
	TopicOrderConfirmed = "university.order.confirmed"
	TopicOrderCanceled  = "university.order.canceled"
	TopicExamStarted    = "university.exam.started"
	TopicExamClosed     = "university.exam.closed"
)

// Aggregate type constants.
const (
	AggregateTypeOrder = "order"
	AggregateTypeExam  = "exam"
)

// Source identifier for events originating from this service.
const SourcePlatform = "university-platform"

// OrderConfirmedData is the payload for an order.confirmed event.
type OrderConfirmedData struct {
	OrderID     string `json:"order_id"`
	BuyerID     string `json:"buyer_id"`
	TenantID    string `json:"tenant_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// OrderCanceledData is the payload for an order.canceled event.
type OrderCanceledData struct {
	OrderID  string `json:"order_id"`
	BuyerID  string `json:"buyer_id"`
	TenantID string `json:"tenant_id"`
	Reason   string `json:"reason"`
}

// ExamLifecycleData is the payload for exam.started and exam.closed events.
type ExamLifecycleData struct {
	ExamID   string `json:"exam_id"`
	TenantID string `json:"tenant_id"`
	State    string `json:"state"`
}

// Publisher abstracts the Kafka producer so services can be tested without a
// broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes platform domain events to Kafka. Publishing is
// fire-and-forget from the caller's point of view: errors are returned for
// logging but must never fail the originating operation.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderConfirmed publishes an order.confirmed event.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, order *domain.Order) error {
	data := OrderConfirmedData{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		TenantID:    order.TenantID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicOrderConfirmed, order.ID, AggregateTypeOrder, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create order.confirmed event: %w", err)
	}
	event.WithTenantID(order.TenantID).WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicOrderConfirmed, event); err != nil {
		return fmt.Errorf("publish order.confirmed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.confirmed event",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", order.BuyerID),
	)

	return nil
}

// PublishOrderCanceled publishes an order.canceled event.
func (p *Producer) PublishOrderCanceled(ctx context.Context, order *domain.Order, reason string) error {
	data := OrderCanceledData{
		OrderID:  order.ID,
		BuyerID:  order.BuyerID,
		TenantID: order.TenantID,
		Reason:   reason,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCanceled, order.ID, AggregateTypeOrder, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create order.canceled event: %w", err)
	}
	event.WithTenantID(order.TenantID).WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicOrderCanceled, event); err != nil {
		return fmt.Errorf("publish order.canceled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.canceled event",
		slog.String("order_id", order.ID),
		slog.String("reason", reason),
	)

	return nil
}

// PublishExamStarted publishes an exam.started event.
func (p *Producer) PublishExamStarted(ctx context.Context, exam *domain.Exam) error {
	return p.publishExamLifecycle(ctx, TopicExamStarted, exam)
}

// PublishExamClosed publishes an exam.closed event.
func (p *Producer) PublishExamClosed(ctx context.Context, exam *domain.Exam) error {
	return p.publishExamLifecycle(ctx, TopicExamClosed, exam)
}

func (p *Producer) publishExamLifecycle(ctx context.Context, topic string, exam *domain.Exam) error {
	data := ExamLifecycleData{
		ExamID:   exam.ID,
		TenantID: exam.TenantID,
		State:    exam.State,
	}

	event, err := pkgkafka.NewEvent(topic, exam.ID, AggregateTypeExam, SourcePlatform, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithTenantID(exam.TenantID).WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published exam lifecycle event",
		slog.String("topic", topic),
		slog.String("exam_id", exam.ID),
		slog.String("state", exam.State),
	)

	return nil
}
