package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"onboard/internal/wizard/models"
)

// Publisher captures structured audit events. The store is the durable sink;
// Kafka, when configured, gets a best-effort async copy for downstream
// consumers. Kafka failure never fails the emitting operation.
type Publisher struct {
	store  Store
	kafka  *kgo.Client
	topic  string
	logger *slog.Logger
	clock  func() time.Time
}

type PublisherOption func(*Publisher)

// WithKafka attaches a Kafka producer. Records are keyed by employee ID so
// one employee's trail stays ordered within a partition.
func WithKafka(client *kgo.Client, topic string) PublisherOption {
	return func(p *Publisher) {
		p.kafka = client
		p.topic = topic
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit appends the event to the store and fans it out to Kafka.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	p.produce(ctx, event)
	return nil
}

// Record is a convenience wrapper building the event inline at call sites.
func (p *Publisher) Record(ctx context.Context, employeeID string, stepID models.StepID, action Action, detail map[string]string) {
	event := Event{
		EmployeeID: employeeID,
		StepID:     stepID,
		Action:     action,
		Detail:     detail,
	}
	if err := p.Emit(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "audit emit failed",
			"employee_id", employeeID,
			"step_id", stepID,
			"action", action,
			"error", err,
		)
	}
}

func (p *Publisher) produce(ctx context.Context, event Event) {
	if p.kafka == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "marshal audit event for kafka failed", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.EmployeeID),
		Value: value,
	}
	p.kafka.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("audit kafka produce failed",
				"topic", p.topic,
				"action", event.Action,
				"error", err,
			)
		}
	})
}

// Trail returns the stored events for one employee, oldest first.
func (p *Publisher) Trail(ctx context.Context, employeeID string) ([]Event, error) {
	return p.store.ListByEmployee(ctx, employeeID)
}

// Close flushes buffered Kafka records during shutdown.
func (p *Publisher) Close(ctx context.Context) {
	if p.kafka == nil {
		return
	}
	if err := p.kafka.Flush(ctx); err != nil {
		p.logger.Warn("flush audit kafka producer failed", "error", err)
	}
	p.kafka.Close()
}
