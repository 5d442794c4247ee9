package event

import (
	"context"
	"time"

	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/messaging"
	"github.com/mediscan/mediscan-api/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Publisher fans adherence events out to the broker. Delivery is best effort:
// failures are logged and counted but never surface to the caller.
type Publisher struct {
	broker  messaging.Broker
	prefix  string
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPublisher(broker messaging.Broker, prefix string, log *logger.Logger, m *metrics.Metrics) *Publisher {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{
		broker:  broker,
		prefix:  prefix,
		log:     log.With("events"),
		metrics: m,
		now:     time.Now,
	}
}

// Channel returns the broker channel for eventType.
func (p *Publisher) Channel(eventType EventType) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

// Emit publishes payload under eventType. A nil Publisher discards events.
func (p *Publisher) Emit(ctx context.Context, eventType EventType, payload interface{}) {
	if p == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := messaging.Message{
		Type:       string(eventType),
		Payload:    payload,
		OccurredAt: p.now().UTC(),
	}

	status := "success"
	if err := p.broker.Publish(ctx, p.Channel(eventType), msg); err != nil {
		status = "error"
		p.log.Error(err, "failed to publish event", "event_type", string(eventType))
	}
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(string(eventType), status).Inc()
	}
}
