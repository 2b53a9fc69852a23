// Package events publishes transaction lifecycle events after a unit of work
// has committed. Publishing is best effort: a failed publish is logged and
// never rolls back the business operation.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Type string

const (
	TransactionSettled   Type = "transaction.settled"
	TransactionStarted   Type = "transaction.started"
	TransactionCompleted Type = "transaction.completed"
	TransactionCancelled Type = "transaction.cancelled"
	TransactionReversed  Type = "transaction.reversed"
	SubscriptionCreated  Type = "subscription.created"
	CapitalMoved         Type = "capital.moved"
	StockRestocked       Type = "stock.restocked"
	CompanyRegistered    Type = "company.registered"
)

// Event is the envelope put on the wire.
type Event struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	CompanyCode string         `json:"company_code"`
	Subject     string         `json:"subject"` // transaction number, subscription id, ...
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// New stamps an event with an id and the current time.
func New(typ Type, companyCode, subject string, payload map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        typ,
		CompanyCode: companyCode,
		Subject:     subject,
		Payload:     payload,
		Timestamp:   time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the logger. It is used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.log.Info("event",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("company_code", e.CompanyCode),
		zap.String("subject", e.Subject),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
