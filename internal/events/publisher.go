// Package events notifies downstream consumers (bill printing, SMS) of
// committed sales. The billing core never publishes; the HTTP layer does
// after a successful commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
)

const RoutingSaleCommitted = "sale.committed"

// SaleCommitted is the message body. The full sale is included so
// consumers can render a bill without reading the database.
type SaleCommitted struct {
	SaleID        string               `json:"sale_id"`
	CustomerID    int64                `json:"customer_id"`
	PatientID     string               `json:"patient_id"`
	FinalAmount   money.Amount         `json:"final_amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	ItemCount     int                  `json:"item_count"`
	CommittedAt   time.Time            `json:"committed_at"`
	Sale          domain.Sale          `json:"sale"`
}

type Publisher interface {
	PublishSaleCommitted(ctx context.Context, sale domain.Sale) error
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type publisher struct {
	ch channel
}

// NewPublisher creates a Publisher on an open RabbitMQ channel.
func NewPublisher(ch *amqp.Channel) Publisher {
	return &publisher{ch: ch}
}

func (p *publisher) PublishSaleCommitted(ctx context.Context, sale domain.Sale) error {
	body, err := json.Marshal(SaleCommitted{
		SaleID:        sale.ID,
		CustomerID:    sale.CustomerID,
		PatientID:     sale.PatientID,
		FinalAmount:   sale.FinalAmount,
		PaymentMethod: sale.PaymentMethod,
		ItemCount:     len(sale.Items),
		CommittedAt:   sale.CreatedAt,
		Sale:          sale,
	})
	if err != nil {
		return fmt.Errorf("could not marshal sale: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,         // exchange
		RoutingSaleCommitted, // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    sale.ID,
			Timestamp:    sale.CreatedAt,
			Body:         body,
		},
	)
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishSaleCommitted(context.Context, domain.Sale) error { return nil }
