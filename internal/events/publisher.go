// Package events publishes order lifecycle events and password reset codes to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange names
const (
	OrdersExchange        = "pos_orders_topic"
	NotificationsExchange = "pos_notifications_fanout"
)

// Order event types, used as routing keys on OrdersExchange.
const (
	OrderSaved         = "order.saved"
	OrderFinalized     = "order.finalized"
	OrderDeleted       = "order.deleted"
	OrderStatusChanged = "order.status_changed"
)

const publishTimeout = 10 * time.Second

// OrderEvent is the message body for every order event.
type OrderEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	Table      int       `json:"table"`
	From       string    `json:"from,omitempty"`
	Status     string    `json:"status"`
	NetTotal   int64     `json:"net_total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OTPMessage carries a password reset code to whatever delivers it to the user.
type OTPMessage struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Publisher sends order events.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
}

// Notifier delivers password reset codes.
type Notifier interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// NewOrderEvent fills in the id and timestamp of an event.
func NewOrderEvent(eventType string, orderID int64, table int, from, status string, netTotal int64) OrderEvent {
	return OrderEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OrderID:    orderID,
		Table:      table,
		From:       from,
		Status:     status,
		NetTotal:   netTotal,
		OccurredAt: time.Now().UTC(),
	}
}

// amqpConn and amqpChannel are the parts of the amqp091 connection and
// channel the publisher uses.
type amqpConn interface {
	IsClosed() bool
	Close() error
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// RabbitPublisher implements Publisher and Notifier on one AMQP connection.
// A closed connection is redialled on the next publish; a channel closed
// while its connection stays up is reopened on that connection.
type RabbitPublisher struct {
	url         string
	mu          sync.Mutex
	conn        amqpConn
	ch          amqpChannel
	openChannel func() (amqpChannel, error)
}

// NewRabbitPublisher dials url and declares the exchanges.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", OrdersExchange, err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", NotificationsExchange, err)
	}
	p.conn, p.ch = conn, ch
	p.openChannel = func() (amqpChannel, error) { return conn.Channel() }
	return nil
}

// ensureChannel must be called with p.mu held.
func (p *RabbitPublisher) ensureChannel() error {
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
		return nil
	}
	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.openChannel()
		if err != nil {
			return fmt.Errorf("failed to reopen channel: %w", err)
		}
		utils.LogInfo("RabbitMQ channel reopened")
		p.ch = ch
	}
	return nil
}

func (p *RabbitPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	return p.publish(ctx, OrdersExchange, ev.Type, ev, true)
}

func (p *RabbitPublisher) SendOTP(ctx context.Context, msg OTPMessage) error {
	return p.publish(ctx, NotificationsExchange, "", msg, false)
}

func (p *RabbitPublisher) publish(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: deliveryMode,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", exchange, err)
	}

	utils.LogDebug("Message published", map[string]interface{}{
		"exchange": exchange, "routing_key": routingKey, "message_size": len(body),
	})
	return nil
}

// Close closes the channel and connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	if p.ch != nil {
		p.ch.Close()
	}
	return p.conn.Close()
}

// LogPublisher writes events and codes to the log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishOrderEvent(_ context.Context, ev OrderEvent) error {
	utils.LogInfo("Order event", map[string]interface{}{
		"type": ev.Type, "order_id": ev.OrderID, "table": ev.Table, "from": ev.From, "status": ev.Status,
	})
	return nil
}

func (LogPublisher) SendOTP(_ context.Context, msg OTPMessage) error {
	utils.LogInfo("Password reset code issued", map[string]interface{}{
		"email": msg.Email, "code": msg.Code, "expires_at": msg.ExpiresAt,
	})
	return nil
}
