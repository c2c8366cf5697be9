// Package rabbitmq delivers unlock commands to locker controllers. Each board
// controller binds its own queue to the commands exchange with its board id as
// routing key.
package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"parcellocker/internal/core/ports"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "locker.commands"
	publishTimeout  = 5 * time.Second
	unlockReason    = "Payment successful"
)

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// UnlockMessage is the body read by the board controller.
type UnlockMessage struct {
	Action       string `json:"action"`
	OrderID      string `json:"orderId"`
	BoardID      string `json:"boardId"`
	LockerNumber string `json:"lockerNumber"`
	LockerIndex  int    `json:"lockerIndex"`
	Reason       string `json:"reason"`
}

// UnlockPublisher implements ports.UnlockPublisher.
type UnlockPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Dial connects to url and declares the durable topic exchange.
func Dial(url, exchange string) (*UnlockPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "rabbitmq channel")
	}
	p, err := newUnlockPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newUnlockPublisher(ch channel, exchange string) (*UnlockPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, errors.Wrap(err, "rabbitmq declare exchange")
	}
	return &UnlockPublisher{ch: ch, exchange: exchange}, nil
}

// PublishUnlock routes the command to the queue of cmd.BoardID. Messages are
// persistent so a restarting broker does not lose a paid unlock.
func (p *UnlockPublisher) PublishUnlock(ctx context.Context, cmd ports.UnlockCommand) error {
	if cmd.BoardID == "" {
		return errors.New("rabbitmq unlock: board id is empty")
	}

	body, err := json.Marshal(UnlockMessage{
		Action:       "unlock",
		OrderID:      cmd.OrderID.String(),
		BoardID:      cmd.BoardID,
		LockerNumber: cmd.LockerNumber,
		LockerIndex:  cmd.LockerIndex,
		Reason:       unlockReason,
	})
	if err != nil {
		return errors.Wrap(err, "rabbitmq marshal unlock")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		cmd.BoardID,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    cmd.OrderID.String(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return errors.Wrap(err, "rabbitmq publish unlock")
	}
	return nil
}

func (p *UnlockPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
