package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kinds      []string
	declareErr error
	publishErr error
	sent       []published
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name)
	c.kinds = append(c.kinds, kind)
	return c.declareErr
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return c.publishErr
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestNewUnlockPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := newUnlockPublisher(ch, "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultExchange}, ch.declared)
	assert.Equal(t, []string{"topic"}, ch.kinds)
}

func TestNewUnlockPublisher_DeclareError(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newUnlockPublisher(ch, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq declare exchange")
}

func TestPublishUnlock_RoutesByBoard(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newUnlockPublisher(ch, "cmds")
	require.NoError(t, err)

	orderID := kernel.NewUUID()
	require.NoError(t, p.PublishUnlock(context.Background(), ports.UnlockCommand{
		OrderID:      orderID,
		BoardID:      "BOARD_001",
		LockerNumber: "L003",
		LockerIndex:  2,
	}))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "cmds", got.exchange)
	assert.Equal(t, "BOARD_001", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, orderID.String(), got.msg.MessageId)

	var body UnlockMessage
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, UnlockMessage{
		Action:       "unlock",
		OrderID:      orderID.String(),
		BoardID:      "BOARD_001",
		LockerNumber: "L003",
		LockerIndex:  2,
		Reason:       "Payment successful",
	}, body)
}

func TestPublishUnlock_Errors(t *testing.T) {
	t.Run("empty board", func(t *testing.T) {
		p, err := newUnlockPublisher(&fakeChannel{}, "")
		require.NoError(t, err)
		assert.Error(t, p.PublishUnlock(context.Background(), ports.UnlockCommand{OrderID: kernel.NewUUID()}))
	})

	t.Run("broker failure is wrapped", func(t *testing.T) {
		p, err := newUnlockPublisher(&fakeChannel{publishErr: amqp.ErrClosed}, "")
		require.NoError(t, err)
		err = p.PublishUnlock(context.Background(), ports.UnlockCommand{OrderID: kernel.NewUUID(), BoardID: "B"})
		require.Error(t, err)
		assert.ErrorIs(t, err, amqp.ErrClosed)
		assert.Contains(t, err.Error(), "rabbitmq publish unlock")
	})
}

func TestClose_ClosesChannel(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newUnlockPublisher(ch, "")
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
