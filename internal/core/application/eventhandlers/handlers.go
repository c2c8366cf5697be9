// Package eventhandlers wires domain events to the reactions they trigger:
// settling a payment completes the pickup and notifies the recipient, a
// completed pickup sends the unlock command, and every event is appended to
// the external event stream.
package eventhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"parcellocker/internal/core/application/events"
	"parcellocker/internal/core/application/usecases/commands"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
)

// Subscriber is the part of events.Bus the handlers need.
type Subscriber interface {
	Subscribe(name string, h events.Handler)
}

// PaymentSettledHandler completes the pickup of a freshly paid order and
// tells the recipient. It only ever sees events of a committed settlement,
// so it runs once per payment.
type PaymentSettledHandler struct {
	pickups  commands.PickupCompleter
	notifier ports.Notifier
}

func NewPaymentSettledHandler(pickups commands.PickupCompleter, notifier ports.Notifier) PaymentSettledHandler {
	return PaymentSettledHandler{pickups: pickups, notifier: notifier}
}

func (h PaymentSettledHandler) Handle(ctx context.Context, event kernel.DomainEvent) error {
	settled, ok := event.(payment.Settled)
	if !ok {
		return nil
	}

	cmd, err := commands.NewCompletePickupCommand(settled.OrderID)
	if err != nil {
		return err
	}
	result, err := h.pickups.Handle(ctx, cmd)
	if err != nil {
		return fmt.Errorf("complete pickup of order %s: %w", settled.OrderID, err)
	}

	h.notifier.Notify(ctx, result.Recipient, commands.PaymentReceivedMessage(result.PickupCode))
	return nil
}

// PickupCompletedHandler turns a completed pickup into an unlock command.
type PickupCompletedHandler struct {
	unlocks ports.UnlockPublisher
}

func NewPickupCompletedHandler(unlocks ports.UnlockPublisher) PickupCompletedHandler {
	return PickupCompletedHandler{unlocks: unlocks}
}

func (h PickupCompletedHandler) Handle(ctx context.Context, event kernel.DomainEvent) error {
	completed, ok := event.(order.PickupCompleted)
	if !ok {
		return nil
	}
	return h.unlocks.PublishUnlock(ctx, ports.UnlockCommand{
		OrderID:      completed.OrderID,
		BoardID:      completed.BoardID,
		LockerNumber: completed.LockerNumber,
		LockerIndex:  completed.LockerIndex,
	})
}

// StreamHandler appends every event to the external stream. Failures are
// logged by the bus; the stream is an audit feed, not a source of truth.
type StreamHandler struct {
	stream ports.EventStream
}

func NewStreamHandler(stream ports.EventStream) StreamHandler {
	return StreamHandler{stream: stream}
}

func (h StreamHandler) Handle(ctx context.Context, event kernel.DomainEvent) error {
	return h.stream.Append(ctx, event)
}

// Dependencies are the collaborators the subscriptions need. A nil Stream
// disables the event stream.
type Dependencies struct {
	Pickups  commands.PickupCompleter
	Notifier ports.Notifier
	Unlocks  ports.UnlockPublisher
	Stream   ports.EventStream
	Logger   *slog.Logger
}

// Register subscribes all handlers to bus.
func Register(bus Subscriber, deps Dependencies) {
	bus.Subscribe(payment.SettledEventName, NewPaymentSettledHandler(deps.Pickups, deps.Notifier).Handle)
	bus.Subscribe(order.PickupCompletedEventName, NewPickupCompletedHandler(deps.Unlocks).Handle)

	if deps.Stream != nil {
		bus.Subscribe(events.AllEvents, NewStreamHandler(deps.Stream).Handle)
	}
	if deps.Logger != nil {
		deps.Logger.Info("event handlers registered", "stream", deps.Stream != nil)
	}
}
