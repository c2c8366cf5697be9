package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is a delivery order: one parcel deposited in one locker, waiting for
// its recipient. It is the aggregate root of the delivery lifecycle.
//
// Order follows these invariants:
//   - The pickup code is assigned at creation and never changes
//   - Status only moves forward, see Status
//   - paymentStatus mirrors the order's authoritative payment
//   - An order is never deleted, only terminalized
//
// version is the optimistic concurrency token read from storage. The
// repository applies every update conditionally on it, so two requests racing
// on the same order cannot both succeed.
type Order struct {
	kernel.EventRecorder

	id            kernel.UUID
	pickupCode    PickupCode
	lockerRef     locker.Ref
	lockerIndex   int
	recipient     kernel.PhoneNumber
	status        Status
	paymentStatus payment.Status
	cancelReason  string
	version       int

	createdAt   time.Time
	deliveredAt *time.Time
	pickedUpAt  *time.Time
	cancelledAt *time.Time

	isConstructed bool
}

// NewOrder creates an order for a parcel that has just been deposited. The
// order starts Waiting and Unpaid and raises Started.
//
// Example:
//
//	code, _ := order.NewPickupCode("04718325")
//	ref, _ := locker.NewRef("BOARD_001", "L001")
//	phone, _ := kernel.NewPhoneNumber("88118811")
//	o, err := order.NewOrder(kernel.NewUUID(), code, ref, 0, phone, time.Now())
func NewOrder(
	id kernel.UUID,
	code PickupCode,
	ref locker.Ref,
	lockerIndex int,
	recipient kernel.PhoneNumber,
	now time.Time,
) (*Order, error) {
	now = now.UTC()
	o := &Order{
		status:        Waiting,
		paymentStatus: payment.Unpaid,
		createdAt:     now,
		deliveredAt:   &now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setPickupCode(code),
		o.setLocker(ref, lockerIndex),
		o.setRecipient(recipient),
	); err != nil {
		return nil, err
	}

	o.Raise(Started{
		OrderID:      o.id,
		PickupCode:   o.pickupCode.String(),
		BoardID:      ref.BoardID,
		LockerNumber: ref.Number,
		LockerIndex:  lockerIndex,
		At:           now,
	})
	return o, nil
}

// RestoreOrderParams carries the persisted state of an order.
type RestoreOrderParams struct {
	ID            kernel.UUID
	PickupCode    PickupCode
	LockerRef     locker.Ref
	LockerIndex   int
	Recipient     kernel.PhoneNumber
	Status        Status
	PaymentStatus payment.Status
	CancelReason  string
	Version       int
	CreatedAt     time.Time
	DeliveredAt   *time.Time
	PickedUpAt    *time.Time
	CancelledAt   *time.Time
}

// RestoreOrder rebuilds an order from storage. No events are raised.
func RestoreOrder(p RestoreOrderParams) (*Order, error) {
	o := &Order{
		cancelReason:  p.CancelReason,
		version:       p.Version,
		createdAt:     p.CreatedAt,
		deliveredAt:   p.DeliveredAt,
		pickedUpAt:    p.PickedUpAt,
		cancelledAt:   p.CancelledAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setPickupCode(p.PickupCode),
		o.setLocker(p.LockerRef, p.LockerIndex),
		o.setRecipient(p.Recipient),
		o.setStatus(p.Status),
		o.setPaymentStatus(p.PaymentStatus),
	); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate ensures the Order instance was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) PickupCode() PickupCode {
	return o.pickupCode
}

func (o *Order) LockerRef() locker.Ref {
	return o.lockerRef
}

func (o *Order) LockerIndex() int {
	return o.lockerIndex
}

func (o *Order) Recipient() kernel.PhoneNumber {
	return o.recipient
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) PaymentStatus() payment.Status {
	return o.paymentStatus
}

func (o *Order) IsPaid() bool {
	return o.paymentStatus == payment.Paid
}

func (o *Order) CancelReason() string {
	return o.cancelReason
}

func (o *Order) Version() int {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

func (o *Order) PickedUpAt() *time.Time {
	return o.pickedUpAt
}

func (o *Order) CancelledAt() *time.Time {
	return o.cancelledAt
}

// EnsureAwaitingPickup returns a ConflictError unless the order is Waiting.
// Pickup requests, invoices and payment checks are only valid in that state.
func (o *Order) EnsureAwaitingPickup() error {
	if o.status != Waiting {
		return errs.NewConflictError("order", o.pickupCode.String(), fmt.Sprintf("status is %s", o.status))
	}
	return nil
}

// CompletePickup moves a paid Waiting or Delivered order to PickedUp and
// raises PickupCompleted, which opens the door. Delivered is only reachable
// through an admin status override and still holds the locker.
func (o *Order) CompletePickup(now time.Time) error {
	if o.status != Waiting && o.status != Delivered {
		return errs.NewConflictError("order", o.pickupCode.String(), fmt.Sprintf("status is %s", o.status))
	}
	if !o.IsPaid() {
		return errs.NewConflictError("order", o.pickupCode.String(), fmt.Sprintf("payment status is %s", o.paymentStatus))
	}

	next, err := o.status.TransitionTo(PickedUp)
	if err != nil {
		return errs.NewConflictError("order", o.pickupCode.String(), err.Error())
	}

	pickedUpAt := now.UTC()
	o.status = next
	o.pickedUpAt = &pickedUpAt
	o.Raise(PickupCompleted{
		OrderID:      o.id,
		BoardID:      o.lockerRef.BoardID,
		LockerNumber: o.lockerRef.Number,
		LockerIndex:  o.lockerIndex,
		PickedUpAt:   pickedUpAt,
	})
	return nil
}

// Cancel terminalizes a non-terminal order.
func (o *Order) Cancel(reason string, now time.Time) error {
	next, err := o.status.TransitionTo(Cancelled)
	if err != nil {
		return errs.NewConflictError("order", o.pickupCode.String(), err.Error())
	}

	cancelledAt := now.UTC()
	o.status = next
	o.cancelledAt = &cancelledAt
	o.cancelReason = strings.TrimSpace(reason)
	o.Raise(OrderCancelled{
		OrderID:      o.id,
		BoardID:      o.lockerRef.BoardID,
		LockerNumber: o.lockerRef.Number,
		Reason:       o.cancelReason,
		At:           cancelledAt,
	})
	return nil
}

// ChangeStatus is the administrative override. It still refuses backward moves
// and moves out of a terminal status.
func (o *Order) ChangeStatus(next Status, now time.Time) error {
	from := o.status
	target, err := from.TransitionTo(next)
	if err != nil {
		if errs.IsValidation(err) {
			return err
		}
		return errs.NewConflictError("order", o.pickupCode.String(), err.Error())
	}

	at := now.UTC()
	o.status = target
	switch target {
	case Delivered:
		if o.deliveredAt == nil {
			o.deliveredAt = &at
		}
	case PickedUp:
		o.pickedUpAt = &at
	case Cancelled:
		o.cancelledAt = &at
		o.cancelReason = "status changed by administrator"
	}

	o.Raise(StatusChanged{OrderID: o.id, From: from, To: target, At: at})
	return nil
}

// MarkPaid mirrors a settled payment. Marking an already paid order is a no-op.
func (o *Order) MarkPaid() error {
	if o.paymentStatus == payment.Paid {
		return nil
	}
	o.paymentStatus = payment.Paid
	return nil
}

// MarkPaymentFailed mirrors an abandoned invoice.
func (o *Order) MarkPaymentFailed() error {
	if o.paymentStatus == payment.Paid {
		return errs.NewConflictError("order", o.pickupCode.String(), "payment already settled")
	}
	o.paymentStatus = payment.Failed
	return nil
}

// ReopenPayment puts an order whose previous payment failed back to Unpaid
// before it is invoiced again.
func (o *Order) ReopenPayment() error {
	switch o.paymentStatus {
	case payment.Unpaid:
		return nil
	case payment.Failed:
		o.paymentStatus = payment.Unpaid
		return nil
	default:
		return errs.NewConflictError("order", o.pickupCode.String(), fmt.Sprintf("payment status is %s", o.paymentStatus))
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setPickupCode(code PickupCode) error {
	if err := code.Validate(); err != nil {
		return err
	}
	o.pickupCode = code
	return nil
}

func (o *Order) setLocker(ref locker.Ref, index int) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if index < 0 || index > locker.MaxIndex {
		return errs.NewValueIsOutOfRangeError("lockerIndex", index, 0, locker.MaxIndex)
	}
	o.lockerRef = ref
	o.lockerIndex = index
	return nil
}

func (o *Order) setRecipient(recipient kernel.PhoneNumber) error {
	if err := recipient.Validate(); err != nil {
		return err
	}
	o.recipient = recipient
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setPaymentStatus(status payment.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.paymentStatus = status
	return nil
}
