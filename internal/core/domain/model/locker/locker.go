package locker

import (
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/pkg/errs"
)

var ErrLockerIsNotConstructed = errors.New("Locker must be created via NewLocker constructor")

// MaxIndex bounds the door index addressable on one controller board.
const MaxIndex = 255

// Locker is a single compartment of a container.
//
// The in-memory transitions mirror the conditional updates done by the
// repository; the repository, not this struct, is the serialization point.
type Locker struct {
	id     kernel.UUID
	ref    Ref
	index  int
	status Status

	isConstructed bool
}

// NewLocker creates an Available locker.
func NewLocker(id kernel.UUID, ref Ref, index int) (*Locker, error) {
	return RestoreLocker(id, ref, index, Available)
}

func RestoreLocker(id kernel.UUID, ref Ref, index int, status Status) (*Locker, error) {
	l := &Locker{isConstructed: true}

	if err := errors.Join(
		l.setID(id),
		l.setRef(ref),
		l.setIndex(index),
		l.setStatus(status),
	); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Locker) Validate() error {
	if l == nil || !l.isConstructed {
		return ErrLockerIsNotConstructed
	}
	return nil
}

func (l *Locker) ID() kernel.UUID {
	return l.id
}

func (l *Locker) Ref() Ref {
	return l.ref
}

func (l *Locker) BoardID() string {
	return l.ref.BoardID
}

func (l *Locker) Number() string {
	return l.ref.Number
}

// Index is the zero-based door index on the controller board.
func (l *Locker) Index() int {
	return l.index
}

func (l *Locker) Status() Status {
	return l.status
}

// Reserve moves an Available locker to Pending. Any other status yields a
// ConflictError and leaves the locker untouched.
func (l *Locker) Reserve() error {
	next, err := l.status.Reserve()
	if err != nil {
		return errs.NewConflictError("locker", l.ref.String(), err.Error())
	}
	l.status = next
	return nil
}

func (l *Locker) Occupy() error {
	next, err := l.status.Occupy()
	if err != nil {
		return errs.NewConflictError("locker", l.ref.String(), err.Error())
	}
	l.status = next
	return nil
}

// Release is idempotent.
func (l *Locker) Release() {
	l.status = l.status.Release()
}

func (l *Locker) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.id = id
	return nil
}

func (l *Locker) setRef(ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	l.ref = ref
	return nil
}

func (l *Locker) setIndex(index int) error {
	if index < 0 || index > MaxIndex {
		return errs.NewValueIsOutOfRangeError("lockerIndex", index, 0, MaxIndex)
	}
	l.index = index
	return nil
}

func (l *Locker) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	l.status = status
	return nil
}
