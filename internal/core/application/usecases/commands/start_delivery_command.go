package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/guard"
)

var ErrStartDeliveryCommandIsNotConstructed = errors.New(
	"StartDeliveryCommand must be created via NewStartDeliveryCommand constructor",
)

// StartDeliveryCommand represents a courier placing a parcel into a locker.
//
// Example:
//
//	cmd, err := NewStartDeliveryCommand("BOARD_001", "L001", "88118811")
//	if err != nil {
//	    return fmt.Errorf("invalid delivery: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
//	fmt.Printf("parcel stored in door %d, code %s", result.LockerIndex, result.PickupCode)
type StartDeliveryCommand struct { //nolint:recvcheck //using for validation
	lockerRef locker.Ref
	recipient kernel.PhoneNumber

	guard guard.ConstructorGuard
}

func NewStartDeliveryCommand(boardID, lockerNumber, recipient string) (StartDeliveryCommand, error) {
	cmd := StartDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setLockerRef(boardID, lockerNumber),
		cmd.setRecipient(recipient),
	); err != nil {
		return StartDeliveryCommand{}, err
	}

	return cmd, nil
}

func (c StartDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrStartDeliveryCommandIsNotConstructed)
}

func (c StartDeliveryCommand) LockerRef() locker.Ref {
	return c.lockerRef
}

func (c StartDeliveryCommand) Recipient() kernel.PhoneNumber {
	return c.recipient
}

func (c *StartDeliveryCommand) setLockerRef(boardID, lockerNumber string) error {
	ref, err := locker.NewRef(boardID, lockerNumber)
	if err != nil {
		return err
	}
	c.lockerRef = ref
	return nil
}

func (c *StartDeliveryCommand) setRecipient(raw string) error {
	phone, err := kernel.NewPhoneNumber(raw)
	if err != nil {
		return err
	}
	c.recipient = phone
	return nil
}
