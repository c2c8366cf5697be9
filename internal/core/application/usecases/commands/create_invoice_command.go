package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrCreateInvoiceCommandIsNotConstructed = errors.New(
	"CreateInvoiceCommand must be created via NewCreateInvoiceCommand constructor",
)

// CreateInvoiceCommand asks the payment gateway to bill an order.
//
// Example:
//
//	cmd, err := NewCreateInvoiceCommand(orderID, 150)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	fmt.Println(result.Invoice.ShortURL)
type CreateInvoiceCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	amount  int64

	guard guard.ConstructorGuard
}

func NewCreateInvoiceCommand(orderID kernel.UUID, amount int64) (CreateInvoiceCommand, error) {
	cmd := CreateInvoiceCommand{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAmount(amount),
	); err != nil {
		return CreateInvoiceCommand{}, err
	}

	return cmd, nil
}

func (c CreateInvoiceCommand) Validate() error {
	return c.guard.Validate(ErrCreateInvoiceCommandIsNotConstructed)
}

func (c CreateInvoiceCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Amount in MNT.
func (c CreateInvoiceCommand) Amount() int64 {
	return c.amount
}

func (c *CreateInvoiceCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateInvoiceCommand) setAmount(amount int64) error {
	if amount <= 0 || amount > payment.MaxAmount {
		return errs.NewValueIsOutOfRangeError("amount", amount, 1, payment.MaxAmount)
	}
	c.amount = amount
	return nil
}
