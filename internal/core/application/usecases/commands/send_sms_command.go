package commands

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrSendSMSCommandIsNotConstructed = errors.New(
	"SendSMSCommand must be created via NewSendSMSCommand constructor",
)

// MaxSMSLength bounds a message, in characters.
const MaxSMSLength = 1600

// SendSMSCommand is a direct, synchronous message to one phone.
type SendSMSCommand struct { //nolint:recvcheck //using for validation
	to   kernel.PhoneNumber
	text string

	guard guard.ConstructorGuard
}

func NewSendSMSCommand(to, text string) (SendSMSCommand, error) {
	cmd := SendSMSCommand{guard: guard.NewConstructorGuard()}

	phone, phoneErr := kernel.NewPhoneNumber(to)
	text = strings.TrimSpace(text)
	var textErr error
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		textErr = errs.NewValueIsRequiredError("message")
	case n > MaxSMSLength:
		textErr = errs.NewValueIsOutOfRangeError("message", n, 1, MaxSMSLength)
	}

	if err := errors.Join(phoneErr, textErr); err != nil {
		return SendSMSCommand{}, err
	}

	cmd.to = phone
	cmd.text = text
	return cmd, nil
}

func (c SendSMSCommand) Validate() error {
	return c.guard.Validate(ErrSendSMSCommandIsNotConstructed)
}

func (c SendSMSCommand) To() kernel.PhoneNumber {
	return c.to
}

func (c SendSMSCommand) Text() string {
	return c.text
}

// SendSMSCommandHandler sends through the notifier's synchronous path, so
// rate limiting surfaces to the caller as a RateLimitedError.
type SendSMSCommandHandler struct {
	notifier ports.Notifier
}

func NewSendSMSCommandHandler(notifier ports.Notifier) SendSMSCommandHandler {
	return SendSMSCommandHandler{notifier: notifier}
}

func (h SendSMSCommandHandler) Handle(ctx context.Context, command SendSMSCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}
	return h.notifier.Send(ctx, command.To(), command.Text())
}
