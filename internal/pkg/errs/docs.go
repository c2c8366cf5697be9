// Package errs is the error taxonomy shared by every layer of the locker
// service. The HTTP adapter maps each family onto one status code.
//
// Families:
//   - validation: ValueIsRequiredError, ValueIsInvalidError and
//     ValueIsOutOfRangeError, see IsValidation
//   - ObjectNotFoundError: a container, locker, order or payment is unknown
//   - ConflictError: the current state forbids the operation, nothing changed
//   - ExternalServiceError: the payment gateway or the SMS provider failed;
//     committed local state stays committed
//   - RateLimitedError: a recipient exceeded the SMS quota
//
// Every type unwraps to its sentinel (ErrConflict, ErrRateLimited, ...), so
// callers classify with errors.Is and read details with errors.As.
package errs
