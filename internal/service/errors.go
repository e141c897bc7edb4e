package service

import "errors"

var (
	ErrReceiptNotFound = errors.New("Receipt not found")
	// ErrOwnerNotFound means a stored receipt references a user that no longer exists.
	ErrOwnerNotFound = errors.New("User not found")
)

// ValidationCode identifies which input rule was violated.
type ValidationCode string

const (
	CodeEmptyReceipt           ValidationCode = "empty_receipt"
	CodeInvalidPaymentType     ValidationCode = "invalid_payment_type"
	CodeInvalidPaymentAmount   ValidationCode = "invalid_payment_amount"
	CodeInvalidProductName     ValidationCode = "invalid_product_name"
	CodeInvalidProductPrice    ValidationCode = "invalid_product_price"
	CodeInvalidProductQuantity ValidationCode = "invalid_product_quantity"
	CodeInsufficientPayment    ValidationCode = "insufficient_payment"
	CodeInvalidFilter          ValidationCode = "invalid_filter"
	CodeInvalidPagination      ValidationCode = "invalid_pagination"
	CodeLineTooShort           ValidationCode = "line_too_short"
	CodeInvalidRegistration    ValidationCode = "invalid_registration"
)

// ValidationError is a rejected input. Message is shown to the client verbatim.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(code ValidationCode, message string) error {
	return &ValidationError{Code: code, Message: message}
}

// IsValidation reports whether err is a ValidationError with the given code.
func IsValidation(err error, code ValidationCode) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Code == code
}
