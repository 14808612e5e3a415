package domain

import "errors"

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrRuleNotFound     = errors.New("dunning rule not found")
	ErrPaymentNotFound  = errors.New("payment not found")

	// ErrDuplicateEmail signals a uniqueness violation on customer email.
	ErrDuplicateEmail = errors.New("customer email already exists")

	// ErrValidation wraps field-level constraint violations; the boundary
	// layer maps it to a 400 with the specific constraint in the message.
	ErrValidation = errors.New("validation error")

	// ErrInvalidPayment covers payments that cannot drive curing: wrong
	// customer, non-positive amount, or non-success status.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrUnauthorized is a boundary concern only; the core never produces it.
	ErrUnauthorized = errors.New("unauthorized")
)
