package service

import (
	"errors"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/identity"
)

var (
	ErrUnauthenticated   = identity.ErrUnauthenticated
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInvalidItem       = errors.New("invalid cart item")
	ErrInvalidAddress    = errors.New("invalid shipping address")
	ErrInvalidTotal      = errors.New("order total below minimum")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrIdempotencyReuse  = errors.New("idempotency key reused with different items")
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = domain.ErrIllegalTransition
)

// Result codes carried by a failed CheckoutResult.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeEmptyCart       = "EMPTY_CART"
	CodeInvalidItem     = "INVALID_ITEM"
	CodeInvalidAddress  = "INVALID_ADDRESS"
	CodeInvalidTotal    = "INVALID_TOTAL"
	CodePaymentFailed   = "PAYMENT_FAILED"
	CodeKeyReused       = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal        = "INTERNAL"
)

const (
	msgUnauthenticated = "Authentication required. Please sign in to complete your purchase."
	msgEmptyCart       = "Your cart is empty. Please add items before checking out."
	msgInvalidItem     = "One or more items in your cart are no longer available. Please review your cart."
	msgInvalidAddress  = "Please provide a complete shipping address with a valid email."
	msgInvalidTotal    = "Invalid order total. Please check your cart."
	msgPaymentFailed   = "Payment processing failed. Please try again or use a different payment method."
	msgKeyReused       = "This checkout was already submitted with a different cart. Please start a new checkout."
	msgInternal        = "An unexpected error occurred while processing your order. Please try again."
)
