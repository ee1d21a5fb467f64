package verification

import (
	"fmt"
	"net/http"
)

// Kind is the stable classification of a verification failure.
type Kind string

const (
	KindMissingFields       Kind = "MissingFields"
	KindServerMisconfigured Kind = "ServerMisconfigured"
	KindInvalidSignature    Kind = "InvalidSignature"
	KindGatewayLookupFailed Kind = "GatewayLookupFailed"
	KindPaymentNotCaptured  Kind = "PaymentNotCaptured"
	KindMissingSubscription Kind = "MissingSubscription"
	KindIdentityWriteFailed Kind = "IdentityWriteFailed"
)

// Error is a fatal verification failure. Non-fatal outcomes (content store
// or ledger write failures) are logged inside the Manager and never
// surface as an Error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps the failure kind to the response status code. Client
// mistakes are 400s; everything the client cannot fix is a 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindMissingFields, KindInvalidSignature, KindPaymentNotCaptured, KindMissingSubscription:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errNilOption(name string) error {
	return fmt.Errorf("nil %s is invalid", name)
}

func errMissingFields() *Error {
	return &Error{Kind: KindMissingFields, Message: "Missing payment verification data"}
}

func errServerMisconfigured() *Error {
	return &Error{Kind: KindServerMisconfigured, Message: "Server misconfigured"}
}

func errInvalidSignature() *Error {
	return &Error{Kind: KindInvalidSignature, Message: "Invalid signature"}
}

func errGatewayLookupFailed() *Error {
	return &Error{Kind: KindGatewayLookupFailed, Message: "Payment gateway lookup failed"}
}

func errPaymentNotCaptured() *Error {
	return &Error{Kind: KindPaymentNotCaptured, Message: "Payment not captured"}
}

func errMissingSubscription() *Error {
	return &Error{Kind: KindMissingSubscription, Message: "No subscription associated with this payment"}
}

func errIdentityWriteFailed() *Error {
	return &Error{Kind: KindIdentityWriteFailed, Message: "Unable to update subscription metadata"}
}
