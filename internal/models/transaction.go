package models

import "time"

// Transaction is one attempted PIX payment. Everything except Status is fixed
// at creation time by the gateway; Status only moves on polled snapshots or
// the local expiration clock.
type Transaction struct {
	TransactionID  string        `json:"transactionId"`
	Value          float64       `json:"value"`
	PixQrCode      string        `json:"pixQrCode"`
	PixCode        string        `json:"pixCode"`
	PaymentLink    string        `json:"paymentLink,omitempty"`
	ExpirationDate time.Time     `json:"expirationDate"`
	Status         PaymentStatus `json:"status"`
}

// StatusSnapshot is the result of a single status check against the gateway.
type StatusSnapshot struct {
	TransactionID string        `json:"transactionId"`
	Status        PaymentStatus `json:"status"`
	Value         float64       `json:"value"`
	PaymentDate   string        `json:"paymentDate,omitempty"`
}

type PaymentStatus string

const (
	StatusLoading        PaymentStatus = "LOADING"
	StatusWaitingPayment PaymentStatus = "WAITING_PAYMENT"
	StatusPaid           PaymentStatus = "PAID"
	StatusError          PaymentStatus = "ERROR"
	StatusExpired        PaymentStatus = "EXPIRED"
)

// IsTerminal reports whether no further automatic transition can occur.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusError || s == StatusExpired
}

func (s PaymentStatus) String() string {
	return string(s)
}

// FromGatewayStatus maps the gateway's status vocabulary onto ours. Anything
// unrecognized or absent means the payment is still pending: the absence of a
// positive signal is never treated as failure.
func FromGatewayStatus(gatewayStatus string) PaymentStatus {
	switch gatewayStatus {
	case "PAID":
		return StatusPaid
	case "ERROR":
		return StatusError
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusWaitingPayment
	}
}
