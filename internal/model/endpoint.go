package model

import "time"

// TokenRecord is one row of the notification_token table.
type TokenRecord struct {
	ID              int64
	CustomerID      int64
	Token           *string
	DeviceSignature *string
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// ResolveOutcome distinguishes why an endpoint was or was not found. Only logging reads it.
type ResolveOutcome string

const (
	OutcomeFound      ResolveOutcome = "found"
	OutcomeNotFound   ResolveOutcome = "not_found"
	OutcomeBlankToken ResolveOutcome = "blank_token"
	OutcomeStoreError ResolveOutcome = "store_error"
)

// ResolvedEndpoint is the push token for a customer at dispatch time.
type ResolvedEndpoint struct {
	CustomerID int64
	Token      string
	Found      bool
	Outcome    ResolveOutcome
}

// DeliveryStatus values stored in the delivery log.
const (
	DeliverySuccess = "SUCCESS"
	DeliveryFailure = "FAILURE"
)

// DeliveryRecord is one push send attempt as written to the delivery log.
type DeliveryRecord struct {
	ID             string    `json:"id"`
	DeliveryID     string    `json:"messageId"`
	CustomerID     string    `json:"customerId"`
	NotificationID string    `json:"notificationId"`
	Channel        string    `json:"channel"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	SentAt         time.Time `json:"sentDateTime"`
}
