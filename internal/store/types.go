package store

import "time"

// DefaultAmount is the registration fee in ETB charged for every payment.
const DefaultAmount = 100

// PaymentMethod identifies how a payment was made or the stage of a
// reference-based payment.
type PaymentMethod string

const (
	MethodCBE       PaymentMethod = "CBE"
	MethodTeleBirr  PaymentMethod = "TeleBirr"
	MethodPending   PaymentMethod = "pending"
	MethodSubmitted PaymentMethod = "submitted"
	MethodCompleted PaymentMethod = "completed"
)

// Label returns a human readable method name.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodCBE:
		return "CBE Birr"
	case MethodTeleBirr:
		return "TeleBirr"
	}
	return string(m)
}

// PaymentStatus is the verification state of a payment.
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusVerified PaymentStatus = "verified"
)

// StudentRecord is written once when a registration dialogue completes.
type StudentRecord struct {
	UserID       int64
	StudentID    string
	FullName     string
	Email        string
	Section      string
	RegisteredAt time.Time
}

// PaymentRecord is created alongside its StudentRecord. Only Status changes afterwards.
type PaymentRecord struct {
	ID               string
	UserID           int64
	StudentID        string
	FTNumber         string
	Reference        string
	Amount           int
	Method           PaymentMethod
	ScreenshotFileID string
	PaidAt           time.Time
	Status           PaymentStatus
}

// Verified reports whether an operator has confirmed the payment.
func (p PaymentRecord) Verified() bool {
	return p.Status == StatusVerified
}
