package models

import "time"

// PaymentType classifies how a payment entered the ledger.
type PaymentType string

// PaymentTypeManual is a payment entered by hand.
const PaymentTypeManual PaymentType = "manual"

// Payment represents money handed to an employee.
// Payments are append-only: never edited, never deleted.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// EmployeeID references the employee who was paid.
	EmployeeID string `json:"employeeId"`

	// Amount is the full amount paid, including any remainder that did not
	// cover a whole day.
	Amount Amount `json:"amount"`

	// Date is when the payment was recorded (UTC).
	Date time.Time `json:"date"`

	// Note is an optional free-text description.
	Note string `json:"note,omitempty"`

	// Type is how the payment entered the ledger.
	Type PaymentType `json:"type"`

	// AttendanceIDs are the records this payment settled, oldest first.
	// Empty for payments that did not cover a whole day.
	AttendanceIDs []string `json:"attendanceIds"`
}
