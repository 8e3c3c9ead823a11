package models

// AttendanceRecord represents one day worked by one employee.
// There is at most one record per (EmployeeID, Date).
type AttendanceRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// EmployeeID references the employee who worked.
	EmployeeID string `json:"employeeId"`

	// Date is the calendar day worked.
	Date Date `json:"date"`

	// Paid reports whether a payment has settled this day.
	// It flips from false to true exactly once and never back.
	Paid bool `json:"paid"`

	// PaymentID is the payment that settled this day. Empty while unpaid.
	PaymentID string `json:"paymentId"`
}
