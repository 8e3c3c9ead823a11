package models

import "time"

// Employee represents a daily-wage worker.
// Employees are never mutated after creation; wage changes are not supported.
type Employee struct {
	// ID is the unique identifier for the employee (UUID format).
	ID string `json:"id"`

	// Name is the display name. Never empty.
	Name string `json:"name"`

	// Phone is a free-form contact string.
	Phone string `json:"phone"`

	// DailyWage is the amount owed for one day of attendance.
	// Always positive for employees created by the ledger.
	DailyWage Amount `json:"dailyWage"`

	// CreatedAt is when the employee was added (UTC).
	CreatedAt time.Time `json:"createdAt"`
}
