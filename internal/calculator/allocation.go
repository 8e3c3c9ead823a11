package calculator

import (
	"errors"
	"sort"

	"github.com/mmynk/wageledger/internal/models"
)

var (
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrNonPositiveWage    = errors.New("daily wage must be positive")
	ErrExceedsOutstanding = errors.New("amount exceeds outstanding balance")
	ErrBalanceOverflow    = errors.New("outstanding balance out of range")
)

// Summary is the unpaid position of one employee.
type Summary struct {
	Count     int
	TotalOwed models.Amount
}

// Allocation is the outcome of matching a payment against unpaid days.
type Allocation struct {
	// DaysCovered is the number of whole days the amount pays for.
	DaysCovered int

	// Settled are the records to mark paid, oldest first.
	Settled []models.AttendanceRecord

	// Allocated is DaysCovered × daily wage.
	Allocated models.Amount

	// Remainder is the part of the amount that does not cover a whole day.
	// It is not credited toward any future day.
	Remainder models.Amount

	// Outstanding is the balance before the payment.
	Outstanding models.Amount
}

// Outstanding returns the amount owed for unpaidCount days.
// It fails with ErrBalanceOverflow when the balance does not fit in an Amount.
func Outstanding(dailyWage models.Amount, unpaidCount int) (models.Amount, error) {
	owed, err := dailyWage.Times(unpaidCount)
	if err != nil {
		return 0, ErrBalanceOverflow
	}
	return owed, nil
}

// Summarize computes the unpaid summary for the given records.
// Paid records are ignored.
func Summarize(dailyWage models.Amount, records []models.AttendanceRecord) (Summary, error) {
	count := 0
	for _, r := range records {
		if !r.Paid {
			count++
		}
	}
	owed, err := Outstanding(dailyWage, count)
	if err != nil {
		return Summary{Count: count}, err
	}
	return Summary{Count: count, TotalOwed: owed}, nil
}

// OldestFirst returns the unpaid records ordered by date, oldest first.
// records must be given in creation order; records sharing a date keep it.
func OldestFirst(records []models.AttendanceRecord) []models.AttendanceRecord {
	unpaid := make([]models.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if !r.Paid {
			unpaid = append(unpaid, r)
		}
	}
	sort.SliceStable(unpaid, func(i, j int) bool {
		return unpaid[i].Date.Before(unpaid[j].Date)
	})
	return unpaid
}

// Allocate decides which unpaid days a payment settles.
//
// Algorithm:
//   - Order unpaid records oldest first (creation order breaks ties)
//   - Reject amounts above dailyWage × unpaid days
//   - daysCovered = floor(amount / dailyWage)
//   - Settle the first daysCovered records
//   - Remainder = amount - daysCovered × dailyWage, never credited
//
// records must be given in creation order. Allocate does not modify them.
func Allocate(amount, dailyWage models.Amount, records []models.AttendanceRecord) (Allocation, error) {
	if amount <= 0 {
		return Allocation{}, ErrNonPositiveAmount
	}
	if dailyWage <= 0 {
		return Allocation{}, ErrNonPositiveWage
	}

	unpaid := OldestFirst(records)
	outstanding, err := Outstanding(dailyWage, len(unpaid))
	if err != nil {
		return Allocation{}, err
	}
	if amount > outstanding {
		return Allocation{Outstanding: outstanding}, ErrExceedsOutstanding
	}

	// amount <= outstanding bounds daysCovered by len(unpaid)
	days := int(amount / dailyWage)
	if days > len(unpaid) {
		days = len(unpaid)
	}

	// days <= len(unpaid), so this cannot overflow once outstanding did not
	allocated := dailyWage * models.Amount(days)
	return Allocation{
		DaysCovered: days,
		Settled:     unpaid[:days:days],
		Allocated:   allocated,
		Remainder:   amount - allocated,
		Outstanding: outstanding,
	}, nil
}
