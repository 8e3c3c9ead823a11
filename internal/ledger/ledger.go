// Package ledger records attendance, allocates payments against unpaid days,
// and exposes the operations the presentation layer calls.
//
// Every operation runs in a single store transaction. Events describing a
// mutation are published only after its transaction commits.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/wageledger/internal/calculator"
	"github.com/mmynk/wageledger/internal/metrics"
	"github.com/mmynk/wageledger/internal/models"
	"github.com/mmynk/wageledger/internal/notify"
	"github.com/mmynk/wageledger/internal/storage"
)

// Ledger is the wage ledger for every employee in one store.
type Ledger struct {
	store   storage.Store
	broker  *notify.Broker
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now. "Today" is the clock's date in its own location.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithBroker publishes events on b instead of a private broker.
func WithBroker(b *notify.Broker) Option {
	return func(l *Ledger) { l.broker = b }
}

// WithMetrics records ledger activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a Ledger over store. The store must already be migrated.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.broker == nil {
		l.broker = notify.NewBroker()
	}
	return l
}

// PaymentResult describes a committed payment.
type PaymentResult struct {
	Payment models.Payment

	// DaysCovered is how many attendance records the payment settled.
	DaysCovered int

	// Allocated is DaysCovered × daily wage.
	Allocated models.Amount

	// Remainder is the part of the payment below one daily wage.
	// It is recorded in the payment amount but never credited to a later day.
	Remainder models.Amount

	// Outstanding is the balance left after the payment.
	Outstanding models.Amount
}

// Snapshot is a consistent view of employees, newest first.
// Summaries[i] belongs to Employees[i].
type Snapshot struct {
	Employees []models.Employee
	Summaries []calculator.Summary
}

// History is an employee's ledger, newest first.
type History struct {
	Payments   []models.Payment
	Attendance []models.AttendanceRecord
}

// Subscribe calls fn after every committed mutation for employeeID, or for
// every employee when employeeID is empty. Calls arrive in commit order on a
// goroutine owned by the subscription.
func (l *Ledger) Subscribe(employeeID string, fn func(notify.Event)) *notify.Subscription {
	return l.broker.Subscribe(employeeID, fn)
}

// CreateEmployee validates and stores a new employee.
func (l *Ledger) CreateEmployee(ctx context.Context, name, phone string, dailyWage models.Amount) (models.Employee, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return models.Employee{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if dailyWage <= 0 {
		return models.Employee{}, &ValidationError{Field: "dailyWage", Message: "must be positive"}
	}

	emp := models.Employee{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		DailyWage: dailyWage,
		CreatedAt: l.now().UTC(),
	}

	err := l.store.Transact(ctx, func(tx storage.Tx) error {
		if err := storage.Put(ctx, tx, storage.KindEmployee, emp.ID, emp); err != nil {
			return err
		}
		tx.OnCommit(func() {
			l.publish(notify.Event{Kind: notify.EmployeeCreated, EmployeeID: emp.ID})
		})
		return nil
	})
	if err != nil {
		l.logger.Error("CreateEmployee failed", "error", err)
		return models.Employee{}, storageError(err)
	}

	l.logger.Info("Employee created", "employee_id", emp.ID, "daily_wage", emp.DailyWage)
	return emp, nil
}

// ListEmployees returns every employee, newest first.
func (l *Ledger) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees, err := storage.View(ctx, l.store, func(tx storage.Tx) ([]models.Employee, error) {
		return storage.Find[models.Employee](ctx, tx, storage.KindEmployee, storage.Query{Desc: true})
	})
	if err != nil {
		return nil, storageError(err)
	}
	newestFirst(employees)
	return employees, nil
}

// Snapshot reads employees and their unpaid summaries in one read
// transaction, so every summary reflects the same commit. An empty
// employeeID covers every employee.
func (l *Ledger) Snapshot(ctx context.Context, employeeID string) (Snapshot, error) {
	snap, err := storage.View(ctx, l.store, func(tx storage.Tx) (Snapshot, error) {
		var employees []models.Employee
		if employeeID != "" {
			emp, err := getEmployee(ctx, tx, employeeID)
			if err != nil {
				return Snapshot{}, err
			}
			employees = []models.Employee{emp}
		} else {
			all, err := storage.Find[models.Employee](ctx, tx, storage.KindEmployee, storage.Query{Desc: true})
			if err != nil {
				return Snapshot{}, err
			}
			employees = all
			newestFirst(employees)
		}

		summaries := make([]calculator.Summary, len(employees))
		for i, emp := range employees {
			unpaid, err := unpaidRecords(ctx, tx, emp.ID)
			if err != nil {
				return Snapshot{}, err
			}
			if summaries[i], err = calculator.Summarize(emp.DailyWage, unpaid); err != nil {
				return Snapshot{}, err
			}
		}
		return Snapshot{Employees: employees, Summaries: summaries}, nil
	})
	if err != nil {
		return Snapshot{}, storageError(err)
	}
	return snap, nil
}

// RemoveEmployee deletes an employee that has no attendance and no payments.
func (l *Ledger) RemoveEmployee(ctx context.Context, employeeID string) error {
	if err := validateEmployeeID(employeeID); err != nil {
		return err
	}

	err := l.store.Transact(ctx, func(tx storage.Tx) error {
		if _, err := getEmployee(ctx, tx, employeeID); err != nil {
			return err
		}

		byEmployee := storage.Query{Where: []storage.Filter{{Field: "employeeId", Value: employeeID}}}
		for _, kind := range []storage.Kind{storage.KindAttendance, storage.KindPayment} {
			docs, err := tx.Query(ctx, kind, byEmployee)
			if err != nil {
				return err
			}
			if len(docs) > 0 {
				return fmt.Errorf("%w: %d %s records", ErrEmployeeHasRecords, len(docs), kind)
			}
		}

		if err := tx.Delete(ctx, storage.KindEmployee, employeeID); err != nil {
			return err
		}
		tx.OnCommit(func() {
			l.publish(notify.Event{Kind: notify.EmployeeRemoved, EmployeeID: employeeID})
		})
		return nil
	})
	if err != nil {
		l.logger.Warn("RemoveEmployee refused", "employee_id", employeeID, "error", err)
		return storageError(err)
	}

	l.logger.Info("Employee removed", "employee_id", employeeID)
	return nil
}

// MarkAttendance records that the employee worked on date. A zero date means
// today. Marking a day that is already recorded returns the existing record
// and changes nothing.
func (l *Ledger) MarkAttendance(ctx context.Context, employeeID string, date models.Date) (models.AttendanceRecord, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return models.AttendanceRecord{}, err
	}
	if date.IsZero() {
		date = models.DateOf(l.now())
	}

	created := false
	rec, err := storage.Transact(ctx, l.store, func(tx storage.Tx) (models.AttendanceRecord, error) {
		emp, err := getEmployee(ctx, tx, employeeID)
		if err != nil {
			return models.AttendanceRecord{}, err
		}

		existing, err := storage.Find[models.AttendanceRecord](ctx, tx, storage.KindAttendance, storage.Query{
			Where: []storage.Filter{
				{Field: "employeeId", Value: employeeID},
				{Field: "date", Value: date.String()},
			},
		})
		if err != nil {
			return models.AttendanceRecord{}, err
		}
		if len(existing) > 0 {
			return existing[0], nil
		}

		// The new day must keep the balance representable.
		unpaid, err := unpaidRecords(ctx, tx, employeeID)
		if err != nil {
			return models.AttendanceRecord{}, err
		}
		if _, err := calculator.Outstanding(emp.DailyWage, len(unpaid)+1); err != nil {
			return models.AttendanceRecord{}, err
		}

		rec := models.AttendanceRecord{
			ID:         uuid.New().String(),
			EmployeeID: employeeID,
			Date:       date,
		}
		if err := storage.Put(ctx, tx, storage.KindAttendance, rec.ID, rec); err != nil {
			return models.AttendanceRecord{}, err
		}
		created = true
		tx.OnCommit(func() {
			l.metrics.AttendanceMarked()
			l.publish(notify.Event{
				Kind:         notify.AttendanceMarked,
				EmployeeID:   employeeID,
				AttendanceID: rec.ID,
			})
		})
		return rec, nil
	})
	if err != nil {
		l.logger.Error("MarkAttendance failed", "employee_id", employeeID, "date", date.String(), "error", err)
		return models.AttendanceRecord{}, storageError(err)
	}

	if created {
		l.logger.Info("Attendance marked", "employee_id", employeeID, "date", date.String(), "attendance_id", rec.ID)
	} else {
		l.logger.Debug("Attendance already marked", "employee_id", employeeID, "date", date.String())
	}
	return rec, nil
}

// UnpaidSummary returns how many days are unpaid and what they are worth.
func (l *Ledger) UnpaidSummary(ctx context.Context, employeeID string) (calculator.Summary, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return calculator.Summary{}, err
	}

	summary, err := storage.View(ctx, l.store, func(tx storage.Tx) (calculator.Summary, error) {
		emp, err := getEmployee(ctx, tx, employeeID)
		if err != nil {
			return calculator.Summary{}, err
		}
		unpaid, err := unpaidRecords(ctx, tx, employeeID)
		if err != nil {
			return calculator.Summary{}, err
		}
		return calculator.Summarize(emp.DailyWage, unpaid)
	})
	if err != nil {
		return calculator.Summary{}, storageError(err)
	}
	return summary, nil
}

// ApplyPayment records a payment and settles the oldest unpaid days it covers.
// A payment larger than the outstanding balance is refused with an
// *OverpaymentError and changes nothing.
func (l *Ledger) ApplyPayment(ctx context.Context, employeeID string, amount models.Amount, note string) (PaymentResult, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return PaymentResult{}, err
	}
	if amount <= 0 {
		l.metrics.PaymentRejected(metrics.ReasonInvalidAmount)
		return PaymentResult{}, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	result, err := storage.Transact(ctx, l.store, func(tx storage.Tx) (PaymentResult, error) {
		emp, err := getEmployee(ctx, tx, employeeID)
		if err != nil {
			return PaymentResult{}, err
		}
		unpaid, err := unpaidRecords(ctx, tx, employeeID)
		if err != nil {
			return PaymentResult{}, err
		}

		alloc, err := calculator.Allocate(amount, emp.DailyWage, unpaid)
		switch {
		case errors.Is(err, calculator.ErrExceedsOutstanding):
			return PaymentResult{}, &OverpaymentError{Amount: amount, Outstanding: alloc.Outstanding}
		case errors.Is(err, calculator.ErrNonPositiveWage):
			// A legacy employee migrated without a wage owes nothing.
			return PaymentResult{}, &OverpaymentError{Amount: amount}
		case err != nil:
			return PaymentResult{}, err
		}

		payment := models.Payment{
			ID:            uuid.New().String(),
			EmployeeID:    employeeID,
			Amount:        amount,
			Date:          l.now().UTC(),
			Note:          strings.TrimSpace(note),
			Type:          models.PaymentTypeManual,
			AttendanceIDs: make([]string, 0, len(alloc.Settled)),
		}
		for _, rec := range alloc.Settled {
			rec.Paid = true
			rec.PaymentID = payment.ID
			if err := storage.Put(ctx, tx, storage.KindAttendance, rec.ID, rec); err != nil {
				return PaymentResult{}, err
			}
			payment.AttendanceIDs = append(payment.AttendanceIDs, rec.ID)
		}
		if err := storage.Put(ctx, tx, storage.KindPayment, payment.ID, payment); err != nil {
			return PaymentResult{}, err
		}

		tx.OnCommit(func() {
			l.metrics.PaymentApplied(int64(alloc.Allocated))
			l.publish(notify.Event{
				Kind:          notify.PaymentApplied,
				EmployeeID:    employeeID,
				PaymentID:     payment.ID,
				AttendanceIDs: payment.AttendanceIDs,
			})
		})

		return PaymentResult{
			Payment:     payment,
			DaysCovered: alloc.DaysCovered,
			Allocated:   alloc.Allocated,
			Remainder:   alloc.Remainder,
			Outstanding: alloc.Outstanding - alloc.Allocated,
		}, nil
	})
	if err != nil {
		l.metrics.PaymentRejected(rejectionReason(err))
		l.logger.Warn("ApplyPayment rejected", "employee_id", employeeID, "amount", amount, "error", err)
		return PaymentResult{}, storageError(err)
	}

	l.logger.Info("Payment applied",
		"employee_id", employeeID,
		"payment_id", result.Payment.ID,
		"amount", amount,
		"days_covered", result.DaysCovered,
		"remainder", result.Remainder,
	)
	return result, nil
}

// History returns the employee's payments and attendance, newest first.
func (l *Ledger) History(ctx context.Context, employeeID string) (History, error) {
	if err := validateEmployeeID(employeeID); err != nil {
		return History{}, err
	}

	h, err := storage.View(ctx, l.store, func(tx storage.Tx) (History, error) {
		if _, err := getEmployee(ctx, tx, employeeID); err != nil {
			return History{}, err
		}
		byEmployee := []storage.Filter{{Field: "employeeId", Value: employeeID}}

		payments, err := storage.Find[models.Payment](ctx, tx, storage.KindPayment, storage.Query{
			Where: byEmployee,
			Desc:  true,
		})
		if err != nil {
			return History{}, err
		}
		attendance, err := storage.Find[models.AttendanceRecord](ctx, tx, storage.KindAttendance, storage.Query{
			Where:  byEmployee,
			SortBy: []string{"date"},
			Desc:   true,
		})
		if err != nil {
			return History{}, err
		}
		return History{Payments: payments, Attendance: attendance}, nil
	})
	if err != nil {
		return History{}, storageError(err)
	}

	sort.SliceStable(h.Payments, func(i, j int) bool {
		return h.Payments[i].Date.After(h.Payments[j].Date)
	})
	return h, nil
}

func (l *Ledger) publish(ev notify.Event) {
	ev.At = l.now().UTC()
	l.broker.Publish(ev)
}

// newestFirst orders employees by createdAt, newest first. The input must
// already be newest-created first; the stable sort keeps that for equal timestamps.
func newestFirst(employees []models.Employee) {
	sort.SliceStable(employees, func(i, j int) bool {
		return employees[i].CreatedAt.After(employees[j].CreatedAt)
	})
}

func validateEmployeeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "employeeId", Message: "must not be empty"}
	}
	return nil
}

func getEmployee(ctx context.Context, tx storage.Tx, id string) (models.Employee, error) {
	emp, err := storage.Get[models.Employee](ctx, tx, storage.KindEmployee, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Employee{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	return emp, err
}

// unpaidRecords returns the employee's unpaid attendance in creation order.
func unpaidRecords(ctx context.Context, tx storage.Tx, employeeID string) ([]models.AttendanceRecord, error) {
	return storage.Find[models.AttendanceRecord](ctx, tx, storage.KindAttendance, storage.Query{
		Where: []storage.Filter{
			{Field: "employeeId", Value: employeeID},
			{Field: "paid", Value: false},
		},
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrOverpayment):
		return metrics.ReasonOverpayment
	case errors.Is(err, ErrEmployeeNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, ErrBalanceOverflow):
		return metrics.ReasonOverflow
	default:
		return metrics.ReasonStorage
	}
}
