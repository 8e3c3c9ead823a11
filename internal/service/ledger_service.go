package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/wageledger/internal/calculator"
	"github.com/mmynk/wageledger/internal/ledger"
	"github.com/mmynk/wageledger/internal/models"
	"github.com/mmynk/wageledger/internal/notify"
	"github.com/mmynk/wageledger/internal/storage"
	api "github.com/mmynk/wageledger/pkg/api"
	"github.com/mmynk/wageledger/pkg/api/apiconnect"
)

// watchBuffer is how many events a Watch stream holds while the client is slow.
const watchBuffer = 64

// LedgerService implements the Connect LedgerService
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService over l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateEmployee handles adding an employee
func (s *LedgerService) CreateEmployee(ctx context.Context, req *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error) {
	wage, err := models.ParseAmount(req.Msg.DailyWage)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, &ledger.ValidationError{Field: "dailyWage", Message: err.Error()})
	}

	emp, err := s.ledger.CreateEmployee(ctx, req.Msg.Name, req.Msg.Phone, wage)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&api.CreateEmployeeResponse{Employee: toAPIEmployee(emp)}), nil
}

// ListEmployees returns every employee, newest first
func (s *LedgerService) ListEmployees(ctx context.Context, req *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error) {
	employees, err := s.ledger.ListEmployees(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Employee, len(employees))
	for i, emp := range employees {
		out[i] = toAPIEmployee(emp)
	}
	return connect.NewResponse(&api.ListEmployeesResponse{Employees: out}), nil
}

func (s *LedgerService) RemoveEmployee(ctx context.Context, req *connect.Request[api.RemoveEmployeeRequest]) (*connect.Response[api.RemoveEmployeeResponse], error) {
	if err := s.ledger.RemoveEmployee(ctx, req.Msg.EmployeeId); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.RemoveEmployeeResponse{}), nil
}

// MarkAttendance records a worked day. Repeating a day returns the existing record.
func (s *LedgerService) MarkAttendance(ctx context.Context, req *connect.Request[api.MarkAttendanceRequest]) (*connect.Response[api.MarkAttendanceResponse], error) {
	var date models.Date
	if req.Msg.Date != "" {
		d, err := models.ParseDate(req.Msg.Date)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, &ledger.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
		}
		date = d
	}

	rec, err := s.ledger.MarkAttendance(ctx, req.Msg.EmployeeId, date)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.MarkAttendanceResponse{Record: toAPIAttendance(rec)}), nil
}

func (s *LedgerService) GetUnpaidSummary(ctx context.Context, req *connect.Request[api.GetUnpaidSummaryRequest]) (*connect.Response[api.GetUnpaidSummaryResponse], error) {
	summary, err := s.ledger.UnpaidSummary(ctx, req.Msg.EmployeeId)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.GetUnpaidSummaryResponse{
		Summary: toAPISummary(req.Msg.EmployeeId, summary),
	}), nil
}

// ApplyPayment records a payment and reports which days it settled
func (s *LedgerService) ApplyPayment(ctx context.Context, req *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error) {
	amount, err := models.ParseAmount(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, &ledger.ValidationError{Field: "amount", Message: err.Error()})
	}

	result, err := s.ledger.ApplyPayment(ctx, req.Msg.EmployeeId, amount, req.Msg.Note)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Debug("Payment allocation",
		"employee_id", req.Msg.EmployeeId,
		"settled", result.Payment.AttendanceIDs,
		"outstanding", result.Outstanding,
	)

	return connect.NewResponse(&api.ApplyPaymentResponse{
		Payment:     toAPIPayment(result.Payment),
		DaysCovered: int32(result.DaysCovered),
		Allocated:   int64(result.Allocated),
		Remainder:   int64(result.Remainder),
		Outstanding: int64(result.Outstanding),
	}), nil
}

// GetHistory returns payments and attendance, newest first
func (s *LedgerService) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	h, err := s.ledger.History(ctx, req.Msg.EmployeeId)
	if err != nil {
		return nil, connectError(err)
	}

	payments := make([]*api.Payment, len(h.Payments))
	for i, p := range h.Payments {
		payments[i] = toAPIPayment(p)
	}
	attendance := make([]*api.AttendanceRecord, len(h.Attendance))
	for i, rec := range h.Attendance {
		attendance[i] = toAPIAttendance(rec)
	}
	return connect.NewResponse(&api.GetHistoryResponse{Payments: payments, Attendance: attendance}), nil
}

// Watch streams a snapshot of the watched scope followed by every committed change.
// The snapshot is read in one transaction. Events committed while it is read
// may also be reflected in it.
func (s *LedgerService) Watch(ctx context.Context, req *connect.Request[api.WatchRequest], stream *connect.ServerStream[api.WatchResponse]) error {
	employeeID := req.Msg.EmployeeId

	events := make(chan notify.Event, watchBuffer)
	done := make(chan struct{})
	sub := s.ledger.Subscribe(employeeID, func(ev notify.Event) {
		select {
		case events <- ev:
		case <-done:
		}
	})
	defer func() {
		close(done)
		sub.Close()
	}()

	snapshot, err := s.snapshot(ctx, employeeID)
	if err != nil {
		return connectError(err)
	}
	if err := stream.Send(&api.WatchResponse{Snapshot: snapshot}); err != nil {
		return err
	}

	slog.Info("Watch started", "employee_id", employeeID)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Watch ended", "employee_id", employeeID)
			return nil
		case ev := <-events:
			if err := stream.Send(&api.WatchResponse{Event: toAPIEvent(ev)}); err != nil {
				return err
			}
		}
	}
}

func (s *LedgerService) snapshot(ctx context.Context, employeeID string) (*api.Snapshot, error) {
	snap, err := s.ledger.Snapshot(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := &api.Snapshot{
		Employees: make([]*api.Employee, len(snap.Employees)),
		Summaries: make([]*api.UnpaidSummary, len(snap.Employees)),
	}
	for i, emp := range snap.Employees {
		out.Employees[i] = toAPIEmployee(emp)
		out.Summaries[i] = toAPISummary(emp.ID, snap.Summaries[i])
	}
	return out, nil
}

// connectError maps ledger errors onto Connect codes.
// Storage details are logged and never sent to the client.
func connectError(err error) error {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		return connect.NewError(connect.CodeInvalidArgument, ve)
	case errors.Is(err, ledger.ErrEmployeeNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ledger.ErrOverpayment), errors.Is(err, ledger.ErrEmployeeHasRecords), errors.Is(err, ledger.ErrBalanceOverflow):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrUnavailable):
		slog.Error("Storage unavailable", "error", err)
		return connect.NewError(connect.CodeUnavailable, errors.New("data unavailable"))
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		slog.Error("Unexpected ledger error", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}

func toAPIEmployee(emp models.Employee) *api.Employee {
	return &api.Employee{
		Id:        emp.ID,
		Name:      emp.Name,
		Phone:     emp.Phone,
		DailyWage: int64(emp.DailyWage),
		CreatedAt: emp.CreatedAt.Unix(),
	}
}

func toAPIAttendance(rec models.AttendanceRecord) *api.AttendanceRecord {
	return &api.AttendanceRecord{
		Id:         rec.ID,
		EmployeeId: rec.EmployeeID,
		Date:       rec.Date.String(),
		Paid:       rec.Paid,
		PaymentId:  rec.PaymentID,
	}
}

func toAPIPayment(p models.Payment) *api.Payment {
	ids := p.AttendanceIDs
	if ids == nil {
		ids = []string{}
	}
	return &api.Payment{
		Id:            p.ID,
		EmployeeId:    p.EmployeeID,
		Amount:        int64(p.Amount),
		Date:          p.Date.Unix(),
		Note:          p.Note,
		Type:          string(p.Type),
		AttendanceIds: ids,
	}
}

func toAPISummary(employeeID string, s calculator.Summary) *api.UnpaidSummary {
	return &api.UnpaidSummary{
		EmployeeId: employeeID,
		Count:      int32(s.Count),
		TotalOwed:  int64(s.TotalOwed),
	}
}

func toAPIEvent(ev notify.Event) *api.Event {
	return &api.Event{
		Seq:           ev.Seq,
		Kind:          string(ev.Kind),
		EmployeeId:    ev.EmployeeID,
		AttendanceId:  ev.AttendanceID,
		PaymentId:     ev.PaymentID,
		AttendanceIds: ev.AttendanceIDs,
		At:            ev.At.Unix(),
	}
}
