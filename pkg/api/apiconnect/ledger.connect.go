// Package apiconnect holds the Connect handler and client for wageledger.v1.LedgerService.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	api "github.com/mmynk/wageledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "wageledger.v1.LedgerService"

// Procedure paths of LedgerService.
const (
	LedgerServiceCreateEmployeeProcedure   = "/wageledger.v1.LedgerService/CreateEmployee"
	LedgerServiceListEmployeesProcedure    = "/wageledger.v1.LedgerService/ListEmployees"
	LedgerServiceRemoveEmployeeProcedure   = "/wageledger.v1.LedgerService/RemoveEmployee"
	LedgerServiceMarkAttendanceProcedure   = "/wageledger.v1.LedgerService/MarkAttendance"
	LedgerServiceGetUnpaidSummaryProcedure = "/wageledger.v1.LedgerService/GetUnpaidSummary"
	LedgerServiceApplyPaymentProcedure     = "/wageledger.v1.LedgerService/ApplyPayment"
	LedgerServiceGetHistoryProcedure       = "/wageledger.v1.LedgerService/GetHistory"
	LedgerServiceWatchProcedure            = "/wageledger.v1.LedgerService/Watch"
)

// LedgerServiceClient is a client for the wageledger.v1.LedgerService service.
type LedgerServiceClient interface {
	CreateEmployee(context.Context, *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error)
	ListEmployees(context.Context, *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error)
	RemoveEmployee(context.Context, *connect.Request[api.RemoveEmployeeRequest]) (*connect.Response[api.RemoveEmployeeResponse], error)
	MarkAttendance(context.Context, *connect.Request[api.MarkAttendanceRequest]) (*connect.Response[api.MarkAttendanceResponse], error)
	GetUnpaidSummary(context.Context, *connect.Request[api.GetUnpaidSummaryRequest]) (*connect.Response[api.GetUnpaidSummaryResponse], error)
	ApplyPayment(context.Context, *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	Watch(context.Context, *connect.Request[api.WatchRequest]) (*connect.ServerStreamForClient[api.WatchResponse], error)
}

// NewLedgerServiceClient constructs a client for the wageledger.v1.LedgerService
// service. Calls use the JSON codec unless opts override it.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &ledgerServiceClient{
		createEmployee: connect.NewClient[api.CreateEmployeeRequest, api.CreateEmployeeResponse](
			httpClient, baseURL+LedgerServiceCreateEmployeeProcedure, opts...,
		),
		listEmployees: connect.NewClient[api.ListEmployeesRequest, api.ListEmployeesResponse](
			httpClient, baseURL+LedgerServiceListEmployeesProcedure, opts...,
		),
		removeEmployee: connect.NewClient[api.RemoveEmployeeRequest, api.RemoveEmployeeResponse](
			httpClient, baseURL+LedgerServiceRemoveEmployeeProcedure, opts...,
		),
		markAttendance: connect.NewClient[api.MarkAttendanceRequest, api.MarkAttendanceResponse](
			httpClient, baseURL+LedgerServiceMarkAttendanceProcedure, opts...,
		),
		getUnpaidSummary: connect.NewClient[api.GetUnpaidSummaryRequest, api.GetUnpaidSummaryResponse](
			httpClient, baseURL+LedgerServiceGetUnpaidSummaryProcedure, opts...,
		),
		applyPayment: connect.NewClient[api.ApplyPaymentRequest, api.ApplyPaymentResponse](
			httpClient, baseURL+LedgerServiceApplyPaymentProcedure, opts...,
		),
		getHistory: connect.NewClient[api.GetHistoryRequest, api.GetHistoryResponse](
			httpClient, baseURL+LedgerServiceGetHistoryProcedure, opts...,
		),
		watch: connect.NewClient[api.WatchRequest, api.WatchResponse](
			httpClient, baseURL+LedgerServiceWatchProcedure, opts...,
		),
	}
}

// ledgerServiceClient implements LedgerServiceClient.
type ledgerServiceClient struct {
	createEmployee   *connect.Client[api.CreateEmployeeRequest, api.CreateEmployeeResponse]
	listEmployees    *connect.Client[api.ListEmployeesRequest, api.ListEmployeesResponse]
	removeEmployee   *connect.Client[api.RemoveEmployeeRequest, api.RemoveEmployeeResponse]
	markAttendance   *connect.Client[api.MarkAttendanceRequest, api.MarkAttendanceResponse]
	getUnpaidSummary *connect.Client[api.GetUnpaidSummaryRequest, api.GetUnpaidSummaryResponse]
	applyPayment     *connect.Client[api.ApplyPaymentRequest, api.ApplyPaymentResponse]
	getHistory       *connect.Client[api.GetHistoryRequest, api.GetHistoryResponse]
	watch            *connect.Client[api.WatchRequest, api.WatchResponse]
}

func (c *ledgerServiceClient) CreateEmployee(ctx context.Context, req *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error) {
	return c.createEmployee.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListEmployees(ctx context.Context, req *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error) {
	return c.listEmployees.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RemoveEmployee(ctx context.Context, req *connect.Request[api.RemoveEmployeeRequest]) (*connect.Response[api.RemoveEmployeeResponse], error) {
	return c.removeEmployee.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) MarkAttendance(ctx context.Context, req *connect.Request[api.MarkAttendanceRequest]) (*connect.Response[api.MarkAttendanceResponse], error) {
	return c.markAttendance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetUnpaidSummary(ctx context.Context, req *connect.Request[api.GetUnpaidSummaryRequest]) (*connect.Response[api.GetUnpaidSummaryResponse], error) {
	return c.getUnpaidSummary.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ApplyPayment(ctx context.Context, req *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error) {
	return c.applyPayment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Watch(ctx context.Context, req *connect.Request[api.WatchRequest]) (*connect.ServerStreamForClient[api.WatchResponse], error) {
	return c.watch.CallServerStream(ctx, req)
}

// LedgerServiceHandler is an implementation of the wageledger.v1.LedgerService service.
type LedgerServiceHandler interface {
	CreateEmployee(context.Context, *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error)
	ListEmployees(context.Context, *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error)
	RemoveEmployee(context.Context, *connect.Request[api.RemoveEmployeeRequest]) (*connect.Response[api.RemoveEmployeeResponse], error)
	MarkAttendance(context.Context, *connect.Request[api.MarkAttendanceRequest]) (*connect.Response[api.MarkAttendanceResponse], error)
	GetUnpaidSummary(context.Context, *connect.Request[api.GetUnpaidSummaryRequest]) (*connect.Response[api.GetUnpaidSummaryResponse], error)
	ApplyPayment(context.Context, *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	Watch(context.Context, *connect.Request[api.WatchRequest], *connect.ServerStream[api.WatchResponse]) error
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	createEmployee := connect.NewUnaryHandler(LedgerServiceCreateEmployeeProcedure, svc.CreateEmployee, opts...)
	listEmployees := connect.NewUnaryHandler(LedgerServiceListEmployeesProcedure, svc.ListEmployees, opts...)
	removeEmployee := connect.NewUnaryHandler(LedgerServiceRemoveEmployeeProcedure, svc.RemoveEmployee, opts...)
	markAttendance := connect.NewUnaryHandler(LedgerServiceMarkAttendanceProcedure, svc.MarkAttendance, opts...)
	getUnpaidSummary := connect.NewUnaryHandler(LedgerServiceGetUnpaidSummaryProcedure, svc.GetUnpaidSummary, opts...)
	applyPayment := connect.NewUnaryHandler(LedgerServiceApplyPaymentProcedure, svc.ApplyPayment, opts...)
	getHistory := connect.NewUnaryHandler(LedgerServiceGetHistoryProcedure, svc.GetHistory, opts...)
	watch := connect.NewServerStreamHandler(LedgerServiceWatchProcedure, svc.Watch, opts...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceCreateEmployeeProcedure:
			createEmployee.ServeHTTP(w, r)
		case LedgerServiceListEmployeesProcedure:
			listEmployees.ServeHTTP(w, r)
		case LedgerServiceRemoveEmployeeProcedure:
			removeEmployee.ServeHTTP(w, r)
		case LedgerServiceMarkAttendanceProcedure:
			markAttendance.ServeHTTP(w, r)
		case LedgerServiceGetUnpaidSummaryProcedure:
			getUnpaidSummary.ServeHTTP(w, r)
		case LedgerServiceApplyPaymentProcedure:
			applyPayment.ServeHTTP(w, r)
		case LedgerServiceGetHistoryProcedure:
			getHistory.ServeHTTP(w, r)
		case LedgerServiceWatchProcedure:
			watch.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) CreateEmployee(context.Context, *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.CreateEmployee is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListEmployees(context.Context, *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.ListEmployees is not implemented"))
}

func (UnimplementedLedgerServiceHandler) RemoveEmployee(context.Context, *connect.Request[api.RemoveEmployeeRequest]) (*connect.Response[api.RemoveEmployeeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.RemoveEmployee is not implemented"))
}

func (UnimplementedLedgerServiceHandler) MarkAttendance(context.Context, *connect.Request[api.MarkAttendanceRequest]) (*connect.Response[api.MarkAttendanceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.MarkAttendance is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetUnpaidSummary(context.Context, *connect.Request[api.GetUnpaidSummaryRequest]) (*connect.Response[api.GetUnpaidSummaryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.GetUnpaidSummary is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ApplyPayment(context.Context, *connect.Request[api.ApplyPaymentRequest]) (*connect.Response[api.ApplyPaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.ApplyPayment is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.GetHistory is not implemented"))
}

func (UnimplementedLedgerServiceHandler) Watch(context.Context, *connect.Request[api.WatchRequest], *connect.ServerStream[api.WatchResponse]) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("wageledger.v1.LedgerService.Watch is not implemented"))
}
