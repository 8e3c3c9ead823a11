// Package api defines the wire messages of the wageledger.v1 API.
//
// Amounts in requests are decimal strings so clients never round through
// floating point; amounts in responses are whole minor units. Dates are
// YYYY-MM-DD, timestamps are Unix seconds.
package api

type Employee struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	DailyWage int64  `json:"dailyWage"`
	CreatedAt int64  `json:"createdAt"`
}

type AttendanceRecord struct {
	Id         string `json:"id"`
	EmployeeId string `json:"employeeId"`
	Date       string `json:"date"`
	Paid       bool   `json:"paid"`
	PaymentId  string `json:"paymentId,omitempty"`
}

type Payment struct {
	Id            string   `json:"id"`
	EmployeeId    string   `json:"employeeId"`
	Amount        int64    `json:"amount"`
	Date          int64    `json:"date"`
	Note          string   `json:"note,omitempty"`
	Type          string   `json:"type"`
	AttendanceIds []string `json:"attendanceIds"`
}

type UnpaidSummary struct {
	EmployeeId string `json:"employeeId"`
	Count      int32  `json:"count"`
	TotalOwed  int64  `json:"totalOwed"`
}

type CreateEmployeeRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	DailyWage string `json:"dailyWage"`
}

type CreateEmployeeResponse struct {
	Employee *Employee `json:"employee"`
}

type ListEmployeesRequest struct{}

type ListEmployeesResponse struct {
	Employees []*Employee `json:"employees"`
}

type RemoveEmployeeRequest struct {
	EmployeeId string `json:"employeeId"`
}

type RemoveEmployeeResponse struct{}

type MarkAttendanceRequest struct {
	EmployeeId string `json:"employeeId"`
	// Date defaults to today on the server when empty.
	Date string `json:"date,omitempty"`
}

type MarkAttendanceResponse struct {
	Record *AttendanceRecord `json:"record"`
}

type GetUnpaidSummaryRequest struct {
	EmployeeId string `json:"employeeId"`
}

type GetUnpaidSummaryResponse struct {
	Summary *UnpaidSummary `json:"summary"`
}

type ApplyPaymentRequest struct {
	EmployeeId string `json:"employeeId"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type ApplyPaymentResponse struct {
	Payment     *Payment `json:"payment"`
	DaysCovered int32    `json:"daysCovered"`
	Allocated   int64    `json:"allocated"`
	Remainder   int64    `json:"remainder"`
	Outstanding int64    `json:"outstanding"`
}

type GetHistoryRequest struct {
	EmployeeId string `json:"employeeId"`
}

type GetHistoryResponse struct {
	Payments   []*Payment          `json:"payments"`
	Attendance []*AttendanceRecord `json:"attendance"`
}

type WatchRequest struct {
	// EmployeeId limits the stream to one employee. Empty watches everyone.
	EmployeeId string `json:"employeeId,omitempty"`
}

// WatchResponse carries exactly one of Snapshot or Event.
type WatchResponse struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// Snapshot is the state of the watched scope when the stream opened.
type Snapshot struct {
	Employees []*Employee      `json:"employees"`
	Summaries []*UnpaidSummary `json:"summaries"`
}

type Event struct {
	Seq           uint64   `json:"seq"`
	Kind          string   `json:"kind"`
	EmployeeId    string   `json:"employeeId"`
	AttendanceId  string   `json:"attendanceId,omitempty"`
	PaymentId     string   `json:"paymentId,omitempty"`
	AttendanceIds []string `json:"attendanceIds,omitempty"`
	At            int64    `json:"at"`
}
