package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/wageledger/internal/models"
	"github.com/mmynk/wageledger/internal/storage"
)

// CurrentVersion is the record schema version this build reads and writes.
const CurrentVersion = 4

// Default returns the registry of every schema change the ledger has shipped.
//
//	0 -> 1  empty store becomes a version 1 ledger
//	1 -> 2  employee dailyRate renamed to dailyWage
//	2 -> 3  attendance gains paid and paymentId; dates lose their time of day
//	3 -> 4  payment gains type and attendanceIds; amounts become whole minor units
func Default() *Registry {
	r := NewRegistry()
	for _, m := range []Migration{
		{
			From:        0,
			Description: "initialise ledger",
		},
		{
			From:        1,
			Description: "rename employee dailyRate to dailyWage",
			Transforms:  map[storage.Kind]Transform{storage.KindEmployee: renameDailyRate},
		},
		{
			From:        2,
			Description: "add attendance settlement fields",
			Transforms:  map[storage.Kind]Transform{storage.KindAttendance: addAttendanceSettlement},
		},
		{
			From:        3,
			Description: "add payment type and settled attendance",
			Transforms:  map[storage.Kind]Transform{storage.KindPayment: addPaymentAllocation},
		},
	} {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}

// renameDailyRate copies dailyRate into dailyWage. A missing rate becomes 0,
// which leaves the employee with nothing owed rather than guessing a wage.
func renameDailyRate(rec storage.Record) (storage.Record, error) {
	if wage, ok := rec["dailyWage"]; ok && wage != nil {
		amount, err := wholeAmount(wage)
		if err != nil {
			return nil, fmt.Errorf("dailyWage: %w", err)
		}
		rec["dailyWage"] = amount
		delete(rec, "dailyRate")
		return rec, nil
	}

	rate, ok := rec["dailyRate"]
	if !ok || rate == nil {
		rate = json.Number("0")
	}
	amount, err := wholeAmount(rate)
	if err != nil {
		return nil, fmt.Errorf("dailyRate: %w", err)
	}
	rec["dailyWage"] = amount
	delete(rec, "dailyRate")
	return rec, nil
}

func addAttendanceSettlement(rec storage.Record) (storage.Record, error) {
	if v, ok := rec["paid"]; !ok || v == nil {
		rec["paid"] = false
	}
	if v, ok := rec["paymentId"]; !ok || v == nil {
		rec["paymentId"] = ""
	}

	raw, ok := rec["date"].(string)
	if !ok {
		return nil, errors.New("attendance has no date")
	}
	day, err := dayOf(raw)
	if err != nil {
		return nil, err
	}
	rec["date"] = day
	return rec, nil
}

func addPaymentAllocation(rec storage.Record) (storage.Record, error) {
	if v, _ := rec["type"].(string); v == "" {
		rec["type"] = string(models.PaymentTypeManual)
	}
	if v, ok := rec["attendanceIds"]; !ok || v == nil {
		rec["attendanceIds"] = []any{}
	}
	if v, ok := rec["note"]; ok && v == nil {
		delete(rec, "note")
	}

	amount, ok := rec["amount"]
	if !ok {
		return nil, errors.New("payment has no amount")
	}
	normalized, err := paymentAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	rec["amount"] = normalized
	return rec, nil
}

// dayOf reduces a legacy timestamp or a plain date to YYYY-MM-DD.
func dayOf(raw string) (string, error) {
	if d, err := models.ParseDate(raw); err == nil {
		return d.String(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", fmt.Errorf("unrecognised date %q", raw)
	}
	return models.DateOf(t).String(), nil
}

// wholeAmount rounds a legacy numeric value to whole minor units.
func wholeAmount(v any) (json.Number, error) {
	s, err := numberString(v)
	if err != nil {
		return "", err
	}
	a, err := models.RoundAmount(s)
	if err != nil {
		return "", err
	}
	return json.Number(a.String()), nil
}

// paymentAmount is wholeAmount for a value that must stay positive.
// A positive amount that rounds to zero becomes one minor unit.
func paymentAmount(v any) (json.Number, error) {
	s, err := numberString(v)
	if err != nil {
		return "", err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", models.ErrInvalidAmount
	}
	if !d.IsPositive() {
		return "", fmt.Errorf("%w: %s is not positive", models.ErrInvalidAmount, s)
	}
	a, err := models.RoundAmount(s)
	if err != nil {
		return "", err
	}
	if a == 0 {
		a = 1
	}
	return json.Number(a.String()), nil
}

func numberString(v any) (string, error) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case string:
		return n, nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}
