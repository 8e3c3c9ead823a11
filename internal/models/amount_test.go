package models

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr error
	}{
		{name: "plain integer", input: "2000", want: 2000},
		{name: "trailing zero fraction", input: "2000.00", want: 2000},
		{name: "surrounding spaces", input: "  45 ", want: 45},
		{name: "fractional", input: "2000.5", wantErr: ErrFractionalAmount},
		{name: "zero", input: "0", wantErr: ErrInvalidAmount},
		{name: "negative", input: "-10", wantErr: ErrInvalidAmount},
		{name: "garbage", input: "ten", wantErr: ErrInvalidAmount},
		{name: "empty", input: "", wantErr: ErrInvalidAmount},
		{name: "overflow", input: "9223372036854775808", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		input string
		want  Amount
	}{
		{"1500", 1500},
		{"1500.4", 1500},
		{"1500.5", 1501},
		{"0.49", 0},
	}
	for _, tt := range tests {
		got, err := RoundAmount(tt.input)
		if err != nil {
			t.Fatalf("RoundAmount(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("RoundAmount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := RoundAmount("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAmountTimes(t *testing.T) {
	tests := []struct {
		name    string
		a       Amount
		n       int
		want    Amount
		wantErr error
	}{
		{name: "simple", a: 2000, n: 3, want: 6000},
		{name: "zero days", a: 1 << 62, n: 0, want: 0},
		{name: "largest fit", a: maxAmount, n: 1, want: maxAmount},
		{name: "overflow", a: 1 << 62, n: 2, wantErr: ErrAmountOverflow},
		{name: "negative count", a: 10, n: -1, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Times(tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("%d.Times(%d) error = %v, want %v", tt.a, tt.n, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("%d.Times(%d) unexpected error: %v", tt.a, tt.n, err)
			}
			if got != tt.want {
				t.Errorf("%d.Times(%d) = %d, want %d", tt.a, tt.n, got, tt.want)
			}
		})
	}
}
