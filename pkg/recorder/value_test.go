package recorder_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

func TestValueOf_SupportedScalars(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var nilStr *string
	name := "Karachi"

	tests := []struct {
		name     string
		in       any
		wantKind recorder.Kind
		wantAny  any
	}{
		{"nil", nil, recorder.KindNull, nil},
		{"string", "abc", recorder.KindString, "abc"},
		{"bytes", []byte("xyz"), recorder.KindString, "xyz"},
		{"int", 7, recorder.KindInt, int64(7)},
		{"int32", int32(-3), recorder.KindInt, int64(-3)},
		{"uint16", uint16(9), recorder.KindInt, int64(9)},
		{"float32", float32(0.5), recorder.KindFloat, float64(0.5)},
		{"bool", true, recorder.KindBool, true},
		{"time", now, recorder.KindTime, now},
		{"nil pointer", nilStr, recorder.KindNull, nil},
		{"string pointer", &name, recorder.KindString, "Karachi"},
		{"already a value", recorder.Int(4), recorder.KindInt, int64(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := recorder.ValueOf(tt.in)
			if err != nil {
				t.Fatalf("ValueOf(%v) error: %v", tt.in, err)
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.wantKind)
			}
			if v.Any() != tt.wantAny {
				t.Errorf("Any() = %#v, want %#v", v.Any(), tt.wantAny)
			}
		})
	}
}

func TestValueOf_RejectsNonScalars(t *testing.T) {
	inputs := []any{
		map[string]int{"a": 1},
		[]int{1, 2},
		struct{}{},
		uint64(math.MaxUint64),
	}
	for _, in := range inputs {
		if _, err := recorder.ValueOf(in); !errors.Is(err, recorder.ErrUnsupportedValue) {
			t.Errorf("ValueOf(%T) error = %v, want ErrUnsupportedValue", in, err)
		}
	}
}

func TestValues_ReportsPosition(t *testing.T) {
	_, err := recorder.Values("ok", 1, []string{"bad"})
	if !errors.Is(err, recorder.ErrUnsupportedValue) {
		t.Fatalf("Values() error = %v, want ErrUnsupportedValue", err)
	}
	if got := err.Error(); got[:11] != "parameter 3" {
		t.Errorf("error %q should name parameter 3", got)
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v recorder.Value
	if !v.IsNull() || v.Any() != nil {
		t.Fatalf("zero Value should be NULL, got %#v", v)
	}
	if !recorder.NullableString("").IsNull() {
		t.Error("NullableString(\"\") should be NULL")
	}
	if recorder.NullableString("x").Any() != "x" {
		t.Error("NullableString(\"x\") should carry the string")
	}
}
