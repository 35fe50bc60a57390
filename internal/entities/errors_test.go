package entities

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{name: "nil", err: nil, want: ""},
		{name: "configuration", err: fmt.Errorf("%w: circular base chain", ErrConfiguration), want: SeverityFatal},
		{name: "lookup", err: fmt.Errorf("%w: npts is not defined", ErrLookup), want: SeverityInvalid},
		{name: "complaint", err: fmt.Errorf("%w: no concept", ErrComplaint), want: SeverityComplaint},
		{name: "wrapped twice", err: fmt.Errorf("outer: %w", fmt.Errorf("%w: x", ErrLookup)), want: SeverityInvalid},
		{name: "unclassified", err: errors.New("boom"), want: SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeverityOf(tt.err); got != tt.want {
				t.Errorf("SeverityOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorKinds_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: ErrConfiguration, want: "schema configuration error"},
		{err: ErrLookup, want: "schema lookup error"},
		{err: ErrComplaint, want: "schema complaint"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	wrapped := fmt.Errorf("%w: npts is not defined in site", ErrLookup)
	if got, want := wrapped.Error(), "schema lookup error: npts is not defined in site"; got != want {
		t.Errorf("wrapped Error() = %q, want %q", got, want)
	}
}
