package entities

import "errors"

// Error kinds of schema resolution. Every resolver error wraps exactly one.
var (
	// ErrConfiguration is fatal: the document cannot be resolved
	ErrConfiguration = errors.New("schema configuration error")
	// ErrLookup reports a query against an undefined attribute or collection
	ErrLookup = errors.New("schema lookup error")
	// ErrComplaint reports degraded, optional information (e.g., a missing concept)
	ErrComplaint = errors.New("schema complaint")
)

// Severity classifies an error by how a caller is expected to react
type Severity string

const (
	SeverityFatal     Severity = "Fatal"
	SeverityInvalid   Severity = "Invalid"
	SeverityComplaint Severity = "Complaint"
)

// SeverityOf returns the severity of a resolver error.
// Errors that wrap none of the kinds are treated as fatal.
func SeverityOf(err error) Severity {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrComplaint):
		return SeverityComplaint
	case errors.Is(err, ErrLookup):
		return SeverityInvalid
	default:
		return SeverityFatal
	}
}
