// Package records models establishment records and the keyed-search source
// they come from.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Attribute names carried by establishment records.
const (
	FieldOfficialName      = "Official Establishment Name"
	FieldPartnerStatus     = "Partner Status"
	FieldAwardLevel        = "Award Level"
	FieldEstablishmentType = "Establishment Type"
	FieldDutiesAndTaxes    = "Duties & Taxes"
	FieldRedemptionCode    = "Redemption Code"
)

// Record is one establishment. ID is the identity token assigned by the
// source.
type Record struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Get returns the trimmed value of a named attribute.
func (r Record) Get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// Name returns the official establishment name.
func (r Record) Name() string { return r.Get(FieldOfficialName) }

// Match selects how Query.Text is compared to the field.
type Match int

const (
	// Contains matches records whose field contains the text, ignoring case.
	Contains Match = iota
	// Exact matches records whose field equals the text, ignoring case.
	Exact
)

func (m Match) String() string {
	if m == Exact {
		return "exact"
	}
	return "contains"
}

// Query is a keyed search against one field.
type Query struct {
	Field string
	Text  string
	Match Match
	Limit int
}

// Source performs keyed searches. Implementations must honour ctx
// cancellation.
type Source interface {
	Search(ctx context.Context, q Query) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q Query) ([]Record, error)

func (f SourceFunc) Search(ctx context.Context, q Query) ([]Record, error) { return f(ctx, q) }

// ErrUnavailable wraps failures to reach the source at all.
var ErrUnavailable = errors.New("record source unavailable")

// StatusError reports a non-success response from the source.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("record source returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("record source returned status %d: %s", e.StatusCode, e.Body)
}
