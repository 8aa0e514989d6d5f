package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClientNotFound is returned when no reference row exists for the client.
var ErrClientNotFound = errors.New("metadata: client not found")

// IsClientNotFoundErr returns true if err is or wraps ErrClientNotFound.
func IsClientNotFoundErr(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

// MissingColumnsError reports a query result that lacks required columns.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns in %s: %s", e.Table, strings.Join(e.Columns, ", "))
}

// MissingFieldError reports a client description that lacks a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// checkColumns returns a MissingColumnsError naming every required column
// absent from have. Comparison is case-insensitive since drivers differ in
// how they fold unquoted identifiers.
func checkColumns(table string, have, required []string) error {
	present := make(map[string]bool, len(have))
	for _, c := range have {
		present[strings.ToUpper(c)] = true
	}
	var missing []string
	for _, c := range required {
		if !present[strings.ToUpper(c)] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Table: table, Columns: missing}
	}
	return nil
}
