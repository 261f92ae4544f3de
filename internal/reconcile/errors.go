package reconcile

import "fmt"

// ReconciliationError reports a payload missing a required field or carrying
// an unusable type for one. Callers must not build a document from a record
// that failed reconciliation.
type ReconciliationError struct {
	Field  string
	Reason string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("cannot reconcile payload: field %q %s", e.Field, e.Reason)
}

func missingField(field string) *ReconciliationError {
	return &ReconciliationError{Field: field, Reason: "is missing"}
}

func badType(field, want string) *ReconciliationError {
	return &ReconciliationError{Field: field, Reason: "must be " + want}
}
