package pipeline

import (
	"errors"
	"fmt"
)

// Construction-time errors (§7 "Construction" taxonomy): raised at the
// call site that built the offending operation.
var (
	ErrInvalidBatchSize = errors.New("pipeline: batch size must be >= 1")
	ErrInvalidPage      = errors.New("pipeline: invalid page")
)

// Evaluation-time errors (§7 "Evaluation" taxonomy): returned by the
// terminal operation that discovered them; no partial result is
// returned alongside them.
var (
	ErrEmptyReduction = errors.New("pipeline: empty reduction")
	ErrEmptySequence  = errors.New("pipeline: empty sequence")
)

// ErrNotNumeric reports that Sum encountered an item it cannot coerce
// to a float64.
func ErrNotNumeric(item Item) error {
	return fmt.Errorf("pipeline: sum: item %#v is not numeric", item)
}
