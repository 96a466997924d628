package transfer

import (
	"fmt"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

// Outcome pairs an item with the result of its transfer.
type Outcome[T Item] struct {
	// Item is the element the transfer ran for.
	Item T

	// Files are the destination paths the transfer produced.
	Files []string

	// Err is nil when the transfer succeeded.
	Err error
}

// Report aggregates the outcomes of a bulk transfer.
type Report[T Item] struct {
	total    int
	outcomes []Outcome[T]
}

// Total returns the number of items submitted.
func (r *Report[T]) Total() int { return r.total }

// Outcomes returns every outcome in completion order.
func (r *Report[T]) Outcomes() []Outcome[T] { return r.outcomes }

// Succeeded returns the items whose transfer completed.
func (r *Report[T]) Succeeded() []T {
	out := make([]T, 0, len(r.outcomes))
	for _, o := range r.outcomes {
		if o.Err == nil {
			out = append(out, o.Item)
		}
	}
	return out
}

// Files returns every file the batch produced.
func (r *Report[T]) Files() []string {
	var files []string
	for _, o := range r.outcomes {
		if o.Err == nil {
			files = append(files, o.Files...)
		}
	}
	return files
}

// FailureCount returns the number of failed items.
func (r *Report[T]) FailureCount() int {
	n := 0
	for _, o := range r.outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// FailedIDs returns the identifiers of the failed items.
func (r *Report[T]) FailedIDs() []int64 {
	var ids []int64
	for _, o := range r.outcomes {
		if o.Err != nil {
			ids = append(ids, o.Item.ID())
		}
	}
	return ids
}

// FailureRate returns the failed share of the batch as a percentage.
func (r *Report[T]) FailureRate() float64 {
	if r.total == 0 {
		return 0
	}
	return 100 * float64(r.FailureCount()) / float64(r.total)
}

// Err summarizes the batch: nil when every item succeeded, an error
// wrapping ErrTransferFailed otherwise.
func (r *Report[T]) Err() error {
	failed := r.FailureCount()
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d items", errors.ErrTransferFailed, failed, r.total)
}
