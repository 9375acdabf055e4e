package verify

import (
	"errors"
	"fmt"
)

// failureBudget counts failed roots and ends a run once limit of them have
// failed. A limit of 0 means unlimited.
type failureBudget struct {
	limit   int
	current int
}

func newFailureBudget(limit int) *failureBudget {
	return &failureBudget{limit: limit}
}

// Spend records one failure. It returns *BudgetExceededError once the
// budget is used up; the failure that exhausts it is still recorded.
func (b *failureBudget) Spend(method string, root int) error {
	b.current++
	if b.limit > 0 && b.current >= b.limit {
		return &BudgetExceededError{
			Method:   method,
			Root:     root,
			Failures: b.current,
			Limit:    b.limit,
		}
	}
	return nil
}

// BudgetExceededError reports that a run stopped early because it reached
// its failure limit. It is not a checking failure in itself: the report
// still holds every failure found up to that point.
type BudgetExceededError struct {
	Method   string // method of the last failing root
	Root     int    // index of the last failing root
	Failures int
	Limit    int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("stopped after %s[%d]: %d failures reached limit %d",
		e.Method, e.Root, e.Failures, e.Limit)
}

// IsBudgetExceeded reports whether err is a *BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
