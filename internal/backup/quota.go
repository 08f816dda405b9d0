package backup

import "context"

// QuotaChecker reports available local storage. known=false means the
// platform could not be queried; the import pre-check then optimistically
// assumes sufficient space rather than blocking the operator.
type QuotaChecker interface {
	Available(ctx context.Context) (bytes int64, known bool, err error)
}

type optimisticQuota struct{}

func (optimisticQuota) Available(context.Context) (int64, bool, error) {
	return 0, false, nil
}

// OptimisticQuota is the checker used when no quota is configured: every
// pre-check passes.
func OptimisticQuota() QuotaChecker {
	return optimisticQuota{}
}

// budgetQuota enforces a fixed byte budget against a live usage reading,
// typically the partition database's file size.
type budgetQuota struct {
	limit int64
	used  func() int64
}

// NewBudgetQuota creates a checker with a fixed byte limit. used reports the
// current consumption; a nil used counts nothing as consumed.
func NewBudgetQuota(limitBytes int64, used func() int64) QuotaChecker {
	return budgetQuota{limit: limitBytes, used: used}
}

func (q budgetQuota) Available(context.Context) (int64, bool, error) {
	var consumed int64
	if q.used != nil {
		consumed = q.used()
	}
	free := q.limit - consumed
	if free < 0 {
		free = 0
	}
	return free, true, nil
}
