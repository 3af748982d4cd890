package lock

import (
	"slices"

	"latchkey/pkg/primitives"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

// PickTransaction hands a freed resource to one blocked transaction.
//
// Buckets are scanned in descending importance; a grantable transaction in
// a higher bucket always wins, no matter how long lower ones have waited.
// Within a bucket the scan is round-robin: it starts just after the last
// tried slot and makes at most one full revolution, so peers of equal
// importance cannot starve each other.
//
// The chosen transaction has its pending lock granted and cleared and is
// removed from its bucket. When nothing is grantable, the invalid
// transaction ID is returned.
func (m *Manager) PickTransaction() (primitives.TransactionID, LockResult) {
	m.latch.Lock()
	defer m.latch.Unlock()

	var result LockResult

	buckets := make([]*pendingBucket, 0, m.pendings.Len())
	m.pendings.Descend(func(bucket *pendingBucket) bool {
		buckets = append(buckets, bucket)
		return true
	})

	for _, bucket := range buckets {
		// The stop slot is captured before the first cursor advance; with a
		// single queued transaction the loop still tries it exactly once.
		stop := bucket.lastTryIndex
		if stop == -1 {
			stop = len(bucket.transactions) - 1
		}

		for {
			bucket.lastTryIndex = (bucket.lastTryIndex + 1) % len(bucket.transactions)
			trans := bucket.transactions[bucket.lastTryIndex]
			info := m.transactions[trans]
			if info == nil || !info.pendingLock.IsValid() {
				panic(errors.AssertionFailedf("lock: pending queue entry %s has no pending lock", trans))
			}

			if !m.acquireLocked(trans, info.pendingLock, &result, false) {
				panic(errors.AssertionFailedf("lock: re-acquire of pending lock %s rejected", info.pendingLock))
			}

			if !result.Blocked {
				info.pendingLock = LockTarget{}
				bucket.transactions = slices.Delete(bucket.transactions, bucket.lastTryIndex, bucket.lastTryIndex+1)
				bucket.lastTryIndex--
				if len(bucket.transactions) == 0 {
					m.pendings.Delete(bucket)
				}
				log.Debug().Stringer("txn", trans).Msg("pending lock handed off")
				return trans, result
			}

			if bucket.lastTryIndex == stop {
				break
			}
		}
	}

	return primitives.InvalidTransactionID, result
}
