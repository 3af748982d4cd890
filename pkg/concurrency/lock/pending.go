package lock

import (
	"slices"

	"latchkey/pkg/primitives"

	"github.com/google/btree"
)

// pendingBucket groups the blocked transactions that share one importance
// value, in arrival order. lastTryIndex is the scheduler's round-robin
// cursor: the next hand-off attempt starts just after it. A new bucket
// starts at -1, so the first attempt begins at slot 0; removing the slot
// at or before the cursor moves it back by one, which can return it to -1.
type pendingBucket struct {
	importance   uint64
	transactions []primitives.TransactionID
	lastTryIndex int
}

const pendingTreeDegree = 8

// newPendingTree builds the importance-ordered bucket index. Scheduling
// walks it descending so higher importance always wins.
func newPendingTree() *btree.BTreeG[*pendingBucket] {
	return btree.NewG(pendingTreeDegree, func(a, b *pendingBucket) bool {
		return a.importance < b.importance
	})
}

func (m *Manager) pendingBucketFor(importance uint64) (*pendingBucket, bool) {
	return m.pendings.Get(&pendingBucket{importance: importance})
}

// addPendingLock parks owner on target in the bucket matching its
// importance. Fails if the transaction already has a pending lock or is
// somehow already queued.
func (m *Manager) addPendingLock(owner *transInfo, target LockTarget) bool {
	if owner.pendingLock.IsValid() {
		return false
	}

	bucket, exists := m.pendingBucketFor(owner.importance)
	if !exists {
		bucket = &pendingBucket{importance: owner.importance, lastTryIndex: -1}
		m.pendings.ReplaceOrInsert(bucket)
	}

	if slices.Contains(bucket.transactions, owner.trans) {
		return false
	}
	bucket.transactions = append(bucket.transactions, owner.trans)
	owner.pendingLock = target
	return true
}

// removePendingLock clears owner's pending lock if it equals target and
// removes the transaction from its bucket, deleting the bucket when it
// empties. Fails if owner is not pending on exactly that target.
func (m *Manager) removePendingLock(owner *transInfo, target LockTarget) bool {
	if !owner.pendingLock.IsValid() || owner.pendingLock != target {
		return false
	}

	bucket, exists := m.pendingBucketFor(owner.importance)
	if !exists {
		return false
	}

	index := slices.Index(bucket.transactions, owner.trans)
	if index < 0 {
		return false
	}

	bucket.transactions = slices.Delete(bucket.transactions, index, index+1)
	if index <= bucket.lastTryIndex {
		// Keep the round-robin cursor pointing at the same successor.
		bucket.lastTryIndex--
	}
	if len(bucket.transactions) == 0 {
		m.pendings.Delete(bucket)
	}
	owner.pendingLock = LockTarget{}
	return true
}
