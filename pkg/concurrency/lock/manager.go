package lock

import (
	"latchkey/pkg/primitives"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/rs/zerolog/log"
	golock "github.com/viney-shih/go-lock"
)

// PointerResolver is the slice of the buffer manager the lock manager
// depends on: resolving row addresses and validating table sources. Both
// methods are called with the manager latch held and must not block on it.
type PointerResolver interface {
	DecodePointer(addr primitives.RowAddress) (primitives.PageID, uint64, bool)
	GetIndexPage(source primitives.FileID) primitives.PageID
}

// LockResult reports the outcome of a successful Acquire or Upgrade call:
// either the lock was granted, or the transaction is now blocked on it.
type LockResult struct {
	Blocked bool
}

// Manager arbitrates transactional access to tables, pages and rows.
//
// Every public method takes the single manager latch for its full
// duration, hierarchical descent, queue manipulation and deadlock
// detection included; no operation suspends while holding it. Blocked
// acquisitions do not wait inside the manager; they return with
// Blocked=true, and callers hand locks off with PickTransaction when
// resources free up, or break ties with DetectDeadlock and Rollback.
type Manager struct {
	latch    golock.Mutex
	resolver PointerResolver

	tables       map[primitives.TableID]*tableInfo
	transactions map[primitives.TransactionID]*transInfo

	// tableLocks is dense, indexed by TableID. Slots are created on first
	// use and kept (possibly empty) forever after, so indices never shift.
	tableLocks []*tableLockInfo

	pendings *btree.BTreeG[*pendingBucket]
}

// NewManager creates a lock manager that resolves row addresses through
// the given buffer manager.
func NewManager(resolver PointerResolver) *Manager {
	return &Manager{
		latch:        golock.NewCASMutex(),
		resolver:     resolver,
		tables:       make(map[primitives.TableID]*tableInfo),
		transactions: make(map[primitives.TransactionID]*transInfo),
		pendings:     newPendingTree(),
	}
}

// RegisterTable makes a table lockable. The source must have a valid index
// page in the buffer manager; duplicate registrations fail.
func (m *Manager) RegisterTable(table primitives.TableID, source primitives.FileID) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	if _, exists := m.tables[table]; exists {
		return false
	}
	if !m.resolver.GetIndexPage(source).IsValid() {
		return false
	}

	m.tables[table] = &tableInfo{table: table, source: source}
	log.Info().Stringer("table", table).Stringer("source", source).Msg("table registered")
	return true
}

// UnregisterTable removes a table registration. Lock state already built
// for the table keeps its slot; only the registration goes away.
func (m *Manager) UnregisterTable(table primitives.TableID) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	if _, exists := m.tables[table]; !exists {
		return false
	}

	delete(m.tables, table)
	log.Info().Stringer("table", table).Msg("table unregistered")
	return true
}

// RegisterTransaction admits a transaction with a scheduling importance.
// Higher importance strictly wins during lock hand-off.
func (m *Manager) RegisterTransaction(trans primitives.TransactionID, importance uint64) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	if _, exists := m.transactions[trans]; exists {
		return false
	}

	m.transactions[trans] = &transInfo{trans: trans, importance: importance}
	log.Info().Stringer("txn", trans).Uint64("importance", importance).Msg("transaction registered")
	return true
}

// UnregisterTransaction removes a drained transaction: one that holds no
// locks and is not waiting on one.
func (m *Manager) UnregisterTransaction(trans primitives.TransactionID) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	info, exists := m.transactions[trans]
	if !exists {
		return false
	}
	if len(info.acquired) > 0 || info.pendingLock.IsValid() {
		return false
	}

	delete(m.transactions, trans)
	log.Info().Stringer("txn", trans).Msg("transaction unregistered")
	return true
}

// AcquireLock requests target for owner. On success the result reports
// whether the lock was granted immediately or the transaction is now
// queued behind the conflicting holders. A transaction that is already
// pending on another target is rejected.
func (m *Manager) AcquireLock(owner primitives.TransactionID, target LockTarget) (LockResult, bool) {
	m.latch.Lock()
	defer m.latch.Unlock()

	var result LockResult
	ok := m.acquireLocked(owner, target, &result, true)
	if ok {
		log.Debug().Stringer("txn", owner).Stringer("target", target).Bool("blocked", result.Blocked).Msg("acquire")
	}
	return result, ok
}

// ReleaseLock gives up one lock, granted or pending. Releasing a pending
// lock dequeues the transaction; releasing a granted one prunes emptied
// row and page state on the way out.
func (m *Manager) ReleaseLock(owner primitives.TransactionID, target LockTarget) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	ok := m.releaseLocked(owner, target)
	if ok {
		log.Debug().Stringer("txn", owner).Stringer("target", target).Msg("release")
	}
	return ok
}

// UpgradeLock trades a held lock for the same object at newAccess. The old
// lock is released first; if the new mode conflicts with the remaining
// holders the transaction ends up pending on the upgraded target, exactly
// as if it had released and re-acquired by hand.
func (m *Manager) UpgradeLock(owner primitives.TransactionID, oldTarget LockTarget, newAccess Access) (LockResult, bool) {
	m.latch.Lock()
	defer m.latch.Unlock()

	var result LockResult
	ok := m.upgradeLocked(owner, oldTarget, newAccess, &result)
	if ok {
		log.Debug().Stringer("txn", owner).Stringer("target", oldTarget).Stringer("to", newAccess).Bool("blocked", result.Blocked).Msg("upgrade")
	}
	return result, ok
}

// TableHasLocks reports whether any lock state exists under a table.
// Unknown and invalid tables report false.
func (m *Manager) TableHasLocks(table primitives.TableID) bool {
	if !table.IsValid() {
		return false
	}

	m.latch.Lock()
	defer m.latch.Unlock()

	if len(m.tableLocks) <= table.Index() {
		return false
	}
	tbl := m.tableLocks[table.Index()]
	return tbl != nil && !tbl.empty()
}

// Rollback releases everything a blocked transaction has: first its
// pending lock, then every held lock in reverse acquisition order. Only
// transactions that are actually waiting can be rolled back; the release
// of state the manager itself tracked must succeed.
func (m *Manager) Rollback(trans primitives.TransactionID) bool {
	m.latch.Lock()
	defer m.latch.Unlock()

	info, exists := m.transactions[trans]
	if !exists || !info.pendingLock.IsValid() {
		return false
	}

	if !m.releaseLocked(trans, info.pendingLock) {
		panic(errors.AssertionFailedf("lock: failed to release pending lock during rollback of %s", trans))
	}
	for i := len(info.acquired) - 1; i >= 0; i-- {
		target := info.acquired[i]
		if !m.releaseLocked(trans, target) {
			panic(errors.AssertionFailedf("lock: failed to release %s during rollback of %s", target, trans))
		}
	}

	log.Debug().Stringer("txn", trans).Msg("rolled back")
	return true
}
