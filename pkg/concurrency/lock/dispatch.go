package lock

import (
	"latchkey/pkg/primitives"

	"github.com/cockroachdb/errors"
)

// checkInput validates the common preconditions of every lock operation:
// a registered owner, a registered table, and a usable page or row handle
// for the finer granularities. Returns nil when the operation must be
// rejected.
func (m *Manager) checkInput(owner primitives.TransactionID, target LockTarget) *transInfo {
	if !owner.IsValid() || !target.Table.IsValid() {
		return nil
	}
	switch target.Type {
	case TargetTable:
	case TargetPage:
		if !target.Page.IsValid() {
			return nil
		}
	case TargetRow:
		if !target.Address.IsValid() {
			return nil
		}
	default:
		return nil
	}

	if _, registered := m.tables[target.Table]; !registered {
		return nil
	}
	return m.transactions[owner]
}

// operate routes one operation through the table → page → row hierarchy.
//
// createLockInfo decides whether missing tree nodes are allocated on the
// way down (Acquire) or cause failure (Upgrade, Release). checkPendingLock
// rejects transactions that are already parked on another target before
// anything else happens. Row addresses are resolved through the buffer
// manager; an address that was accepted by checkInput but cannot be
// decoded means the collaborator contract is broken.
func (m *Manager) operate(owner primitives.TransactionID, target LockTarget, op lockOperation, createLockInfo, checkPendingLock bool) bool {
	trans := m.checkInput(owner, target)
	if trans == nil {
		return false
	}
	if checkPendingLock && trans.pendingLock.IsValid() {
		return false
	}

	if pre, ok := op.(preLockHook); ok {
		success, stopped := pre.preLock(trans)
		if stopped {
			return success
		}
	}

	// Find the table slot, growing the dense vector on demand. Slots are
	// never removed once created, so the index stays stable.
	index := target.Table.Index()
	if len(m.tableLocks) <= index {
		if !createLockInfo {
			return false
		}
		m.tableLocks = append(m.tableLocks, make([]*tableLockInfo, index+1-len(m.tableLocks))...)
	}
	tbl := m.tableLocks[index]
	if tbl == nil {
		if !createLockInfo {
			return false
		}
		tbl = newTableLockInfo(target.Table)
		m.tableLocks[index] = tbl
	}

	var targetPage primitives.PageID
	var targetOffset uint64
	switch target.Type {
	case TargetTable:
		return op.table(trans, tbl)
	case TargetPage:
		targetPage = target.Page
	case TargetRow:
		page, offset, ok := m.resolver.DecodePointer(target.Address)
		if !ok {
			panic(errors.AssertionFailedf("lock: unable to decode row pointer %s", target.Address))
		}
		targetPage, targetOffset = page, offset
	}

	pg := tbl.pages[targetPage]
	if pg == nil {
		if !createLockInfo {
			return false
		}
		pg = newPageLockInfo(targetPage)
		tbl.pages[targetPage] = pg
	}
	if target.Type == TargetPage {
		return op.page(trans, tbl, pg)
	}

	row := pg.rows[targetOffset]
	if row == nil {
		if !createLockInfo {
			return false
		}
		row = newRowLockInfo(targetOffset)
		pg.rows[targetOffset] = row
	}
	return op.row(trans, tbl, pg, row)
}

// acquireLocked, releaseLocked and upgradeLocked are the latch-free
// entry points shared by the public API, the scheduler and rollback.

func (m *Manager) acquireLocked(owner primitives.TransactionID, target LockTarget, result *LockResult, processPending bool) bool {
	op := &acquireOp{m: m, target: target, result: result, addPending: processPending}
	return m.operate(owner, target, op, true, processPending)
}

func (m *Manager) releaseLocked(owner primitives.TransactionID, target LockTarget) bool {
	op := &releaseOp{m: m, target: target}
	return m.operate(owner, target, op, false, false)
}

func (m *Manager) upgradeLocked(owner primitives.TransactionID, oldTarget LockTarget, newAccess Access, result *LockResult) bool {
	op := &upgradeOp{m: m, oldTarget: oldTarget, newAccess: newAccess, result: result}
	return m.operate(owner, oldTarget, op, false, true)
}
