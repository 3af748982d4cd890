package lock

// lockOperation is one of Acquire, Release or Upgrade, fanned out by the
// dispatcher to the granularity the target names. Each operation struct
// carries its own arguments; the dispatcher only routes.
type lockOperation interface {
	table(owner *transInfo, tbl *tableLockInfo) bool
	page(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo) bool
	row(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo, row *rowLockInfo) bool
}

// preLockHook runs before the dispatcher touches any lock state. When it
// reports stopped, the dispatcher returns its success value immediately.
// Release implements it to intercept pending locks.
type preLockHook interface {
	preLock(owner *transInfo) (success, stopped bool)
}

// acquireOp

type acquireOp struct {
	m          *Manager
	target     LockTarget
	result     *LockResult
	addPending bool
}

// grant is the level-independent acquire: try the lock, and on conflict
// optionally park the transaction in the pending queue.
func (op *acquireOp) grant(owner *transInfo, info objectLock) bool {
	if op.result.Blocked = !acquireObjectLock(info, owner, op.target); op.result.Blocked {
		return !op.addPending || op.m.addPendingLock(owner, op.target)
	}
	return true
}

func (op *acquireOp) table(owner *transInfo, tbl *tableLockInfo) bool {
	return op.grant(owner, tbl)
}

func (op *acquireOp) page(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo) bool {
	return op.grant(owner, pg)
}

func (op *acquireOp) row(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo, row *rowLockInfo) bool {
	return op.grant(owner, row)
}

// releaseOp

type releaseOp struct {
	m      *Manager
	target LockTarget
}

// preLock removes a matching pending lock before any per-object state is
// consulted. A release of the lock a transaction is merely waiting for
// only has to dequeue it.
func (op *releaseOp) preLock(owner *transInfo) (success, stopped bool) {
	return true, op.m.removePendingLock(owner, op.target)
}

func (op *releaseOp) table(owner *transInfo, tbl *tableLockInfo) bool {
	return releaseObjectLock(tbl, owner, op.target)
}

func (op *releaseOp) page(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo) bool {
	if !releaseObjectLock(pg, owner, op.target) {
		return false
	}
	if pg.empty() {
		delete(tbl.pages, pg.page)
	}
	return true
}

func (op *releaseOp) row(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo, row *rowLockInfo) bool {
	if !releaseObjectLock(row, owner, op.target) {
		return false
	}
	if row.empty() {
		delete(pg.rows, row.offset)
		if pg.empty() {
			delete(tbl.pages, pg.page)
		}
	}
	return true
}

// upgradeOp

type upgradeOp struct {
	m         *Manager
	oldTarget LockTarget
	newAccess Access
	result    *LockResult
}

// swap releases the held lock and immediately re-requests the same object
// at the new mode. A conflicting re-request leaves the transaction pending
// on the upgraded target; the old lock stays released either way.
func (op *upgradeOp) swap(owner *transInfo, info objectLock) bool {
	if !releaseObjectLock(info, owner, op.oldTarget) {
		return false
	}

	acquire := &acquireOp{
		m:          op.m,
		target:     op.oldTarget.WithAccess(op.newAccess),
		result:     op.result,
		addPending: true,
	}
	return acquire.grant(owner, info)
}

func (op *upgradeOp) table(owner *transInfo, tbl *tableLockInfo) bool {
	return op.swap(owner, tbl)
}

func (op *upgradeOp) page(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo) bool {
	return op.swap(owner, pg)
}

func (op *upgradeOp) row(owner *transInfo, tbl *tableLockInfo, pg *pageLockInfo, row *rowLockInfo) bool {
	return op.swap(owner, row)
}
