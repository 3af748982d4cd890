package lock

import (
	"slices"

	"latchkey/pkg/primitives"

	"github.com/cockroachdb/errors"
)

// holderCounts tracks, per access mode, how many granted locks currently
// exist on one object.
type holderCounts [numAccessModes]int

// allows reports whether a new request of mode access is compatible with
// every mode that currently has holders.
func (h *holderCounts) allows(access Access) bool {
	for i := 0; i < numAccessModes; i++ {
		if !lockCompatibility[access][i] && h[i] > 0 {
			return false
		}
	}
	return true
}

func (h *holderCounts) zero() bool {
	for _, c := range h {
		if c > 0 {
			return false
		}
	}
	return true
}

// tableLockInfo, pageLockInfo and rowLockInfo form the lock tree: a table
// owns its page map, a page owns its row map. Children are created lazily
// by grant-creating operations and pruned bottom-up on release; the
// top-level table slot itself is retained (see Manager.tableLocks).
type tableLockInfo struct {
	table    primitives.TableID
	acquired holderCounts
	pages    map[primitives.PageID]*pageLockInfo
}

type pageLockInfo struct {
	page     primitives.PageID
	acquired holderCounts
	rows     map[uint64]*rowLockInfo
}

type rowLockInfo struct {
	offset   uint64
	acquired holderCounts
}

func newTableLockInfo(table primitives.TableID) *tableLockInfo {
	return &tableLockInfo{
		table: table,
		pages: make(map[primitives.PageID]*pageLockInfo),
	}
}

func newPageLockInfo(page primitives.PageID) *pageLockInfo {
	return &pageLockInfo{
		page: page,
		rows: make(map[uint64]*rowLockInfo),
	}
}

func newRowLockInfo(offset uint64) *rowLockInfo {
	return &rowLockInfo{offset: offset}
}

// objectLock is the granularity-independent face of a lock-tree node, used
// by the acquire/release paths that behave identically at every level.
type objectLock interface {
	counts() *holderCounts
	empty() bool
}

func (t *tableLockInfo) counts() *holderCounts { return &t.acquired }
func (p *pageLockInfo) counts() *holderCounts  { return &p.acquired }
func (r *rowLockInfo) counts() *holderCounts   { return &r.acquired }

func (t *tableLockInfo) empty() bool { return t.acquired.zero() && len(t.pages) == 0 }
func (p *pageLockInfo) empty() bool  { return p.acquired.zero() && len(p.rows) == 0 }
func (r *rowLockInfo) empty() bool   { return r.acquired.zero() }

// acquireObjectLock grants target on info if it is compatible with every
// existing holder, recording the grant on both the object and the owning
// transaction. Returns false when the request must wait.
func acquireObjectLock(info objectLock, owner *transInfo, target LockTarget) bool {
	if !info.counts().allows(target.Access) {
		return false
	}

	info.counts()[target.Access]++
	owner.acquired = append(owner.acquired, target)
	return true
}

// releaseObjectLock undoes one grant of target. It fails if the owner does
// not hold that exact target.
func releaseObjectLock(info objectLock, owner *transInfo, target LockTarget) bool {
	index := slices.Index(owner.acquired, target)
	if index < 0 {
		return false
	}

	info.counts()[target.Access]--
	if info.counts()[target.Access] < 0 {
		panic(errors.AssertionFailedf("lock: holder counts corrupted for %s", target))
	}
	owner.acquired = slices.Delete(owner.acquired, index, index+1)
	return true
}
