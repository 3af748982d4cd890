package lock

import "latchkey/pkg/primitives"

// tableInfo is the registration record for one table.
type tableInfo struct {
	table  primitives.TableID
	source primitives.FileID
}

// transInfo is the registration record for one transaction: everything it
// holds, the single lock it may be waiting on, and its scheduling weight.
//
// The acquired list is ordered by grant time; rollback walks it in reverse.
type transInfo struct {
	trans       primitives.TransactionID
	importance  uint64
	acquired    []LockTarget
	pendingLock LockTarget
}
