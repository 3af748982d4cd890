// Package lock implements the transactional hierarchical lock manager of
// latchkey's concurrency control layer.
//
// # Overview
//
// Transactions lock tables, pages within tables, and rows within pages.
// Six access modes ([IntentShared] through [Exclusive]) are arbitrated by
// a fixed compatibility matrix: a request is granted iff its mode is
// compatible with every mode that currently has holders on the same
// object. Conflicting requests do not wait inside the manager; they
// return blocked, and the transaction is parked in a pending queue until
// [Manager.PickTransaction] grants it the lock after the holders have
// released it, or the caller rolls the transaction back.
//
// # Components
//
// [Manager] is the single public entry point. Internally it coordinates:
//
//   - the lock tree: per-table, per-page and per-row holder counts,
//     created lazily on acquisition and pruned bottom-up on release.
//   - the pending queue: importance-keyed buckets of blocked
//     transactions. [Manager.PickTransaction] scans buckets in descending
//     importance and hands a freed lock to the first grantable waiter,
//     round-robin within a bucket.
//   - the deadlock detector: [Manager.DetectDeadlock] builds a wait-for
//     graph from pending and held locks, strips nodes that cannot be on a
//     cycle, and picks one rollback victim per remaining cycle.
//
// # Locking Flow
//
// When [Manager.AcquireLock] is called:
//
//  1. Inputs are validated: registered transaction, registered table,
//     usable page or row handle. A transaction already waiting on another
//     lock is rejected.
//  2. The dispatcher descends table → page → row, materializing missing
//     lock-tree nodes; row addresses resolve through the buffer manager.
//  3. The request is checked against the holder counts at its level. A
//     compatible request is granted; an incompatible one parks the
//     transaction in its importance bucket and returns Blocked.
//
// Releases run the same descent without creating state, after first
// checking whether the released target is merely pending. Upgrades
// release the old mode and re-request the new one in place, pending on
// conflict.
//
// # Concurrency
//
// One latch serializes every public operation end to end. Nothing
// suspends while holding it: deadlock detection and scheduling run to
// completion synchronously, and the buffer manager must be callable with
// the latch held.
//
// # Errors
//
// Expected failures (unknown handles, duplicate registrations, releasing
// a lock that is not held, pending while already pending) are reported
// as false returns. Violations of internal bookkeeping invariants (a
// holder count going negative, a queued transaction without a pending
// lock, a release failing during rollback) panic with an assertion error:
// they mean the manager's state is corrupt and there is nothing sane to
// return.
package lock
