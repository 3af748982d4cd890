package lock

import (
	"testing"

	"latchkey/pkg/primitives"
)

// Scenario: when two waiters of different importance queue on the same
// freed resource, the more important one is picked first.
func TestPickPrefersHigherImportance(t *testing.T) {
	env := newTestEnv(t, 1)
	holder := env.registerTxn(t, 5)
	low := env.registerTxn(t, 1)
	high := env.registerTxn(t, 9)
	tableA := env.tables[0]

	env.mustAcquire(t, holder, NewTableTarget(tableA, Exclusive), false)
	env.mustAcquire(t, low, NewTableTarget(tableA, Shared), true)
	env.mustAcquire(t, high, NewTableTarget(tableA, Shared), true)

	env.mustRelease(t, holder, NewTableTarget(tableA, Exclusive))

	picked, result := env.m.PickTransaction()
	if picked != high {
		t.Fatalf("PickTransaction = %v, want the high-importance waiter %v", picked, high)
	}
	if result.Blocked {
		t.Error("picked transaction should hold its lock")
	}

	// The low-importance waiter follows on the next pick.
	picked, _ = env.m.PickTransaction()
	if picked != low {
		t.Fatalf("second pick = %v, want %v", picked, low)
	}

	if env.m.pendings.Len() != 0 {
		t.Error("all buckets should be drained")
	}
}

func TestPickSkipsUngrantableWaiter(t *testing.T) {
	env := newTestEnv(t, 2)
	holderA := env.registerTxn(t, 5)
	holderB := env.registerTxn(t, 5)
	waiterA := env.registerTxn(t, 1)
	waiterB := env.registerTxn(t, 1)
	tableA, tableB := env.tables[0], env.tables[1]

	env.mustAcquire(t, holderA, NewTableTarget(tableA, Exclusive), false)
	env.mustAcquire(t, holderB, NewTableTarget(tableB, Exclusive), false)
	env.mustAcquire(t, waiterA, NewTableTarget(tableA, Shared), true)
	env.mustAcquire(t, waiterB, NewTableTarget(tableB, Shared), true)

	// Only table B frees up: the scheduler must skip waiterA and grant
	// waiterB even though waiterA queued first.
	env.mustRelease(t, holderB, NewTableTarget(tableB, Exclusive))

	picked, _ := env.m.PickTransaction()
	if picked != waiterB {
		t.Fatalf("PickTransaction = %v, want %v", picked, waiterB)
	}

	// waiterA stays queued.
	if !env.m.transactions[waiterA].pendingLock.IsValid() {
		t.Error("ungrantable waiter must remain pending")
	}
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Errorf("nothing further should be grantable, got %v", picked)
	}
}

// A bucket with one waiter must be tried exactly once per pick: neither
// skipped nor spun on forever.
func TestPickSingleWaiterBucket(t *testing.T) {
	env := newTestEnv(t, 1)
	holder := env.registerTxn(t, 5)
	waiter := env.registerTxn(t, 1)
	tableA := env.tables[0]

	env.mustAcquire(t, holder, NewTableTarget(tableA, Exclusive), false)
	env.mustAcquire(t, waiter, NewTableTarget(tableA, Shared), true)

	// Still blocked: the pick must terminate after one revolution.
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Fatalf("unexpected grant of %v", picked)
	}
	// A second barren pick exercises the wrapped round-robin cursor.
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Fatalf("unexpected grant of %v", picked)
	}

	env.mustRelease(t, holder, NewTableTarget(tableA, Exclusive))
	if picked, _ := env.m.PickTransaction(); picked != waiter {
		t.Fatalf("PickTransaction = %v, want %v", picked, waiter)
	}
}

// Round-robin within a bucket: successive picks start after the last
// tried slot, so equal-importance waiters take turns.
func TestPickRoundRobinWithinBucket(t *testing.T) {
	env := newTestEnv(t, 2)
	holderA := env.registerTxn(t, 5)
	holderB := env.registerTxn(t, 5)
	w1 := env.registerTxn(t, 1)
	w2 := env.registerTxn(t, 1)
	tableA, tableB := env.tables[0], env.tables[1]

	env.mustAcquire(t, holderA, NewTableTarget(tableA, Exclusive), false)
	env.mustAcquire(t, holderB, NewTableTarget(tableB, Exclusive), false)
	env.mustAcquire(t, w1, NewTableTarget(tableA, Shared), true)
	env.mustAcquire(t, w2, NewTableTarget(tableB, Shared), true)

	// A barren pick advances the cursor over both waiters.
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Fatalf("unexpected grant of %v", picked)
	}

	// Free both tables; picks drain the bucket starting after the cursor.
	env.mustRelease(t, holderA, NewTableTarget(tableA, Exclusive))
	env.mustRelease(t, holderB, NewTableTarget(tableB, Exclusive))

	first, _ := env.m.PickTransaction()
	second, _ := env.m.PickTransaction()
	if first == second {
		t.Fatalf("the same transaction was picked twice: %v", first)
	}
	if !first.IsValid() || !second.IsValid() {
		t.Fatal("both waiters should be granted")
	}
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Errorf("queue should be empty, got %v", picked)
	}
}

// Dequeuing a waiter from the middle of a bucket must not derail the
// round-robin cursor of later picks.
func TestPickAfterMidBucketDequeue(t *testing.T) {
	env := newTestEnv(t, 1)
	holder := env.registerTxn(t, 5)
	w1 := env.registerTxn(t, 1)
	w2 := env.registerTxn(t, 1)
	w3 := env.registerTxn(t, 1)
	tableA := env.tables[0]
	want := NewTableTarget(tableA, Shared)

	env.mustAcquire(t, holder, NewTableTarget(tableA, Exclusive), false)
	env.mustAcquire(t, w1, want, true)
	env.mustAcquire(t, w2, want, true)
	env.mustAcquire(t, w3, want, true)

	// Advance the cursor through a full barren revolution, then remove
	// the middle waiter.
	if picked, _ := env.m.PickTransaction(); picked.IsValid() {
		t.Fatalf("unexpected grant of %v", picked)
	}
	env.mustRelease(t, w2, want)

	env.mustRelease(t, holder, NewTableTarget(tableA, Exclusive))

	seen := make(map[primitives.TransactionID]bool)
	for {
		picked, _ := env.m.PickTransaction()
		if !picked.IsValid() {
			break
		}
		if seen[picked] {
			t.Fatalf("%v was picked twice", picked)
		}
		seen[picked] = true
	}
	if len(seen) != 2 || !seen[w1] || !seen[w3] {
		t.Fatalf("expected exactly w1 and w3 to be granted, got %v", seen)
	}
}
