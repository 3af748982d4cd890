package lock

import (
	"sort"

	"github.com/goccy/go-json"
)

// Snapshot is a read-only copy of the manager's bookkeeping, taken under
// the latch. It exists for inspection: debugging, the terminal UI, and
// tests that want to assert on state without reaching into internals.
type Snapshot struct {
	Tables       []TableSnapshot       `json:"tables"`
	Transactions []TransactionSnapshot `json:"transactions"`
	Buckets      []BucketSnapshot      `json:"pendingBuckets"`
}

type TableSnapshot struct {
	Table    string `json:"table"`
	Source   string `json:"source"`
	HasLocks bool   `json:"hasLocks"`
}

type TransactionSnapshot struct {
	Trans      string   `json:"transaction"`
	Importance uint64   `json:"importance"`
	Held       []string `json:"held,omitempty"`
	Pending    string   `json:"pending,omitempty"`
}

// BucketSnapshot lists one pending bucket's queue in arrival order.
type BucketSnapshot struct {
	Importance   uint64   `json:"importance"`
	Transactions []string `json:"transactions"`
	LastTryIndex int      `json:"lastTryIndex"`
}

// Snapshot captures the current registrations, held and pending locks,
// and scheduler queue state.
func (m *Manager) Snapshot() *Snapshot {
	m.latch.Lock()
	defer m.latch.Unlock()

	snap := &Snapshot{}

	for _, info := range m.tables {
		hasLocks := false
		if idx := info.table.Index(); idx < len(m.tableLocks) {
			tbl := m.tableLocks[idx]
			hasLocks = tbl != nil && !tbl.empty()
		}
		snap.Tables = append(snap.Tables, TableSnapshot{
			Table:    info.table.String(),
			Source:   info.source.String(),
			HasLocks: hasLocks,
		})
	}
	sort.Slice(snap.Tables, func(i, j int) bool { return snap.Tables[i].Table < snap.Tables[j].Table })

	for _, info := range m.transactions {
		ts := TransactionSnapshot{
			Trans:      info.trans.String(),
			Importance: info.importance,
		}
		for _, target := range info.acquired {
			ts.Held = append(ts.Held, target.String())
		}
		if info.pendingLock.IsValid() {
			ts.Pending = info.pendingLock.String()
		}
		snap.Transactions = append(snap.Transactions, ts)
	}
	sort.Slice(snap.Transactions, func(i, j int) bool { return snap.Transactions[i].Trans < snap.Transactions[j].Trans })

	m.pendings.Descend(func(bucket *pendingBucket) bool {
		bs := BucketSnapshot{
			Importance:   bucket.importance,
			LastTryIndex: bucket.lastTryIndex,
		}
		for _, trans := range bucket.transactions {
			bs.Transactions = append(bs.Transactions, trans.String())
		}
		snap.Buckets = append(snap.Buckets, bs)
		return true
	})

	return snap
}

// JSON renders the snapshot for logs or the inspector.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
