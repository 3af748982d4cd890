package lock

import (
	"fmt"
	"os"
	"testing"

	"latchkey/pkg/buffer"
	"latchkey/pkg/primitives"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// testEnv wires a Manager to a real buffer manager with a handful of
// registered tables, the setup every scenario test starts from.
type testEnv struct {
	bm     *buffer.Manager
	m      *Manager
	tables []primitives.TableID
}

func newTestEnv(t *testing.T, tableCount int) *testEnv {
	t.Helper()

	env := &testEnv{bm: buffer.NewManager()}
	env.m = NewManager(env.bm)

	for i := 0; i < tableCount; i++ {
		source := primitives.Filepath(fmt.Sprintf("data/table-%d.tbl", i)).Hash()
		index := env.bm.AllocatePage()
		if err := env.bm.AddSource(source, index); err != nil {
			t.Fatalf("failed to add source %d: %v", i, err)
		}

		table := primitives.NewTableID(i)
		if !env.m.RegisterTable(table, source) {
			t.Fatalf("failed to register table %d", i)
		}
		env.tables = append(env.tables, table)
	}
	return env
}

func (env *testEnv) registerTxn(t *testing.T, importance uint64) primitives.TransactionID {
	t.Helper()

	trans := primitives.NewTransactionID()
	if !env.m.RegisterTransaction(trans, importance) {
		t.Fatalf("failed to register transaction %v", trans)
	}
	return trans
}

// rowAddr mints a decodable row address on a fresh page.
func (env *testEnv) rowAddr(t *testing.T, offset uint64) primitives.RowAddress {
	t.Helper()

	page := env.bm.AllocatePage()
	addr, err := env.bm.EncodePointer(page, offset)
	if err != nil {
		t.Fatalf("failed to encode pointer: %v", err)
	}
	return addr
}

// mustAcquire asserts a grant with the expected blocked outcome.
func (env *testEnv) mustAcquire(t *testing.T, trans primitives.TransactionID, target LockTarget, wantBlocked bool) {
	t.Helper()

	result, ok := env.m.AcquireLock(trans, target)
	if !ok {
		t.Fatalf("AcquireLock(%v, %v) failed", trans, target)
	}
	if result.Blocked != wantBlocked {
		t.Fatalf("AcquireLock(%v, %v): blocked = %v, want %v", trans, target, result.Blocked, wantBlocked)
	}
}

func (env *testEnv) mustRelease(t *testing.T, trans primitives.TransactionID, target LockTarget) {
	t.Helper()

	if !env.m.ReleaseLock(trans, target) {
		t.Fatalf("ReleaseLock(%v, %v) failed", trans, target)
	}
}

// tableLockState fetches the lock-tree slot for a table, or nil.
func (env *testEnv) tableLockState(table primitives.TableID) *tableLockInfo {
	if table.Index() >= len(env.m.tableLocks) {
		return nil
	}
	return env.m.tableLocks[table.Index()]
}
