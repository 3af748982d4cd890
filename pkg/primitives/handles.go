package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter uint64

// NewTransactionID returns a fresh process-unique transaction ID.
func NewTransactionID() TransactionID {
	return TransactionID(atomic.AddUint64(&transactionCounter, 1))
}

// TransactionID Methods
// =============================================================================

// IsValid checks if the TransactionID is a valid non-zero identifier.
func (t TransactionID) IsValid() bool {
	return t != InvalidTransactionID
}

// String returns a string representation of the TransactionID.
func (t TransactionID) String() string {
	return fmt.Sprintf("TID-%d", uint64(t))
}

// TableID Methods
// =============================================================================

// NewTableID builds a TableID from a dense slice index. Negative indices
// yield the invalid sentinel.
func NewTableID(index int) TableID {
	if index < 0 {
		return InvalidTableID
	}
	return TableID(index)
}

// IsValid checks if the TableID is a valid non-negative index.
func (t TableID) IsValid() bool {
	return t >= 0
}

// Index returns the dense slice index for this table.
func (t TableID) Index() int {
	return int(t)
}

// String returns a string representation of the TableID.
func (t TableID) String() string {
	if !t.IsValid() {
		return "Table(invalid)"
	}
	return fmt.Sprintf("Table(%d)", int64(t))
}

// PageID Methods
// =============================================================================

// IsValid checks if the PageID is a valid non-zero identifier.
func (p PageID) IsValid() bool {
	return p != InvalidPageID
}

// String returns a string representation of the PageID.
func (p PageID) String() string {
	return fmt.Sprintf("Page(%d)", uint64(p))
}

// RowAddress Methods
// =============================================================================

// IsValid checks if the RowAddress is a valid non-zero pointer.
func (r RowAddress) IsValid() bool {
	return r != InvalidRowAddress
}

// String returns a string representation of the RowAddress.
func (r RowAddress) String() string {
	return fmt.Sprintf("Row(0x%x)", uint64(r))
}

// FileID Methods
// =============================================================================

// IsValid checks if the FileID is a valid non-zero identifier.
func (f FileID) IsValid() bool {
	return f != InvalidFileID
}

// AsUint64 returns the FileID as a uint64 for serialization or storage.
func (f FileID) AsUint64() uint64 {
	return uint64(f)
}

// String returns a string representation of the FileID.
func (f FileID) String() string {
	return fmt.Sprintf("FileID(%d)", uint64(f))
}
