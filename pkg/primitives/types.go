package primitives

// TransactionID uniquely identifies a transaction for the lifetime of the
// process. IDs are handed out by NewTransactionID and are never reused.
type TransactionID uint64

// TableID identifies a registered table. Unlike the other handles it is a
// dense index: the lock manager keeps per-table state in a slice indexed by
// it, so valid IDs are small non-negative integers and the invalid sentinel
// is -1 rather than 0.
type TableID int64

// PageID identifies a page owned by the buffer manager.
type PageID uint64

// RowAddress is an opaque row pointer. Only the buffer manager that minted
// it can decode it into a (page, offset) pair.
type RowAddress uint64

// FileID identifies a physical source file, derived from hashing its path.
// Tables are registered against the FileID of their backing source.
type FileID uint64

// Sentinel values for invalid/unset identifiers
const (
	// InvalidTransactionID represents an invalid or unset transaction ID.
	InvalidTransactionID TransactionID = 0

	// InvalidTableID represents an invalid or unset table ID.
	InvalidTableID TableID = -1

	// InvalidPageID represents an invalid or unset page ID.
	InvalidPageID PageID = 0

	// InvalidRowAddress represents an invalid or unset row address.
	InvalidRowAddress RowAddress = 0

	// InvalidFileID represents an invalid or unset file ID.
	InvalidFileID FileID = 0
)
