package lock

import (
	"fmt"
	"latchkey/pkg/primitives"
)

// TargetType selects the granularity a LockTarget names.
type TargetType int

const (
	TargetInvalid TargetType = iota
	TargetTable
	TargetPage
	TargetRow
)

// LockTarget names a lockable object (a table, a page within a table, or
// a row within a page) together with the requested access mode. Targets
// are plain values: two targets are the same lock iff they compare equal,
// access included. The zero value is the invalid target.
type LockTarget struct {
	Type    TargetType
	Table   primitives.TableID
	Page    primitives.PageID
	Address primitives.RowAddress
	Access  Access
}

// NewTableTarget names a whole table.
func NewTableTarget(table primitives.TableID, access Access) LockTarget {
	return LockTarget{Type: TargetTable, Table: table, Access: access}
}

// NewPageTarget names one page of a table.
func NewPageTarget(table primitives.TableID, page primitives.PageID, access Access) LockTarget {
	return LockTarget{Type: TargetPage, Table: table, Page: page, Access: access}
}

// NewRowTarget names one row of a table by its opaque address.
func NewRowTarget(table primitives.TableID, address primitives.RowAddress, access Access) LockTarget {
	return LockTarget{Type: TargetRow, Table: table, Address: address, Access: access}
}

// IsValid reports whether the target names anything at all.
func (t LockTarget) IsValid() bool {
	return t.Type != TargetInvalid
}

// WithAccess returns the same object requested at a different mode.
func (t LockTarget) WithAccess(access Access) LockTarget {
	t.Access = access
	return t
}

// SameObject reports whether two targets name the same table/page/row,
// ignoring the access mode.
func (t LockTarget) SameObject(other LockTarget) bool {
	return t.WithAccess(other.Access) == other
}

func (t LockTarget) String() string {
	switch t.Type {
	case TargetTable:
		return fmt.Sprintf("%s:%s", t.Table, t.Access)
	case TargetPage:
		return fmt.Sprintf("%s/%s:%s", t.Table, t.Page, t.Access)
	case TargetRow:
		return fmt.Sprintf("%s/%s:%s", t.Table, t.Address, t.Access)
	default:
		return "Target(invalid)"
	}
}
