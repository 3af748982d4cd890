package lock

import (
	"testing"

	"latchkey/pkg/primitives"
)

func TestLockTargetEquality(t *testing.T) {
	table := primitives.NewTableID(1)

	a := NewTableTarget(table, Shared)
	b := NewTableTarget(table, Shared)
	if a != b {
		t.Error("identical targets should compare equal")
	}

	// Access is part of identity for equality...
	if a == a.WithAccess(Exclusive) {
		t.Error("targets at different modes are different locks")
	}
	// ...but not for object identity.
	if !a.SameObject(a.WithAccess(Exclusive)) {
		t.Error("same table at different modes is the same object")
	}

	page := NewPageTarget(table, primitives.PageID(3), Shared)
	if a.SameObject(page) {
		t.Error("a table and one of its pages are different objects")
	}
}

func TestLockTargetValidity(t *testing.T) {
	if (LockTarget{}).IsValid() {
		t.Error("the zero target must be invalid")
	}
	if !NewRowTarget(primitives.NewTableID(0), primitives.RowAddress(1), Update).IsValid() {
		t.Error("constructed targets are valid")
	}
}
