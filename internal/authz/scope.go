package authz

import (
	"fmt"
	"strconv"
)

// Predicate narrows a row set to what a subject may see. It is either
// unrestricted (privileged subjects) or an owner equality test. Predicates
// compose with caller-supplied filters by logical AND and never affect
// ordering, pagination or aggregates.
type Predicate struct {
	unrestricted bool
	ownerID      int64
}

// Unrestricted returns a predicate that admits every row.
func Unrestricted() Predicate {
	return Predicate{unrestricted: true}
}

// OwnerEquals returns a predicate admitting only rows owned by userID.
func OwnerEquals(userID int64) Predicate {
	return Predicate{ownerID: userID}
}

// Scope produces the row-visibility predicate for a subject. This is the only
// place ownership predicates are built; every list/read path consumes its
// result instead of hand-rolling owner filters.
func Scope(subject Subject) Predicate {
	if IsPrivileged(subject.Role()) {
		return Unrestricted()
	}
	return OwnerEquals(subject.UserID)
}

// IsUnrestricted reports whether the predicate admits all rows.
func (p Predicate) IsUnrestricted() bool {
	return p.unrestricted
}

// Match evaluates the predicate against a row's recorded owner.
func (p Predicate) Match(ownerID int64) bool {
	return p.unrestricted || p.ownerID == ownerID
}

// SQL renders the predicate as a WHERE fragment for the given owner column.
// next is the first free positional argument index. The returned fragment is
// always safe to AND with other conditions.
func (p Predicate) SQL(column string, next int) (string, []any) {
	if p.unrestricted {
		return "TRUE", nil
	}
	return fmt.Sprintf("%s = $%s", column, strconv.Itoa(next)), []any{p.ownerID}
}
