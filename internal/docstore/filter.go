package docstore

import (
	"sort"
	"strings"
)

// MatchesAll reports whether a document's fields satisfy every predicate.
// Predicates are logically ANDed; only equality is supported.
func MatchesAll(fields map[string]any, predicates []Predicate) bool {
	for _, p := range predicates {
		if !valueEqual(fields[p.Field], p.Value) {
			return false
		}
	}

	return true
}

// SortSnapshots orders snapshots in place by a single field. Timestamp
// fields compare as instants regardless of representation, everything else
// compares as strings.
func SortSnapshots(snaps []Snapshot, order OrderBy) {
	sort.SliceStable(snaps, func(i, j int) bool {
		a := snaps[i].Fields[order.Field]
		b := snaps[j].Fields[order.Field]

		if order.Direction == Descending {
			return valueLess(b, a)
		}
		return valueLess(a, b)
	})
}

func valueEqual(a, b any) bool {
	at, aok := AsTime(a)
	bt, bok := AsTime(b)
	if aok && bok {
		return at.Equal(bt)
	}

	return a == b
}

func valueLess(a, b any) bool {
	at, aok := AsTime(a)
	bt, bok := AsTime(b)
	if aok && bok {
		return at.Before(bt)
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs) < 0
	}

	return false
}
