package docstore

import (
	"context"
	"errors"
	"time"
)

// Predicate operators. Equality is the only operator the catalog uses,
// the constant exists so backends can reject anything else loudly.
type Op string

const OpEqual Op = "=="

type Predicate struct {
	Field string
	Op    Op
	Value any
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type OrderBy struct {
	Field     string
	Direction Direction
}

// SetOp selects the direction of an atomic set mutation.
type SetOp string

const (
	SetAdd    SetOp = "add"
	SetRemove SetOp = "remove"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidOp    = errors.New("unsupported predicate operator")
	ErrInvalidField = errors.New("invalid field for set mutation")
)

// Snapshot is a point-in-time read of a document: its server-assigned id
// plus a loose field mapping as the backend returned it.
type Snapshot struct {
	ID     string
	Fields map[string]any
}

// Timestamp is the store-native wrapper some backends hand back instead of
// a bare time.Time. Callers that accept both must normalize via AsTime.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func (t Timestamp) AsTime() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// AsTime normalizes a field value that may be a native time.Time or a
// Timestamp wrapper. Both representations must convert identically.
func AsTime(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		// JSON-backed stores round-trip timestamps as RFC3339 text
		t, err := time.Parse(time.RFC3339Nano, tv)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case Timestamp:
		return tv.AsTime(), true
	case *Timestamp:
		if tv == nil {
			return time.Time{}, false
		}
		return tv.AsTime(), true
	default:
		return time.Time{}, false
	}
}

// Store is the remote document store the sync core depends on. Update is a
// full-field patch; PatchSet is an atomic add/remove on a set-valued field.
// The two must stay distinct operations: favorite toggles need set atomicity
// under concurrent writers while owner edits need field replacement.
type Store interface {
	Query(ctx context.Context, collection string, predicates []Predicate, orderBy *OrderBy) ([]Snapshot, error)
	GetByID(ctx context.Context, collection, id string) (Snapshot, error)
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	PatchSet(ctx context.Context, collection, id, field string, op SetOp, value string) error
}
