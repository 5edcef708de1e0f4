package redis

import (
	"context"
	"encoding/json"
	"time"

	"favehub/internal/docstore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	setsMetaField  = "_sets"
	defaultTimeout = 2 * time.Second
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store keeps each document as a hash of json-encoded fields. Set-valued
// fields live in native redis sets so PatchSet is SADD/SREM, which already
// carries the no-duplicates, concurrent-writer-safe semantics the sync
// core assumes. Predicates and ordering are evaluated client side; the
// catalog collections are small enough that a full scan per query is fine.
type Store struct {
	rdb *redis.Client
}

func New(cfg Config) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	})

	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func docKey(collection, id string) string {
	return "doc:" + collection + ":" + id
}

func setKey(collection, id, field string) string {
	return "doc:" + collection + ":" + id + ":set:" + field
}

func indexKey(collection string) string {
	return "docs:" + collection
}

func (s *Store) Query(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
	for _, p := range predicates {
		if p.Op != docstore.OpEqual {
			return nil, docstore.ErrInvalidOp
		}
	}

	ids, err := s.rdb.SMembers(ctx, indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]docstore.Snapshot, 0, len(ids))

	for _, id := range ids {
		snap, gerr := s.GetByID(ctx, collection, id)
		if gerr != nil {
			// index entry may outlive the document briefly; skip it
			if gerr == docstore.ErrNotFound {
				continue
			}
			return nil, gerr
		}

		if docstore.MatchesAll(snap.Fields, predicates) {
			out = append(out, snap)
		}
	}

	if orderBy != nil {
		docstore.SortSnapshots(out, *orderBy)
	}

	return out, nil
}

func (s *Store) GetByID(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	raw, err := s.rdb.HGetAll(ctx, docKey(collection, id)).Result()
	if err != nil {
		return docstore.Snapshot{}, err
	}

	if len(raw) == 0 {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}

	fields := make(map[string]any, len(raw))
	var setFields []string

	for name, encoded := range raw {
		if name == setsMetaField {
			if uerr := json.Unmarshal([]byte(encoded), &setFields); uerr != nil {
				return docstore.Snapshot{}, uerr
			}
			continue
		}

		var v any
		if uerr := json.Unmarshal([]byte(encoded), &v); uerr != nil {
			return docstore.Snapshot{}, uerr
		}
		fields[name] = v
	}

	for _, name := range setFields {
		members, serr := s.rdb.SMembers(ctx, setKey(collection, id, name)).Result()
		if serr != nil {
			return docstore.Snapshot{}, serr
		}
		fields[name] = members
	}

	return docstore.Snapshot{ID: id, Fields: fields}, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	plain, sets, err := splitSetFields(fields)
	if err != nil {
		return "", err
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, docKey(collection, id), plain)
	for name, members := range sets {
		if len(members) > 0 {
			pipe.SAdd(ctx, setKey(collection, id, name), members)
		}
	}
	pipe.SAdd(ctx, indexKey(collection), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	exists, err := s.rdb.Exists(ctx, docKey(collection, id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return docstore.ErrNotFound
	}

	plain, sets, err := splitSetFields(fields)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	if len(plain) > 0 {
		pipe.HSet(ctx, docKey(collection, id), plain)
	}
	for name, members := range sets {
		key := setKey(collection, id, name)
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, members)
		}
	}

	_, err = pipe.Exec(ctx)

	return err
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	snap, err := s.GetByID(ctx, collection, id)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, docKey(collection, id))
	for name, v := range snap.Fields {
		if _, ok := v.([]string); ok {
			pipe.Del(ctx, setKey(collection, id, name))
		}
	}
	pipe.SRem(ctx, indexKey(collection), id)

	_, err = pipe.Exec(ctx)

	return err
}

func (s *Store) PatchSet(ctx context.Context, collection, id, field string, op docstore.SetOp, value string) error {
	if field == "" {
		return docstore.ErrInvalidField
	}

	exists, err := s.rdb.Exists(ctx, docKey(collection, id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return docstore.ErrNotFound
	}

	switch op {
	case docstore.SetAdd:
		if err := s.markSetField(ctx, collection, id, field); err != nil {
			return err
		}
		return s.rdb.SAdd(ctx, setKey(collection, id, field), value).Err()
	case docstore.SetRemove:
		return s.rdb.SRem(ctx, setKey(collection, id, field), value).Err()
	default:
		return docstore.ErrInvalidField
	}
}

// markSetField records the field name in the document's set-field manifest
// so reads know which redis sets belong to the document.
func (s *Store) markSetField(ctx context.Context, collection, id, field string) error {
	raw, err := s.rdb.HGet(ctx, docKey(collection, id), setsMetaField).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	var names []string
	if raw != "" {
		if uerr := json.Unmarshal([]byte(raw), &names); uerr != nil {
			return uerr
		}
	}

	for _, n := range names {
		if n == field {
			return nil
		}
	}

	names = append(names, field)
	encoded, err := json.Marshal(names)
	if err != nil {
		return err
	}

	return s.rdb.HSet(ctx, docKey(collection, id), setsMetaField, string(encoded)).Err()
}

// splitSetFields separates set-valued fields (string slices) from plain
// ones and json-encodes the plain values for hash storage.
func splitSetFields(fields map[string]any) (map[string]string, map[string][]any, error) {
	plain := make(map[string]string, len(fields))
	sets := make(map[string][]any)
	var setNames []string

	for name, v := range fields {
		if members, ok := v.([]string); ok {
			vals := make([]any, len(members))
			for i, m := range members {
				vals[i] = m
			}
			sets[name] = vals
			setNames = append(setNames, name)
			continue
		}

		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		plain[name] = string(encoded)
	}

	if len(setNames) > 0 {
		encoded, err := json.Marshal(setNames)
		if err != nil {
			return nil, nil, err
		}
		plain[setsMetaField] = string(encoded)
	}

	return plain, sets, nil
}
