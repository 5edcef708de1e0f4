package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"favehub/internal/docstore"
	"favehub/internal/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Timestamps are stored at fixed nanosecond width. Go's default time
// encoding trims trailing zeros, and varying fractional width makes the
// text ordering Query relies on diverge from instant ordering for
// same-second values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// normalizeFields rewrites time values to the fixed-width layout before
// json encoding. Reads are unaffected: the text still parses as RFC3339.
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(timeLayout)
			continue
		}
		out[k] = v
	}

	return out
}

// Store keeps documents in a single jsonb-backed table. Set-valued fields
// live inside the document as json arrays; PatchSet mutates them in one
// UPDATE statement so concurrent togglers cannot lose each other's writes.
type Store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func New(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{
		pool: pool,
		prom: prom,
	}
}

func (s *Store) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveStore(op, fn)
	}
	return fn()
}

// EnsureSchema creates the documents table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         UUID NOT NULL,
			data       JSONB NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`)

	return err
}

func (s *Store) Query(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) (snaps []docstore.Snapshot, err error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}
	argsPosition := 2

	for _, p := range predicates {
		if p.Op != docstore.OpEqual {
			return nil, docstore.ErrInvalidOp
		}

		// jsonb containment gives type-faithful equality per field
		obj, merr := json.Marshal(normalizeFields(map[string]any{p.Field: p.Value}))
		if merr != nil {
			return nil, merr
		}

		query += fmt.Sprintf(" AND data @> $%d::jsonb", argsPosition)
		args = append(args, string(obj))
		argsPosition++
	}

	if orderBy != nil {
		dir := "ASC"
		if orderBy.Direction == docstore.Descending {
			dir = "DESC"
		}

		// safe because timestamps are written fixed-width, see timeLayout
		query += fmt.Sprintf(" ORDER BY data->>$%d %s, id %s", argsPosition, dir, dir)
		args = append(args, orderBy.Field)
	}

	err = s.observe(collection+".query", func() error {
		rows, qerr := s.pool.Query(ctx, query, args...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var data []byte

			if serr := rows.Scan(&id, &data); serr != nil {
				return serr
			}

			fields := make(map[string]any)
			if uerr := json.Unmarshal(data, &fields); uerr != nil {
				return uerr
			}

			snaps = append(snaps, docstore.Snapshot{ID: id, Fields: fields})
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if snaps == nil {
		snaps = []docstore.Snapshot{}
	}

	return snaps, nil
}

func (s *Store) GetByID(ctx context.Context, collection, id string) (snap docstore.Snapshot, err error) {
	err = s.observe(collection+".get", func() error {
		var data []byte

		qerr := s.pool.QueryRow(ctx,
			`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
			collection, id,
		).Scan(&data)

		if qerr != nil {
			if errors.Is(qerr, pgx.ErrNoRows) {
				return docstore.ErrNotFound
			}
			return qerr
		}

		fields := make(map[string]any)
		if uerr := json.Unmarshal(data, &fields); uerr != nil {
			return uerr
		}

		snap = docstore.Snapshot{ID: id, Fields: fields}

		return nil
	})

	return snap, err
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	data, err := json.Marshal(normalizeFields(fields))
	if err != nil {
		return "", err
	}

	err = s.observe(collection+".add", func() error {
		_, aerr := s.pool.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
			collection, id, data,
		)
		return aerr
	})

	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(normalizeFields(fields))
	if err != nil {
		return err
	}

	return s.observe(collection+".update", func() error {
		tag, uerr := s.pool.Exec(ctx,
			`UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2`,
			collection, id, data,
		)

		if uerr != nil {
			return uerr
		}

		if tag.RowsAffected() == 0 {
			return docstore.ErrNotFound
		}

		return nil
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.observe(collection+".delete", func() error {
		tag, derr := s.pool.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			collection, id,
		)

		if derr != nil {
			return derr
		}

		if tag.RowsAffected() == 0 {
			return docstore.ErrNotFound
		}

		return nil
	})
}

func (s *Store) PatchSet(ctx context.Context, collection, id, field string, op docstore.SetOp, value string) error {
	if field == "" {
		return docstore.ErrInvalidField
	}

	var query string

	switch op {
	case docstore.SetAdd:
		// appends only when the member is absent, in a single statement
		query = `
			UPDATE documents
			SET data = CASE
				WHEN COALESCE(data->$3, '[]'::jsonb) ? $4 THEN data
				ELSE jsonb_set(data, ARRAY[$3], COALESCE(data->$3, '[]'::jsonb) || to_jsonb($4::text))
			END
			WHERE collection = $1 AND id = $2`
	case docstore.SetRemove:
		query = `
			UPDATE documents
			SET data = jsonb_set(data, ARRAY[$3], COALESCE(data->$3, '[]'::jsonb) - $4)
			WHERE collection = $1 AND id = $2`
	default:
		return docstore.ErrInvalidField
	}

	return s.observe(collection+".patch_set", func() error {
		tag, perr := s.pool.Exec(ctx, query, collection, id, field, value)

		if perr != nil {
			return perr
		}

		if tag.RowsAffected() == 0 {
			return docstore.ErrNotFound
		}

		return nil
	})
}
