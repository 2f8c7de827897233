package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/sahilchouksey/gaokao-ingest/database"
	"github.com/sahilchouksey/gaokao-ingest/model"
)

// WriteMode selects how rows colliding with an existing natural key are
// handled.
type WriteMode string

const (
	ModeInsert       WriteMode = "insert"        // collision fails the chunk
	ModeInsertIgnore WriteMode = "insert-ignore" // colliding rows are skipped
	ModeReplace      WriteMode = "replace"       // colliding rows are overwritten
)

// DefaultChunkSize is the number of rows committed per transaction.
const DefaultChunkSize = 3000

// maxBindParams keeps one INSERT under every backend's placeholder limit
// (SQLite 32766, PostgreSQL and MySQL 65535).
const maxBindParams = 30000

var (
	ErrConstraintViolation = errors.New("unique constraint violation")
	ErrAppendOnly          = errors.New("entity is append-only and cannot be written in replace mode")
	ErrUnknownMode         = errors.New("unknown write mode")
)

// ParseWriteMode accepts the CLI spellings of a WriteMode.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeInsert:
		return ModeInsert, nil
	case ModeInsertIgnore, "ignore":
		return ModeInsertIgnore, nil
	case ModeReplace, "upsert":
		return ModeReplace, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ChunkError reports the chunk that failed. Chunks before Index are
// committed; the failed chunk and everything after it are not.
type ChunkError struct {
	Entity string
	Index  int
	Rows   int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("write %s chunk %d (%d rows): %v", e.Entity, e.Index, e.Rows, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Result is the durable outcome of a Write.
type Result struct {
	RowsAffected    int64
	ChunksCommitted int
	ChunksFailed    int
}

// Writer performs chunked bulk writes of registered entities.
type Writer struct {
	db        *gorm.DB
	chunkSize int
	schemas   *sync.Map
}

// NewWriter returns a Writer committing chunkSize rows per transaction.
// Non-positive sizes use DefaultChunkSize.
func NewWriter(db *gorm.DB, chunkSize int) *Writer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Writer{db: db, chunkSize: chunkSize, schemas: &sync.Map{}}
}

// ChunkSize reports the configured chunk size.
func (w *Writer) ChunkSize() int { return w.chunkSize }

// Write persists rows in chunks of the writer's chunk size, one transaction
// per chunk. It stops at the first failed chunk; the returned Result counts
// only rows from committed chunks.
func Write[T any](ctx context.Context, w *Writer, rows []T, mode WriteMode) (Result, error) {
	var res Result

	entity, err := model.EntityFor(rows)
	if err != nil {
		return res, err
	}
	if _, err := ParseWriteMode(string(mode)); err != nil {
		return res, err
	}
	if mode == ModeReplace && entity.AppendOnly {
		return res, fmt.Errorf("%s: %w", entity.Name, ErrAppendOnly)
	}
	if len(rows) == 0 {
		return res, nil
	}

	sch, err := w.schema(entity.Model)
	if err != nil {
		return res, fmt.Errorf("parse %s schema: %w", entity.Name, err)
	}

	batch := maxBindParams / max(len(sch.DBNames), 1)
	conflict := conflictClause(sch, entity, mode)

	for index, start := 0, 0; start < len(rows); index, start = index+1, start+w.chunkSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		end := min(start+w.chunkSize, len(rows))
		chunk := append([]T(nil), rows[start:end]...)
		if mode == ModeReplace {
			chunk = dedupeByKey(ctx, sch, entity, chunk)
		}

		var affected int64
		err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			affected = 0
			for lo := 0; lo < len(chunk); lo += batch {
				hi := min(lo+batch, len(chunk))
				sub := chunk[lo:hi]

				q := tx
				if conflict != nil {
					q = q.Clauses(*conflict)
				}
				result := q.Create(&sub)
				if result.Error != nil {
					return result.Error
				}
				affected += result.RowsAffected
			}
			return nil
		})
		if err != nil {
			if database.IsConstraintViolation(err) {
				err = fmt.Errorf("%w: %w", ErrConstraintViolation, err)
			}
			res.ChunksFailed++
			log.Errorf("[STORE] %s chunk %d failed after %d rows committed: %v", entity.Name, index, res.RowsAffected, err)
			return res, &ChunkError{Entity: entity.Name, Index: index, Rows: end - start, Err: err}
		}

		res.RowsAffected += affected
		res.ChunksCommitted++
		log.Debugf("[STORE] %s chunk %d committed (%d rows affected)", entity.Name, index, affected)
	}

	log.Infof("[STORE] %s %s: %d rows affected in %d chunks", entity.Name, mode, res.RowsAffected, res.ChunksCommitted)
	return res, nil
}

func (w *Writer) schema(m any) (*schema.Schema, error) {
	return schema.Parse(m, w.schemas, w.db.NamingStrategy)
}

func conflictClause(sch *schema.Schema, entity model.Entity, mode WriteMode) *clause.OnConflict {
	switch mode {
	case ModeInsertIgnore:
		return &clause.OnConflict{DoNothing: true}
	case ModeReplace:
		keys := make(map[string]bool, len(entity.NaturalKey))
		columns := make([]clause.Column, 0, len(entity.NaturalKey))
		for _, k := range entity.NaturalKey {
			keys[k] = true
			columns = append(columns, clause.Column{Name: k})
		}
		return &clause.OnConflict{
			Columns:   columns,
			DoUpdates: clause.AssignmentColumns(updatableColumns(sch, keys)),
		}
	}
	return nil
}

// updatableColumns lists every column a replace may overwrite: everything
// except identity, natural key and creation time.
func updatableColumns(sch *schema.Schema, keys map[string]bool) []string {
	cols := make([]string, 0, len(sch.DBNames))
	for _, name := range sch.DBNames {
		field := sch.LookUpField(name)
		if field == nil || field.PrimaryKey || keys[name] || field.AutoCreateTime > 0 || name == "created_at" {
			continue
		}
		cols = append(cols, name)
	}
	return cols
}

// dedupeByKey keeps the last row for each natural key. A single upsert
// statement may not touch the same key twice.
func dedupeByKey[T any](ctx context.Context, sch *schema.Schema, entity model.Entity, rows []T) []T {
	fields := make([]*schema.Field, 0, len(entity.NaturalKey))
	for _, k := range entity.NaturalKey {
		if f := sch.LookUpField(k); f != nil {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return rows
	}

	last := make(map[string]int, len(rows))
	order := make([]string, 0, len(rows))
	for i := range rows {
		rv := reflect.ValueOf(&rows[i]).Elem()
		parts := make([]string, len(fields))
		for j, f := range fields {
			v, _ := f.ValueOf(ctx, rv)
			parts[j] = fmt.Sprint(v)
		}
		key := strings.Join(parts, "\x1f")
		if _, seen := last[key]; !seen {
			order = append(order, key)
		}
		last[key] = i
	}
	if len(order) == len(rows) {
		return rows
	}

	out := make([]T, 0, len(order))
	for _, key := range order {
		out = append(out, rows[last[key]])
	}
	return out
}
