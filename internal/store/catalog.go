package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilmartoo-go/lidaranomaly/internal/characterize"
	_ "modernc.org/sqlite"
)

// Object is an alias for characterize.Object, re-exported so callers need
// only import this package when saving/loading plain (unnamed-model)
// characterized objects.
type Object = characterize.Object

// ErrNameTaken is returned by SaveModel when the name is already registered
// (spec §3: object/model names are unique within the registry).
var ErrNameTaken = errors.New("store: name already taken")

// ErrNotFound is returned when a name has no matching row.
var ErrNotFound = errors.New("store: not found")

// Kind distinguishes an ad-hoc characterized object from a named model in
// the registry; both share the same wire encoding (spec §3).
type Kind string

const (
	KindObject Kind = "object"
	KindModel  Kind = "model"
)

// Entry describes one registered name without decoding its payload.
type Entry struct {
	Name      string
	Kind      Kind
	CreatedAt time.Time
}

// Catalog is the SQLite-backed object/model registry: metadata columns for
// fast listing, a BLOB column holding the codec.go wire encoding.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path, applying any
// pending schema migrations (internal/store/migrations) before returning.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// SaveModel registers a new named model. Returns ErrNameTaken if the name
// is already present; the registry never silently overwrites a model.
func (c *Catalog) SaveModel(m Model) error {
	data, err := EncodeModelBytes(m)
	if err != nil {
		return fmt.Errorf("store: encode model %q: %w", m.Name, err)
	}

	_, err = c.db.Exec(`INSERT INTO registry (name, kind, data) VALUES (?, ?, ?)`, m.Name, KindModel, data)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: %s", ErrNameTaken, m.Name)
		}
		return err
	}
	return nil
}

// LoadModel decodes the named model. Returns ErrNotFound if no such name is
// registered, or if the name is registered as a plain object rather than a
// model.
func (c *Catalog) LoadModel(name string) (Model, error) {
	data, kind, err := c.lookup(name)
	if err != nil {
		return Model{}, err
	}
	if kind != KindModel {
		return Model{}, fmt.Errorf("%w: %s is registered as %s, not a model", ErrNotFound, name, kind)
	}
	return DecodeModelBytes(data)
}

// SaveObject registers a named ad-hoc object (spec §3's "define" target).
// Returns ErrNameTaken if the name is already present.
func (c *Catalog) SaveObject(name string, o Object) error {
	data, err := EncodeObjectBytes(o)
	if err != nil {
		return fmt.Errorf("store: encode object %q: %w", name, err)
	}

	_, err = c.db.Exec(`INSERT INTO registry (name, kind, data) VALUES (?, ?, ?)`, name, KindObject, data)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("%w: %s", ErrNameTaken, name)
		}
		return err
	}
	return nil
}

// LoadObject decodes the named object. Returns ErrNotFound if no such name
// is registered, or if the name is registered as a model rather than a
// plain object.
func (c *Catalog) LoadObject(name string) (Object, error) {
	data, kind, err := c.lookup(name)
	if err != nil {
		return Object{}, err
	}
	if kind != KindObject {
		return Object{}, fmt.Errorf("%w: %s is registered as %s, not a plain object", ErrNotFound, name, kind)
	}
	return DecodeObjectBytes(data)
}

func (c *Catalog) lookup(name string) ([]byte, Kind, error) {
	row := c.db.QueryRow(`SELECT data, kind FROM registry WHERE name = ?`, name)
	var data []byte
	var kind string
	if err := row.Scan(&data, &kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, "", err
	}
	return data, Kind(kind), nil
}

// Discard removes name from the registry, regardless of kind. A no-op
// (returns ErrNotFound) if the name isn't registered.
func (c *Catalog) Discard(name string) error {
	res, err := c.db.Exec(`DELETE FROM registry WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List returns every registered entry ordered by name.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(`SELECT name, kind, created_at FROM registry ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Name, &kind, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
