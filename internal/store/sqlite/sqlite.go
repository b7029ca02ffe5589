// Package sqlite implements the world-definition catalog on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/minevox/minevox-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS worlds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	seed        INTEGER NOT NULL,
	generator   TEXT NOT NULL DEFAULT 'flat',
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Catalog implements store.Catalog for SQLite.
type Catalog struct {
	db *sql.DB
}

// New opens (or creates) the catalog database and applies the schema.
// Use ":memory:" for an ephemeral catalog.
func New(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// CreateWorld registers a new world definition.
func (c *Catalog) CreateWorld(ctx context.Context, name string, seed int64, generator store.GeneratorType, description string) (*store.WorldDefinition, error) {
	query := `
		INSERT INTO worlds (name, seed, generator, description)
		VALUES (?, ?, ?, ?)
	`
	result, err := c.db.ExecContext(ctx, query, name, seed, string(generator), description)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %q", store.ErrWorldExists, name)
		}
		return nil, fmt.Errorf("insert world: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return c.getWorld(ctx, "id = ?", id)
}

// GetWorldByName retrieves one definition, or store.ErrWorldNotFound.
func (c *Catalog) GetWorldByName(ctx context.Context, name string) (*store.WorldDefinition, error) {
	return c.getWorld(ctx, "name = ?", name)
}

func (c *Catalog) getWorld(ctx context.Context, where string, arg any) (*store.WorldDefinition, error) {
	query := `
		SELECT id, name, seed, generator, description, created_at
		FROM worlds
		WHERE ` + where

	var def store.WorldDefinition
	var generator string
	err := c.db.QueryRowContext(ctx, query, arg).Scan(
		&def.ID,
		&def.Name,
		&def.Seed,
		&generator,
		&def.Description,
		&def.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", store.ErrWorldNotFound, arg)
		}
		return nil, fmt.Errorf("query world: %w", err)
	}
	def.Generator = store.GeneratorType(generator)

	return &def, nil
}

// ListWorlds returns all definitions ordered by name.
func (c *Catalog) ListWorlds(ctx context.Context) ([]*store.WorldDefinition, error) {
	query := `
		SELECT id, name, seed, generator, description, created_at
		FROM worlds
		ORDER BY name
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query worlds: %w", err)
	}
	defer rows.Close()

	var defs []*store.WorldDefinition
	for rows.Next() {
		var def store.WorldDefinition
		var generator string
		if err := rows.Scan(
			&def.ID,
			&def.Name,
			&def.Seed,
			&generator,
			&def.Description,
			&def.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan world: %w", err)
		}
		def.Generator = store.GeneratorType(generator)
		defs = append(defs, &def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worlds: %w", err)
	}

	return defs, nil
}
