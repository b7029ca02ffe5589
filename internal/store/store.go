// Package store holds the world-definition catalog: the configured worlds a
// client may join, with their generation parameters. Live membership is never
// persisted; that state belongs to the broker alone.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// GeneratorType selects the terrain generator configured for a world.
type GeneratorType string

const (
	GeneratorFlat  GeneratorType = "flat"
	GeneratorHilly GeneratorType = "hilly"
)

// ParseGenerator maps a user-supplied name onto a known generator type.
func ParseGenerator(name string) (GeneratorType, bool) {
	switch strings.ToLower(name) {
	case string(GeneratorFlat):
		return GeneratorFlat, true
	case string(GeneratorHilly):
		return GeneratorHilly, true
	default:
		return "", false
	}
}

// WorldDefinition is one configured world.
type WorldDefinition struct {
	ID          int64
	Name        string
	Seed        int64
	Generator   GeneratorType
	Description string
	CreatedAt   time.Time
}

var (
	// ErrWorldExists reports a create for an already-defined world name.
	ErrWorldExists = errors.New("store: world already defined")
	// ErrWorldNotFound reports a lookup for an undefined world name.
	ErrWorldNotFound = errors.New("store: world not defined")
)

// Catalog is the persistence boundary for world definitions.
type Catalog interface {
	// CreateWorld registers a new world definition.
	CreateWorld(ctx context.Context, name string, seed int64, generator GeneratorType, description string) (*WorldDefinition, error)

	// GetWorldByName retrieves one definition, or ErrWorldNotFound.
	GetWorldByName(ctx context.Context, name string) (*WorldDefinition, error)

	// ListWorlds returns all definitions ordered by name.
	ListWorlds(ctx context.Context) ([]*WorldDefinition, error)

	// Close releases the underlying storage.
	Close() error
}
