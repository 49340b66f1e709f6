package store

import (
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the Store.
type Config struct {
	// Now returns the current local time used to stamp entries.
	// Default: time.Now
	Now func() time.Time

	// NewID generates document IDs.
	// Default: uuid.NewString (random, version 4)
	NewID func() string

	// AtomicInsert writes the metadata and content records of an entry in a
	// single transaction when the tree supports it. When false (the default),
	// the two records are written independently and a failure of one write
	// does not roll back the other.
	AtomicInsert bool

	// Sections restricts the store to registered sections.
	// Default: nil (any valid section name is accepted)
	Sections *Registry
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// validate fills in unset values.
func (c *Config) validate() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
}

// DynamoConfig holds configuration for a DynamoDB-backed tree.
type DynamoConfig struct {
	// Table is the name of the single table holding the tree.
	// Default: "eco_tree"
	Table string

	// NumShards is the number of partitions each collection is spread over.
	// Listing a collection queries every shard in parallel.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// Profile is the shared AWS config profile. Empty uses the default chain.
	Profile string

	// Region overrides the region from the environment or profile.
	Region string

	// Endpoint points the client at a non-AWS endpoint such as DynamoDB Local.
	// Static dummy credentials are used when set.
	Endpoint string
}

// DefaultDynamoConfig returns sensible defaults for small datasets.
func DefaultDynamoConfig() DynamoConfig {
	return DynamoConfig{
		Table:     "eco_tree",
		NumShards: 1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *DynamoConfig) validate() {
	if c.Table == "" {
		c.Table = "eco_tree"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
}

// FirestoreConfig holds configuration for a Firestore-backed tree.
type FirestoreConfig struct {
	// ProjectID is the Google Cloud project. Required.
	ProjectID string

	// EmulatorHost connects to a local Firestore emulator (host:port) without credentials.
	EmulatorHost string
}
