// Package appenv reads the eco command configuration from the environment.
package appenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jacentio/eco/store"
)

// Backends accepted in ECO_BACKEND.
const (
	BackendDynamo    = "dynamo"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Env is the parsed command configuration.
type Env struct {
	Backend   string
	Dynamo    store.DynamoConfig
	Firestore store.FirestoreConfig
	Sections  []store.Section
	Atomic    bool
	LogLevel  string
}

// Load reads the named dotenv files (".env" when none are given) into the
// process environment, then parses it. Missing files are ignored. Variables
// already set in the environment win over file values.
func Load(files ...string) (Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(os.Getenv)
}

// Parse builds an Env from a lookup function such as os.Getenv.
func Parse(getenv func(string) string) (Env, error) {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	env := Env{
		Backend:  strings.ToLower(get("ECO_BACKEND")),
		Dynamo:   store.DefaultDynamoConfig(),
		LogLevel: get("ECO_LOG_LEVEL"),
	}
	if env.Backend == "" {
		env.Backend = BackendDynamo
	}
	if env.LogLevel == "" {
		env.LogLevel = "info"
	}

	switch env.Backend {
	case BackendDynamo:
		if v := get("ECO_TABLE"); v != "" {
			env.Dynamo.Table = v
		}
		if v := get("ECO_SHARDS"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return Env{}, fmt.Errorf("ECO_SHARDS: invalid shard count %q", v)
			}
			env.Dynamo.NumShards = n
		}
		env.Dynamo.Endpoint = get("ECO_ENDPOINT")
		env.Dynamo.Profile = get("AWS_PROFILE")
		env.Dynamo.Region = get("AWS_REGION")
	case BackendFirestore:
		env.Firestore.ProjectID = get("ECO_GCP_PROJECT")
		env.Firestore.EmulatorHost = get("FIRESTORE_EMULATOR_HOST")
		if env.Firestore.ProjectID == "" {
			return Env{}, errors.New("ECO_GCP_PROJECT is required for the firestore backend")
		}
	case BackendMemory:
	default:
		return Env{}, fmt.Errorf("ECO_BACKEND: unknown backend %q", env.Backend)
	}

	if v := get("ECO_ATOMIC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Env{}, fmt.Errorf("ECO_ATOMIC: %w", err)
		}
		env.Atomic = b
	}

	sections, err := parseSections(get("ECO_SECTIONS"))
	if err != nil {
		return Env{}, err
	}
	env.Sections = sections

	return env, nil
}

// parseSections reads "name[:Title],..." pairs.
func parseSections(v string) ([]store.Section, error) {
	if v == "" {
		return nil, nil
	}

	var sections []store.Section
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, title, _ := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, "/#") {
			return nil, fmt.Errorf("ECO_SECTIONS: invalid section %q", part)
		}
		title = strings.TrimSpace(title)
		if title == "" {
			title = name
		}
		sections = append(sections, store.Section{Name: name, Title: title})
	}
	return sections, nil
}

// Registry returns the configured sections, or nil when none are set.
func (e Env) Registry() *store.Registry {
	if len(e.Sections) == 0 {
		return nil
	}
	return store.NewRegistry(e.Sections...)
}

// StoreConfig returns the store configuration for this environment.
func (e Env) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.AtomicInsert = e.Atomic
	cfg.Sections = e.Registry()
	return cfg
}

// Opener returns a connector for the configured backend.
func (e Env) Opener() store.Opener {
	switch e.Backend {
	case BackendFirestore:
		return func(ctx context.Context) (store.Tree, error) {
			return store.OpenFirestore(ctx, e.Firestore)
		}
	case BackendMemory:
		return func(context.Context) (store.Tree, error) {
			return store.NewMemoryTree(), nil
		}
	default:
		return func(ctx context.Context) (store.Tree, error) {
			return store.OpenDynamo(ctx, e.Dynamo)
		}
	}
}
