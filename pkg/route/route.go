package route

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/packetflow/pkg/errors"
)

// Hop is one network hop on a simulated path. Hops are supplied by a route
// table and never mutated after loading.
type Hop struct {
	IP   string  `json:"ip" toml:"ip" bson:"ip"`
	Name string  `json:"name" toml:"name" bson:"name"`
	Time float64 `json:"time" toml:"time" bson:"time"` // nominal latency in milliseconds
}

// Source provides routes keyed by destination name.
type Source interface {
	// Lookup returns the ordered hops towards dest.
	// Returns an error with code ROUTE_NOT_FOUND when dest is unknown.
	Lookup(ctx context.Context, dest string) ([]Hop, error)

	// Destinations returns all known destinations in sorted order.
	Destinations(ctx context.Context) ([]string, error)
}

// Table is an in-memory route table keyed by destination.
type Table map[string][]Hop

// Lookup returns a copy of the hops for dest.
func (t Table) Lookup(_ context.Context, dest string) ([]Hop, error) {
	hops, ok := t[dest]
	if !ok {
		return nil, errors.New(errors.ErrCodeRouteNotFound, "no route to %s", dest)
	}
	return slices.Clone(hops), nil
}

// Destinations returns the table keys in sorted order.
func (t Table) Destinations(context.Context) ([]string, error) {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Merge returns a new table containing t overlaid with other.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

var _ Source = Table(nil)

// tomlDocument is the on-disk TOML layout:
//
//	[[route."example.com"]]
//	ip = "192.168.1.1"
//	name = "home-router.local"
//	time = 1.2
type tomlDocument struct {
	Route map[string][]Hop `toml:"route"`
}

// LoadJSON reads a route table encoded as {"dest": [{"ip","name","time"}, ...]}.
func LoadJSON(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode route table")
	}
	return t, nil
}

// LoadTOML reads a route table from TOML.
func LoadTOML(r io.Reader) (Table, error) {
	var doc tomlDocument
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode route table")
	}
	if doc.Route == nil {
		return Table{}, nil
	}
	return Table(doc.Route), nil
}

// LoadFile reads a route table from path, choosing the decoder by extension.
// Files ending in .toml are decoded as TOML, everything else as JSON.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "route table %s", path)
		}
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(f)
	default:
		return LoadJSON(f)
	}
}

// Load returns the built-in table overlaid with the table at path.
// An empty path yields the built-in table alone.
func Load(path string) (Table, error) {
	if path == "" {
		return Builtin(), nil
	}
	t, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	return Builtin().Merge(t), nil
}
