package corpus

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Snapshot is a pre-tokenized corpus for one version, as produced by the
// extraction stage.
type Snapshot struct {
	Version string            `yaml:"version"`
	Files   map[string]Corpus `yaml:"files"`
}

// Saver is the writer side of a corpus store.
type Saver interface {
	SaveCorpus(ctx context.Context, fileName, version string, c Corpus) error
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus snapshot %s: %w", path, err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing corpus snapshot %s: %w", path, err)
	}
	if snap.Version == "" {
		return nil, fmt.Errorf("corpus snapshot %s: version is required", path)
	}
	return &snap, nil
}

// Seed writes every file of the snapshot into s, in file-name order.
func (snap *Snapshot) Seed(ctx context.Context, s Saver) error {
	names := make([]string, 0, len(snap.Files))
	for name := range snap.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.SaveCorpus(ctx, name, snap.Version, snap.Files[name]); err != nil {
			return fmt.Errorf("seeding %s: %w", name, err)
		}
	}
	return nil
}
