package tabular

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xbrowse/xbrowse/models/tables"
)

const (
	globalsFile  = "globals.json"
	manifestFile = "partitions.json"
)

// DirectoryStore serves tables from a directory tree. Each table is
// a directory holding a globals.json sidecar, partitioned row files
// (part-*.jsonl, one JSON document per row, ascending xpos), and an
// optional partitions.json manifest recording per-partition key
// ranges for scan pruning.
type DirectoryStore struct {
	root          string
	maxPartitions int
}

func NewDirectoryStore(root string, maxPartitions int) *DirectoryStore {
	if maxPartitions <= 0 {
		maxPartitions = 12
	}
	return &DirectoryStore{root: root, maxPartitions: maxPartitions}
}

func (s *DirectoryStore) Root() string { return s.root }

func (s *DirectoryStore) tableDir(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *DirectoryStore) TableExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.tableDir(name), globalsFile))
	return err == nil
}

func (s *DirectoryStore) ReadTable(name string, opts ...ReadOption) (*Table, error) {
	var options ReadOptions
	for _, opt := range opts {
		opt(&options)
	}

	dir := s.tableDir(name)
	globals, err := readGlobals(dir)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrap(ErrTableNotFound, name)
		}
		return nil, errors.Wrapf(err, "reading globals for %s", name)
	}

	parts, err := listPartitions(dir, options.Intervals)
	if err != nil {
		return nil, errors.Wrapf(err, "listing partitions for %s", name)
	}

	limit := options.PartitionHint
	if limit <= 0 || limit > s.maxPartitions {
		limit = s.maxPartitions
	}

	source := func(ctx context.Context, emit func(*tables.VariantRow) error) error {
		collected := make([][]*tables.VariantRow, len(parts))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, part := range parts {
			i, part := i, part
			g.Go(func() error {
				rows, err := readPartition(gctx, part, options.Intervals)
				if err != nil {
					return errors.Wrapf(err, "reading partition %s", filepath.Base(part))
				}
				collected[i] = rows
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, rows := range collected {
			for _, row := range rows {
				if err := emit(row); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return NewTable(name, globals, source), nil
}

func readGlobals(dir string) (*tables.Globals, error) {
	raw, err := os.ReadFile(filepath.Join(dir, globalsFile))
	if err != nil {
		return nil, err
	}
	var globals tables.Globals
	if err := json.Unmarshal(raw, &globals); err != nil {
		return nil, errors.Wrap(err, "malformed globals")
	}
	return &globals, nil
}

type manifestEntry struct {
	File      string `json:"file"`
	StartXpos int64  `json:"startXpos"`
	EndXpos   int64  `json:"endXpos"`
}

// listPartitions resolves the partition files to scan, dropping the
// ones the manifest proves disjoint from the requested intervals.
func listPartitions(dir string, intervals *IntervalSet) ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err == nil {
		var manifest []manifestEntry
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return nil, errors.Wrap(err, "malformed partition manifest")
		}
		var parts []string
		for _, entry := range manifest {
			if !intervals.Overlaps(entry.StartXpos, entry.EndXpos) {
				continue
			}
			parts = append(parts, filepath.Join(dir, entry.File))
		}
		return parts, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	parts, err := filepath.Glob(filepath.Join(dir, "part-*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(parts)
	return parts, nil
}

func readPartition(ctx context.Context, path string, intervals *IntervalSet) ([]*tables.VariantRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []*tables.VariantRow
	decoder := json.NewDecoder(file)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var raw map[string]interface{}
		if err := decoder.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "malformed row")
		}
		if xpos, ok := raw["xpos"].(float64); ok && !intervals.Contains(int64(xpos)) {
			continue
		}

		var row tables.VariantRow
		if err := mapstructure.Decode(raw, &row); err != nil {
			return nil, errors.Wrap(err, "decoding row")
		}
		rows = append(rows, &row)
	}
	return rows, nil
}
