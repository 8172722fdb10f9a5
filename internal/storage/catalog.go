package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/reelgraph/internal/dataset"
)

// Catalog file layout under the catalog directory.
const (
	DatasetsDir = "datasets"
	IndexFile   = "index.db"
	datasetExt  = ".jsonl"
)

// ErrInvalidName is returned for dataset names that cannot be file names.
var ErrInvalidName = errors.New("invalid dataset name")

// Catalog is a directory of imported datasets plus their query index.
type Catalog struct {
	dir string
	db  *DB
}

// OpenCatalog opens or creates the catalog at dir. When the index does not
// list exactly the datasets on disk it is rebuilt from the JSONL files.
func OpenCatalog(dir string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Join(dir, DatasetsDir), 0755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}
	db, err := OpenDB(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	c := &Catalog{dir: dir, db: db}

	stale, err := c.stale()
	if err != nil {
		db.Close()
		return nil, err
	}
	if stale {
		if _, err := c.Rebuild(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close closes the index.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// DB returns the query index.
func (c *Catalog) DB() *DB {
	return c.db
}

// ValidateName checks that name is usable as a dataset file name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// NameFromPath derives a dataset name from a source file path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (c *Catalog) path(name string) string {
	return filepath.Join(c.dir, DatasetsDir, name+datasetExt)
}

// Import stores ds under name, replacing any dataset of that name.
func (c *Catalog) Import(name string, ds *dataset.Dataset) (ImportResult, error) {
	if err := ValidateName(name); err != nil {
		return ImportResult{}, err
	}
	if err := WriteDataset(c.path(name), ds); err != nil {
		return ImportResult{}, err
	}
	return c.db.Import(name, ds)
}

// Load reads the full dataset stored under name.
func (c *Catalog) Load(name string) (*dataset.Dataset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return ReadDataset(c.path(name))
}

// Remove deletes the dataset stored under name.
func (c *Catalog) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(c.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: dataset %q", ErrNotFound, name)
		}
		return fmt.Errorf("removing dataset: %w", err)
	}
	return c.db.Remove(name)
}

// Query runs q against the index.
func (c *Catalog) Query(q Query) (*dataset.Dataset, error) {
	return c.db.Query(q)
}

// List returns the indexed datasets.
func (c *Catalog) List() ([]DatasetInfo, error) {
	return c.db.ListDatasets()
}

// Names returns the dataset names present on disk, sorted.
func (c *Catalog) Names() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, DatasetsDir))
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != datasetExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), datasetExt))
	}
	sort.Strings(names)
	return names, nil
}

// Rebuild re-indexes every dataset file and drops index entries without
// one. It returns the number of datasets indexed.
func (c *Catalog) Rebuild() (int, error) {
	names, err := c.Names()
	if err != nil {
		return 0, err
	}
	indexed, err := c.db.ListDatasets()
	if err != nil {
		return 0, err
	}
	onDisk := make(map[string]bool, len(names))
	for _, n := range names {
		onDisk[n] = true
	}
	for _, info := range indexed {
		if !onDisk[info.Name] {
			if err := c.db.Remove(info.Name); err != nil {
				return 0, err
			}
		}
	}
	for _, n := range names {
		ds, err := ReadDataset(c.path(n))
		if err != nil {
			return 0, fmt.Errorf("reading dataset %s: %w", n, err)
		}
		if _, err := c.db.Import(n, ds); err != nil {
			return 0, fmt.Errorf("indexing dataset %s: %w", n, err)
		}
	}
	return len(names), nil
}

func (c *Catalog) stale() (bool, error) {
	names, err := c.Names()
	if err != nil {
		return false, err
	}
	indexed, err := c.db.ListDatasets()
	if err != nil {
		return false, err
	}
	if len(names) != len(indexed) {
		return true, nil
	}
	for i, info := range indexed {
		if info.Name != names[i] {
			return true, nil
		}
	}
	return false, nil
}
