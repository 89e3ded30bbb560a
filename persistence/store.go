package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/collection"
	"github.com/vecdbgo/vecdb/hnsw"
)

// Store is the directory-rooted, crash-safe persistence layer for
// collections. It is the surface an out-of-scope multi-collection façade
// is expected to call: create/save collections in memory, then Store them;
// load them back by name on the next process.
type Store struct {
	root   string
	logger *vecdb.Logger
}

// Option mutates a Store at Open time.
type Option func(*Store)

// WithLogger configures structured logging for save/load operations.
//
//	logger := vecdb.NewJSONLogger(slog.LevelInfo)
//	store, _ := persistence.Open(dir, persistence.WithLogger(logger))
func WithLogger(logger *vecdb.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open returns a Store rooted at dir, creating dir and its collections/
// subdirectory if they do not already exist.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "collections"), 0755); err != nil {
		return nil, fmt.Errorf("persistence: creating root directory: %w", err)
	}
	s := &Store{root: dir, logger: vecdb.NoopLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Store) metaPath(name string) string    { return filepath.Join(s.root, "collections", name+".meta") }
func (s *Store) hnswPath(name string) string    { return filepath.Join(s.root, "collections", name+".hnsw") }
func (s *Store) vectorsPath(name string) string { return filepath.Join(s.root, "collections", name+".vectors") }
func (s *Store) rootMetaPath() string           { return filepath.Join(s.root, "metadata.json") }

// SaveCollection atomically writes the .meta, .hnsw, and .vectors files
// for c. Each file is written independently via SaveToFile: the rename is
// that file's commit point, so a failure partway through leaves whichever
// files were already renamed in their new state and the rest untouched.
func (s *Store) SaveCollection(c *collection.Collection) error {
	err := s.saveCollection(c)
	s.logger.LogSaveCollection(context.Background(), c.Name(), c.Count(), err)
	return err
}

func (s *Store) saveCollection(c *collection.Collection) error {
	meta := collectionMeta{
		Version:        metadataVersion,
		Name:           c.Name(),
		Dimension:      c.Dimension(),
		Metric:         c.Metric().String(),
		Count:          c.Count(),
		NextInternalID: c.NextInternalID(),
		M:              c.M(),
		EfConstruction: c.EfConstruction(),
		EfSearch:       c.EfSearch(),
	}
	if err := SaveToFile(s.metaPath(c.Name()), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(meta)
	}); err != nil {
		return fmt.Errorf("persistence: saving %s.meta: %w", c.Name(), err)
	}

	indexBytes, err := c.Index().Serialize()
	if err != nil {
		return fmt.Errorf("persistence: serializing %s.hnsw: %w", c.Name(), err)
	}
	if err := SaveToFile(s.hnswPath(c.Name()), func(w io.Writer) error {
		_, err := w.Write(indexBytes)
		return err
	}); err != nil {
		return fmt.Errorf("persistence: saving %s.hnsw: %w", c.Name(), err)
	}

	records := c.Records()
	vecRecords := make([]vectorRecord, len(records))
	for i, r := range records {
		vecRecords[i] = vectorRecord{UserID: r.UserID, InternalID: r.InternalID, Vector: r.Vector}
	}
	if err := SaveToFile(s.vectorsPath(c.Name()), func(w io.Writer) error {
		return encodeVectors(w, c.Dimension(), vecRecords)
	}); err != nil {
		return fmt.Errorf("persistence: saving %s.vectors: %w", c.Name(), err)
	}

	return nil
}

// LoadCollection reads name's three files and reconstructs a Collection.
// Returns (nil, nil) if the target directory or any of the triple is
// missing. Partial or corrupt files return a KindDeserialization error.
func (s *Store) LoadCollection(name string) (*collection.Collection, error) {
	c, err := s.loadCollection(name)
	count := 0
	if c != nil {
		count = c.Count()
	}
	if c != nil || err != nil {
		s.logger.LogLoadCollection(context.Background(), name, count, err)
	}
	return c, err
}

func (s *Store) loadCollection(name string) (*collection.Collection, error) {
	for _, path := range []string{s.metaPath(name), s.hnswPath(name), s.vectorsPath(name)} {
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	var meta collectionMeta
	if err := LoadFromFile(s.metaPath(name), func(r io.Reader) error {
		m, err := decodeCollectionMeta(r)
		meta = m
		return err
	}); err != nil {
		return nil, err
	}

	indexBytes, err := os.ReadFile(s.hnswPath(name))
	if err != nil {
		return nil, fmt.Errorf("persistence: reading %s.hnsw: %w", name, err)
	}
	idx, err := hnsw.Deserialize(indexBytes)
	if err != nil {
		return nil, err
	}
	if idx.Dimension() != meta.Dimension {
		return nil, vecdb.Deserialization(fmt.Sprintf(
			"persistence: %s.meta dimension %d disagrees with %s.hnsw dimension %d",
			name, meta.Dimension, name, idx.Dimension()), nil)
	}

	var records []vectorRecord
	if err := LoadFromFile(s.vectorsPath(name), func(r io.Reader) error {
		recs, err := decodeVectors(r, meta.Dimension)
		records = recs
		return err
	}); err != nil {
		return nil, err
	}
	if len(records) != meta.Count {
		return nil, vecdb.Deserialization(fmt.Sprintf(
			"persistence: %s.vectors count %d disagrees with %s.meta count %d",
			name, len(records), name, meta.Count), nil)
	}

	colRecords := make([]collection.VectorRecord, len(records))
	for i, r := range records {
		colRecords[i] = collection.VectorRecord{UserID: r.UserID, InternalID: r.InternalID, Vector: r.Vector}
	}

	opts := collection.Options{
		Name:           meta.Name,
		Dimension:      meta.Dimension,
		Metric:         idx.Metric(),
		M:              meta.M,
		EfConstruction: meta.EfConstruction,
		EfSearch:       meta.EfSearch,
		Logger:         s.logger,
	}
	return collection.Restore(opts, idx, meta.NextInternalID, colRecords), nil
}

// DeleteCollection removes name's three files. Returns false if none of
// them existed.
func (s *Store) DeleteCollection(name string) bool {
	paths := []string{s.metaPath(name), s.hnswPath(name), s.vectorsPath(name)}
	existed := false
	for _, path := range paths {
		if err := os.Remove(path); err == nil {
			existed = true
		}
	}
	return existed
}

// ListCollections enumerates collection names by scanning the collections
// directory for .meta files.
func (s *Store) ListCollections() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "collections"))
	if err != nil {
		return nil, fmt.Errorf("persistence: listing collections: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".meta"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveMetadata atomically writes metadata.json with the given collection
// names.
func (s *Store) SaveMetadata(names []string) error {
	m := rootMetadata{Version: metadataVersion, Collections: names}
	return SaveToFile(s.rootMetaPath(), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(m)
	})
}

// LoadMetadata reads metadata.json. A missing file is treated as an empty,
// freshly-initialized store rather than an error.
func (s *Store) LoadMetadata() ([]string, error) {
	if _, err := os.Stat(s.rootMetaPath()); os.IsNotExist(err) {
		return nil, nil
	}
	var m rootMetadata
	if err := LoadFromFile(s.rootMetaPath(), func(r io.Reader) error {
		decoded, err := decodeRootMetadata(r)
		m = decoded
		return err
	}); err != nil {
		return nil, err
	}
	return m.Collections, nil
}
