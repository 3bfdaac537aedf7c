// Package index holds extracted structures in a concurrent map keyed by
// model.StructureKey and builds it from a set of source files.
package index

import (
	"cmp"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/phobologic/typelens/internal/model"
)

const shardCount = 32

type shard struct {
	mu sync.RWMutex
	m  map[model.StructureKey]model.Content
}

// Index maps structure keys to their extracted content. All methods are
// safe for concurrent use. Inserting an existing key replaces its content.
type Index struct {
	shards [shardCount]*shard
}

// New returns an empty Index.
func New() *Index {
	idx := &Index{}
	for i := range idx.shards {
		idx.shards[i] = &shard{m: make(map[model.StructureKey]model.Content)}
	}
	return idx
}

func (idx *Index) shardFor(key model.StructureKey) *shard {
	d := xxhash.New()
	_, _ = d.WriteString(key.SourcePath)
	_, _ = d.Write([]byte{0, byte(key.Kind)})
	_, _ = d.WriteString(key.Name)
	return idx.shards[d.Sum64()%shardCount]
}

// Insert stores content under key, replacing any previous value.
func (idx *Index) Insert(key model.StructureKey, content model.Content) {
	s := idx.shardFor(key)
	s.mu.Lock()
	s.m[key] = content
	s.mu.Unlock()
}

// InsertAll stores every statement.
func (idx *Index) InsertAll(stmts []model.Statement) {
	for _, st := range stmts {
		idx.Insert(st.Key, st.Content)
	}
}

// Get returns the content stored under key.
func (idx *Index) Get(key model.StructureKey) (model.Content, bool) {
	s := idx.shardFor(key)
	s.mu.RLock()
	c, ok := s.m[key]
	s.mu.RUnlock()
	return c, ok
}

// Len returns the number of stored structures.
func (idx *Index) Len() int {
	n := 0
	for _, s := range idx.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Statements returns a snapshot of the index ordered by source path, name
// and kind. Callers should not run it concurrently with inserts if they need
// a consistent view.
func (idx *Index) Statements() []model.Statement {
	var out []model.Statement
	for _, s := range idx.shards {
		s.mu.RLock()
		for k, c := range s.m {
			out = append(out, model.Statement{Key: k, Content: c})
		}
		s.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b model.Statement) int {
		return cmp.Or(
			cmp.Compare(a.Key.SourcePath, b.Key.SourcePath),
			cmp.Compare(a.Key.Name, b.Key.Name),
			cmp.Compare(a.Key.Kind, b.Key.Kind),
		)
	})
	return out
}
