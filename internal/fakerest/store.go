package fakerest

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"sort"
	"sync"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// Store is an in-memory set of collections keyed by resource name. Each
// collection identifies its records by a primary key field, "id" unless
// configured otherwise.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	keys        map[string]string
}

type collection struct {
	key     string
	records []provider.Record
	nextID  int64
}

// NewStore creates an empty store. keys maps resource names to their
// primary key field.
func NewStore(keys map[string]string) *Store {
	return &Store{
		collections: make(map[string]*collection),
		keys:        maps.Clone(keys),
	}
}

// Seed replaces the named collections with copies of the given records.
func (s *Store) Seed(data map[string][]provider.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for resource, records := range data {
		coll := s.newCollection(resource)

		for _, record := range records {
			coll.insert(maps.Clone(record))
		}

		s.collections[resource] = coll
	}
}

// LoadSeed reads a JSON object of resource name to record array and seeds it.
func (s *Store) LoadSeed(r io.Reader) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var raw map[string]any

	err := decoder.Decode(&raw)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrSeedNotObject, err)
	}

	data := make(map[string][]provider.Record, len(raw))

	for resource, value := range raw {
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s", constants.ErrSeedNotObject, resource)
		}

		records := make([]provider.Record, 0, len(items))

		for i, item := range items {
			record, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: %s[%d]", constants.ErrSeedRecordNotMap, resource, i)
			}

			records = append(records, record)
		}

		data[resource] = records
	}

	s.Seed(data)

	return nil
}

// Resources returns the collection names in sorted order.
func (s *Store) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// List returns the page of matching records selected by query along with
// the total number of matches and the index of the first returned record.
func (s *Store) List(resource string, query Query) ([]provider.Record, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[resource]
	if !ok {
		return []provider.Record{}, 0, 0
	}

	matched := make([]provider.Record, 0, len(coll.records))

	for _, record := range coll.records {
		if query.matches(record) {
			matched = append(matched, maps.Clone(record))
		}
	}

	query.sort(matched)

	total := len(matched)
	start, end := query.window(total)

	return matched[start:end], total, start
}

// Get returns the record whose primary key renders as id.
func (s *Store) Get(resource, id string) (provider.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[resource]
	if !ok {
		return nil, false
	}

	idx := coll.indexOf(id)
	if idx < 0 {
		return nil, false
	}

	return maps.Clone(coll.records[idx]), true
}

// Create stores record, assigning the next primary key when it has none.
func (s *Store) Create(resource string, record provider.Record) provider.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[resource]
	if !ok {
		coll = s.newCollection(resource)
		s.collections[resource] = coll
	}

	stored := coll.insert(maps.Clone(record))

	return maps.Clone(stored)
}

// Update merges changes into the record with the given id. The primary key
// itself cannot be changed.
func (s *Store) Update(resource, id string, changes provider.Record) (provider.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[resource]
	if !ok {
		return nil, false
	}

	idx := coll.indexOf(id)
	if idx < 0 {
		return nil, false
	}

	record := coll.records[idx]
	for field, value := range changes {
		if field != coll.key {
			record[field] = value
		}
	}

	return maps.Clone(record), true
}

// Delete removes and returns the record with the given id.
func (s *Store) Delete(resource, id string) (provider.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[resource]
	if !ok {
		return nil, false
	}

	idx := coll.indexOf(id)
	if idx < 0 {
		return nil, false
	}

	record := coll.records[idx]
	coll.records = append(coll.records[:idx], coll.records[idx+1:]...)

	return record, true
}

// Key returns the primary key field of resource.
func (s *Store) Key(resource string) string {
	if key := s.keys[resource]; key != "" {
		return key
	}

	return constants.IDField
}

func (s *Store) newCollection(resource string) *collection {
	return &collection{key: s.Key(resource), nextID: 1}
}

func (c *collection) insert(record provider.Record) provider.Record {
	if record[c.key] == nil {
		record[c.key] = c.nextID
	}

	if n, ok := toFloat(record[c.key]); ok && int64(n) >= c.nextID {
		c.nextID = int64(n) + 1
	}

	c.records = append(c.records, record)

	return record
}

func (c *collection) indexOf(id string) int {
	for i, record := range c.records {
		if fmt.Sprint(record[c.key]) == id {
			return i
		}
	}

	return -1
}
