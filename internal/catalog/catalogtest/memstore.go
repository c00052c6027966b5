// Package catalogtest provides an in-memory catalog.Store for tests.
//
// Transactions copy the data on Begin and write it back to their parent on
// Commit, so nested units behave like savepoints. The store counts
// top-level commits and rollbacks and can be told to fail specific
// operations.
package catalogtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// Operation names accepted by FailOn.
const (
	OpFindPart    = "find_part"
	OpCreatePart  = "create_part"
	OpUpdatePart  = "update_part"
	OpFindBrand   = "find_brand"
	OpCreateBrand = "create_brand"
	OpFindModel   = "find_model"
	OpCreateModel = "create_model"
	OpUpdateModel = "update_model"
	OpList        = "list"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

type partKey struct{ manufacturer, partNumber string }

type modelKey struct {
	brandID int64
	name    string
}

type data struct {
	parts  map[partKey]catalog.SparePart
	brands map[string]catalog.CarBrand
	models map[modelKey]catalog.CarModel
}

func newData() *data {
	return &data{
		parts:  make(map[partKey]catalog.SparePart),
		brands: make(map[string]catalog.CarBrand),
		models: make(map[modelKey]catalog.CarModel),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.parts {
		c.parts[k] = v
	}
	for k, v := range d.brands {
		c.brands[k] = v
	}
	for k, v := range d.models {
		c.models[k] = v
	}
	return c
}

// Store is an in-memory catalog.Store. It is safe for sequential use only;
// the mutex guards the counters read by tests from other goroutines.
type Store struct {
	queries

	mu        sync.Mutex
	data      *data
	nextID    int64
	commits   int
	rollbacks int
	begins    int
	attempts  int
	calls     int

	failOn       map[string]func(key string) bool
	failCommitAt int
	failBeginAt  int
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{data: newData(), failOn: make(map[string]func(string) bool)}
	s.queries = queries{s: s, get: func() *data { return s.data }}
	return s
}

// FailOn makes op fail with ErrInjected whenever match returns true for the
// record key ("manufacturer/part_number", brand name, or "brandID/model").
func (s *Store) FailOn(op string, match func(key string) bool) {
	s.failOn[op] = match
}

// FailCommitAt makes the n-th top-level commit (1-based) fail.
func (s *Store) FailCommitAt(n int) { s.failCommitAt = n }

// FailBeginAt makes the n-th top-level Begin (1-based) fail.
func (s *Store) FailBeginAt(n int) { s.failBeginAt = n }

// Commits returns the number of successful top-level commits.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns the number of top-level rollbacks of open transactions.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Calls returns the number of query calls made against the store or any
// of its transactions.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Parts returns every committed spare part ordered by id.
func (s *Store) Parts() []catalog.SparePart {
	out := make([]catalog.SparePart, 0, len(s.data.parts))
	for _, p := range s.data.parts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Part returns a committed spare part by key.
func (s *Store) Part(manufacturer, partNumber string) (catalog.SparePart, bool) {
	p, ok := s.data.parts[partKey{manufacturer, partNumber}]
	return p, ok
}

// Brands returns every committed brand ordered by id.
func (s *Store) Brands() []catalog.CarBrand {
	out := make([]catalog.CarBrand, 0, len(s.data.brands))
	for _, b := range s.data.brands {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Models returns every committed car model ordered by id.
func (s *Store) Models() []catalog.CarModel {
	out := make([]catalog.CarModel, 0, len(s.data.models))
	for _, m := range s.data.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Begin opens a top-level transaction.
func (s *Store) Begin(ctx context.Context) (catalog.Tx, error) {
	s.mu.Lock()
	s.begins++
	n := s.begins
	s.mu.Unlock()
	if s.failBeginAt > 0 && n == s.failBeginAt {
		return nil, fmt.Errorf("begin: %w", ErrInjected)
	}
	return newTx(s, nil, s.data), nil
}

func (s *Store) check(op, key string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if match, ok := s.failOn[op]; ok && match(key) {
		return fmt.Errorf("%s %s: %w", op, key, ErrInjected)
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Tx is a transaction or, when it has a parent, a savepoint.
type Tx struct {
	queries
	s      *Store
	parent *Tx
	data   *data
	done   bool
}

func newTx(s *Store, parent *Tx, base *data) *Tx {
	t := &Tx{s: s, parent: parent, data: base.clone()}
	t.queries = queries{s: s, get: func() *data { return t.data }}
	return t
}

// Begin opens a savepoint inside t.
func (t *Tx) Begin(ctx context.Context) (catalog.Tx, error) {
	if t.done {
		return nil, errors.New("tx is closed")
	}
	return newTx(t.s, t, t.data), nil
}

// Commit publishes t's writes to its parent, or to the store for a
// top-level transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("tx is closed")
	}
	t.done = true

	if t.parent != nil {
		t.parent.data = t.data
		return nil
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.attempts++
	if t.s.failCommitAt > 0 && t.s.attempts == t.s.failCommitAt {
		t.s.rollbacks++
		return fmt.Errorf("commit: %w", ErrInjected)
	}
	t.s.data = t.data
	t.s.commits++
	return nil
}

// Rollback discards t's writes. Rolling back a finished tx is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if t.parent == nil {
		t.s.mu.Lock()
		t.s.rollbacks++
		t.s.mu.Unlock()
	}
	return nil
}

type queries struct {
	s   *Store
	get func() *data
}

func (q queries) FindSparePart(ctx context.Context, manufacturer, partNumber string) (catalog.SparePart, error) {
	if err := q.s.check(OpFindPart, manufacturer+"/"+partNumber); err != nil {
		return catalog.SparePart{}, err
	}
	p, ok := q.get().parts[partKey{manufacturer, partNumber}]
	if !ok {
		return catalog.SparePart{}, catalog.ErrNotFound
	}
	return p, nil
}

func (q queries) CreateSparePart(ctx context.Context, p *catalog.SparePart) error {
	key := partKey{p.Manufacturer, p.PartNumber}
	if err := q.s.check(OpCreatePart, p.Manufacturer+"/"+p.PartNumber); err != nil {
		return err
	}
	if _, dup := q.get().parts[key]; dup {
		return errors.New("duplicate key value violates unique constraint spare_parts_manufacturer_part_number_key")
	}
	p.ID = q.s.id()
	q.get().parts[key] = *p
	return nil
}

func (q queries) UpdateSparePart(ctx context.Context, p catalog.SparePart) error {
	key := partKey{p.Manufacturer, p.PartNumber}
	if err := q.s.check(OpUpdatePart, p.Manufacturer+"/"+p.PartNumber); err != nil {
		return err
	}
	if _, ok := q.get().parts[key]; !ok {
		return catalog.ErrNotFound
	}
	q.get().parts[key] = p
	return nil
}

func (q queries) FindBrandByName(ctx context.Context, name string) (catalog.CarBrand, error) {
	if err := q.s.check(OpFindBrand, name); err != nil {
		return catalog.CarBrand{}, err
	}
	b, ok := q.get().brands[name]
	if !ok {
		return catalog.CarBrand{}, catalog.ErrNotFound
	}
	return b, nil
}

func (q queries) CreateBrand(ctx context.Context, b *catalog.CarBrand) error {
	if err := q.s.check(OpCreateBrand, b.Name); err != nil {
		return err
	}
	if _, dup := q.get().brands[b.Name]; dup {
		return errors.New("duplicate key value violates unique constraint car_brands_name_key")
	}
	b.ID = q.s.id()
	q.get().brands[b.Name] = *b
	return nil
}

func (q queries) FindCarModel(ctx context.Context, brandID int64, name string) (catalog.CarModel, error) {
	if err := q.s.check(OpFindModel, fmt.Sprintf("%d/%s", brandID, name)); err != nil {
		return catalog.CarModel{}, err
	}
	m, ok := q.get().models[modelKey{brandID, name}]
	if !ok {
		return catalog.CarModel{}, catalog.ErrNotFound
	}
	return m, nil
}

func (q queries) CreateCarModel(ctx context.Context, m *catalog.CarModel) error {
	if err := q.s.check(OpCreateModel, fmt.Sprintf("%d/%s", m.BrandID, m.Name)); err != nil {
		return err
	}
	key := modelKey{m.BrandID, m.Name}
	if _, dup := q.get().models[key]; dup {
		return errors.New("duplicate key value violates unique constraint car_models_name_brand_id_key")
	}
	m.ID = q.s.id()
	q.get().models[key] = *m
	return nil
}

func (q queries) UpdateCarModel(ctx context.Context, m catalog.CarModel) error {
	if err := q.s.check(OpUpdateModel, fmt.Sprintf("%d/%s", m.BrandID, m.Name)); err != nil {
		return err
	}
	key := modelKey{m.BrandID, m.Name}
	if _, ok := q.get().models[key]; !ok {
		return catalog.ErrNotFound
	}
	q.get().models[key] = m
	return nil
}

func (q queries) ListSpareParts(ctx context.Context, f catalog.ExportFilter, limit, offset int) ([]catalog.SparePart, error) {
	if err := q.s.check(OpList, string(catalog.EntitySpareParts)); err != nil {
		return nil, err
	}
	var all []catalog.SparePart
	for _, p := range q.get().parts {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Manufacturer != "" && !strings.Contains(strings.ToLower(p.Manufacturer), strings.ToLower(f.Manufacturer)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, limit, offset), nil
}

func (q queries) ListCarModels(ctx context.Context, f catalog.ExportFilter, limit, offset int) ([]catalog.CarModel, error) {
	if err := q.s.check(OpList, string(catalog.EntityCarModels)); err != nil {
		return nil, err
	}
	byID := make(map[int64]catalog.CarBrand, len(q.get().brands))
	for _, b := range q.get().brands {
		byID[b.ID] = b
	}

	var all []catalog.CarModel
	for _, m := range q.get().models {
		if f.BrandID != nil && m.BrandID != *f.BrandID {
			continue
		}
		if f.Popular != nil && m.Popular != *f.Popular {
			continue
		}
		b := byID[m.BrandID]
		m.BrandName = b.Name
		m.BrandCountry = b.Country
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, limit, offset), nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
