package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/stwalsh4118/estate/internal/models"
)

// memoryData is the full content of a MemoryStore. It is cloned at the
// start of every transaction and swapped back in on commit.
type memoryData struct {
	properties map[int64]models.Property
	offers     map[int64]models.Offer
	types      map[int64]models.PropertyType
	tags       map[int64]models.PropertyTag

	lastProperty int64
	lastOffer    int64
	lastType     int64
	lastTag      int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		properties: map[int64]models.Property{},
		offers:     map[int64]models.Offer{},
		types:      map[int64]models.PropertyType{},
		tags:       map[int64]models.PropertyTag{},
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		properties:   make(map[int64]models.Property, len(d.properties)),
		offers:       make(map[int64]models.Offer, len(d.offers)),
		types:        make(map[int64]models.PropertyType, len(d.types)),
		tags:         make(map[int64]models.PropertyTag, len(d.tags)),
		lastProperty: d.lastProperty,
		lastOffer:    d.lastOffer,
		lastType:     d.lastType,
		lastTag:      d.lastTag,
	}
	for id, p := range d.properties {
		c.properties[id] = copyProperty(p)
	}
	for id, o := range d.offers {
		c.offers[id] = copyOffer(o)
	}
	for id, t := range d.types {
		c.types[id] = t
	}
	for id, t := range d.tags {
		c.tags[id] = t
	}
	return c
}

// MemoryStore is an in-process Store. Transactions are serialized by a single
// store-wide mutex, which also makes GetForUpdate trivially exclusive. A
// failed transaction leaves the committed data untouched.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	tx   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, data: newMemoryData()}
}

// lock acquires the store mutex unless the caller already runs inside a
// transaction that holds it.
func (s *MemoryStore) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Properties() PropertyRepository { return &memoryProperties{s} }
func (s *MemoryStore) Offers() OfferRepository        { return &memoryOffers{s} }
func (s *MemoryStore) Types() PropertyTypeRepository  { return &memoryTypes{s} }
func (s *MemoryStore) Tags() PropertyTagRepository    { return &memoryTags{s} }

// InTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := &MemoryStore{mu: s.mu, data: s.data.clone(), tx: true}
	if err := fn(work); err != nil {
		return err
	}
	s.data = work.data
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyProperty(p models.Property) models.Property {
	p.OwnerID = copyID(p.OwnerID)
	p.PropertyTypeID = copyID(p.PropertyTypeID)
	p.SalespersonID = copyID(p.SalespersonID)
	p.BuyerID = copyID(p.BuyerID)
	if p.TagIDs == nil {
		p.TagIDs = []int64{}
	} else {
		p.TagIDs = slices.Clone(p.TagIDs)
	}
	p.Offers = nil
	return p
}

func copyOffer(o models.Offer) models.Offer {
	o.PropertyTypeID = copyID(o.PropertyTypeID)
	return o
}

type memoryProperties struct{ s *MemoryStore }

func (r *memoryProperties) checkRefs(p *models.Property) error {
	if p.PropertyTypeID != nil {
		if _, ok := r.s.data.types[*p.PropertyTypeID]; !ok {
			return &models.ConstraintError{
				Field:   "propertyTypeId",
				Message: "The property references a record that does not exist.",
			}
		}
	}
	for _, id := range p.TagIDs {
		if _, ok := r.s.data.tags[id]; !ok {
			return &models.ConstraintError{
				Field:   "tagIds",
				Message: "The property tag references a record that does not exist.",
			}
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func (r *memoryProperties) Create(ctx context.Context, p *models.Property) error {
	defer r.s.lock()()

	if err := r.checkRefs(p); err != nil {
		return err
	}
	d := r.s.data
	d.lastProperty++
	p.ID = d.lastProperty
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	p.TagIDs = dedupe(p.TagIDs)
	d.properties[p.ID] = copyProperty(*p)
	return nil
}

func (r *memoryProperties) Get(ctx context.Context, id int64) (*models.Property, error) {
	defer r.s.lock()()

	p, ok := r.s.data.properties[id]
	if !ok {
		return nil, nil
	}
	cp := copyProperty(p)
	return &cp, nil
}

func (r *memoryProperties) GetForUpdate(ctx context.Context, id int64) (*models.Property, error) {
	return r.Get(ctx, id)
}

func (r *memoryProperties) List(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	defer r.s.lock()()

	results := []models.Property{}
	for _, p := range r.s.data.properties {
		if filter.Active != nil && p.Active != *filter.Active {
			continue
		}
		if filter.SalespersonID != nil && (p.SalespersonID == nil || *p.SalespersonID != *filter.SalespersonID) {
			continue
		}
		if len(filter.States) > 0 && !slices.Contains(filter.States, p.State) {
			continue
		}
		results = append(results, copyProperty(p))
	}

	slices.SortFunc(results, func(a, b models.Property) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []models.Property{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (r *memoryProperties) Update(ctx context.Context, p *models.Property) error {
	defer r.s.lock()()

	existing, ok := r.s.data.properties[p.ID]
	if !ok {
		return fmt.Errorf("failed to update property %d: not found", p.ID)
	}
	if err := r.checkRefs(p); err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = now()
	p.TagIDs = dedupe(p.TagIDs)
	r.s.data.properties[p.ID] = copyProperty(*p)
	return nil
}

func (r *memoryProperties) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.properties[id]; !ok {
		return false, nil
	}
	delete(d.properties, id)
	for oid, o := range d.offers {
		if o.PropertyID == id {
			delete(d.offers, oid)
		}
	}
	return true, nil
}

type memoryOffers struct{ s *MemoryStore }

func (r *memoryOffers) Create(ctx context.Context, o *models.Offer) error {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.properties[o.PropertyID]; !ok {
		return &models.ConstraintError{
			Field:   "propertyId",
			Message: "The offer references a record that does not exist.",
		}
	}
	if o.Price <= 0 {
		return &models.ConstraintError{Field: "price", Message: "The offer price must be strictly positive!"}
	}
	d.lastOffer++
	o.ID = d.lastOffer
	if o.CreateDate.IsZero() {
		o.CreateDate = now()
	}
	d.offers[o.ID] = copyOffer(*o)
	return nil
}

func (r *memoryOffers) Get(ctx context.Context, id int64) (*models.Offer, error) {
	defer r.s.lock()()

	o, ok := r.s.data.offers[id]
	if !ok {
		return nil, nil
	}
	cp := copyOffer(o)
	return &cp, nil
}

func (r *memoryOffers) ListByProperty(ctx context.Context, propertyID int64) ([]models.Offer, error) {
	defer r.s.lock()()

	results := []models.Offer{}
	for _, o := range r.s.data.offers {
		if o.PropertyID == propertyID {
			results = append(results, copyOffer(o))
		}
	}
	models.SortOffers(results)
	return results, nil
}

func (r *memoryOffers) Update(ctx context.Context, o *models.Offer) error {
	defer r.s.lock()()

	existing, ok := r.s.data.offers[o.ID]
	if !ok {
		return fmt.Errorf("failed to update offer %d: not found", o.ID)
	}
	if o.Price <= 0 {
		return &models.ConstraintError{Field: "price", Message: "The offer price must be strictly positive!"}
	}
	o.PropertyID = existing.PropertyID
	o.CreateDate = existing.CreateDate
	r.s.data.offers[o.ID] = copyOffer(*o)
	return nil
}

func (r *memoryOffers) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock()()

	if _, ok := r.s.data.offers[id]; !ok {
		return false, nil
	}
	delete(r.s.data.offers, id)
	return true, nil
}

func (r *memoryOffers) CountByType(ctx context.Context, typeID int64) (int, error) {
	defer r.s.lock()()

	count := 0
	for _, o := range r.s.data.offers {
		if o.PropertyTypeID != nil && *o.PropertyTypeID == typeID {
			count++
		}
	}
	return count, nil
}

func (r *memoryOffers) SetPropertyType(ctx context.Context, propertyID int64, typeID *int64) error {
	defer r.s.lock()()

	for id, o := range r.s.data.offers {
		if o.PropertyID == propertyID {
			o.PropertyTypeID = copyID(typeID)
			r.s.data.offers[id] = o
		}
	}
	return nil
}

type memoryTypes struct{ s *MemoryStore }

func (r *memoryTypes) nameTaken(name string, except int64) bool {
	for id, t := range r.s.data.types {
		if id != except && t.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryTypes) Create(ctx context.Context, t *models.PropertyType) error {
	defer r.s.lock()()

	if r.nameTaken(t.Name, 0) {
		return models.DuplicateNameError("property type")
	}
	d := r.s.data
	d.lastType++
	t.ID = d.lastType
	t.CreatedAt = now()
	t.OfferCount = 0
	d.types[t.ID] = *t
	return nil
}

func (r *memoryTypes) Get(ctx context.Context, id int64) (*models.PropertyType, error) {
	defer r.s.lock()()

	t, ok := r.s.data.types[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memoryTypes) GetByName(ctx context.Context, name string) (*models.PropertyType, error) {
	defer r.s.lock()()

	for _, t := range r.s.data.types {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *memoryTypes) List(ctx context.Context) ([]models.PropertyType, error) {
	defer r.s.lock()()

	results := make([]models.PropertyType, 0, len(r.s.data.types))
	for _, t := range r.s.data.types {
		results = append(results, t)
	}
	models.SortPropertyTypes(results)
	return results, nil
}

func (r *memoryTypes) Update(ctx context.Context, t *models.PropertyType) error {
	defer r.s.lock()()

	existing, ok := r.s.data.types[t.ID]
	if !ok {
		return fmt.Errorf("failed to update property type %d: not found", t.ID)
	}
	if r.nameTaken(t.Name, t.ID) {
		return models.DuplicateNameError("property type")
	}
	existing.Name = t.Name
	existing.Sequence = t.Sequence
	r.s.data.types[t.ID] = existing
	return nil
}

func (r *memoryTypes) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.types[id]; !ok {
		return false, nil
	}
	delete(d.types, id)
	for pid, p := range d.properties {
		if p.PropertyTypeID != nil && *p.PropertyTypeID == id {
			p.PropertyTypeID = nil
			d.properties[pid] = p
		}
	}
	for oid, o := range d.offers {
		if o.PropertyTypeID != nil && *o.PropertyTypeID == id {
			o.PropertyTypeID = nil
			d.offers[oid] = o
		}
	}
	return true, nil
}

type memoryTags struct{ s *MemoryStore }

func (r *memoryTags) nameTaken(name string, except int64) bool {
	for id, t := range r.s.data.tags {
		if id != except && t.Name == name {
			return true
		}
	}
	return false
}

func (r *memoryTags) Create(ctx context.Context, t *models.PropertyTag) error {
	defer r.s.lock()()

	if r.nameTaken(t.Name, 0) {
		return models.DuplicateNameError("tag")
	}
	d := r.s.data
	d.lastTag++
	t.ID = d.lastTag
	t.CreatedAt = now()
	d.tags[t.ID] = *t
	return nil
}

func (r *memoryTags) Get(ctx context.Context, id int64) (*models.PropertyTag, error) {
	defer r.s.lock()()

	t, ok := r.s.data.tags[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memoryTags) GetByName(ctx context.Context, name string) (*models.PropertyTag, error) {
	defer r.s.lock()()

	for _, t := range r.s.data.tags {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *memoryTags) List(ctx context.Context) ([]models.PropertyTag, error) {
	defer r.s.lock()()

	results := make([]models.PropertyTag, 0, len(r.s.data.tags))
	for _, t := range r.s.data.tags {
		results = append(results, t)
	}
	models.SortPropertyTags(results)
	return results, nil
}

func (r *memoryTags) Update(ctx context.Context, t *models.PropertyTag) error {
	defer r.s.lock()()

	existing, ok := r.s.data.tags[t.ID]
	if !ok {
		return fmt.Errorf("failed to update tag %d: not found", t.ID)
	}
	if r.nameTaken(t.Name, t.ID) {
		return models.DuplicateNameError("tag")
	}
	existing.Name = t.Name
	existing.Color = t.Color
	r.s.data.tags[t.ID] = existing
	return nil
}

func (r *memoryTags) Delete(ctx context.Context, id int64) (bool, error) {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.tags[id]; !ok {
		return false, nil
	}
	delete(d.tags, id)
	for pid, p := range d.properties {
		if i := slices.Index(p.TagIDs, id); i >= 0 {
			p.TagIDs = slices.Delete(slices.Clone(p.TagIDs), i, i+1)
			d.properties[pid] = p
		}
	}
	return true, nil
}
