package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/testhelpers"
)

var errRollback = errors.New("rollback")

// storeFactory returns an empty Store.
type storeFactory func(t *testing.T) Store

func storeImplementations() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"postgres": func(t *testing.T) Store {
			return NewPostgresStore(testhelpers.NewTestDatabase(t))
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, factory := range storeImplementations() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func newTestProperty(name string, price float64) *models.Property {
	user := int64(1)
	return models.NewProperty(name, price, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), &user)
}

func mustCreateProperty(t *testing.T, s Store, name string, price float64) *models.Property {
	t.Helper()
	p := newTestProperty(name, price)
	require.NoError(t, s.Properties().Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func mustCreateOffer(t *testing.T, s Store, propertyID int64, price float64) *models.Offer {
	t.Helper()
	o := &models.Offer{
		Price:      price,
		PartnerID:  42,
		PropertyID: propertyID,
		Validity:   models.DefaultValidityDays,
		CreateDate: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	o.RecomputeDeadline(o.CreateDate)
	require.NoError(t, s.Offers().Create(context.Background(), o))
	require.NotZero(t, o.ID)
	return o
}

func TestStore_PropertyCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tag := &models.PropertyTag{Name: "cozy"}
		require.NoError(t, s.Tags().Create(ctx, tag))

		p := newTestProperty("Villa", 100000)
		p.LivingArea = 120
		p.TagIDs = []int64{tag.ID}
		p.RecomputeTotalArea()
		require.NoError(t, s.Properties().Create(ctx, p))

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Villa", got.Name)
		assert.Equal(t, models.StateNew, got.State)
		assert.Equal(t, 120.0, got.TotalArea)
		assert.Equal(t, []int64{tag.ID}, got.TagIDs)
		require.NotNil(t, got.SalespersonID)
		assert.Equal(t, int64(1), *got.SalespersonID)
		assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), got.DateAvailability.UTC())

		got.Name = "Villa Rosa"
		got.TagIDs = []int64{}
		require.NoError(t, s.Properties().Update(ctx, got))

		again, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Villa Rosa", again.Name)
		assert.Empty(t, again.TagIDs)

		deleted, err := s.Properties().Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		missing, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		deleted, err = s.Properties().Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestStore_PropertyList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		a := mustCreateProperty(t, s, "A", 1000)
		b := mustCreateProperty(t, s, "B", 1000)
		c := mustCreateProperty(t, s, "C", 1000)

		b.State = models.StateSold
		require.NoError(t, s.Properties().Update(ctx, b))

		other := int64(99)
		c.SalespersonID = &other
		require.NoError(t, s.Properties().Update(ctx, c))

		all, err := s.Properties().List(ctx, PropertyFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

		open, err := s.Properties().List(ctx, PropertyFilter{
			States: []models.PropertyState{models.StateNew, models.StateOfferReceived},
		})
		require.NoError(t, err)
		assert.Len(t, open, 2)

		salesperson := int64(1)
		mine, err := s.Properties().List(ctx, PropertyFilter{SalespersonID: &salesperson})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		page, err := s.Properties().List(ctx, PropertyFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, b.ID, page[0].ID)
	})
}

func TestStore_OfferLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := mustCreateProperty(t, s, "Villa", 100000)

		low := mustCreateOffer(t, s, p.ID, 50000)
		high := mustCreateOffer(t, s, p.ID, 60000)

		offers, err := s.Offers().ListByProperty(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, offers, 2)
		assert.Equal(t, high.ID, offers[0].ID)
		assert.Equal(t, low.ID, offers[1].ID)
		assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), offers[0].DateDeadline.UTC())

		low.Status = models.OfferRefused
		require.NoError(t, s.Offers().Update(ctx, low))
		got, err := s.Offers().Get(ctx, low.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OfferRefused, got.Status)

		deleted, err := s.Offers().Delete(ctx, low.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		// Offers are removed with their property
		_, err = s.Properties().Delete(ctx, p.ID)
		require.NoError(t, err)
		gone, err := s.Offers().Get(ctx, high.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestStore_OfferRequiresProperty(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		o := &models.Offer{Price: 100, PartnerID: 1, PropertyID: 12345, DateDeadline: time.Now()}

		err := s.Offers().Create(context.Background(), o)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConstraint))
	})
}

func TestStore_PropertyTypePropagation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		house := &models.PropertyType{Name: "House", Sequence: 1}
		require.NoError(t, s.Types().Create(ctx, house))

		p := mustCreateProperty(t, s, "Villa", 100000)
		mustCreateOffer(t, s, p.ID, 1000)
		mustCreateOffer(t, s, p.ID, 2000)

		require.NoError(t, s.Offers().SetPropertyType(ctx, p.ID, &house.ID))
		count, err := s.Offers().CountByType(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		p.PropertyTypeID = &house.ID
		require.NoError(t, s.Properties().Update(ctx, p))

		// Deleting the type unsets it everywhere
		deleted, err := s.Types().Delete(ctx, house.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PropertyTypeID)

		offers, err := s.Offers().ListByProperty(ctx, p.ID)
		require.NoError(t, err)
		for _, o := range offers {
			assert.Nil(t, o.PropertyTypeID)
		}
	})
}

func TestStore_CatalogUniqueNames(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.Types().Create(ctx, &models.PropertyType{Name: "House"}))
		err := s.Types().Create(ctx, &models.PropertyType{Name: "House"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConstraint))

		require.NoError(t, s.Tags().Create(ctx, &models.PropertyTag{Name: "cozy"}))
		renovated := &models.PropertyTag{Name: "renovated"}
		require.NoError(t, s.Tags().Create(ctx, renovated))

		renovated.Name = "cozy"
		err = s.Tags().Update(ctx, renovated)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConstraint))

		byName, err := s.Tags().GetByName(ctx, "renovated")
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, renovated.ID, byName.ID)

		none, err := s.Types().GetByName(ctx, "Castle")
		require.NoError(t, err)
		assert.Nil(t, none)
	})
}

func TestStore_CatalogOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		for _, pt := range []models.PropertyType{{Name: "b", Sequence: 2}, {Name: "z", Sequence: 1}, {Name: "a", Sequence: 2}} {
			require.NoError(t, s.Types().Create(ctx, &pt))
		}
		types, err := s.Types().List(ctx)
		require.NoError(t, err)
		require.Len(t, types, 3)
		assert.Equal(t, []string{"z", "a", "b"}, []string{types[0].Name, types[1].Name, types[2].Name})

		for _, name := range []string{"renovated", "cozy"} {
			require.NoError(t, s.Tags().Create(ctx, &models.PropertyTag{Name: name}))
		}
		tags, err := s.Tags().List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "cozy", tags[0].Name)
	})
}

func TestStore_DeleteTagDetaches(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tag := &models.PropertyTag{Name: "cozy"}
		require.NoError(t, s.Tags().Create(ctx, tag))

		p := newTestProperty("Villa", 100000)
		p.TagIDs = []int64{tag.ID}
		require.NoError(t, s.Properties().Create(ctx, p))

		_, err := s.Tags().Delete(ctx, tag.ID)
		require.NoError(t, err)

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, got.TagIDs)
	})
}

func TestStore_InTxRollback(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := mustCreateProperty(t, s, "Villa", 100000)

		err := s.InTx(ctx, func(tx Store) error {
			locked, err := tx.Properties().GetForUpdate(ctx, p.ID)
			require.NoError(t, err)
			locked.State = models.StateCancelled
			require.NoError(t, tx.Properties().Update(ctx, locked))
			require.NoError(t, tx.Types().Create(ctx, &models.PropertyType{Name: "Ghost"}))
			return errRollback
		})
		require.ErrorIs(t, err, errRollback)

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateNew, got.State)

		ghost, err := s.Types().GetByName(ctx, "Ghost")
		require.NoError(t, err)
		assert.Nil(t, ghost)
	})
}

func TestStore_InTxCommit(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := mustCreateProperty(t, s, "Villa", 100000)

		err := s.InTx(ctx, func(tx Store) error {
			locked, err := tx.Properties().GetForUpdate(ctx, p.ID)
			if err != nil {
				return err
			}
			locked.State = models.StateOfferReceived
			if err := tx.Properties().Update(ctx, locked); err != nil {
				return err
			}
			// Nested InTx joins the outer transaction
			return tx.InTx(ctx, func(inner Store) error {
				return inner.Types().Create(ctx, &models.PropertyType{Name: "House"})
			})
		})
		require.NoError(t, err)

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateOfferReceived, got.State)

		house, err := s.Types().GetByName(ctx, "House")
		require.NoError(t, err)
		assert.NotNil(t, house)
	})
}

// Concurrent read-modify-write cycles on one property under GetForUpdate
// must not lose updates.
func TestStore_GetForUpdateSerializes(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := mustCreateProperty(t, s, "Villa", 100000)

		const workers = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.InTx(ctx, func(tx Store) error {
					locked, err := tx.Properties().GetForUpdate(ctx, p.ID)
					if err != nil {
						return err
					}
					locked.Facades++
					return tx.Properties().Update(ctx, locked)
				})
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Properties().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, workers, got.Facades)
	})
}
