package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stwalsh4118/estate/internal/models"
)

// TypePatch is a partial property type update.
type TypePatch struct {
	Name     *string
	Sequence *int
}

// TagPatch is a partial tag update.
type TagPatch struct {
	Name  *string
	Color *int
}

// CatalogService manages the property type and tag registries.
// Names are unique per registry; duplicates fail with a models.ErrConstraint error.
type CatalogService interface {
	CreateType(ctx context.Context, name string, sequence int) (*models.PropertyType, error)
	// GetType returns a type with its offer count.
	GetType(ctx context.Context, id int64) (*models.PropertyType, error)
	// ListTypes returns types ordered by sequence, name, with offer counts.
	// The listing is served from the cache when possible.
	ListTypes(ctx context.Context) ([]models.PropertyType, error)
	UpdateType(ctx context.Context, id int64, patch TypePatch) (*models.PropertyType, error)
	DeleteType(ctx context.Context, id int64) error
	// EnsureType returns the type named name, creating it when missing.
	EnsureType(ctx context.Context, name string, sequence int) (*models.PropertyType, bool, error)

	CreateTag(ctx context.Context, name string, color int) (*models.PropertyTag, error)
	GetTag(ctx context.Context, id int64) (*models.PropertyTag, error)
	// ListTags returns tags ordered by name.
	ListTags(ctx context.Context) ([]models.PropertyTag, error)
	UpdateTag(ctx context.Context, id int64, patch TagPatch) (*models.PropertyTag, error)
	DeleteTag(ctx context.Context, id int64) error
	// EnsureTag returns the tag named name, creating it when missing.
	EnsureTag(ctx context.Context, name string, color int) (*models.PropertyTag, bool, error)
}

// catalogService is the concrete implementation of CatalogService.
type catalogService struct {
	Deps
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(deps Deps) CatalogService {
	return &catalogService{Deps: deps.withDefaults()}
}

func (s *catalogService) CreateType(ctx context.Context, name string, sequence int) (*models.PropertyType, error) {
	t := &models.PropertyType{Name: strings.TrimSpace(name), Sequence: sequence}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.Types().Create(ctx, t); err != nil {
		return nil, s.fail("create type", err)
	}
	invalidateTypes(ctx, s.Cache, s.Log)

	s.Log.Info("Property type created", map[string]interface{}{"type_id": t.ID, "name": t.Name})
	return t, nil
}

func (s *catalogService) GetType(ctx context.Context, id int64) (*models.PropertyType, error) {
	t, err := s.Store.Types().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query property type: %w", err)
	}
	if t == nil {
		return nil, ErrTypeNotFound
	}

	t.OfferCount, err = s.Store.Offers().CountByType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}
	return t, nil
}

func (s *catalogService) ListTypes(ctx context.Context) ([]models.PropertyType, error) {
	version, cacheable := typesVersion(ctx, s.Cache, s.Log)
	if cacheable {
		var cached cachedTypes
		found, err := s.Cache.Get(ctx, typeListKey, &cached)
		if err != nil {
			s.Log.Warn("Property type cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if found && cached.Version == version {
			return cached.Types, nil
		}
	}

	types, err := s.Store.Types().List(ctx)
	if err != nil {
		s.Log.Error("Failed to list property types", err, nil)
		return nil, fmt.Errorf("failed to list property types: %w", err)
	}
	for i := range types {
		types[i].OfferCount, err = s.Store.Offers().CountByType(ctx, types[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count offers: %w", err)
		}
	}

	if cacheable {
		entry := cachedTypes{Version: version, Types: types}
		if err := s.Cache.Set(ctx, typeListKey, entry, s.Settings.CacheTTL); err != nil {
			s.Log.Warn("Property type cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return types, nil
}

func (s *catalogService) UpdateType(ctx context.Context, id int64, patch TypePatch) (*models.PropertyType, error) {
	t, err := s.Store.Types().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query property type: %w", err)
	}
	if t == nil {
		return nil, ErrTypeNotFound
	}

	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Sequence != nil {
		t.Sequence = *patch.Sequence
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.Types().Update(ctx, t); err != nil {
		return nil, s.fail("update type", err)
	}
	invalidateTypes(ctx, s.Cache, s.Log)

	s.Log.Info("Property type updated", map[string]interface{}{"type_id": id})
	return s.GetType(ctx, id)
}

func (s *catalogService) DeleteType(ctx context.Context, id int64) error {
	deleted, err := s.Store.Types().Delete(ctx, id)
	if err != nil {
		return s.fail("delete type", err)
	}
	if !deleted {
		return ErrTypeNotFound
	}
	invalidateTypes(ctx, s.Cache, s.Log)

	s.Log.Info("Property type deleted", map[string]interface{}{"type_id": id})
	return nil
}

func (s *catalogService) EnsureType(ctx context.Context, name string, sequence int) (*models.PropertyType, bool, error) {
	existing, err := s.Store.Types().GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, false, fmt.Errorf("failed to query property type: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	t, err := s.CreateType(ctx, name, sequence)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *catalogService) CreateTag(ctx context.Context, name string, color int) (*models.PropertyTag, error) {
	t := &models.PropertyTag{Name: strings.TrimSpace(name), Color: color}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.Tags().Create(ctx, t); err != nil {
		return nil, s.fail("create tag", err)
	}

	s.Log.Info("Property tag created", map[string]interface{}{"tag_id": t.ID, "name": t.Name})
	return t, nil
}

func (s *catalogService) GetTag(ctx context.Context, id int64) (*models.PropertyTag, error) {
	t, err := s.Store.Tags().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	if t == nil {
		return nil, ErrTagNotFound
	}
	return t, nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]models.PropertyTag, error) {
	tags, err := s.Store.Tags().List(ctx)
	if err != nil {
		s.Log.Error("Failed to list tags", err, nil)
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *catalogService) UpdateTag(ctx context.Context, id int64, patch TagPatch) (*models.PropertyTag, error) {
	t, err := s.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.Tags().Update(ctx, t); err != nil {
		return nil, s.fail("update tag", err)
	}

	s.Log.Info("Property tag updated", map[string]interface{}{"tag_id": id})
	return t, nil
}

func (s *catalogService) DeleteTag(ctx context.Context, id int64) error {
	deleted, err := s.Store.Tags().Delete(ctx, id)
	if err != nil {
		return s.fail("delete tag", err)
	}
	if !deleted {
		return ErrTagNotFound
	}

	s.Log.Info("Property tag deleted", map[string]interface{}{"tag_id": id})
	return nil
}

func (s *catalogService) EnsureTag(ctx context.Context, name string, color int) (*models.PropertyTag, bool, error) {
	existing, err := s.Store.Tags().GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, false, fmt.Errorf("failed to query tag: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	t, err := s.CreateTag(ctx, name, color)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *catalogService) fail(action string, err error) error {
	if errors.Is(err, models.ErrConstraint) {
		s.Log.Warn("Catalog operation rejected", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		return err
	}
	s.Log.Error("Catalog operation failed", err, map[string]interface{}{"action": action})
	return fmt.Errorf("failed to %s: %w", action, err)
}
