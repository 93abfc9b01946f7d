package repository

import (
	"context"
	"errors"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// WorkFilter narrows work listings. Nil pointer fields are not applied.
type WorkFilter struct {
	Personal      *bool
	Category      *models.Category
	Status        *models.Status
	IncludeHidden bool
	// PinnedFirst orders pinned works ahead of the newest-first ordering.
	PinnedFirst bool
	Limit       int
	Offset      int
}

// WorkRepository defines persistence operations for works and their comments'
// lifecycle as a unit (a work removal always takes its comments with it).
type WorkRepository interface {
	Create(ctx context.Context, work *models.Work) error
	GetByID(ctx context.Context, id uint) (*models.Work, error)
	List(ctx context.Context, f WorkFilter) ([]models.Work, error)
	SearchPersonalByTitle(ctx context.Context, query string, includeHidden bool) ([]models.Work, error)
	ListByCollection(ctx context.Context, collectionID string, includeHidden bool) ([]models.Work, error)
	ListCollectionMembers(ctx context.Context) ([]models.Work, error)
	Update(ctx context.Context, work *models.Work) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	DeleteWithComments(ctx context.Context, id uint) error
}

type workRepository struct {
	db *gorm.DB
}

// NewWorkRepository returns a new WorkRepository implementation.
func NewWorkRepository(db *gorm.DB) WorkRepository {
	return &workRepository{db: db}
}

func (r *workRepository) Create(ctx context.Context, work *models.Work) error {
	if err := r.db.WithContext(ctx).Create(work).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWork(ctx, work.ID, work.CollectionID)
	return nil
}

func (r *workRepository) GetByID(ctx context.Context, id uint) (*models.Work, error) {
	var work models.Work
	key := cache.WorkKey(id)

	err := cache.Aside(ctx, key, &work, cache.WorkTTL, func() error {
		if err := r.db.WithContext(ctx).First(&work, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Work", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &work, nil
}

func (r *workRepository) List(ctx context.Context, f WorkFilter) ([]models.Work, error) {
	q := r.db.WithContext(ctx).Model(&models.Work{})

	if f.Personal != nil {
		q = q.Where("is_personal = ?", *f.Personal)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if !f.IncludeHidden {
		q = q.Where("is_hidden = ?", false)
	}

	if f.PinnedFirst {
		q = q.Order("is_pinned DESC, created_at DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var works []models.Work
	if err := q.Find(&works).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return works, nil
}

// SearchPersonalByTitle matches published personal works whose title contains
// the query, case-insensitively.
func (r *workRepository) SearchPersonalByTitle(ctx context.Context, query string, includeHidden bool) ([]models.Work, error) {
	like := "%" + query + "%"
	q := r.db.WithContext(ctx).
		Where("is_personal = ?", true).
		Where("status = ?", models.StatusPublished).
		Where("LOWER(title) LIKE LOWER(?)", like)
	if !includeHidden {
		q = q.Where("is_hidden = ?", false)
	}

	var works []models.Work
	if err := q.Order("is_pinned DESC, created_at DESC").Find(&works).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return works, nil
}

// ListByCollection returns a collection's published members oldest-first, the
// reading order for serialized installments.
func (r *workRepository) ListByCollection(ctx context.Context, collectionID string, includeHidden bool) ([]models.Work, error) {
	q := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Where("status = ?", models.StatusPublished)
	if !includeHidden {
		q = q.Where("is_hidden = ?", false)
	}

	var works []models.Work
	if err := q.Order("created_at ASC").Find(&works).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return works, nil
}

// ListCollectionMembers returns every published work that belongs to some
// collection. Grouping happens in the service layer.
func (r *workRepository) ListCollectionMembers(ctx context.Context) ([]models.Work, error) {
	var works []models.Work
	if err := r.db.WithContext(ctx).
		Where("collection_id IS NOT NULL AND collection_id <> ''").
		Where("status = ?", models.StatusPublished).
		Order("created_at ASC").
		Find(&works).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return works, nil
}

func (r *workRepository) Update(ctx context.Context, work *models.Work) error {
	if err := r.db.WithContext(ctx).Save(work).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateWork(ctx, work.ID, work.CollectionID)
	return nil
}

// UpdateFields applies a partial update. A map is used so draft columns can
// be set back to NULL, which a struct update would skip as a zero value.
func (r *workRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Work{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Work", id)
	}

	var work models.Work
	var collectionID *string
	if err := r.db.WithContext(ctx).Select("collection_id").First(&work, id).Error; err == nil {
		collectionID = work.CollectionID
	}
	cache.InvalidateWork(ctx, id, collectionID)
	return nil
}

// DeleteWithComments removes the work and every comment attached to it in a
// single transaction, so a failure partway leaves both intact.
func (r *workRepository) DeleteWithComments(ctx context.Context, id uint) error {
	var collectionID *string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var work models.Work
		if err := tx.First(&work, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Work", id)
			}
			return models.NewInternalError(err)
		}
		collectionID = work.CollectionID

		if err := tx.Where("work_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.Work{}, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateWork(ctx, id, collectionID)
	return nil
}
