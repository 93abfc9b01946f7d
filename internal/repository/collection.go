package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionRepository defines persistence operations for collection metadata.
// Membership is not stored here; works carry the collection ID themselves.
type CollectionRepository interface {
	// EnsureExists creates the collection row if it is missing. An existing
	// row keeps its name and byline; the first submitter names the serial.
	EnsureExists(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	List(ctx context.Context) ([]models.Collection, error)
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) EnsureExists(ctx context.Context, collection *models.Collection) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(collection).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Collection", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &collection, nil
}

func (r *collectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	var collections []models.Collection
	if err := r.db.WithContext(ctx).Find(&collections).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return collections, nil
}
