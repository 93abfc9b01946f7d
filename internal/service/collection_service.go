package service

import (
	"context"
	"sort"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// FeedItem is one entry on the personal front page: either a standalone work
// or a whole collection folded into a single card.
type FeedItem struct {
	Type       string             `json:"type"` // "work" or "collection"
	Work       *models.Work       `json:"work,omitempty"`
	Collection *models.Collection `json:"collection,omitempty"`
	// Pinned and EffectiveDate are lifted onto the item so ordering does
	// not depend on the item's shape.
	Pinned        bool      `json:"pinned"`
	EffectiveDate time.Time `json:"effective_date"`
}

const (
	FeedItemWork       = "work"
	FeedItemCollection = "collection"
)

// CollectionService assembles collection views and the personal feed.
// Collection rows store name and byline; membership lives on the works and is
// derived on every read.
type CollectionService struct {
	workRepo       repository.WorkRepository
	collectionRepo repository.CollectionRepository
}

func NewCollectionService(workRepo repository.WorkRepository, collectionRepo repository.CollectionRepository) *CollectionService {
	return &CollectionService{workRepo: workRepo, collectionRepo: collectionRepo}
}

// BuildCollections groups works by collection ID. Member order inside each
// collection follows the input order, and collections come out sorted by
// effective date, newest first.
func BuildCollections(works []models.Work) []models.Collection {
	byID := make(map[string]*models.Collection)
	var order []string
	for i := range works {
		w := works[i]
		if w.CollectionID == nil || *w.CollectionID == "" {
			continue
		}
		id := *w.CollectionID
		col, ok := byID[id]
		if !ok {
			col = &models.Collection{ID: id, Name: w.CollectionName}
			byID[id] = col
			order = append(order, id)
		}
		if col.Name == "" {
			col.Name = w.CollectionName
		}
		col.Works = append(col.Works, w)
		if w.CreatedAt.After(col.EffectiveDate) {
			col.EffectiveDate = w.CreatedAt
		}
	}

	collections := make([]models.Collection, 0, len(order))
	for _, id := range order {
		collections = append(collections, *byID[id])
	}
	sort.SliceStable(collections, func(i, j int) bool {
		return collections[i].EffectiveDate.After(collections[j].EffectiveDate)
	})
	return collections
}

// attachMetadata copies the stored collection row's name, byline and creation
// time onto a derived view. Works predating the row keep their denormalized
// name as the fallback.
func (s *CollectionService) attachMetadata(ctx context.Context, col *models.Collection) {
	stored, err := s.collectionRepo.GetByID(ctx, col.ID)
	if err != nil {
		return
	}
	if stored.Name != "" {
		col.Name = stored.Name
	}
	col.Author = stored.Author
	col.CreatedAt = stored.CreatedAt
}

// Get returns one collection with its published members oldest-first.
func (s *CollectionService) Get(ctx context.Context, id string, viewer Viewer) (*models.Collection, error) {
	if id == "" {
		return nil, models.NewValidationError("Collection ID is required")
	}

	var col models.Collection
	build := func() error {
		works, err := s.workRepo.ListByCollection(ctx, id, viewer.IsAdmin)
		if err != nil {
			return err
		}
		// The shared cache entry must never carry draft content, so the
		// non-admin view is stripped for everyone regardless of submitter.
		if !viewer.IsAdmin {
			sanitizeWorks(works, Anonymous)
		}
		cols := BuildCollections(works)
		if len(cols) == 0 {
			return models.NewNotFoundError("Collection", id)
		}
		col = cols[0]
		s.attachMetadata(ctx, &col)
		return nil
	}

	// Only the public view is cached; the admin view includes hidden
	// members and must not leak into it.
	if viewer.IsAdmin {
		if err := build(); err != nil {
			return nil, err
		}
		return &col, nil
	}
	if err := cache.Aside(ctx, cache.CollectionKey(id), &col, cache.CollectionTTL, build); err != nil {
		return nil, err
	}
	return &col, nil
}

// Feed assembles the personal front page: standalone published works plus one
// item per collection, pinned items first, then newest effective date. A
// collection counts as pinned when any member is pinned.
func (s *CollectionService) Feed(ctx context.Context, viewer Viewer) ([]FeedItem, error) {
	build := func() ([]FeedItem, error) {
		personal := true
		published := models.StatusPublished
		works, err := s.workRepo.List(ctx, repository.WorkFilter{
			Personal:      &personal,
			Status:        &published,
			IncludeHidden: viewer.IsAdmin,
		})
		if err != nil {
			return nil, err
		}
		if !viewer.IsAdmin {
			sanitizeWorks(works, Anonymous)
		}

		var standalone []models.Work
		var members []models.Work
		for _, w := range works {
			if w.CollectionID != nil && *w.CollectionID != "" {
				members = append(members, w)
			} else {
				standalone = append(standalone, w)
			}
		}
		// BuildCollections wants members oldest-first so the reading
		// order inside each collection is chronological.
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		})

		items := make([]FeedItem, 0, len(standalone))
		for i := range standalone {
			w := standalone[i]
			items = append(items, FeedItem{
				Type:          FeedItemWork,
				Work:          &w,
				Pinned:        w.IsPinned,
				EffectiveDate: w.CreatedAt,
			})
		}
		for _, col := range BuildCollections(members) {
			col := col
			s.attachMetadata(ctx, &col)
			pinned := false
			for _, w := range col.Works {
				if w.IsPinned {
					pinned = true
					break
				}
			}
			items = append(items, FeedItem{
				Type:          FeedItemCollection,
				Collection:    &col,
				Pinned:        pinned,
				EffectiveDate: col.EffectiveDate,
			})
		}

		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Pinned != items[j].Pinned {
				return items[i].Pinned
			}
			return items[i].EffectiveDate.After(items[j].EffectiveDate)
		})
		return items, nil
	}

	if viewer.IsAdmin {
		return build()
	}
	var items []FeedItem
	err := cache.Aside(ctx, cache.FeedKey, &items, cache.FeedTTL, func() error {
		var err error
		items, err = build()
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
