package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Viewer describes who is reading, which decides how much they see.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// Anonymous is the zero viewer: no account, sees only public content.
var Anonymous = Viewer{}

// sanitizeWork removes an unapproved draft from a work unless the viewer is
// entitled to it. The published fields stay live while an edit waits for
// review; the proposed replacement is visible only to the admin and the
// work's submitter.
func sanitizeWork(w *models.Work, viewer Viewer) {
	if viewer.IsAdmin {
		return
	}
	if viewer.UserID != 0 && w.SubmittedBy == viewer.UserID {
		return
	}
	w.DraftTitle = nil
	w.DraftContent = nil
	w.DraftExcerpt = nil
	w.HasPendingEdit = false
}

func sanitizeWorks(works []models.Work, viewer Viewer) {
	for i := range works {
		sanitizeWork(&works[i], viewer)
	}
}

// VisibilityService applies the read-side policy: pending content and hidden
// works exist for the admin (and, for pending works, their submitter) but are
// absent for everyone else.
type VisibilityService struct {
	workRepo    repository.WorkRepository
	commentRepo repository.CommentRepository
}

// NewVisibilityService wires the read-side policy over its repositories.
func NewVisibilityService(workRepo repository.WorkRepository, commentRepo repository.CommentRepository) *VisibilityService {
	return &VisibilityService{workRepo: workRepo, commentRepo: commentRepo}
}

// ListPersonal returns the owner's published showcase for one category,
// pinned works first. Hidden works stay in the personal shelves; the hide
// flag only pulls a work out of search, community and collection surfaces.
func (s *VisibilityService) ListPersonal(ctx context.Context, category models.Category, viewer Viewer) ([]models.Work, error) {
	if !models.ValidCategory(category) {
		return nil, models.NewValidationError("Invalid category")
	}
	personal := true
	published := models.StatusPublished
	works, err := s.workRepo.List(ctx, repository.WorkFilter{
		Personal:      &personal,
		Category:      &category,
		Status:        &published,
		IncludeHidden: true,
		PinnedFirst:   true,
	})
	if err != nil {
		return nil, err
	}
	sanitizeWorks(works, viewer)
	return works, nil
}

// ListCommunity returns published community submissions for one category.
func (s *VisibilityService) ListCommunity(ctx context.Context, category models.Category, viewer Viewer) ([]models.Work, error) {
	if !models.ValidCategory(category) {
		return nil, models.NewValidationError("Invalid category")
	}
	personal := false
	published := models.StatusPublished
	works, err := s.workRepo.List(ctx, repository.WorkFilter{
		Personal:      &personal,
		Category:      &category,
		Status:        &published,
		IncludeHidden: viewer.IsAdmin,
		PinnedFirst:   true,
	})
	if err != nil {
		return nil, err
	}
	sanitizeWorks(works, viewer)
	return works, nil
}

// Search matches published personal works by title substring.
func (s *VisibilityService) Search(ctx context.Context, query string, viewer Viewer) ([]models.Work, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	works, err := s.workRepo.SearchPersonalByTitle(ctx, query, viewer.IsAdmin)
	if err != nil {
		return nil, err
	}
	sanitizeWorks(works, viewer)
	return works, nil
}

// GetWork returns one work if the viewer may see it. Pending works exist only
// for the admin and their submitter; hidden works only for the admin.
func (s *VisibilityService) GetWork(ctx context.Context, id uint, viewer Viewer) (*models.Work, error) {
	work, err := s.workRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin {
		return work, nil
	}
	if work.IsHidden {
		return nil, models.NewNotFoundError("Work", id)
	}
	if work.Status == models.StatusPending && work.SubmittedBy != viewer.UserID {
		return nil, models.NewNotFoundError("Work", id)
	}
	sanitizeWork(work, viewer)
	return work, nil
}

// ListComments returns a work's comments. Non-admin viewers get only the
// approved ones.
func (s *VisibilityService) ListComments(ctx context.Context, workID uint, viewer Viewer) ([]models.Comment, error) {
	if _, err := s.GetWork(ctx, workID, viewer); err != nil {
		return nil, err
	}

	var status *models.Status
	if !viewer.IsAdmin {
		published := models.StatusPublished
		status = &published
	}
	return s.commentRepo.ListByWork(ctx, workID, status)
}
