// Package service contains the application's domain logic.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// ModerationService owns the submission lifecycle: everything enters pending,
// the admin approves, rejects, or edits, and only approved content is public.
type ModerationService struct {
	workRepo       repository.WorkRepository
	commentRepo    repository.CommentRepository
	collectionRepo repository.CollectionRepository
	settingRepo    repository.SettingRepository
	userRepo       repository.UserRepository
}

// NewModerationService wires the moderation workflow over its repositories.
func NewModerationService(
	workRepo repository.WorkRepository,
	commentRepo repository.CommentRepository,
	collectionRepo repository.CollectionRepository,
	settingRepo repository.SettingRepository,
	userRepo repository.UserRepository,
) *ModerationService {
	return &ModerationService{
		workRepo:       workRepo,
		commentRepo:    commentRepo,
		collectionRepo: collectionRepo,
		settingRepo:    settingRepo,
		userRepo:       userRepo,
	}
}

// touchLastEdited refreshes the site-wide "last updated" stamp. It is a
// display value only, so a failed write is not allowed to fail the mutation
// that triggered it.
func (s *ModerationService) touchLastEdited(ctx context.Context) {
	_ = s.settingRepo.Set(ctx, models.SettingLastEdited, time.Now().UTC().Format(time.RFC3339))
}

// SubmitWorkInput carries a new submission. Author is an optional pen name;
// blank falls back to the submitting account's username.
type SubmitWorkInput struct {
	UserID         uint
	Title          string
	Content        string
	Excerpt        string
	Author         string
	Category       models.Category
	IsPersonal     bool
	CollectionID   *string
	CollectionName string
}

// SubmitEditInput carries a proposed revision to a published work.
type SubmitEditInput struct {
	UserID  uint
	WorkID  uint
	Title   string
	Content string
	Excerpt string
}

// PendingSet is everything awaiting a moderation decision.
type PendingSet struct {
	Works    []models.Work    `json:"works"`
	Edits    []models.Work    `json:"edits"`
	Comments []models.Comment `json:"comments"`
}

// SubmitWork records a new work. Submissions enter pending review, with one
// exception: the admin publishing to their personal showcase goes live
// immediately under the admin's own byline.
func (s *ModerationService) SubmitWork(ctx context.Context, in SubmitWorkInput) (*models.Work, error) {
	if err := validation.ValidateWorkFields(in.Title, in.Content, in.Excerpt); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !models.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Invalid category")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	// Only the admin can place a work on the personal shelves, and those
	// always carry the site owner's byline. Everything else keeps the pen
	// name when one was given.
	isPersonal := user.IsAdmin && in.IsPersonal
	author := strings.TrimSpace(in.Author)
	if isPersonal || author == "" {
		author = user.Username
	}

	work := &models.Work{
		Title:          strings.TrimSpace(in.Title),
		Content:        in.Content,
		Excerpt:        strings.TrimSpace(in.Excerpt),
		Author:         author,
		SubmittedBy:    user.ID,
		Category:       in.Category,
		IsPersonal:     isPersonal,
		Status:         models.StatusPending,
		CollectionID:   in.CollectionID,
		CollectionName: strings.TrimSpace(in.CollectionName),
	}
	if isPersonal {
		work.Status = models.StatusPublished
	}

	if work.CollectionID != nil && *work.CollectionID != "" {
		if err := s.collectionRepo.EnsureExists(ctx, &models.Collection{
			ID:     *work.CollectionID,
			Name:   work.CollectionName,
			Author: author,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.workRepo.Create(ctx, work); err != nil {
		return nil, err
	}
	middleware.SubmissionsTotal.WithLabelValues("work").Inc()
	s.touchLastEdited(ctx)
	return work, nil
}

// ApproveWork publishes a pending work.
func (s *ModerationService) ApproveWork(ctx context.Context, workID uint) (*models.Work, error) {
	work, err := s.workRepo.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if work.Status != models.StatusPending {
		return nil, models.NewInvalidTransitionError("Only pending works can be approved")
	}

	work.Status = models.StatusPublished
	if err := s.workRepo.Update(ctx, work); err != nil {
		return nil, err
	}
	middleware.ModerationActions.WithLabelValues("approve", "work").Inc()
	s.touchLastEdited(ctx)
	return work, nil
}

// RejectWork removes a pending work outright, comments included.
func (s *ModerationService) RejectWork(ctx context.Context, workID uint) error {
	work, err := s.workRepo.GetByID(ctx, workID)
	if err != nil {
		return err
	}
	if work.Status != models.StatusPending {
		return models.NewInvalidTransitionError("Only pending works can be rejected")
	}

	if err := s.workRepo.DeleteWithComments(ctx, workID); err != nil {
		return err
	}
	middleware.ModerationActions.WithLabelValues("reject", "work").Inc()
	s.touchLastEdited(ctx)
	return nil
}

// DeleteWork removes a work regardless of status, comments included.
func (s *ModerationService) DeleteWork(ctx context.Context, workID uint) error {
	if err := s.workRepo.DeleteWithComments(ctx, workID); err != nil {
		return err
	}
	middleware.ModerationActions.WithLabelValues("delete", "work").Inc()
	s.touchLastEdited(ctx)
	return nil
}

// SubmitEdit stores a proposed revision alongside the live fields. The
// published version stays up while the draft waits for review. Re-submitting
// while a draft is pending overwrites the draft (last write wins).
func (s *ModerationService) SubmitEdit(ctx context.Context, in SubmitEditInput) (*models.Work, error) {
	if err := validation.ValidateWorkFields(in.Title, in.Content, in.Excerpt); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	work, err := s.workRepo.GetByID(ctx, in.WorkID)
	if err != nil {
		return nil, err
	}
	if work.Status != models.StatusPublished {
		return nil, models.NewInvalidTransitionError("Only published works can be edited")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	// The submitting account and the credited author can both revise; the
	// two differ when a work was submitted on someone's behalf.
	if work.SubmittedBy != in.UserID && work.Author != user.Username && !user.IsAdmin {
		return nil, models.NewForbiddenError("You can only edit your own works")
	}

	title := strings.TrimSpace(in.Title)
	excerpt := strings.TrimSpace(in.Excerpt)
	if err := s.workRepo.UpdateFields(ctx, work.ID, map[string]any{
		"draft_title":      title,
		"draft_content":    in.Content,
		"draft_excerpt":    excerpt,
		"has_pending_edit": true,
	}); err != nil {
		return nil, err
	}
	middleware.SubmissionsTotal.WithLabelValues("edit").Inc()
	s.touchLastEdited(ctx)
	return s.workRepo.GetByID(ctx, work.ID)
}

// ApproveEdit replaces the live fields with the draft and clears it.
func (s *ModerationService) ApproveEdit(ctx context.Context, workID uint) (*models.Work, error) {
	work, err := s.workRepo.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if !work.HasPendingEdit || work.DraftTitle == nil || work.DraftContent == nil {
		return nil, models.NewInvalidTransitionError("Work has no pending edit")
	}

	fields := map[string]any{
		"title":            *work.DraftTitle,
		"content":          *work.DraftContent,
		"draft_title":      nil,
		"draft_content":    nil,
		"draft_excerpt":    nil,
		"has_pending_edit": false,
	}
	if work.DraftExcerpt != nil {
		fields["excerpt"] = *work.DraftExcerpt
	}
	if err := s.workRepo.UpdateFields(ctx, workID, fields); err != nil {
		return nil, err
	}
	middleware.ModerationActions.WithLabelValues("approve", "edit").Inc()
	s.touchLastEdited(ctx)
	return s.workRepo.GetByID(ctx, workID)
}

// RejectEdit discards the draft and keeps the live fields untouched.
func (s *ModerationService) RejectEdit(ctx context.Context, workID uint) (*models.Work, error) {
	work, err := s.workRepo.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	if !work.HasPendingEdit {
		return nil, models.NewInvalidTransitionError("Work has no pending edit")
	}

	if err := s.workRepo.UpdateFields(ctx, workID, map[string]any{
		"draft_title":      nil,
		"draft_content":    nil,
		"draft_excerpt":    nil,
		"has_pending_edit": false,
	}); err != nil {
		return nil, err
	}
	middleware.ModerationActions.WithLabelValues("reject", "edit").Inc()
	s.touchLastEdited(ctx)
	return s.workRepo.GetByID(ctx, workID)
}

// Work flags the admin can toggle.
const (
	FlagPin     = "pin"
	FlagFeature = "feature"
	FlagHide    = "hide"
)

// ToggleFlag flips one of the admin display flags on a work.
func (s *ModerationService) ToggleFlag(ctx context.Context, workID uint, flag string) (*models.Work, error) {
	work, err := s.workRepo.GetByID(ctx, workID)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	switch flag {
	case FlagPin:
		fields = map[string]any{"is_pinned": !work.IsPinned}
	case FlagFeature:
		fields = map[string]any{"is_featured": !work.IsFeatured}
	case FlagHide:
		fields = map[string]any{"is_hidden": !work.IsHidden}
	default:
		return nil, models.NewValidationError("Unknown flag: " + flag)
	}

	if err := s.workRepo.UpdateFields(ctx, workID, fields); err != nil {
		return nil, err
	}
	middleware.ModerationActions.WithLabelValues(flag, "work").Inc()
	s.touchLastEdited(ctx)
	return s.workRepo.GetByID(ctx, workID)
}

// SubmitComment records a reader comment. Comments always enter pending, even
// the admin's own.
func (s *ModerationService) SubmitComment(ctx context.Context, userID, workID uint, content string) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.workRepo.GetByID(ctx, workID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: strings.TrimSpace(content),
		Author:  user.Username,
		UserID:  user.ID,
		WorkID:  workID,
		Status:  models.StatusPending,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	middleware.SubmissionsTotal.WithLabelValues("comment").Inc()
	s.touchLastEdited(ctx)
	return comment, nil
}

// ApproveComment publishes a pending comment.
func (s *ModerationService) ApproveComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Status != models.StatusPending {
		return nil, models.NewInvalidTransitionError("Only pending comments can be approved")
	}

	comment.Status = models.StatusPublished
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	middleware.ModerationActions.WithLabelValues("approve", "comment").Inc()
	s.touchLastEdited(ctx)
	return comment, nil
}

// RejectComment removes a pending comment.
func (s *ModerationService) RejectComment(ctx context.Context, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Status != models.StatusPending {
		return models.NewInvalidTransitionError("Only pending comments can be rejected")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}
	middleware.ModerationActions.WithLabelValues("reject", "comment").Inc()
	s.touchLastEdited(ctx)
	return nil
}

// Pending gathers the full review queue: new works, pending edits on
// published works, and comments.
func (s *ModerationService) Pending(ctx context.Context) (*PendingSet, error) {
	pending := models.StatusPending
	works, err := s.workRepo.List(ctx, repository.WorkFilter{Status: &pending, IncludeHidden: true})
	if err != nil {
		return nil, err
	}

	published := models.StatusPublished
	publishedWorks, err := s.workRepo.List(ctx, repository.WorkFilter{Status: &published, IncludeHidden: true})
	if err != nil {
		return nil, err
	}
	var edits []models.Work
	for _, w := range publishedWorks {
		if w.HasPendingEdit {
			edits = append(edits, w)
		}
	}

	comments, err := s.commentRepo.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}

	return &PendingSet{Works: works, Edits: edits, Comments: comments}, nil
}

// UpdateSignature replaces the site-wide signature line.
func (s *ModerationService) UpdateSignature(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.NewValidationError("Signature must not be empty")
	}
	if err := s.settingRepo.Set(ctx, models.SettingSiteSignature, value); err != nil {
		return err
	}
	cache.InvalidateSignature(ctx)
	middleware.ModerationActions.WithLabelValues("signature", "site").Inc()
	return nil
}

// Signature returns the current site signature, empty if never set.
func (s *ModerationService) Signature(ctx context.Context) (string, error) {
	var value string
	err := cache.Aside(ctx, cache.SignatureKey, &value, cache.SignatureTTL, func() error {
		v, err := s.settingRepo.Get(ctx, models.SettingSiteSignature)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
				value = ""
				return nil
			}
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}
