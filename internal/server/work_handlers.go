package server

import (
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitWork handles POST /api/works
func (s *Server) SubmitWork(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Title          string  `json:"title"`
		Content        string  `json:"content"`
		Excerpt        string  `json:"excerpt,omitempty"`
		Author         string  `json:"author,omitempty"`
		Category       string  `json:"category"`
		IsPersonal     bool    `json:"is_personal"`
		CollectionID   *string `json:"collection_id,omitempty"`
		CollectionName string  `json:"collection_name,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	work, err := s.moderationService.SubmitWork(ctx, service.SubmitWorkInput{
		UserID:         userID,
		Title:          req.Title,
		Content:        req.Content,
		Excerpt:        req.Excerpt,
		Author:         req.Author,
		Category:       models.Category(req.Category),
		IsPersonal:     req.IsPersonal,
		CollectionID:   req.CollectionID,
		CollectionName: req.CollectionName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventWorkSubmitted, map[string]any{
		"work_id":      work.ID,
		"submitted_by": work.SubmittedBy,
		"status":       work.Status,
		"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.Status(fiber.StatusCreated).JSON(work)
}

// SubmitEdit handles PUT /api/works/:id
func (s *Server) SubmitEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Excerpt string `json:"excerpt,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	work, err := s.moderationService.SubmitEdit(ctx, service.SubmitEditInput{
		UserID:  userID,
		WorkID:  workID,
		Title:   req.Title,
		Content: req.Content,
		Excerpt: req.Excerpt,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventEditSubmitted, map[string]any{
		"work_id":      work.ID,
		"submitted_by": userID,
	})

	return c.JSON(work)
}

// GetWork handles GET /api/works/:id
func (s *Server) GetWork(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	work, err := s.visibilityService.GetWork(c.UserContext(), workID, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(work)
}

// GetPersonalWorks handles GET /api/works/personal/:category
func (s *Server) GetPersonalWorks(c *fiber.Ctx) error {
	category := models.Category(c.Params("category"))
	works, err := s.visibilityService.ListPersonal(c.UserContext(), category, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(works)
}

// GetCommunityWorks handles GET /api/works/community/:category
func (s *Server) GetCommunityWorks(c *fiber.Ctx) error {
	category := models.Category(c.Params("category"))
	works, err := s.visibilityService.ListCommunity(c.UserContext(), category, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	p := parsePagination(c, 20)
	if p.Offset >= len(works) {
		return c.JSON([]models.Work{})
	}
	end := p.Offset + p.Limit
	if end > len(works) {
		end = len(works)
	}
	return c.JSON(works[p.Offset:end])
}

// SearchWorks handles GET /api/works/search?q=
func (s *Server) SearchWorks(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	works, err := s.visibilityService.Search(c.UserContext(), query, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(works)
}

// GetFeed handles GET /api/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	items, err := s.collectionService.Feed(c.UserContext(), s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if items == nil {
		items = []service.FeedItem{}
	}
	return c.JSON(items)
}

// GetCollection handles GET /api/collections/:id
func (s *Server) GetCollection(c *fiber.Ctx) error {
	id := c.Params("id")
	collection, err := s.collectionService.Get(c.UserContext(), id, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(collection)
}

// SubmitComment handles POST /api/works/:id/comments
func (s *Server) SubmitComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.moderationService.SubmitComment(ctx, userID, workID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventCommentSubmitted, map[string]any{
		"comment_id": comment.ID,
		"work_id":    comment.WorkID,
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/works/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.visibilityService.ListComments(c.UserContext(), workID, s.viewer(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(comments)
}

// GetSignature handles GET /api/site/signature
func (s *Server) GetSignature(c *fiber.Ctx) error {
	ctx := c.UserContext()
	value, err := s.moderationService.Signature(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}

	// The audit stamp is best-effort; a site that was never edited has none.
	lastEdited, err := s.settingRepo.Get(ctx, models.SettingLastEdited)
	if err != nil {
		lastEdited = ""
	}
	return c.JSON(fiber.Map{
		"signature":   value,
		"last_edited": lastEdited,
	})
}
