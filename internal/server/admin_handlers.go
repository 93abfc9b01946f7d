package server

import (
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPendingQueue handles GET /api/admin/pending
func (s *Server) GetPendingQueue(c *fiber.Ctx) error {
	pending, err := s.moderationService.Pending(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(pending)
}

// ApproveWork handles POST /api/admin/works/:id/approve
func (s *Server) ApproveWork(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	work, err := s.moderationService.ApproveWork(c.UserContext(), workID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventWorkApproved, map[string]any{
		"work_id":      work.ID,
		"submitted_by": work.SubmittedBy,
	})
	return c.JSON(work)
}

// RejectWork handles POST /api/admin/works/:id/reject
func (s *Server) RejectWork(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.RejectWork(c.UserContext(), workID); err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventWorkRejected, map[string]any{
		"work_id": workID,
	})
	return c.JSON(fiber.Map{"message": "Work rejected"})
}

// DeleteWork handles DELETE /api/admin/works/:id
func (s *Server) DeleteWork(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.DeleteWork(c.UserContext(), workID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Work deleted"})
}

// ApproveEdit handles POST /api/admin/works/:id/edit/approve
func (s *Server) ApproveEdit(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	work, err := s.moderationService.ApproveEdit(c.UserContext(), workID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventEditApproved, map[string]any{
		"work_id": work.ID,
	})
	return c.JSON(work)
}

// RejectEdit handles POST /api/admin/works/:id/edit/reject
func (s *Server) RejectEdit(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	work, err := s.moderationService.RejectEdit(c.UserContext(), workID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventEditRejected, map[string]any{
		"work_id": work.ID,
	})
	return c.JSON(work)
}

// ToggleWorkFlag handles POST /api/admin/works/:id/flags/:flag
func (s *Server) ToggleWorkFlag(c *fiber.Ctx) error {
	workID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	flag := c.Params("flag")
	switch flag {
	case service.FlagPin, service.FlagFeature, service.FlagHide:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown flag: "+flag))
	}

	work, err := s.moderationService.ToggleFlag(c.UserContext(), workID, flag)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventFlagToggled, map[string]any{
		"work_id": work.ID,
		"flag":    flag,
	})
	return c.JSON(work)
}

// ApproveComment handles POST /api/admin/comments/:id/approve
func (s *Server) ApproveComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.moderationService.ApproveComment(c.UserContext(), commentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventCommentApproved, map[string]any{
		"comment_id": comment.ID,
		"work_id":    comment.WorkID,
	})
	return c.JSON(comment)
}

// RejectComment handles POST /api/admin/comments/:id/reject
func (s *Server) RejectComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.RejectComment(c.UserContext(), commentID); err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventCommentRejected, map[string]any{
		"comment_id": commentID,
	})
	return c.JSON(fiber.Map{"message": "Comment rejected"})
}

// UpdateSignature handles PUT /api/admin/site/signature
func (s *Server) UpdateSignature(c *fiber.Ctx) error {
	var req struct {
		Signature string `json:"signature"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.moderationService.UpdateSignature(c.UserContext(), req.Signature); err != nil {
		return respondServiceError(c, err)
	}

	s.publishEvent(notifications.EventSignatureUpdated, nil)
	return c.JSON(fiber.Map{"signature": req.Signature})
}
