package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// PublicationsHandler manages publication lifecycle endpoints.
type PublicationsHandler struct {
	service *service.PublicationService
}

// NewPublicationsHandler constructs handler.
func NewPublicationsHandler(publicationService *service.PublicationService) *PublicationsHandler {
	return &PublicationsHandler{service: publicationService}
}

// Create POST /publications.
func (h *PublicationsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreatePublicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := req.Validate(); len(details) > 0 {
		return apperrors.NewValidationError("invalid publication", details)
	}

	publication, err := h.service.Create(c.Context(), principal.User.ID, service.PublicationCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPublicationResponse(publication)})
}

// List GET /publications with optional title/description substring filters.
func (h *PublicationsHandler) List(c *fiber.Ctx) error {
	query := dto.PublicationQuery{}
	if title := c.Query("title"); title != "" {
		query.Title = &title
	}
	if description := c.Query("description"); description != "" {
		query.Description = &description
	}

	publications, err := h.service.ListAll(c.Context(), query.Filter())
	if err != nil {
		return err
	}
	items := make([]dto.PublicationResponse, 0, len(publications))
	for i := range publications {
		items = append(items, dto.NewPublicationResponse(&publications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /publications/:id.
func (h *PublicationsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	publication, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if publication == nil {
		return apperrors.NewNotFound("publication", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewPublicationResponse(publication)})
}

// Update PATCH /publications/:id.
func (h *PublicationsHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		return err
	}

	var req dto.UpdatePublicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := req.Validate(); len(details) > 0 {
		return apperrors.NewValidationError("invalid publication patch", details)
	}

	ok, err := h.service.Update(c.Context(), id, req.Patch())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFound("publication", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

// Retire DELETE /publications/:id. A reserved publication yields a conflict.
func (h *PublicationsHandler) Retire(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.requireOwnerOrAdmin(c, id); err != nil {
		return err
	}

	ok, err := h.service.Retire(c.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFound("publication", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"retired": true}})
}

// Reserve POST /publications/:id/reserve.
func (h *PublicationsHandler) Reserve(c *fiber.Ctx) error {
	principal, okAuth := auth.PrincipalFromContext(c)
	if !okAuth {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ok, err := h.service.Reserve(c.Context(), id, principal.User.ID)
	if err != nil {
		return err
	}
	if !ok {
		return h.classifyRefusal(c, id, "publication cannot be reserved")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reserved": true}})
}

// Unreserve POST /publications/:id/unreserve.
func (h *PublicationsHandler) Unreserve(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ok, err := h.service.Unreserve(c.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return h.classifyRefusal(c, id, "publication is not reserved")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unreserved": true}})
}

// classifyRefusal distinguishes "item missing" from "action not currently
// allowed" for presentation only; the transition itself already settled.
func (h *PublicationsHandler) classifyRefusal(c *fiber.Ctx, id int64, message string) error {
	publication, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if publication == nil {
		return apperrors.NewNotFound("publication", map[string]any{"id": id})
	}
	return apperrors.NewConflict(message, map[string]any{"id": id, "status": publication.Status})
}

func (h *PublicationsHandler) requireOwnerOrAdmin(c *fiber.Ctx, id int64) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.Role == domain.UserRoleAdmin {
		return nil
	}
	publication, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if publication == nil {
		return apperrors.NewNotFound("publication", map[string]any{"id": id})
	}
	if publication.OwnerID != principal.User.ID {
		return apperrors.NewForbidden("cannot modify another user's publication")
	}
	return nil
}
