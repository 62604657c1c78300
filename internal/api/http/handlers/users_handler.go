package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/service"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// UsersHandler exposes profile endpoints.
type UsersHandler struct {
	users        *service.UserService
	publications *service.PublicationService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, publicationService *service.PublicationService) *UsersHandler {
	return &UsersHandler{users: userService, publications: publicationService}
}

// List handles GET /users (admin only, enforced in routing).
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PATCH /users/:id. Callers may update themselves; admins may
// update anyone.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := requireSelfOrAdmin(c, id); err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := req.Validate(); len(details) > 0 {
		return apperrors.NewValidationError("invalid user data", details)
	}

	ok, err := h.users.Update(c.Context(), id, req.Patch())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": true}})
}

// Delete handles DELETE /users/:id (soft delete).
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := requireSelfOrAdmin(c, id); err != nil {
		return err
	}

	ok, err := h.users.Delete(c.Context(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListPublications handles GET /users/:id/publications.
func (h *UsersHandler) ListPublications(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	publications, err := h.publications.ListByOwner(c.Context(), id)
	if err != nil {
		return err
	}
	items := make([]dto.PublicationResponse, 0, len(publications))
	for i := range publications {
		items = append(items, dto.NewPublicationResponse(&publications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func requireSelfOrAdmin(c *fiber.Ctx, id int64) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.Role != domain.UserRoleAdmin && principal.User.ID != id {
		return apperrors.NewForbidden("cannot modify another user")
	}
	return nil
}
