package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// QueriesHandler exposes the query lifecycle endpoints.
type QueriesHandler struct {
	service *service.QueryService
}

// NewQueriesHandler constructs handler.
func NewQueriesHandler(queryService *service.QueryService) *QueriesHandler {
	return &QueriesHandler{service: queryService}
}

// Create POST /api/queries.
func (h *QueriesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.service.Create(c.Context(), principal.Identity(), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": queryResponse(view, principal.User.Role)})
}

// ListMine GET /api/queries/my.
func (h *QueriesHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	views, err := h.service.ListForSubmitter(c.Context(), principal.Identity())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponses(views, principal.User.Role)})
}

// ListAssigned GET /api/queries/assigned.
func (h *QueriesHandler) ListAssigned(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	views, err := h.service.ListAssigned(c.Context(), principal.Identity())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponses(views, principal.User.Role)})
}

// ListAll GET /api/queries/all.
func (h *QueriesHandler) ListAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	views, err := h.service.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponses(views, principal.User.Role)})
}

// Assign PATCH /api/queries/assign.
func (h *QueriesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.QueryID == "" {
		return apperrors.NewValidationError("query_id required", nil)
	}
	view, err := h.service.Assign(c.Context(), principal.Identity(), req.QueryID, req.HeadID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponse(view, principal.User.Role)})
}

// Resolve PATCH /api/queries/resolve.
func (h *QueriesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.QueryID == "" {
		return apperrors.NewValidationError("query_id required", nil)
	}
	view, err := h.service.Resolve(c.Context(), principal.Identity(), req.QueryID, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponse(view, principal.User.Role)})
}

// Escalate PATCH /api/queries/escalate.
func (h *QueriesHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.QueryID == "" {
		return apperrors.NewValidationError("query_id required", nil)
	}
	view, err := h.service.Escalate(c.Context(), principal.Identity(), req.QueryID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponse(view, principal.User.Role)})
}

// Reopen PATCH /api/queries/reopen.
func (h *QueriesHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.QueryID == "" {
		return apperrors.NewValidationError("query_id required", nil)
	}
	view, err := h.service.Reopen(c.Context(), principal.Identity(), req.QueryID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": queryResponse(view, principal.User.Role)})
}

func queryResponse(view *service.QueryView, viewer domain.Role) dto.QueryResponse {
	thread := make([]dto.ThreadMessageResponse, 0, len(view.Thread))
	for _, msg := range view.Thread {
		thread = append(thread, dto.ThreadMessageResponse{
			Sender:     msg.Sender,
			SenderRole: msg.SenderRole,
			Message:    msg.Message,
			Action:     msg.Action,
			Date:       msg.Date,
			Mine:       domain.MessageIsOwn(viewer, msg.SenderRole),
		})
	}
	return dto.QueryResponse{
		ID:            view.Query.ID,
		Title:         view.Query.Title,
		Description:   view.Query.Description,
		Status:        view.Query.Status,
		SubmittedBy:   view.Query.SubmittedBy,
		SubmitterName: view.SubmitterName,
		AssignedTo:    view.Query.AssignedTo,
		CreatedAt:     view.Query.CreatedAt,
		UpdatedAt:     view.Query.UpdatedAt,
		Thread:        thread,
	}
}

func queryResponses(views []service.QueryView, viewer domain.Role) []dto.QueryResponse {
	items := make([]dto.QueryResponse, 0, len(views))
	for i := range views {
		items = append(items, queryResponse(&views[i], viewer))
	}
	return items
}
