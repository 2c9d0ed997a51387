// Package httpapi provides the REST HTTP adapter for the board surfaces.
package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/evanschultz/leadboard/internal/adapters/server/common"
	"github.com/evanschultz/leadboard/internal/app"
)

// defaultEventLimit caps the activity feed when no limit is passed.
const defaultEventLimit = 50

// TokenContextKey is the fiber locals key the jwt middleware stores parsed tokens under.
const TokenContextKey = "user"

// Handler serves the versioned API routes mounted under the api prefix.
type Handler struct {
	service common.Service
}

// NewHandler constructs one HTTP API adapter.
func NewHandler(service common.Service) *Handler {
	return &Handler{service: service}
}

// Register mounts every API route on router.
func (h *Handler) Register(router fiber.Router) {
	router.Get("/boards", h.listBoards)
	router.Get("/boards/:id/snapshot", h.boardSnapshot)
	router.Get("/boards/:id/events", h.listEvents)
	router.Get("/boards/:id/columns", h.listColumns)
	router.Post("/boards/:id/columns", h.createColumn)
	router.Put("/boards/:id/columns/order", h.reorderColumns)
	router.Patch("/columns/:id", h.updateColumn)
	router.Delete("/columns/:id", h.deleteColumn)

	router.Get("/boards/:id/leads", h.listLeads)
	router.Post("/boards/:id/leads", h.createLead)
	router.Get("/leads/:id", h.getLead)
	router.Patch("/leads/:id", h.updateLead)
	router.Delete("/leads/:id", h.deleteLead)
	router.Post("/leads/:id/move", h.moveLead)
	router.Post("/leads/:id/restore", h.restoreLead)

	router.Get("/boards/:id/tasks", h.listTasks)
	router.Post("/boards/:id/tasks", h.createTask)
	router.Get("/tasks/:id", h.getTask)
	router.Patch("/tasks/:id", h.updateTask)
	router.Delete("/tasks/:id", h.deleteTask)
	router.Post("/tasks/:id/move", h.moveTask)
	router.Post("/tasks/:id/restore", h.restoreTask)
}

// BindActor copies the bearer token subject onto the request context so
// change events are attributed to the caller.
func BindActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if actor := ActorFromLocals(c); actor != "" {
			c.SetUserContext(app.WithActor(c.UserContext(), actor))
		}
		return c.Next()
	}
}

// ActorFromLocals returns the "sub" claim of the verified token, if any.
func ActorFromLocals(c *fiber.Ctx) string {
	token, ok := c.Locals(TokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return ""
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(subject)
}

func (h *Handler) listBoards(c *fiber.Ctx) error {
	boards, err := h.service.ListBoards(c.UserContext(), c.QueryBool("archived", false))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"boards": boards})
}

func (h *Handler) boardSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.service.BoardSnapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(snapshot)
}

func (h *Handler) listEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultEventLimit)
	if limit <= 0 {
		return WriteError(c, fmt.Errorf("limit must be positive: %w", common.ErrInvalidRequest))
	}
	events, err := h.service.ListChangeEvents(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"events": events})
}

func (h *Handler) listColumns(c *fiber.Ctx) error {
	columns, err := h.service.ListColumns(c.UserContext(), c.Params("id"), c.QueryBool("archived", false))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"columns": columns})
}

func (h *Handler) createColumn(c *fiber.Ctx) error {
	var req common.CreateColumnRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.BoardID = c.Params("id")
	column, err := h.service.CreateColumn(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(column)
}

func (h *Handler) reorderColumns(c *fiber.Ctx) error {
	var req common.ReorderColumnsRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.BoardID = c.Params("id")
	columns, err := h.service.ReorderColumns(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"columns": columns})
}

func (h *Handler) updateColumn(c *fiber.Ctx) error {
	var req common.UpdateColumnRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.ID = c.Params("id")
	column, err := h.service.UpdateColumn(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(column)
}

func (h *Handler) deleteColumn(c *fiber.Ctx) error {
	err := h.service.DeleteColumn(c.UserContext(), common.DeleteRequest{ID: c.Params("id"), Mode: c.Query("mode")})
	if err != nil {
		return WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) listLeads(c *fiber.Ctx) error {
	leads, err := h.service.ListLeads(c.UserContext(), c.Params("id"), c.QueryBool("archived", false))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"leads": leads})
}

func (h *Handler) createLead(c *fiber.Ctx) error {
	var req common.CreateLeadRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.BoardID = c.Params("id")
	lead, err := h.service.CreateLead(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

func (h *Handler) getLead(c *fiber.Ctx) error {
	lead, err := h.service.GetLead(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(lead)
}

// updateLead applies a merge patch: fields absent from the body keep their stored value.
func (h *Handler) updateLead(c *fiber.Ctx) error {
	current, err := h.service.GetLead(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	req := common.UpdateLeadRequest{
		ID: current.ID,
		LeadFields: common.LeadFields{
			Name:          current.Name,
			Company:       current.Company,
			Email:         current.Email,
			Phone:         current.Phone,
			Source:        current.Source,
			ValueCents:    current.ValueCents,
			NotesMarkdown: current.NotesMarkdown,
		},
	}
	if err := parseBody(c, &req.LeadFields); err != nil {
		return WriteError(c, err)
	}
	lead, err := h.service.UpdateLead(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(lead)
}

func (h *Handler) deleteLead(c *fiber.Ctx) error {
	err := h.service.DeleteLead(c.UserContext(), common.DeleteRequest{ID: c.Params("id"), Mode: c.Query("mode")})
	if err != nil {
		return WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) moveLead(c *fiber.Ctx) error {
	var req common.MoveCardRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.ID = c.Params("id")
	lead, err := h.service.MoveLead(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(lead)
}

func (h *Handler) restoreLead(c *fiber.Ctx) error {
	lead, err := h.service.RestoreLead(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(lead)
}

func (h *Handler) listTasks(c *fiber.Ctx) error {
	tasks, err := h.service.ListTasks(c.UserContext(), c.Params("id"), c.QueryBool("archived", false))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *Handler) createTask(c *fiber.Ctx) error {
	var req common.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.BoardID = c.Params("id")
	task, err := h.service.CreateTask(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *Handler) getTask(c *fiber.Ctx) error {
	task, err := h.service.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(task)
}

// updateTask applies a merge patch; an explicit null due_at clears the due date.
func (h *Handler) updateTask(c *fiber.Ctx) error {
	current, err := h.service.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	req := common.UpdateTaskRequest{
		ID: current.ID,
		TaskFields: common.TaskFields{
			Title:       current.Title,
			Description: current.Description,
			Priority:    current.Priority,
			DueAt:       current.DueAt,
			Labels:      current.Labels,
		},
	}
	if err := parseBody(c, &req.TaskFields); err != nil {
		return WriteError(c, err)
	}
	task, err := h.service.UpdateTask(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(task)
}

func (h *Handler) deleteTask(c *fiber.Ctx) error {
	err := h.service.DeleteTask(c.UserContext(), common.DeleteRequest{ID: c.Params("id"), Mode: c.Query("mode")})
	if err != nil {
		return WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) moveTask(c *fiber.Ctx) error {
	var req common.MoveCardRequest
	if err := parseBody(c, &req); err != nil {
		return WriteError(c, err)
	}
	req.ID = c.Params("id")
	task, err := h.service.MoveTask(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(task)
}

func (h *Handler) restoreTask(c *fiber.Ctx) error {
	task, err := h.service.RestoreTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(task)
}

// parseBody decodes one JSON request body.
func parseBody(c *fiber.Ctx, out any) error {
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(strings.Split(c.Get(fiber.HeaderContentType), ";")[0])), "json") {
		return fmt.Errorf("decode request body: content type must be application/json: %w", common.ErrInvalidRequest)
	}
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	return nil
}

// WriteError maps adapter errors into structured JSON responses.
func WriteError(c *fiber.Ctx, err error) error {
	status, apiErr := common.ClassifyError(err)
	return c.Status(status).JSON(common.ErrorEnvelope{Error: apiErr})
}
