package mcpapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/leadboard/internal/adapters/server/common"
)

// Card kinds accepted by the card tools.
const (
	cardKindLead = "lead"
	cardKindTask = "task"
)

// registerCardTools registers the lead and task mutation tools.
func registerCardTools(srv *mcpserver.MCPServer, cards common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"leadboard.move_card",
			mcp.WithDescription("File a lead or task under another column of its board."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("lead|task"), mcp.Enum(cardKindLead, cardKindTask)),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Target column identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Kind     string `json:"kind"`
				CardID   string `json:"card_id"`
				ColumnID string `json:"column_id"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.CardID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "card_id" not found`), nil
			}
			move := common.MoveCardRequest{ID: args.CardID, ColumnID: args.ColumnID}

			var (
				moved any
				err   error
			)
			switch strings.ToLower(strings.TrimSpace(args.Kind)) {
			case cardKindLead:
				moved, err = cards.MoveLead(ctx, move)
			case cardKindTask:
				moved, err = cards.MoveTask(ctx, move)
			default:
				return mcp.NewToolResultError(fmt.Sprintf("invalid_request: kind %q must be lead or task", args.Kind)), nil
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"card": moved})
			if err != nil {
				return nil, fmt.Errorf("encode move_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.create_lead",
			mcp.WithDescription("File a new lead on a leads board. A blank column picks the leftmost column."),
			mcp.WithString("board", mcp.Required(), mcp.Description("Board id or slug")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Contact name")),
			mcp.WithString("column_id", mcp.Description("Column identifier")),
			mcp.WithString("company", mcp.Description("Company name")),
			mcp.WithString("email", mcp.Description("Contact email")),
			mcp.WithString("phone", mcp.Description("Contact phone")),
			mcp.WithString("source", mcp.Description("Where the lead came from")),
			mcp.WithNumber("value_cents", mcp.Description("Estimated deal value in cents"), mcp.Min(0)),
			mcp.WithString("notes_markdown", mcp.Description("Markdown notes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Board    string `json:"board"`
				ColumnID string `json:"column_id"`
				common.LeadFields
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.Board) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "board" not found`), nil
			}
			lead, err := cards.CreateLead(ctx, common.CreateLeadRequest{
				BoardID:    args.Board,
				ColumnID:   args.ColumnID,
				LeadFields: args.LeadFields,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"lead": lead})
			if err != nil {
				return nil, fmt.Errorf("encode create_lead result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.create_task",
			mcp.WithDescription("File a new task on a tasks board. A blank column picks the leftmost column."),
			mcp.WithString("board", mcp.Required(), mcp.Description("Board id or slug")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("column_id", mcp.Description("Column identifier")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("priority", mcp.Description("low|medium|high"), mcp.Enum("low", "medium", "high")),
			mcp.WithString("due_at", mcp.Description("Optional RFC3339 timestamp")),
			mcp.WithArray("labels", mcp.Description("Optional labels"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Board       string   `json:"board"`
				ColumnID    string   `json:"column_id"`
				Title       string   `json:"title"`
				Description string   `json:"description"`
				Priority    string   `json:"priority"`
				DueAt       string   `json:"due_at"`
				Labels      []string `json:"labels"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.Board) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "board" not found`), nil
			}
			dueAt, err := parseDueAt(args.DueAt)
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			task, err := cards.CreateTask(ctx, common.CreateTaskRequest{
				BoardID:  args.Board,
				ColumnID: args.ColumnID,
				TaskFields: common.TaskFields{
					Title:       args.Title,
					Description: args.Description,
					Priority:    args.Priority,
					DueAt:       dueAt,
					Labels:      append([]string(nil), args.Labels...),
				},
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"task": task})
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.delete_card",
			mcp.WithDescription("Archive a lead or task, or remove it when mode is hard."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("lead|task"), mcp.Enum(cardKindLead, cardKindTask)),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
			mcp.WithString("mode", mcp.Description("archive|hard"), mcp.Enum("archive", "hard")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			del := common.DeleteRequest{ID: cardID, Mode: req.GetString("mode", "")}
			kind := strings.ToLower(strings.TrimSpace(req.GetString("kind", "")))
			switch kind {
			case cardKindLead:
				err = cards.DeleteLead(ctx, del)
			case cardKindTask:
				err = cards.DeleteTask(ctx, del)
			default:
				return mcp.NewToolResultError(fmt.Sprintf("invalid_request: kind %q must be lead or task", kind)), nil
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": cardID, "kind": kind})
			if err != nil {
				return nil, fmt.Errorf("encode delete_card result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.restore_card",
			mcp.WithDescription("Restore an archived lead or task."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("lead|task"), mcp.Enum(cardKindLead, cardKindTask)),
			mcp.WithString("card_id", mcp.Required(), mcp.Description("Card identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cardID, err := req.RequireString("card_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			var restored any
			kind := strings.ToLower(strings.TrimSpace(req.GetString("kind", "")))
			switch kind {
			case cardKindLead:
				restored, err = cards.RestoreLead(ctx, cardID)
			case cardKindTask:
				restored, err = cards.RestoreTask(ctx, cardID)
			default:
				return mcp.NewToolResultError(fmt.Sprintf("invalid_request: kind %q must be lead or task", kind)), nil
			}
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"card": restored})
			if err != nil {
				return nil, fmt.Errorf("encode restore_card result: %w", err)
			}
			return result, nil
		},
	)
}

// parseDueAt reads an optional RFC3339 due date.
func parseDueAt(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	dueAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("due_at must be RFC3339: %w", err)
	}
	return &dueAt, nil
}
