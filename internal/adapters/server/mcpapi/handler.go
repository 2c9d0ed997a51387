// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/leadboard/internal/adapters/server/common"
	"github.com/evanschultz/leadboard/internal/app"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
	// ActorFromRequest names the caller writes are attributed to. Nil or an
	// empty result leaves the local actor in place.
	ActorFromRequest func(*http.Request) string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing board read and card tools.
func NewHandler(cfg Config, service common.Service) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, service)
	registerCardTools(mcpSrv, service)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(actorContextFunc(cfg.ActorFromRequest)),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// actorContextFunc attaches the request's caller to the tool-call context.
func actorContextFunc(resolve func(*http.Request) string) mcpserver.HTTPContextFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		if resolve == nil {
			return ctx
		}
		if actor := strings.TrimSpace(resolve(r)); actor != "" {
			return app.WithActor(ctx, actor)
		}
		return ctx
	}
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "leadboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerBoardTools registers the read-side board tools.
func registerBoardTools(srv *mcpserver.MCPServer, boards common.Service) {
	srv.AddTool(
		mcp.NewTool(
			"leadboard.list_boards",
			mcp.WithDescription("List the leads and tasks boards."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived boards")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := boards.ListBoards(ctx, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"boards": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_boards result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.board_snapshot",
			mcp.WithDescription("Return one board partitioned into columns with the cards filed under each."),
			mcp.WithString("board", mcp.Required(), mcp.Description("Board id or slug")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardRef, err := req.RequireString("board")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			snapshot, err := boards.BoardSnapshot(ctx, boardRef)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(snapshot)
			if err != nil {
				return nil, fmt.Errorf("encode board_snapshot result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.list_columns",
			mcp.WithDescription("List the columns of one board in display order."),
			mcp.WithString("board", mcp.Required(), mcp.Description("Board id or slug")),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived columns")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardRef, err := req.RequireString("board")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			rows, err := boards.ListColumns(ctx, boardRef, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"columns": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_columns result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"leadboard.list_events",
			mcp.WithDescription("List recent activity on one board, newest first."),
			mcp.WithString("board", mcp.Required(), mcp.Description("Board id or slug")),
			mcp.WithNumber("limit", mcp.Description("Maximum events to return (default 50)"), mcp.Min(1)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			boardRef, err := req.RequireString("board")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			rows, err := boards.ListChangeEvents(ctx, boardRef, req.GetInt("limit", 50))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"events": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_events result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	_, apiErr := common.ClassifyError(err)
	return mcp.NewToolResultError(apiErr.Code + ": " + apiErr.Message)
}

// invalidRequestToolResult wraps argument-binding failures as deterministic tool errors.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError(common.CodeInvalidRequest + ": malformed arguments")
	}
	return mcp.NewToolResultError(common.CodeInvalidRequest + ": " + err.Error())
}
