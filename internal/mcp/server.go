package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/internal/services"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	mcpServer   *server.MCPServer
	repo        repository.Repository
	entities    *services.EntityService
	transitions *services.TransitionService
}

func NewServer(repo repository.Repository, entities *services.EntityService, transitions *services.TransitionService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Workflow Tracker",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		repo:        repo,
		entities:    entities,
		transitions: transitions,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_entity",
			mcp.WithDescription("Fetch an entity with its current state and data"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the entity")),
		),
		s.handleGetEntity,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"transition_entity",
			mcp.WithDescription("Apply a workflow transition to an entity, by transition id or target state id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the entity")),
			mcp.WithString("transition", mcp.Description("The ID of the transition to apply")),
			mcp.WithString("to_state", mcp.Description("The ID of the target state")),
		),
		s.handleTransitionEntity,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"entity_history",
			mcp.WithDescription("List the audit trail of an entity, oldest first"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the entity")),
		),
		s.handleEntityHistory,
	)
}

func (s *Server) handleGetEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	entity, err := s.repo.GetEntity(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch entity: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(entity)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleTransitionEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	transition, _ := args["transition"].(string)
	toState, _ := args["to_state"].(string)

	entity, err := s.transitions.ApplyTransition(ctx, services.TransitionRequest{
		EntityID:     id,
		TransitionID: transition,
		ToStateID:    toState,
	}, nil)
	if err != nil {
		var blocked *services.BlockedError
		if errors.As(err, &blocked) {
			return mcp.NewToolResultError(fmt.Sprintf("Rule %q blocked transition: %s", blocked.RuleName, blocked.Reason)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to transition: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(entity)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleEntityHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	trail, err := s.entities.History(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load history: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(trail)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
