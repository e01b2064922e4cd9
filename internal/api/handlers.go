// Package api contains the HTTP handlers for the workflow tracker REST API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/internal/services"
	"flowtrack/backend/pkg/models"
)

const serviceVersion = "1.0.0"

// entityService is the slice of EntityService the handlers use.
type entityService interface {
	Create(ctx context.Context, in services.CreateEntityInput, actor *models.Actor) (*models.Entity, error)
	UpdateData(ctx context.Context, entityID string, data map[string]any, actor *models.Actor) (*models.Entity, error)
	History(ctx context.Context, entityID string) ([]*models.AuditLog, error)
}

// transitionService is the slice of TransitionService the handlers use.
type transitionService interface {
	ApplyTransition(ctx context.Context, req services.TransitionRequest, actor *models.Actor) (*models.Entity, error)
}

// Server holds the dependencies for the API server.
type Server struct {
	Repo        repository.Repository
	Entities    entityService
	Transitions transitionService
}

// NewServer creates a new Server.
func NewServer(repo repository.Repository, entities *services.EntityService, transitions *services.TransitionService) *Server {
	return &Server{Repo: repo, Entities: entities, Transitions: transitions}
}

// RegisterRoutes mounts all API routes on the given group. The adminOnly and
// writer middlewares enforce the role matrix: definition management is
// admin-only, entity mutation needs operator or admin, reads are open to any
// authenticated role.
func RegisterRoutes(g *echo.Group, s *Server, adminOnly, writer echo.MiddlewareFunc) {
	g.GET("/workflows", s.ListWorkflows, adminOnly)
	g.POST("/workflows", s.CreateWorkflow, adminOnly)
	g.GET("/workflows/:id", s.GetWorkflow, adminOnly)
	g.PUT("/workflows/:id", s.UpdateWorkflow, adminOnly)
	g.DELETE("/workflows/:id", s.DeleteWorkflow, adminOnly)

	g.GET("/workflows/:id/states", s.ListStates, adminOnly)
	g.POST("/workflows/:id/states", s.CreateState, adminOnly)
	g.PUT("/states/:id", s.UpdateState, adminOnly)
	g.DELETE("/states/:id", s.DeleteState, adminOnly)

	g.GET("/workflows/:id/transitions", s.ListTransitions, adminOnly)
	g.POST("/workflows/:id/transitions", s.CreateTransition, adminOnly)
	g.PUT("/transitions/:id", s.UpdateTransition, adminOnly)
	g.DELETE("/transitions/:id", s.DeleteTransition, adminOnly)

	g.GET("/transitions/:id/rules", s.ListRules, adminOnly)
	g.POST("/transitions/:id/rules", s.CreateRule, adminOnly)
	g.PUT("/rules/:id", s.UpdateRule, adminOnly)
	g.DELETE("/rules/:id", s.DeleteRule, adminOnly)

	g.GET("/workflows/:id/schema-versions", s.ListSchemaVersions, adminOnly)
	g.POST("/workflows/:id/schema-versions", s.CreateSchemaVersion, adminOnly)
	g.GET("/schema-versions/:id/fields", s.ListSchemaFields, adminOnly)
	g.POST("/schema-versions/:id/fields", s.CreateSchemaField, adminOnly)
	g.DELETE("/schema-fields/:id", s.DeleteSchemaField, adminOnly)

	g.GET("/entities", s.ListEntities)
	g.POST("/entities", s.CreateEntity, writer)
	g.GET("/entities/:id", s.GetEntity)
	g.PUT("/entities/:id/data", s.UpdateEntityData, writer)
	g.DELETE("/entities/:id", s.DeleteEntity, adminOnly)
	g.POST("/entities/:id/transition", s.TransitionEntity, writer)
	g.GET("/entities/:id/history", s.EntityHistory)

	g.GET("/audit-logs", s.ListAuditLogs)
}

// HandleHealth returns basic health status including a database check.
func (s *Server) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   "flowtrack",
		Version:   serviceVersion,
		Timestamp: time.Now(),
		Checks:    map[string]string{},
	}
	if err := s.Repo.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Checks["database"] = err.Error()
	} else {
		status.Checks["database"] = "ok"
	}
	return c.JSON(http.StatusOK, status)
}

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, models.ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
