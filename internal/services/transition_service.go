// Package services contains the business logic of the workflow tracker:
// the transition engine and the entity lifecycle service.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/internal/rules"
	"flowtrack/backend/pkg/models"
)

// Validation and resolution errors returned by ApplyTransition. Callers
// can tell apart a malformed request, an unresolvable transition and a
// from-state mismatch; none of these produce an audit entry.
var (
	ErrMissingSelector   = errors.New("provide to_state or transition")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrStateMismatch     = errors.New("transition does not match entity state")
)

// BlockedError reports that a guard rule stopped the transition. It is an
// expected outcome, not a system fault: exactly one rule_block audit entry
// has been written and the entity state is unchanged.
type BlockedError struct {
	RuleID   string
	RuleName string
	Reason   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("rule %q blocked transition: %s", e.RuleName, e.Reason)
}

// TransitionRequest selects the transition to apply to an entity. Exactly
// one of TransitionID or ToStateID must be set.
type TransitionRequest struct {
	EntityID     string `json:"entity_id"`
	TransitionID string `json:"transition,omitempty"`
	ToStateID    string `json:"to_state,omitempty"`
}

// TransitionService is the transition engine. It resolves a requested
// transition, evaluates its guard rules in order and, only when all of
// them pass, commits the state change together with its audit entry in a
// single transaction.
type TransitionService struct {
	store  repository.Store
	tracer trace.Tracer
}

// NewTransitionService creates a new TransitionService.
func NewTransitionService(store repository.Store) *TransitionService {
	return &TransitionService{
		store:  store,
		tracer: otel.Tracer("flowtrack/transition"),
	}
}

// ApplyTransition moves an entity along one edge of its workflow graph.
//
// Outcomes:
//   - validation error (ErrMissingSelector): nothing read, nothing written
//   - resolution error (ErrInvalidTransition, ErrStateMismatch): no audit
//     entry, no state change
//   - rule block (*BlockedError): one rule_block audit entry, no state change
//   - success: state change plus one state_change audit entry, committed
//     atomically; the updated entity is returned
func (s *TransitionService) ApplyTransition(ctx context.Context, req TransitionRequest, actor *models.Actor) (*models.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "ApplyTransition", trace.WithAttributes(
		attribute.String("entity.id", req.EntityID),
	))
	defer span.End()

	if req.TransitionID == "" && req.ToStateID == "" {
		return nil, ErrMissingSelector
	}

	entity, err := s.store.GetEntity(ctx, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", req.EntityID, err)
	}

	transition, err := s.resolveTransition(ctx, entity, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("transition.id", transition.ID))

	active, err := s.store.ListActiveRules(ctx, transition.ID)
	if err != nil {
		return nil, fmt.Errorf("load rules for transition %s: %w", transition.ID, err)
	}

	// Guards are evaluated strictly in (eval_order, id) order and
	// short-circuit on the first failure.
	for _, rule := range active {
		passed, reason := rules.Evaluate(rule.ConditionType, rule.Params, entity.Data)
		if passed {
			continue
		}
		if reason == "" {
			reason = "Rule blocked transition"
		}
		entry := newAuditEntry(entity.ID, actor, models.ActionRuleBlock, reason)
		entry.FromStateID = &entity.CurrentStateID
		entry.ToStateID = &transition.ToStateID
		entry.RuleID = &rule.ID
		if err := s.store.AppendAudit(ctx, entry); err != nil {
			return nil, fmt.Errorf("record rule block: %w", err)
		}
		return nil, &BlockedError{RuleID: rule.ID, RuleName: rule.Name, Reason: reason}
	}

	entry := newAuditEntry(entity.ID, actor, models.ActionStateChange,
		fmt.Sprintf("Transitioned via %s", transition.Name))
	entry.FromStateID = &entity.CurrentStateID
	entry.ToStateID = &transition.ToStateID

	updated, err := s.store.CommitTransition(ctx, entity.ID, entity.CurrentStateID, transition.ToStateID, entry)
	if err != nil {
		return nil, fmt.Errorf("commit transition %s: %w", transition.ID, err)
	}
	return updated, nil
}

// resolveTransition finds the single transition definition a request names,
// either directly by id or by searching for an edge from the entity's
// current state to the requested target.
func (s *TransitionService) resolveTransition(ctx context.Context, entity *models.Entity, req TransitionRequest) (*models.Transition, error) {
	if req.TransitionID != "" {
		transition, err := s.store.GetTransition(ctx, req.TransitionID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		if err != nil {
			return nil, fmt.Errorf("load transition %s: %w", req.TransitionID, err)
		}
		if transition.WorkflowID != entity.WorkflowID {
			return nil, ErrInvalidTransition
		}
		if transition.FromStateID != entity.CurrentStateID {
			return nil, ErrStateMismatch
		}
		return transition, nil
	}

	transition, err := s.store.FindTransition(ctx, entity.WorkflowID, entity.CurrentStateID, req.ToStateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("find transition to state %s: %w", req.ToStateID, err)
	}
	return transition, nil
}

func newAuditEntry(entityID string, actor *models.Actor, action models.ActionType, reason string) *models.AuditLog {
	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		EntityID:   entityID,
		ActionType: action,
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if actor != nil {
		entry.ActorID = &actor.ID
	}
	return entry
}
