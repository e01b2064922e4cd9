package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/pkg/models"
)

// fakeDefinitionRepo covers the few Repository methods the transition
// definition handlers touch; anything else panics via the embedded nil.
type fakeDefinitionRepo struct {
	repository.Repository
	states      map[string]*models.State
	transitions map[string]*models.Transition
	saved       *models.Transition
}

func (f *fakeDefinitionRepo) GetState(_ context.Context, id string) (*models.State, error) {
	if s, ok := f.states[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDefinitionRepo) GetTransition(_ context.Context, id string) (*models.Transition, error) {
	if tr, ok := f.transitions[id]; ok {
		return tr, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDefinitionRepo) CreateTransition(_ context.Context, tr *models.Transition) error {
	f.saved = tr
	return nil
}

func (f *fakeDefinitionRepo) UpdateTransition(_ context.Context, tr *models.Transition) error {
	f.saved = tr
	return nil
}

func postCreateTransition(t *testing.T, s *Server, workflowID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+workflowID+"/transitions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(workflowID)
	if err := s.CreateTransition(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func putUpdateTransition(t *testing.T, s *Server, transitionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/transitions/"+transitionID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(transitionID)
	if err := s.UpdateTransition(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCreateTransition_SameWorkflowStates(t *testing.T) {
	repo := &fakeDefinitionRepo{states: map[string]*models.State{
		"state-new":    {ID: "state-new", WorkflowID: "wf-1", Name: "New"},
		"state-review": {ID: "state-review", WorkflowID: "wf-1", Name: "In Review"},
	}}
	s := &Server{Repo: repo}

	rec := postCreateTransition(t, s, "wf-1",
		`{"name":"Submit","from_state_id":"state-new","to_state_id":"state-review"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "wf-1", repo.saved.WorkflowID)
}

func TestCreateTransition_RejectsCrossWorkflowEdge(t *testing.T) {
	repo := &fakeDefinitionRepo{states: map[string]*models.State{
		"state-new":   {ID: "state-new", WorkflowID: "wf-1", Name: "New"},
		"state-other": {ID: "state-other", WorkflowID: "wf-2", Name: "Elsewhere"},
	}}
	s := &Server{Repo: repo}

	rec := postCreateTransition(t, s, "wf-1",
		`{"name":"Escape","from_state_id":"state-new","to_state_id":"state-other"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "to_state belongs to a different workflow", detailOf(t, rec))
	assert.Nil(t, repo.saved)
}

func TestCreateTransition_RejectsUnknownState(t *testing.T) {
	repo := &fakeDefinitionRepo{states: map[string]*models.State{
		"state-new": {ID: "state-new", WorkflowID: "wf-1", Name: "New"},
	}}
	s := &Server{Repo: repo}

	rec := postCreateTransition(t, s, "wf-1",
		`{"name":"Submit","from_state_id":"state-new","to_state_id":"state-missing"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown to_state", detailOf(t, rec))
	assert.Nil(t, repo.saved)
}

func TestUpdateTransition_RejectsCrossWorkflowEdge(t *testing.T) {
	repo := &fakeDefinitionRepo{
		states: map[string]*models.State{
			"state-new":   {ID: "state-new", WorkflowID: "wf-1", Name: "New"},
			"state-other": {ID: "state-other", WorkflowID: "wf-2", Name: "Elsewhere"},
		},
		transitions: map[string]*models.Transition{
			"tr-submit": {ID: "tr-submit", WorkflowID: "wf-1", Name: "Submit",
				FromStateID: "state-new", ToStateID: "state-new"},
		},
	}
	s := &Server{Repo: repo}

	rec := putUpdateTransition(t, s, "tr-submit",
		`{"name":"Submit","from_state_id":"state-new","to_state_id":"state-other"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "to_state belongs to a different workflow", detailOf(t, rec))
	assert.Nil(t, repo.saved)
}

func TestUpdateTransition_KeepsEndpointsWhenOmitted(t *testing.T) {
	repo := &fakeDefinitionRepo{
		states: map[string]*models.State{
			"state-new":    {ID: "state-new", WorkflowID: "wf-1", Name: "New"},
			"state-review": {ID: "state-review", WorkflowID: "wf-1", Name: "In Review"},
		},
		transitions: map[string]*models.Transition{
			"tr-submit": {ID: "tr-submit", WorkflowID: "wf-1", Name: "Submit",
				FromStateID: "state-new", ToStateID: "state-review"},
		},
	}
	s := &Server{Repo: repo}

	rec := putUpdateTransition(t, s, "tr-submit", `{"name":"Submit for review"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "state-new", repo.saved.FromStateID)
	assert.Equal(t, "state-review", repo.saved.ToStateID)
	assert.Equal(t, "Submit for review", repo.saved.Name)
}
