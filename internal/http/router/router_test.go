package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-backend/internal/app"
	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/http/router"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/marketplace-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

const webhookSecret = "whsec_test"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code             string   `json:"code"`
		Message          string   `json:"message"`
		AvailableActions []string `json:"available_actions"`
	} `json:"error"`
}

type testServer struct {
	t            *testing.T
	engine       *gin.Engine
	tokens       *service.TokenManager
	client       entity.Actor
	professional entity.Actor
	admin        entity.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	cfg := &config.Config{
		Env:             "test",
		StorageDriver:   config.StorageDriverMemory,
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
	}
	tokens := service.NewTokenManager("router-test-secret-router-test-secret", time.Hour)

	services := app.NewServices(app.MemoryRepositories(memory.NewStore()), payment.SandboxGateway{})
	handlers := app.NewHandlers(services, app.HandlerDeps{
		Tokens:        tokens,
		Storage:       cfg.StorageDriver,
		WebhookSecret: webhookSecret,
	})

	return &testServer{
		t:            t,
		engine:       router.SetupRouter(cfg, handlers, tokens),
		tokens:       tokens,
		client:       entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleClient},
		professional: entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleProfessional},
		admin:        entity.Actor{ID: uuid.New(), Role: valueobject.ActorRoleAdmin},
	}
}

func (s *testServer) do(method, path string, actor *entity.Actor, body any) (int, envelope) {
	s.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(s.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, _, err := s.tokens.GenerateAccess(*actor)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) (int, envelope) {
	s.t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) transition(projectID string, actor entity.Actor, target string, payload any) (int, envelope) {
	s.t.Helper()
	body := map[string]any{"target_status": target}
	if payload != nil {
		body["payload"] = payload
	}
	return s.do(http.MethodPost, "/api/projects/"+projectID+"/transitions", &actor, body)
}

func (s *testServer) createProject() string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/projects", &s.client, map[string]any{
		"title": "Замена проводки", "budget": 1200, "currency": "USD",
	})
	require.Equal(s.t, http.StatusCreated, code)

	var p struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	require.Equal(s.t, "draft", p.Status)
	return p.ID
}

func (s *testServer) projectStatus(projectID string) string {
	s.t.Helper()
	code, env := s.do(http.MethodGet, "/api/projects/"+projectID, &s.client, nil)
	require.Equal(s.t, http.StatusOK, code)
	var p struct {
		Status string `json:"status"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &p))
	return p.Status
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/projects", nil, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer garbage")
	code, _ = s.serve(req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestInvalidProjectID(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodGet, "/api/projects/not-a-uuid", &s.client, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject()

	code, _ := s.transition(id, s.client, "open", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/projects/"+id+"/applications", &s.professional, map[string]any{
		"cover_letter": "Сделаю за неделю",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.transition(id, s.client, "assigned", map[string]any{"professional_id": s.professional.ID})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(http.MethodGet, "/api/projects/"+id+"/applications", &s.client, nil)
	require.Equal(t, http.StatusOK, code)
	var apps []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, "accepted", apps[0].Status)

	for _, target := range []string{"in_progress", "work_submitted"} {
		code, env = s.transition(id, s.professional, target, nil)
		require.Equal(t, http.StatusOK, code, target)
	}

	// заказчик не может сам сдать работу
	code, env = s.transition(id, s.client, "work_submitted", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.transition(id, s.client, "work_approved", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/projects/"+id+"/actions", &s.client, nil)
	require.Equal(t, http.StatusOK, code)
	var actions struct {
		Status           string   `json:"status"`
		AvailableActions []string `json:"available_actions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &actions))
	assert.Equal(t, "work_approved", actions.Status)
	assert.Contains(t, actions.AvailableActions, "completed")

	code, env = s.do(http.MethodGet, "/api/projects/"+id+"/transitions", &s.client, nil)
	require.Equal(t, http.StatusOK, code)
	var history []struct {
		ToStatus string `json:"to_status"`
		Outcome  string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.NotEmpty(t, history)
	assert.Equal(t, "open", history[0].ToStatus)
}

func TestPaymentCallback(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject()

	steps := []struct {
		actor   entity.Actor
		target  string
		payload any
	}{
		{s.client, "open", nil},
		{s.client, "assigned", map[string]any{"professional_id": s.professional.ID}},
		{s.professional, "in_progress", nil},
		{s.professional, "work_submitted", nil},
		{s.client, "work_approved", nil},
	}
	for _, st := range steps {
		code, env := s.transition(id, st.actor, st.target, st.payload)
		require.Equal(t, http.StatusOK, code, "%s: %+v", st.target, env.Error)
	}

	code, env := s.do(http.MethodPost, "/api/projects/"+id+"/payments", &s.client, nil)
	require.Equal(t, http.StatusCreated, code)
	var pay struct {
		ExternalID string `json:"external_id"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pay))
	require.NotEmpty(t, pay.ExternalID)
	assert.Equal(t, "pending", pay.Status)

	body, err := json.Marshal(map[string]string{"external_id": pay.ExternalID, "status": "completed"})
	require.NoError(t, err)

	t.Run("неверная подпись", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", bytes.NewReader(body))
		req.Header.Set(payment.SignatureHeader, payment.Sign("other-secret", body))
		code, _ := s.serve(req)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "work_approved", s.projectStatus(id))
	})

	t.Run("подписанный колбэк завершает проект", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", bytes.NewReader(body))
		req.Header.Set(payment.SignatureHeader, "sha256="+payment.Sign(webhookSecret, body))
		code, env := s.serve(req)
		require.Equal(t, http.StatusOK, code)

		var out struct {
			Duplicate     bool   `json:"duplicate"`
			ProjectStatus string `json:"project_status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &out))
		assert.False(t, out.Duplicate)
		assert.Equal(t, "completed", out.ProjectStatus)
		assert.Equal(t, "completed", s.projectStatus(id))
	})
}

func TestSecondDisputeReturnsConflictWithActions(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject()

	code, _ := s.transition(id, s.client, "open", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.transition(id, s.client, "assigned", map[string]any{"professional_id": s.professional.ID})
	require.Equal(t, http.StatusOK, code)

	dispute := map[string]any{
		"type":          "quality",
		"title":         "Работа не начата",
		"description":   "Исполнитель не выходит на связь",
		"respondent_id": s.professional.ID,
	}
	code, env := s.do(http.MethodPost, "/api/projects/"+id+"/disputes", &s.client, dispute)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(http.MethodPost, "/api/projects/"+id+"/disputes", &s.client, dispute)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.NotNil(t, env.Error.AvailableActions)

	// при открытом споре администратору доступна строка disputed
	code, env = s.do(http.MethodGet, "/api/projects/"+id+"/actions", &s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var actions struct {
		AvailableActions []string `json:"available_actions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &actions))
	assert.ElementsMatch(t, []string{"archived", "cancelled"}, actions.AvailableActions)

	code, env = s.do(http.MethodGet, "/api/projects/"+id+"/disputes", &s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var disputes []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &disputes))
	require.Len(t, disputes, 1)
	assert.Equal(t, "open", disputes[0].Status)

	code, _ = s.do(http.MethodPatch, "/api/disputes/"+disputes[0].ID+"/status", &s.admin, map[string]any{"status": "in_review"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPatch, "/api/disputes/"+disputes[0].ID+"/status", &s.admin, map[string]any{
		"status": "resolved", "resolution": "Стороны договорились",
	})
	require.Equal(t, http.StatusOK, code)

	code, env = s.transition(id, s.professional, "in_progress", nil)
	assert.Equal(t, http.StatusOK, code, env.Error)
}

func TestArchivedProjectIsReadOnly(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject()

	code, _ := s.transition(id, s.client, "archived", nil)
	assert.Equal(t, http.StatusPreconditionFailed, code)

	code, _ = s.transition(id, s.client, "archived", map[string]any{"archive_reason": "Передумал"})
	require.Equal(t, http.StatusOK, code)

	code, env := s.transition(id, s.client, "open", nil)
	assert.Equal(t, http.StatusPreconditionFailed, code)
	assert.Equal(t, "PRECONDITION_FAILED", env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/projects/"+id+"/archive/notes", &s.client, map[string]any{"note": "Вернуться весной"})
	require.Equal(t, http.StatusOK, code)
	var archive struct {
		Reason string   `json:"reason"`
		Notes  []string `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &archive))
	assert.Equal(t, "Передумал", archive.Reason)
	assert.Contains(t, archive.Notes, "Вернуться весной")
}

func TestMalformedPayloadIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject()
	code, _ := s.transition(id, s.client, "open", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.transition(id, s.client, "assigned", "not-an-object")
	assert.Equal(t, http.StatusBadRequest, code)
}
