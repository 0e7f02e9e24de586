package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"syncgate/internal/statemachine"
	"syncgate/internal/sync/models"
	"syncgate/internal/sync/service"
	"syncgate/internal/sync/store/domaincfg"
	"syncgate/internal/sync/store/record"
	adminmw "syncgate/pkg/platform/middleware/admin"
	"syncgate/pkg/platform/middleware/principal"
)

const testAdminToken = "test-admin-token"

// HandlerSuite provides shared setup for sync handler tests. Handler tests
// validate HTTP concerns: parsing, routing, status mapping. Real in-memory
// stores back the service, no mocks.
type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	records *record.InMemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	registry := statemachine.New(statemachine.WithLogger(logger))
	s.records = record.NewInMemoryStore()

	svc, err := service.New(registry, s.records,
		service.WithLogger(logger),
		service.WithDomainConfigStore(domaincfg.NewInMemoryStore()),
	)
	s.Require().NoError(err)

	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(principal.FromHeaders)
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(testAdminToken, logger))
		h.RegisterAdmin(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s *HandlerSuite, v any) *bytes.Reader {
	body, err := json.Marshal(v)
	s.Require().NoError(err)
	return bytes.NewReader(body)
}

// =============================================================================
// POST /v1/sync/{domain}/validate
// =============================================================================

func (s *HandlerSuite) TestValidate_Allowed() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/task/validate",
		jsonBody(s, map[string]string{"from_status": "ASSIGNED", "to_status": "INPROGRESS"}))
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var result statemachine.Result
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
	s.True(result.Allowed)
	s.Contains(result.Reason, "Start working on task")
}

func (s *HandlerSuite) TestValidate_DeniedIsStill200() {
	// A policy denial is the answer to the question, not an HTTP failure.
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/ticket/validate",
		jsonBody(s, map[string]string{"from_status": "CLOSED", "to_status": "OPEN"}))
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var result statemachine.Result
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
	s.False(result.Allowed)
	s.Equal("CLOSED → OPEN not allowed", result.Reason)
}

func (s *HandlerSuite) TestValidate_InvalidJSON() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/task/validate",
		bytes.NewReader([]byte("not valid json")))
	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

// =============================================================================
// POST /v1/sync/{domain}/apply
// =============================================================================

func (s *HandlerSuite) TestApply_Success() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/ticket/apply",
		jsonBody(s, models.ChangeRequest{RecordID: "tk-1", ToStatus: "OPEN"}))
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var result models.ApplyResult
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
	s.True(result.Applied)
	s.Equal("OPEN", result.Record.Status)
	s.Equal(int64(1), result.Record.Version)
}

func (s *HandlerSuite) TestApply_DeniedTransitionIs409() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/task/apply",
		jsonBody(s, models.ChangeRequest{RecordID: "t-1", ToStatus: "COMPLETED"}))
	rec := s.do(req)

	s.Require().Equal(http.StatusConflict, rec.Code)

	var result models.ApplyResult
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
	s.False(result.Applied)
	s.False(result.Validation.Allowed)
	s.Equal("ASSIGNED → COMPLETED not allowed", result.Validation.Reason)
}

func (s *HandlerSuite) TestApply_MissingRecordIDIs400() {
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/task/apply",
		jsonBody(s, models.ChangeRequest{ToStatus: "INPROGRESS"}))
	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestApply_PermissionGatedUsesHeaders() {
	s.registerPatrolDomain()

	body := models.ChangeRequest{RecordID: "p-1", ToStatus: "ACTIVE"}

	s.Run("anonymous denied", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/sync/patrol/apply", jsonBody(s, body))
		rec := s.do(req)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("principal with permission applies", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/sync/patrol/apply", jsonBody(s, body))
		req.Header.Set("X-User-Id", "u-1")
		req.Header.Set("X-User-Permissions", "patrol.activate")
		rec := s.do(req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("admin bypass carries warning", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/sync/patrol/apply",
			jsonBody(s, models.ChangeRequest{RecordID: "p-2", ToStatus: "ACTIVE"}))
		req.Header.Set("X-User-Id", "admin-1")
		req.Header.Set("X-User-Admin", "true")
		rec := s.do(req)
		s.Require().Equal(http.StatusOK, rec.Code)

		var result models.ApplyResult
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
		s.Equal([]string{"Admin bypassed permission: patrol.activate"}, result.Validation.Warnings)
	})
}

// =============================================================================
// GET /v1/sync/{domain}/transitions and /statuses
// =============================================================================

func (s *HandlerSuite) TestTransitions() {
	req := httptest.NewRequest(http.MethodGet, "/v1/sync/task/transitions?from=assigned", nil)
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Domain      string   `json:"domain"`
		Transitions []string `json:"transitions"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal("task", resp.Domain)
	s.ElementsMatch([]string{"INPROGRESS", "STANDBY"}, resp.Transitions)
}

func (s *HandlerSuite) TestTransitions_UnknownDomainIsEmptyList() {
	req := httptest.NewRequest(http.MethodGet, "/v1/sync/unknown/transitions?from=X", nil)
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Transitions []string `json:"transitions"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Empty(resp.Transitions)
	s.NotNil(resp.Transitions, "should serialize as [] not null")
}

func (s *HandlerSuite) TestStatuses() {
	req := httptest.NewRequest(http.MethodGet, "/v1/sync/attendance/statuses", nil)
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Statuses []string `json:"statuses"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Equal([]string{"CORRECTED", "PENDING", "REJECTED", "VERIFIED"}, resp.Statuses)
}

// =============================================================================
// Admin endpoints
// =============================================================================

func (s *HandlerSuite) TestRegisterDomain_RequiresToken() {
	req := httptest.NewRequest(http.MethodPut, "/admin/sync/domains/patrol",
		jsonBody(s, models.DomainConfig{Policy: "strict", DefaultStatus: "DRAFT"}))
	rec := s.do(req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestRegisterDomain_InstallsConfig() {
	req := httptest.NewRequest(http.MethodPut, "/admin/sync/domains/patrol",
		jsonBody(s, models.DomainConfig{
			Policy:        "strict",
			DefaultStatus: "DRAFT",
			Transitions:   []models.TransitionSpec{{From: "DRAFT", To: "ACTIVE"}},
		}))
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	// The new domain is live immediately.
	vreq := httptest.NewRequest(http.MethodPost, "/v1/sync/patrol/validate",
		jsonBody(s, map[string]string{"from_status": "DRAFT", "to_status": "RETIRED"}))
	vrec := s.do(vreq)
	s.Require().Equal(http.StatusOK, vrec.Code)

	var result statemachine.Result
	s.Require().NoError(json.NewDecoder(vrec.Body).Decode(&result))
	s.False(result.Allowed, "strict domain must deny undefined edges")
}

func (s *HandlerSuite) TestRegisterDomain_InvalidPolicyIs400() {
	req := httptest.NewRequest(http.MethodPut, "/admin/sync/domains/patrol",
		jsonBody(s, models.DomainConfig{Policy: "lenient", DefaultStatus: "DRAFT"}))
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListRecords() {
	s.Require().NoError(s.records.Upsert(httptest.NewRequest(http.MethodGet, "/", nil).Context(),
		&models.Record{Domain: "task", RecordID: "t-1", Status: "ASSIGNED", Version: 1}))

	req := httptest.NewRequest(http.MethodGet, "/admin/sync/domains/task/records", nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := s.do(req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Records []models.Record `json:"records"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().Len(resp.Records, 1)
	s.Equal("t-1", resp.Records[0].RecordID)
}

// registerPatrolDomain installs a permission-gated domain directly through
// the admin endpoint so the whole path is exercised.
func (s *HandlerSuite) registerPatrolDomain() {
	req := httptest.NewRequest(http.MethodPut, "/admin/sync/domains/patrol",
		jsonBody(s, models.DomainConfig{
			Policy:        "strict",
			DefaultStatus: "DRAFT",
			Transitions: []models.TransitionSpec{
				{From: "DRAFT", To: "ACTIVE", RequiresPermission: "patrol.activate"},
			},
		}))
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := s.do(req)
	s.Require().Equal(http.StatusOK, rec.Code)
}
