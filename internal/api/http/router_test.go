package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/repository/memory"
	"github.com/spec-kit/maintenance-service/internal/service"
)

type testServer struct {
	t     *testing.T
	app   *fiber.App
	store *memory.Store
	auth  *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	store := memory.NewStore()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	maintenance := service.NewMaintenanceService(service.MaintenanceDependencies{Store: store, Metrics: metrics, Logger: logger})
	authService := service.NewAuthService(cfg, store.Repositories().Users)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("maintenance-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(maintenance),
		WorkOrders:     handlers.NewWorkOrdersHandler(maintenance),
		Parts:          handlers.NewPartsHandler(maintenance),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Repositories().Users),
		Gatherer:       registry,
	})
	return &testServer{t: t, app: app, store: store, auth: authService}
}

// login registers a user with role and returns its id and bearer token.
func (s *testServer) login(email string, role domain.Role) (string, string) {
	s.t.Helper()
	user, err := s.auth.RegisterUser(context.Background(), email, email, "pa55word", role)
	require.NoError(s.t, err)

	resp := s.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "pa55word"})
	require.Equal(s.t, nethttp.StatusOK, resp.status, string(resp.body))
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(s.t, json.Unmarshal(resp.body, &out))
	return user.ID, out.Data.Token
}

type response struct {
	status int
	body   []byte
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out))
	data, ok := out["data"].(map[string]any)
	require.True(t, ok, string(r.body))
	return data
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(r.body, &out))
	return out.Error.Code
}

func (s *testServer) do(method, path, token string, body any) response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return response{status: resp.StatusCode, body: raw}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, nethttp.StatusOK, s.do(nethttp.MethodGet, "/health/live", "", nil).status)
	assert.Equal(t, nethttp.StatusOK, s.do(nethttp.MethodGet, "/health/ready", "", nil).status)

	metrics := s.do(nethttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, metrics.status)
	assert.Contains(t, string(metrics.body), "http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(nethttp.MethodPost, "/api/v1/tickets", "", map[string]string{"title": "x"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.status)
	assert.Equal(t, "UNAUTHORIZED", resp.errorCode(t))

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets", "garbage", map[string]string{"title": "x"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.status)

	s.login("someone@example.com", domain.RoleRequester)
	resp = s.do(nethttp.MethodPost, "/auth/login", "", map[string]string{"email": "someone@example.com", "password": "wrong"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.status)
}

func TestMaintenanceFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	requesterID, requester := s.login("req@example.com", domain.RoleRequester)
	techID, tech := s.login("tech@example.com", domain.RoleTechnician)
	_, manager := s.login("mgr@example.com", domain.RoleManager)
	_, admin := s.login("admin@example.com", domain.RoleAdmin)

	asset := &domain.Asset{Name: "Conveyor"}
	require.NoError(t, s.store.Repositories().Assets.Create(ctx, asset))
	part := &domain.Part{Name: "roller", QuantityOnHand: 10}
	require.NoError(t, s.store.Repositories().Parts.Create(ctx, part))

	resp := s.do(nethttp.MethodPost, "/api/v1/tickets", requester, map[string]any{"title": "Belt slipping", "asset_id": asset.ID})
	require.Equal(t, nethttp.StatusCreated, resp.status, string(resp.body))
	ticketID := resp.data(t)["id"].(string)
	assert.Equal(t, requesterID, resp.data(t)["requester_id"])

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/work-order", requester, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.status)

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/work-order", manager, nil)
	require.Equal(t, nethttp.StatusCreated, resp.status, string(resp.body))
	woID := resp.data(t)["id"].(string)
	assert.Equal(t, "on_hold", resp.data(t)["status"])

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/work-order", manager, nil)
	assert.Equal(t, nethttp.StatusConflict, resp.status)
	assert.Equal(t, "CONFLICT", resp.errorCode(t))

	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/assign", manager, map[string]string{"technician_id": techID})
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))

	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/approvals/production", admin, nil)
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "on_hold", resp.data(t)["status"])
	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/approvals/maintenance", manager, nil)
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "open", resp.data(t)["status"])

	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/start", requester, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.status)
	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/start", tech, nil)
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))

	resp = s.do(nethttp.MethodPost, "/api/v1/work-orders/"+woID+"/complete", tech, map[string]any{
		"root_cause":   "worn roller",
		"action_taken": "replaced roller",
		"parts_used":   []map[string]any{{"part_id": part.ID, "quantity_used": 4}},
		"photos":       []map[string]any{{"storage_key": "photos/after.jpg", "file_name": "after.jpg"}},
	})
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))
	data := resp.data(t)
	assert.Equal(t, "completed", data["status"])
	assert.Len(t, data["parts"], 1)
	assert.Len(t, data["photos"], 1)

	resp = s.do(nethttp.MethodGet, "/api/v1/parts/"+part.ID+"/transactions", tech, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.status)
	resp = s.do(nethttp.MethodGet, "/api/v1/parts/"+part.ID+"/transactions", manager, nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	var ledger struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &ledger))
	require.Len(t, ledger.Data, 1)
	assert.EqualValues(t, 4, ledger.Data[0]["quantity_changed"])

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/resolve", manager, nil)
	require.Equal(t, nethttp.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "resolved", resp.data(t)["status"])

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/feedback", requester, map[string]any{"rating": 6})
	assert.Equal(t, nethttp.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/feedback", requester, map[string]any{"rating": 5, "comments": "great"})
	require.Equal(t, nethttp.StatusCreated, resp.status, string(resp.body))
	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/feedback", requester, map[string]any{"rating": 4})
	assert.Equal(t, nethttp.StatusConflict, resp.status)

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/close", manager, nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "closed", resp.data(t)["status"])

	resp = s.do(nethttp.MethodGet, "/api/v1/tickets/"+ticketID, requester, nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	detail := resp.data(t)
	assert.NotNil(t, detail["work_order"])
	assert.NotNil(t, detail["feedback"])

	resp = s.do(nethttp.MethodGet, "/api/v1/tickets/"+ticketID+"/history", requester, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.status)
	resp = s.do(nethttp.MethodGet, "/api/v1/tickets/"+ticketID+"/history", manager, nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	var history struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.body, &history))
	require.Len(t, history.Data, 3)
	assert.Equal(t, "closed", history.Data[2]["new_status"])
}

func TestResolveWithoutWorkOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, requester := s.login("req@example.com", domain.RoleRequester)
	_, manager := s.login("mgr@example.com", domain.RoleManager)

	resp := s.do(nethttp.MethodPost, "/api/v1/tickets", requester, map[string]any{"title": "Noise"})
	require.Equal(t, nethttp.StatusCreated, resp.status)
	ticketID := resp.data(t)["id"].(string)

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/resolve", manager, nil)
	assert.Equal(t, nethttp.StatusConflict, resp.status)
	assert.Equal(t, "INVALID_STATE", resp.errorCode(t))

	resp = s.do(nethttp.MethodPost, "/api/v1/tickets/"+ticketID+"/work-order", manager, nil)
	assert.Equal(t, nethttp.StatusPreconditionFailed, resp.status)
}

func TestValidationAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)
	_, manager := s.login("mgr@example.com", domain.RoleManager)

	resp := s.do(nethttp.MethodPost, "/api/v1/work-orders", manager, map[string]any{"title": "", "asset_id": "nope"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))

	resp = s.do(nethttp.MethodGet, "/api/v1/work-orders/unknown", manager, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.status)

	resp = s.do(nethttp.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode(t))
}
