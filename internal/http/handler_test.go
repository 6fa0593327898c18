package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/procureflow/internal/auth"
	"github.com/nurpe/procureflow/internal/config"
	"github.com/nurpe/procureflow/internal/excel"
	"github.com/nurpe/procureflow/internal/http/middleware"
	"github.com/nurpe/procureflow/internal/logger"
	"github.com/nurpe/procureflow/internal/model"
	"github.com/nurpe/procureflow/internal/pdf"
	"github.com/nurpe/procureflow/internal/repository"
	"github.com/nurpe/procureflow/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		Environment: "development",
		Auth:        config.AuthConfig{AccessSecret: "test-secret", TokenTTL: time.Hour},
		Procurement: config.ProcurementConfig{AllowedCurrencies: []string{"USD"}},
	}

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		t.Fatalf("failed to init pdf generator: %v", err)
	}

	procurement := service.NewProcurementService(repository.NewMemoryStore(), excel.NewGenerator(), pdfGenerator, cfg)
	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.TokenTTL)
	parser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := NewHandler(procurement, issuer, logger.New("test"))

	return NewRouter(handler, middleware.Auth(parser), cfg.Environment)
}

func impersonate(t *testing.T, router *gin.Engine, role string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"role": role})
	req := httptest.NewRequest("POST", "/auth/impersonate", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("impersonate %s failed with status %d: %s", role, w.Code, w.Body.String())
	}

	var response struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse impersonate response: %v", err)
	}
	if response.AccessToken == "" {
		t.Fatal("expected access_token in response")
	}
	return response.AccessToken
}

func doForm(router *gin.Engine, method, path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImpersonateUnknownRole(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, "POST", "/auth/impersonate", "", map[string]string{"role": "hacker"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestRequirementsRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/requirements", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestCreateRequirement(t *testing.T) {
	router := newTestRouter(t)
	clientToken := impersonate(t, router, "client")
	aeToken := impersonate(t, router, "ae")

	tests := []struct {
		name           string
		token          string
		form           url.Values
		expectedStatus int
	}{
		{
			name:           "hardware ok",
			token:          clientToken,
			form:           url.Values{"type": {"hardware"}, "details": {`{"name":"Laptops","quantity":3}`}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "software needs subtype",
			token:          clientToken,
			form:           url.Values{"type": {"software"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "software with subtype",
			token:          clientToken,
			form:           url.Values{"type": {"software"}, "subtype": {"new"}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad details payload",
			token:          clientToken,
			form:           url.Values{"type": {"hardware"}, "details": {"not-json"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ae forbidden",
			token:          aeToken,
			form:           url.Values{"type": {"hardware"}},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doForm(router, "POST", "/requirements", tt.token, tt.form)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestWorkflowEndToEnd(t *testing.T) {
	router := newTestRouter(t)
	clientToken := impersonate(t, router, "client")
	aeToken := impersonate(t, router, "ae")
	verifierToken := impersonate(t, router, "verifier")

	// client creates a hardware requirement
	w := doForm(router, "POST", "/requirements", clientToken, url.Values{
		"type":    {"hardware"},
		"details": {`{"name":"Rack servers","quantity":4}`},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create requirement failed: %d %s", w.Code, w.Body.String())
	}
	var created model.Requirement
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse requirement: %v", err)
	}

	// ae sends the estimate
	w = doJSON(router, "POST", "/estimates", aeToken, map[string]any{
		"requirement_id": created.ID.String(),
		"amount":         999,
		"currency":       "USD",
		"breakdown":      map[string]any{"items": []map[string]any{{"label": "Item", "amount": 999}}},
		"notes":          "Auto-estimate",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit estimate failed: %d %s", w.Code, w.Body.String())
	}

	// client accepts
	w = doJSON(router, "POST", "/requirements/"+created.ID.String()+"/client-action", clientToken, map[string]string{"action": "good_to_go"})
	if w.Code != http.StatusOK {
		t.Fatalf("client action failed: %d %s", w.Code, w.Body.String())
	}
	var updated model.Requirement
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to parse requirement: %v", err)
	}
	if updated.Status != model.StatusClientGoodToGo {
		t.Fatalf("expected status client_good_to_go, got %s", updated.Status)
	}

	// client submits the PO
	w = doForm(router, "POST", "/requirements/"+created.ID.String()+"/po", clientToken, url.Values{"po_number": {"PO-1"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit po failed: %d %s", w.Code, w.Body.String())
	}
	var po model.PurchaseOrder
	if err := json.Unmarshal(w.Body.Bytes(), &po); err != nil {
		t.Fatalf("failed to parse po: %v", err)
	}

	// verifier sees it pending
	w = doJSON(router, "GET", "/pos?status=pending_verification", verifierToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list pos failed: %d %s", w.Code, w.Body.String())
	}
	var pending []model.PurchaseOrder
	if err := json.Unmarshal(w.Body.Bytes(), &pending); err != nil {
		t.Fatalf("failed to parse pos: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending po, got %d", len(pending))
	}

	// client may not review
	w = doJSON(router, "POST", "/pos/"+po.ID.String()+"/review", clientToken, map[string]string{"decision": "verified"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client review, got %d", w.Code)
	}

	// verifier approves
	w = doJSON(router, "POST", "/pos/"+po.ID.String()+"/review", verifierToken, map[string]string{"decision": "verified"})
	if w.Code != http.StatusOK {
		t.Fatalf("review failed: %d %s", w.Code, w.Body.String())
	}
	var reviewed model.PurchaseOrder
	if err := json.Unmarshal(w.Body.Bytes(), &reviewed); err != nil {
		t.Fatalf("failed to parse reviewed po: %v", err)
	}
	if reviewed.Status != model.POStatusVerified {
		t.Fatalf("expected po verified, got %s", reviewed.Status)
	}

	// a second review conflicts
	w = doJSON(router, "POST", "/pos/"+po.ID.String()+"/review", verifierToken, map[string]string{"decision": "rejected"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for repeat review, got %d", w.Code)
	}

	// client downloads the PO document
	w = doJSON(router, "GET", "/pos/"+po.ID.String()+"/document", clientToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("po document failed: %d", w.Code)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected pdf payload")
	}
}

func TestSeedSamplesAndExport(t *testing.T) {
	router := newTestRouter(t)
	aeToken := impersonate(t, router, "ae")

	w := doJSON(router, "POST", "/debug/seed-samples", aeToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("seed failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "POST", "/requirements/export", aeToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", w.Code, w.Body.String())
	}
	if disposition := w.Header().Get("Content-Disposition"); !strings.Contains(disposition, "requirements-register-") {
		t.Errorf("unexpected content disposition %q", disposition)
	}

	clientToken := impersonate(t, router, "client")
	w = doJSON(router, "POST", "/requirements/export", clientToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for client export, got %d", w.Code)
	}
}
