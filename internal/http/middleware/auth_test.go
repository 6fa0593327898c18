package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/procureflow/internal/auth"
	"github.com/nurpe/procureflow/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("test-secret-key", time.Hour)
	parser := auth.NewParser("test-secret-key")

	principal, _ := model.DemoPrincipal(model.RoleClient)
	token, _, err := issuer.Issue(principal)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer " + token,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid format",
			authHeader:     token,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/protected", Auth(parser), func(c *gin.Context) {
				got, ok := MustPrincipal(c)
				if !ok {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
					return
				}
				if got.UserID != principal.UserID || got.Role != principal.Role {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "wrong principal"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestMustPrincipalWithoutAuth(t *testing.T) {
	router := gin.New()
	router.GET("/open", func(c *gin.Context) {
		if _, ok := MustPrincipal(c); ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
