package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pixpointrepo/marcom-backend/utils"
)

func TestMain(m *testing.M) {
	// Config is loaded lazily on first token operation and requires a secret.
	os.Setenv("JWT_SECRET", "middleware-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func adminRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AdminRequired(), func(ctx *gin.Context) {
		role, _ := ctx.Get(ContextRoleKey)
		username, _ := ctx.Get(ContextUsernameKey)
		ctx.JSON(http.StatusOK, gin.H{"role": role, "username": username})
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRequiredNoToken(t *testing.T) {
	w := doRequest(t, adminRouter(), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminRequiredMalformedToken(t *testing.T) {
	w := doRequest(t, adminRouter(), "not.a.jwt")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAdminRequiredExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(1, "admin", "admin", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := doRequest(t, adminRouter(), token)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAdminRequiredWrongRole(t *testing.T) {
	token, err := utils.GenerateToken(2, "editor", "editor", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := doRequest(t, adminRouter(), token)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAdminRequiredValidAdmin(t *testing.T) {
	token, err := utils.GenerateToken(3, "boss", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := doRequest(t, adminRouter(), token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"role":"admin"`) || !strings.Contains(body, `"username":"boss"`) {
		t.Errorf("claims not attached to context, body = %s", body)
	}
}

func TestAuthRequiredAttachesClaims(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(), func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"id": id})
	})

	token, err := utils.GenerateToken(42, "viewer", "viewer", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"id":42`) {
		t.Errorf("user id missing from context, body = %s", w.Body.String())
	}
}
