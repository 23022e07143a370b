package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RedDeadth/Typeimp-Repository/internal/identity"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
	"github.com/RedDeadth/Typeimp-Repository/pkg/auth"
)

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, _ := identity.OwnerFromContext(r.Context())
		_, _ = w.Write([]byte(owner))
	})
}

func TestIdentity(t *testing.T) {
	handler := Identity(identity.Default(), zap.NewNop())(ownerEcho())

	t.Run("NoRequestContext", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized: User ID not found."}`, rec.Body.String())
	})

	t.Run("Unresolvable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req = req.WithContext(identity.WithRequestContext(req.Context(), events.APIGatewayProxyRequestContext{}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("IdentityPool", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req = req.WithContext(identity.WithRequestContext(req.Context(), events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{CognitoIdentityID: "us-east-2:abc"},
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "us-east-2:abc", rec.Body.String())
	})
}

func TestBearerAuth(t *testing.T) {
	validator, err := auth.NewJWTValidator("secret", "notes-backend")
	require.NoError(t, err)
	handler := BearerAuth(validator, zap.NewNop())(Identity(identity.Default(), zap.NewNop())(ownerEcho()))

	token, err := validator.Issue("user-42", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "user-42"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "user-42"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	m := observability.NewMetrics("test")
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes/abc", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/notes/{id}", "404")))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusTeapot), entries[0].ContextMap()["status"])
	assert.Equal(t, "/health", entries[0].ContextMap()["path"])
}
