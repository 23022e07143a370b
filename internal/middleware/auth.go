package middleware

import (
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/identity"
	"github.com/RedDeadth/Typeimp-Repository/internal/service"
	"github.com/RedDeadth/Typeimp-Repository/pkg/api"
	"github.com/RedDeadth/Typeimp-Repository/pkg/auth"
)

// Identity resolves the request owner and stores it with identity.WithOwner.
// The request context comes from the Lambda proxy adapter, or from
// BearerAuth when running standalone. Requests without an owner are rejected
// with 401 before any handler runs.
func Identity(resolver identity.Resolver, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := core.GetAPIGatewayContextFromContext(r.Context())
			if !ok {
				rc, ok = identity.RequestContextFrom(r.Context())
			}
			if !ok {
				logger.Warn("Request has no API Gateway context", zap.String("path", r.URL.Path))
				api.Error(w, http.StatusUnauthorized, service.MsgUnauthorized)
				return
			}

			owner, ok := resolver.Resolve(rc)
			if !ok {
				api.Error(w, http.StatusUnauthorized, service.MsgUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), owner)))
		})
	}
}

// BearerAuth verifies the Authorization header and exposes the token subject
// as Cognito user-pool claims, the shape API Gateway hands to Lambda.
func BearerAuth(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				api.Error(w, http.StatusUnauthorized, service.MsgUnauthorized)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				api.Error(w, http.StatusUnauthorized, service.MsgUnauthorized)
				return
			}

			rc := events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{
					"claims": map[string]interface{}{
						"sub":   claims.Subject,
						"email": claims.Email,
					},
				},
			}
			next.ServeHTTP(w, r.WithContext(identity.WithRequestContext(r.Context(), rc)))
		})
	}
}
