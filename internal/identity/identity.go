// Package identity resolves the owner of a request from the API Gateway
// request context.
package identity

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

// Resolver extracts a stable caller identifier from a request context.
type Resolver interface {
	Resolve(rc events.APIGatewayProxyRequestContext) (string, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(rc events.APIGatewayProxyRequestContext) (string, bool)

// Resolve calls f(rc).
func (f ResolverFunc) Resolve(rc events.APIGatewayProxyRequestContext) (string, bool) {
	return f(rc)
}

// Chain tries each resolver in order and returns the first match.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(rc events.APIGatewayProxyRequestContext) (string, bool) {
	for _, r := range c {
		if id, ok := r.Resolve(rc); ok {
			return id, true
		}
	}
	return "", false
}

// Default resolves Cognito user-pool subjects first, then identity-pool ids.
func Default() Resolver {
	return Chain{UserPoolClaims(), IdentityPool()}
}

// UserPoolClaims reads the "sub" claim a Cognito user-pool authorizer puts
// under authorizer.claims.
func UserPoolClaims() Resolver {
	return ResolverFunc(func(rc events.APIGatewayProxyRequestContext) (string, bool) {
		if rc.Authorizer == nil {
			return "", false
		}
		var sub string
		switch claims := rc.Authorizer["claims"].(type) {
		case map[string]interface{}:
			sub, _ = claims["sub"].(string)
		case map[string]string:
			sub = claims["sub"]
		}
		return sub, sub != ""
	})
}

// IdentityPool reads the federated Cognito identity id.
func IdentityPool() Resolver {
	return ResolverFunc(func(rc events.APIGatewayProxyRequestContext) (string, bool) {
		id := rc.Identity.CognitoIdentityID
		return id, id != ""
	})
}

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying the resolved owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner stored by WithOwner.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

type requestContextKey struct{}

// WithRequestContext attaches an API Gateway request context to ctx. The
// standalone server uses it to present verified tokens the way API Gateway
// presents authorizer output.
func WithRequestContext(ctx context.Context, rc events.APIGatewayProxyRequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the context stored by WithRequestContext.
func RequestContextFrom(ctx context.Context) (events.APIGatewayProxyRequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(events.APIGatewayProxyRequestContext)
	return rc, ok
}
