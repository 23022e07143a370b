package identity

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestDefaultResolver(t *testing.T) {
	tests := []struct {
		name   string
		rc     events.APIGatewayProxyRequestContext
		want   string
		wantOK bool
	}{
		{
			name: "user pool claims",
			rc: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{
					"claims": map[string]interface{}{"sub": "user-123", "email": "a@b.c"},
				},
			},
			want:   "user-123",
			wantOK: true,
		},
		{
			name: "string claims map",
			rc: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{
					"claims": map[string]string{"sub": "user-456"},
				},
			},
			want:   "user-456",
			wantOK: true,
		},
		{
			name: "claims win over identity pool",
			rc: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{
					"claims": map[string]interface{}{"sub": "user-123"},
				},
				Identity: events.APIGatewayRequestIdentity{CognitoIdentityID: "us-east-2:abc"},
			},
			want:   "user-123",
			wantOK: true,
		},
		{
			name: "identity pool fallback",
			rc: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{"claims": map[string]interface{}{}},
				Identity:   events.APIGatewayRequestIdentity{CognitoIdentityID: "us-east-2:abc"},
			},
			want:   "us-east-2:abc",
			wantOK: true,
		},
		{
			name: "empty sub is ignored",
			rc: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{"claims": map[string]interface{}{"sub": ""}},
			},
		},
		{
			name: "nothing",
			rc:   events.APIGatewayProxyRequestContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Default().Resolve(tt.rc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChainOrder(t *testing.T) {
	var calls []string
	stub := func(name, id string) Resolver {
		return ResolverFunc(func(events.APIGatewayProxyRequestContext) (string, bool) {
			calls = append(calls, name)
			return id, id != ""
		})
	}

	id, ok := Chain{stub("a", ""), stub("b", "bee"), stub("c", "sea")}.Resolve(events.APIGatewayProxyRequestContext{})
	assert.True(t, ok)
	assert.Equal(t, "bee", id)
	assert.Equal(t, []string{"a", "b"}, calls)

	_, ok = Chain{}.Resolve(events.APIGatewayProxyRequestContext{})
	assert.False(t, ok)
}

func TestOwnerContext(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	owner, ok := OwnerFromContext(WithOwner(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", owner)

	_, ok = OwnerFromContext(WithOwner(context.Background(), ""))
	assert.False(t, ok)
}

func TestRequestContext(t *testing.T) {
	_, ok := RequestContextFrom(context.Background())
	assert.False(t, ok)

	rc := events.APIGatewayProxyRequestContext{RequestID: "req-1"}
	got, ok := RequestContextFrom(WithRequestContext(context.Background(), rc))
	assert.True(t, ok)
	assert.Equal(t, "req-1", got.RequestID)
}
