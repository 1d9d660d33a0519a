package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCustomClaims_HasScope(t *testing.T) {
	tests := []struct {
		name          string
		scope         string
		expectedScope string
		want          bool
	}{
		{
			name:          "has exact scope",
			scope:         "transition:repair-orders",
			expectedScope: "transition:repair-orders",
			want:          true,
		},
		{
			name:          "has scope in multiple scopes",
			scope:         "read:repair-orders transition:repair-orders delete:repair-orders",
			expectedScope: "transition:repair-orders",
			want:          true,
		},
		{
			name:          "does not have scope",
			scope:         "read:repair-orders",
			expectedScope: "transition:repair-orders",
			want:          false,
		},
		{
			name:          "empty scope",
			scope:         "",
			expectedScope: "read:repair-orders",
			want:          false,
		},
		{
			name:          "partial match should not work",
			scope:         "read:repair-orders",
			expectedScope: "read",
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Scope: tt.scope}
			got := claims.HasScope(tt.expectedScope)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "auth0|123456")
			},
			wantID:  "auth0|123456",
			wantErr: false,
		},
		{
			name:      "user ID not found in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name: "user ID is not a string",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", 12345)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.setupFunc(c)

			got, err := GetUserID(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, got)
			}
		})
	}
}

func TestGetAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, err := GetAccessToken(c)
	assert.Error(t, err, "Missing token should error")

	c.Set("access_token", "tok_abc")
	token, err := GetAccessToken(c)
	assert.NoError(t, err)
	assert.Equal(t, "tok_abc", token)
}

func TestGetClaims_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, err := GetClaims(c)
	assert.Error(t, err, "Missing claims should error")

	authErr, ok := err.(*AuthError)
	assert.True(t, ok, "Error should be an AuthError")
	assert.Equal(t, "MISSING_CLAIMS", authErr.Code)
}
