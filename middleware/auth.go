package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/config"
)

// Context keys populated by EnsureValidToken and read by controllers
const (
	ctxKeyUserID      = "user_id"
	ctxKeyAccessToken = "access_token"
	ctxKeyClaims      = "validated_claims"
)

// CustomClaims carries the non-registered claims the API cares about. Role
// arrives under a namespaced claim because Auth0 strips un-namespaced custom
// claims from access tokens.
type CustomClaims struct {
	Scope string `json:"scope"`
	Role  string `json:"https://bodyshop/role"`
}

// Validate satisfies validator.CustomClaims; the claims carry no values that
// need checking beyond what the validator already did
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope reports whether the space-separated scope claim contains the
// given scope exactly
func (c CustomClaims) HasScope(expected string) bool {
	for _, s := range strings.Split(c.Scope, " ") {
		if s == expected {
			return true
		}
	}
	return false
}

// AuthError is a context-extraction failure with a machine-readable code
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

const unauthorizedBody = `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`

// EnsureValidToken validates the bearer token against the Auth0 tenant's
// JWKS and stashes the subject, raw token and claims in the gin context.
// Requests without a valid RS256 token get a 401 envelope and never reach
// the handler.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		log.Fatalf("invalid Auth0 domain %q: %v", cfg.Auth0Domain, err)
	}

	keyProvider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		keyProvider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatalf("failed to build JWT validator: %v", err)
	}

	checker := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("JWT validation failed: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if _, writeErr := w.Write([]byte(unauthorizedBody)); writeErr != nil {
				log.Printf("failed to write 401 response: %v", writeErr)
			}
		}),
	)

	return func(c *gin.Context) {
		onValid := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			c.Set(ctxKeyUserID, claims.RegisteredClaims.Subject)
			c.Set(ctxKeyClaims, claims)

			// The raw bearer token is needed again for userinfo lookups
			if raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				c.Set(ctxKeyAccessToken, raw)
			}

			c.Next()
		})
		checker.CheckJWT(onValid).ServeHTTP(c.Writer, c.Request)
	}
}

// GetUserID returns the authenticated Auth0 subject from the gin context
func GetUserID(c *gin.Context) (string, error) {
	v, exists := c.Get(ctxKeyUserID)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}
	id, ok := v.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}
	return id, nil
}

// GetAccessToken returns the raw bearer token from the gin context
func GetAccessToken(c *gin.Context) (string, error) {
	v, exists := c.Get(ctxKeyAccessToken)
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}
	token, ok := v.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}
	return token, nil
}

// GetClaims returns the validated JWT claims from the gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	v, exists := c.Get(ctxKeyClaims)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}
	claims, ok := v.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}
	return claims, nil
}

// RequireScope rejects requests whose token lacks the given scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "MISSING_CLAIMS", "message": "Could not retrieve token claims"},
			})
			c.Abort()
			return
		}

		if custom, ok := claims.CustomClaims.(*CustomClaims); !ok || !custom.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "INSUFFICIENT_SCOPE", "message": "Insufficient permissions to access this resource"},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
