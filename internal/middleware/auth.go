package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/audit"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Identity is the authenticated caller extracted from the bearer token.
type Identity struct {
	UserID string
	Roles  []model.Role
}

func (id *Identity) HasRole(role model.Role) bool {
	for _, r := range id.Roles {
		if r == role || r == model.RoleSuperadmin {
			return true
		}
	}
	return false
}

func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return id
	}
	return nil
}

type authClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HS256 bearer tokens and places the caller's
// Identity in the request context.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r)
		if tokenString == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			log.Warn().Err(err).Msg("auth middleware: invalid token attempt")
			audit.LogFromRequest(r, audit.Event{Type: audit.EventAuthFailure})
			writeError(w, apperrors.Unauthorized("Invalid token"))
			return
		}

		roles := make([]model.Role, 0, len(claims.Roles))
		for _, role := range claims.Roles {
			roles = append(roles, model.Role(role))
		}

		identity := &Identity{UserID: claims.Subject, Roles: roles}
		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route subtree to callers holding the given role.
// Superadmins pass every role check.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				writeError(w, apperrors.Unauthorized("Authentication required"))
				return
			}
			if !identity.HasRole(role) {
				log.Warn().
					Str("userId", identity.UserID).
					Str("requiredRole", string(role)).
					Msg("role check failed")
				writeError(w, apperrors.RoleMissing(string(role)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
