package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxActor  = "actor"
)

type BearerMiddleware struct {
	JWTSecret []byte
}

func NewBearerMiddleware(secret []byte) *BearerMiddleware {
	return &BearerMiddleware{JWTSecret: secret}
}

type ValidatorFunc func(a actor.Actor) error

func (m *BearerMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *BearerMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireRole(actor.RoleAdmin)(next)
}

func (m *BearerMiddleware) RequireRole(roles ...actor.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithValidator(next, func(a actor.Actor) error {
			if !slices.Contains(roles, a.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "role "+a.Role.String()+" is not allowed here")
			}
			return nil
		})
	}
}

func (m *BearerMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c.Request())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}
		role, err := actor.ParseRole(claims.Role)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has unknown role")
		}

		a := actor.Actor{ID: claims.Subject, Role: role}
		if validator != nil {
			if validationErr := validator(a); validationErr != nil {
				return validationErr
			}
		}

		setActorContext(c, a)
		return next(c)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func setActorContext(c echo.Context, a actor.Actor) {
	c.Set(CtxUserID, a.ID)
	c.Set(CtxRole, a.Role.String())
	c.Set(CtxActor, a)
	c.SetRequest(c.Request().WithContext(actor.IntoContext(c.Request().Context(), a)))
}

// ActorFrom returns the actor placed on the context by RequireAuth / RequireRole.
func ActorFrom(c echo.Context) (actor.Actor, bool) {
	a, ok := c.Get(CtxActor).(actor.Actor)
	return a, ok
}
