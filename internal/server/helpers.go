package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minato/internal/middleware"
	"minato/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// respondServiceError maps the error taxonomy onto HTTP statuses.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "request error", "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// viewerID returns the resolved viewer, or "" for anonymous requests.
func viewerID(c *fiber.Ctx) string {
	if vid, ok := c.Locals("viewerID").(string); ok {
		return vid
	}
	return ""
}

// generateToken creates a signed JWT of the given type for the user.
func (s *Server) generateToken(userID, username, tokenType string, ttl time.Duration) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"typ":      tokenType,
		"iss":      "minato-api",
		"aud":      "minato-client",
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      fmt.Sprintf("%d-%s", now.Unix(), uuid.NewString()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// parseToken validates a signed token and returns its claims.
func (s *Server) parseToken(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if iss, ok := claims["iss"].(string); !ok || iss != "minato-api" {
		return nil, fmt.Errorf("invalid token issuer")
	}
	if aud, ok := claims["aud"].(string); !ok || aud != "minato-client" {
		return nil, fmt.Errorf("invalid token audience")
	}
	if typ, ok := claims["typ"].(string); !ok || typ != wantType {
		return nil, fmt.Errorf("unexpected token type")
	}
	if sub, ok := claims["sub"].(string); !ok || sub == "" {
		return nil, fmt.Errorf("invalid subject claim")
	}
	return claims, nil
}

// setAuthCookies writes the access and refresh cookies for the user.
func (s *Server) setAuthCookies(c *fiber.Ctx, userID, username string) error {
	access, err := s.generateToken(userID, username, "access", accessTokenTTL)
	if err != nil {
		return err
	}
	refresh, err := s.generateToken(userID, username, "refresh", refreshTokenTTL)
	if err != nil {
		return err
	}

	secure := s.config.Env == "production" || s.config.Env == "prod"
	c.Cookie(&fiber.Cookie{
		Name:     s.config.AccessTokenName,
		Value:    access,
		Expires:  time.Now().Add(accessTokenTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     s.config.RefreshTokenName,
		Value:    refresh,
		Expires:  time.Now().Add(refreshTokenTTL),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		Path:     "/api/auth",
	})
	return nil
}

func (s *Server) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: s.config.AccessTokenName, Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: s.config.RefreshTokenName, Value: "", Expires: expired, HTTPOnly: true, Path: "/api/auth"})
}

// ViewerResolver resolves the viewer from the access cookie on every request.
// A missing or invalid cookie degrades to an anonymous viewer rather than an
// error; enforcement is AuthRequired's job.
func (s *Server) ViewerResolver() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(s.config.AccessTokenName)
		if cookie == "" {
			return c.Next()
		}
		claims, err := s.parseToken(cookie, "access")
		if err != nil {
			return c.Next()
		}
		sub := claims["sub"].(string)
		c.Locals("viewerID", sub)
		ctx := context.WithValue(c.UserContext(), middleware.ViewerIDKey, sub)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AuthRequired rejects requests whose viewer could not be resolved.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if viewerID(c) == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		return c.Next()
	}
}
