package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/binge/internal/logger"
)

const userIDKey = "user_id"

// requestLogger logs every request through the shared logger
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("remote", c.RealIP()),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Error("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}

// bearerToken extracts the session token from the Authorization header
func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == "" || token == auth || token == "" {
		return "", false
	}
	return token, true
}

// authMiddleware checks for a valid session token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c)
		if !ok {
			return errorJSON(c, http.StatusUnauthorized, "authorization required")
		}

		var userID string
		var expiresAt time.Time
		err := s.db.QueryRowContext(c.Request().Context(),
			`SELECT user_id, expires_at FROM sessions WHERE token = $1`, token,
		).Scan(&userID, &expiresAt)
		if errors.Is(err, sql.ErrNoRows) {
			return errorJSON(c, http.StatusUnauthorized, "invalid token")
		}
		if err != nil {
			logger.Error("Session lookup failed", logger.F("error", err))
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}

		if time.Now().After(expiresAt) {
			return errorJSON(c, http.StatusUnauthorized, "token expired")
		}

		c.Set(userIDKey, userID)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
