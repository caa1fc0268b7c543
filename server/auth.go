package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/binge/internal/logger"
)

const (
	sessionTTL        = 30 * 24 * time.Hour
	minPasswordLength = 8
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validate returns a message describing what is wrong with the request, or ""
func (r registerRequest) validate() string {
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return "username, email, and password required"
	}
	if !strings.Contains(r.Email, "@") {
		return "invalid email"
	}
	if len(r.Password) < minPasswordLength {
		return "password must be at least 8 characters"
	}
	return ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    string `json:"user_id"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if msg := req.validate(); msg != "" {
		return errorJSON(c, http.StatusBadRequest, msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("bcrypt failed", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	ctx := c.Request().Context()
	var userID string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		req.Username, req.Email, string(hash),
	).Scan(&userID)
	if err != nil {
		if strings.Contains(err.Error(), "unique") {
			return errorJSON(c, http.StatusConflict, "username or email already exists")
		}
		logger.Error("Failed to create user", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("User registered", logger.F("username", req.Username))
	return s.respondWithSession(c, userID)
}

// handleLogin handles user login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	var userID, passwordHash string
	err := s.db.QueryRowContext(c.Request().Context(),
		`SELECT id, password_hash FROM users WHERE username = $1`, req.Username,
	).Scan(&userID, &passwordHash)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}

	logger.Info("User logged in", logger.F("username", req.Username))
	return s.respondWithSession(c, userID)
}

// handleLogout ends the current session
func (s *Server) handleLogout(c echo.Context) error {
	token, _ := bearerToken(c)
	if _, err := s.db.ExecContext(c.Request().Context(), `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		logger.Error("Failed to delete session", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// handleMe returns current user info
func (s *Server) handleMe(c echo.Context) error {
	userID := currentUser(c)

	var username, email string
	err := s.db.QueryRowContext(c.Request().Context(),
		`SELECT username, email FROM users WHERE id = $1`, userID,
	).Scan(&username, &email)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, "user not found")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"id":       userID,
		"username": username,
		"email":    email,
	})
}

func (s *Server) respondWithSession(c echo.Context, userID string) error {
	token, expiresAt, err := s.createSession(c.Request().Context(), userID)
	if err != nil {
		logger.Error("Failed to create session", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		UserID:    userID,
	})
}

// createSession stores a random 32-byte token for a user
func (s *Server) createSession(ctx context.Context, userID string) (string, time.Time, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", time.Time{}, err
	}
	token := hex.EncodeToString(tokenBytes)
	expiresAt := time.Now().Add(sessionTTL)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	return token, expiresAt, err
}
