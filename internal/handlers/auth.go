package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/board-service/backend/internal/errors"
	"github.com/anonto42/board-service/backend/internal/models"
	"github.com/anonto42/board-service/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   TokenVerifier
	jwtSecret      string
	jwtExpiry      time.Duration
	logger         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in which
// case Firebase login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth TokenVerifier, jwtSecret string, jwtExpiry time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, limit ...echo.MiddlewareFunc) {
	g.POST("/register", h.Register, limit...)
	g.POST("/login", h.Login, limit...)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin, limit...)
	}
}

// Register creates a local account with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("Failed to hash password", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			return errors.Conflict("User already exists")
		}
		return errors.Internal("Failed to create user", err)
	}
	h.logger.Info("user registered", "user_id", user.ID)

	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login authenticates a local account with email and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return errors.Unauthorized("Invalid credentials")
		}
		return errors.Internal("Database error", err)
	}

	// Firebase-only accounts have no password to compare against.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return errors.Unauthorized("Invalid credentials")
	}

	if err := h.touchLastLogin(ctx, user); err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		h.logger.Debug("firebase token rejected", "error", err)
		return errors.Unauthorized("Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return errors.Validation("Firebase account has no email address")
	}
	email = strings.ToLower(email)
	name, _ := token.Claims["name"].(string)

	user, err := h.findOrCreateFirebaseUser(ctx, token.UID, email, name)
	if err != nil {
		return err
	}

	if err := h.touchLastLogin(ctx, user); err != nil {
		return err
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

// findOrCreateFirebaseUser looks the user up by Firebase UID, then by email
// (linking the UID to the existing account), and creates one as a last resort.
func (h *AuthHandler) findOrCreateFirebaseUser(ctx context.Context, uid, email, name string) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, errors.Internal("Database error", err)
	}

	user, err = h.userRepository.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.FirebaseUID = &uid
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return nil, errors.Internal("Failed to update user with Firebase UID", err)
		}
		h.logger.Info("linked firebase account", "user_id", user.ID)
		return user, nil
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, errors.Internal("Database error", err)
	}

	base := usernameFrom(name, email)
	user = &models.User{Username: base, Email: email, FirebaseUID: &uid}
	err = h.userRepository.CreateUser(ctx, user)
	if errors.Is(err, repositories.ErrUserExists) {
		// The display name is taken; disambiguate with the start of the UID.
		suffix := usernameFrom(uid, "")
		if len(suffix) > 6 {
			suffix = suffix[:6]
		}
		user.Username = base + suffix
		err = h.userRepository.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, errors.Internal("Failed to create user", err)
	}
	h.logger.Info("user registered via firebase", "user_id", user.ID)
	return user, nil
}

func (h *AuthHandler) touchLastLogin(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.generateJWT(user)
	if err != nil {
		return errors.Internal("Failed to generate token", err)
	}
	return c.JSON(status, models.AuthResponse{Token: token, User: user})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// usernameFrom derives a username from a display name, falling back to the
// local part of the email address.
func usernameFrom(name, email string) string {
	candidate := nonAlphanumeric.ReplaceAllString(name, "")
	if len(candidate) < 3 {
		local, _, _ := strings.Cut(email, "@")
		candidate = nonAlphanumeric.ReplaceAllString(local, "")
	}
	if len(candidate) < 3 {
		candidate = "user" + candidate
	}
	if len(candidate) > 24 {
		candidate = candidate[:24]
	}
	return candidate
}
