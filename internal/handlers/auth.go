package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/auth"
	"github.com/ukydev/fueltrack/internal/db"
	"github.com/ukydev/fueltrack/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	logger         logrus.FieldLogger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		logger:         logger,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(r, &loginReq); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if errors.Is(err, models.ErrNotFound) {
		writeFailure(w, r, h.logger, auth.ErrInvalidCredentials)
		return
	}
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if !user.IsActive {
		writeFailure(w, r, h.logger, auth.ErrUserInactive)
		return
	}
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeFailure(w, r, h.logger, auth.ErrInvalidCredentials)
		return
	}

	response, err := h.issueTokens(user)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID.Hex()).Warn("failed to update last login")
	}

	writeJSON(w, http.StatusOK, response)
}

// Register creates an account. Emails listed in ADMIN_EMAILS receive the admin role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeJSON(r, &registerReq); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	for _, validate := range []func() error{
		func() error { return h.authService.ValidateUsername(registerReq.Username) },
		func() error { return h.authService.ValidateEmail(registerReq.Email) },
		func() error { return h.authService.ValidatePassword(registerReq.Password) },
	} {
		if err := validate(); err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
	}

	if taken, err := h.exists(r, h.userCollection.FindUserByUsername, registerReq.Username); err != nil || taken {
		h.rejectTaken(w, r, err, "username already exists")
		return
	}
	if taken, err := h.exists(r, h.userCollection.FindUserByEmail, registerReq.Email); err != nil || taken {
		h.rejectTaken(w, r, err, "email already exists")
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         h.authService.RoleFor(registerReq.Email),
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			writeError(w, http.StatusConflict, "username or email already exists")
			return
		}
		writeFailure(w, r, h.logger, err)
		return
	}

	response, err := h.issueTokens(&user)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("user registered")
	writeJSON(w, http.StatusCreated, response)
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var updateReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := decodeJSON(r, &updateReq); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.Email != "" && updateReq.Email != user.Email {
		if err := h.authService.ValidateEmail(updateReq.Email); err != nil {
			writeFailure(w, r, h.logger, err)
			return
		}
		existing, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existing.ID.Hex() != claims.UserID {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			writeFailure(w, r, h.logger, err)
			return
		}
		user.Email = updateReq.Email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := currentUser(w, r)
	if !ok {
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &passwordReq); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current password and new password are required")
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeFailure(w, r, h.logger, models.Unauthorized("current password is incorrect"))
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *AuthHandler) issueTokens(user *models.User) (models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, User: *user}, nil
}

// exists reports whether find locates a user by key. ErrNotFound is not an error here.
func (h *AuthHandler) exists(r *http.Request, find func(ctx context.Context, key string) (*models.User, error), key string) (bool, error) {
	_, err := find(r.Context(), key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, models.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (h *AuthHandler) rejectTaken(w http.ResponseWriter, r *http.Request, err error, message string) {
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeError(w, http.StatusConflict, message)
}
