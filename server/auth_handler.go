package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dpstore/core/account"
	"dpstore/core/auth"
	"dpstore/core/validate"
	"dpstore/logger"
	"dpstore/model"
	"dpstore/repository"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest represents the login request body. Device fields are
// optional; when present the device record is registered on login.
type LoginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`

	DeviceUUID  string `json:"deviceUuid"`
	DeviceType  int    `json:"deviceType"`
	DeviceOS    string `json:"deviceOs"`
	DeviceModel string `json:"deviceModel"`
	AppVersion  string `json:"appVersion"`
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username != "" {
		if err := validate.Username.Validate(req.Username); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Phone != "" {
		if err := validate.PhoneNumber.Validate(req.Phone); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Email != "" {
		if err := validate.Email.Validate(req.Email); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	user, err := h.accounts.CreateUser(r.Context(), account.CreateParams{
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrUsernameRequired):
			writeErrorMsg(w, http.StatusBadRequest, "Username, email or phone is required")
		case errors.Is(err, repository.ErrDuplicateUser):
			logger.Warn("[Register] duplicate identity",
				logger.String("username", req.Username),
				logger.String("email", req.Email))
			writeErrorMsg(w, http.StatusConflict, "Username, email or phone already exists")
		default:
			logger.Error("[Register] failed to create user", logger.ErrorField(err))
			writeErrorMsg(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	if h.mailer != nil && user.Email.Valid {
		// Best-effort; registration does not wait on the mail server.
		go func(to, username string) {
			if err := h.mailer.SendWelcome(to, username); err != nil {
				logger.Warn("[Register] welcome mail failed", logger.ErrorField(err))
			}
		}(user.Email.String, user.Username)
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.IsStaff)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("[Register] user created", logger.Int64("userId", user.ID), logger.String("username", user.Username))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  serializeUser(user),
	})
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Username/Email and password are required")
		return
	}

	// Username or email login.
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(r.Context(), req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(r.Context(), req.Username)
	}
	if err != nil {
		logger.Error("[Login] failed to query user", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !user.IsActive {
		logger.Warn("[Login] unknown or inactive user", logger.String("username", req.Username))
		writeErrorMsg(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("[Login] password mismatch", logger.String("username", req.Username))
		writeErrorMsg(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	now := time.Now()
	if err := h.userRepo.UpdateLastSeen(r.Context(), user.ID, now); err != nil {
		logger.Warn("[Login] failed to update last_seen", logger.ErrorField(err))
	}

	if req.DeviceUUID != "" {
		device := &model.Device{
			UserID:      user.ID,
			DeviceUUID:  sql.NullString{String: req.DeviceUUID, Valid: true},
			LastLogin:   sql.NullTime{Time: now, Valid: true},
			DeviceType:  model.DeviceType(req.DeviceType),
			DeviceOS:    req.DeviceOS,
			DeviceModel: req.DeviceModel,
			AppVersion:  req.AppVersion,
		}
		if !device.DeviceType.Valid() {
			device.DeviceType = model.DeviceWeb
		}
		if err := h.deviceRepo.Upsert(r.Context(), device); err != nil {
			logger.Warn("[Login] failed to record device", logger.ErrorField(err))
		}
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.IsStaff)
	if err != nil {
		logger.Error("[Login] failed to generate token", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] login ok", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  serializeUser(user),
	})
}

// AuthMiddleware checks for a valid JWT token and stores the caller's
// identity in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeErrorMsg(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeErrorMsg(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			writeErrorMsg(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		ctx = context.WithValue(ctx, "isStaff", claims.IsStaff)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// StaffMiddleware rejects callers whose token does not carry the staff
// flag. Must run inside AuthMiddleware.
func (h *APIHandler) StaffMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsStaffFromContext(r.Context()) {
			writeErrorMsg(w, http.StatusForbidden, "Staff access required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
