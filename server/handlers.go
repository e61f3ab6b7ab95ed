package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"dpstore/config"
	"dpstore/core/account"
	"dpstore/core/mail"
	"dpstore/core/validate"
	"dpstore/logger"
	"dpstore/model"
	"dpstore/repository"
	"dpstore/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	accounts     *account.Manager
	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	deviceRepo   repository.DeviceRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	packageRepo  repository.PackageRepository
	subRepo      repository.SubscriptionRepository
	mailer       *mail.Mailer
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	accounts *account.Manager,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	deviceRepo repository.DeviceRepository,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	packageRepo repository.PackageRepository,
	subRepo repository.SubscriptionRepository,
	mailer *mail.Mailer,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		accounts:     accounts,
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		deviceRepo:   deviceRepo,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		packageRepo:  packageRepo,
		subRepo:      subRepo,
		mailer:       mailer,
		cfg:          cfg,
	}
}

// uploadToStorage streams an upload into object storage under the given key.
func (h *APIHandler) uploadToStorage(r *http.Request, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	return storage.UploadObject(r.Context(), objectName, reader, size, contentType)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

// writeError writes a JSON error body. Validation errors keep their
// stable code alongside the message.
func writeError(w http.ResponseWriter, status int, err error) {
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]string{"code": verr.Code, "error": verr.Message})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUsernameFromContext extracts the username from the request context.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value("username").(string)
	if !ok {
		return "", fmt.Errorf("username not found in context")
	}
	return username, nil
}

// IsStaffFromContext reports whether the authenticated caller is staff.
func IsStaffFromContext(ctx context.Context) bool {
	isStaff, ok := ctx.Value("isStaff").(bool)
	return ok && isStaff
}

// Response shapes. Category, file and product payloads are fixed formats.

func serializeCategory(c *model.Category) map[string]interface{} {
	out := map[string]interface{}{
		"title":       c.Title,
		"description": c.Description,
	}
	if c.Avatar.Valid {
		out["avatar"] = c.Avatar.String
	} else {
		out["avatar"] = nil
	}
	return out
}

func serializeFile(f *model.File) map[string]interface{} {
	return map[string]interface{}{
		"id":        f.ID,
		"title":     f.Title,
		"file":      f.FilePath,
		"file_type": f.FileType.String(),
	}
}

func serializeProduct(p *model.Product) map[string]interface{} {
	categories := make([]map[string]interface{}, 0, len(p.Categories))
	for i := range p.Categories {
		categories = append(categories, serializeCategory(&p.Categories[i]))
	}
	files := make([]map[string]interface{}, 0, len(p.Files))
	for i := range p.Files {
		files = append(files, serializeFile(&p.Files[i]))
	}
	return map[string]interface{}{
		"id":         p.ID,
		"title":      p.Title,
		"categories": categories,
		"files":      files,
		"created_at": p.CreatedAt,
	}
}

// serializeUser builds the public account payload; optional identity
// fields appear only when present.
func serializeUser(u *model.User) map[string]interface{} {
	out := map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"isStaff":    u.IsStaff,
		"isActive":   u.IsActive,
		"dateJoined": u.DateJoined,
	}
	if u.FirstName != "" {
		out["firstName"] = u.FirstName
	}
	if u.LastName != "" {
		out["lastName"] = u.LastName
	}
	if u.Email.Valid {
		out["email"] = u.Email.String
	}
	if u.Phone.Valid {
		out["phone"] = u.Phone.String
	}
	return out
}
