package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"dpstore/logger"
	"dpstore/model"

	"github.com/google/uuid"
)

// ProfileRequest represents the profile update body.
type ProfileRequest struct {
	NickName   string `json:"nickName"`
	Birthday   string `json:"birthday"` // YYYY-MM-DD, empty clears
	ProvinceID int64  `json:"provinceId"`
}

// GetProfileHandler returns the caller's profile.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		logger.Error("[Profile] failed to load profile", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if profile == nil {
		profile = &model.UserProfile{UserID: userID}
	}

	out := map[string]interface{}{
		"user":     serializeUser(user),
		"nickName": profile.DisplayName(user),
	}
	if profile.Birthday.Valid {
		out["birthday"] = profile.Birthday.Time.Format("2006-01-02")
	}
	if profile.Avatar.Valid {
		out["avatar"] = profile.Avatar.String
	}
	if profile.ProvinceID.Valid {
		out["provinceId"] = profile.ProvinceID.Int64
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateProfileHandler upserts the caller's profile.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := h.profileRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	profile := &model.UserProfile{UserID: userID, NickName: req.NickName}
	if existing != nil {
		profile.Avatar = existing.Avatar // avatar changes go through the upload endpoint
	}
	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "Birthday must be YYYY-MM-DD")
			return
		}
		profile.Birthday = sql.NullTime{Time: birthday, Valid: true}
	}
	if req.ProvinceID > 0 {
		profile.ProvinceID = sql.NullInt64{Int64: req.ProvinceID, Valid: true}
	}

	if err := h.profileRepo.Upsert(r.Context(), profile); err != nil {
		logger.Error("[Profile] failed to upsert profile", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile saved"})
}

// UploadAvatarHandler stores a profile avatar in object storage and saves
// its key on the profile.
func (h *APIHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil { // 8MB max memory
		writeErrorMsg(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	avatarFile, header, err := r.FormFile("avatar")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Missing 'avatar' in form")
		return
	}
	defer avatarFile.Close()

	objectName := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), filepath.Ext(header.Filename))
	key, err := h.uploadToStorage(r, objectName, avatarFile, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("[Avatar] upload failed", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	profile, err := h.profileRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if profile == nil {
		profile = &model.UserProfile{UserID: userID}
	}
	profile.Avatar = sql.NullString{String: key, Valid: true}

	if err := h.profileRepo.Upsert(r.Context(), profile); err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar": key})
}

// RegisterDeviceHandler records or refreshes a device of the caller.
func (h *APIHandler) RegisterDeviceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		DeviceUUID  string `json:"deviceUuid"`
		DeviceType  int    `json:"deviceType"`
		DeviceOS    string `json:"deviceOs"`
		DeviceModel string `json:"deviceModel"`
		AppVersion  string `json:"appVersion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DeviceUUID == "" {
		req.DeviceUUID = uuid.NewString()
	} else if _, err := uuid.Parse(req.DeviceUUID); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "deviceUuid must be a valid UUID")
		return
	}

	deviceType := model.DeviceType(req.DeviceType)
	if !deviceType.Valid() {
		deviceType = model.DeviceWeb
	}

	device := &model.Device{
		UserID:      userID,
		DeviceUUID:  sql.NullString{String: req.DeviceUUID, Valid: true},
		LastLogin:   sql.NullTime{Time: time.Now(), Valid: true},
		DeviceType:  deviceType,
		DeviceOS:    req.DeviceOS,
		DeviceModel: req.DeviceModel,
		AppVersion:  req.AppVersion,
	}
	if err := h.deviceRepo.Upsert(r.Context(), device); err != nil {
		logger.Error("[Device] failed to upsert device", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to save device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deviceUuid": req.DeviceUUID})
}

// ListDevicesHandler returns the caller's device records.
func (h *APIHandler) ListDevicesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	devices, err := h.deviceRepo.ListByUser(r.Context(), userID)
	if err != nil {
		logger.Error("[Device] failed to list devices", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load devices")
		return
	}

	out := make([]map[string]interface{}, 0, len(devices))
	for _, d := range devices {
		item := map[string]interface{}{
			"id":          d.ID,
			"deviceType":  d.DeviceType.String(),
			"deviceOs":    d.DeviceOS,
			"deviceModel": d.DeviceModel,
			"appVersion":  d.AppVersion,
			"createdAt":   d.CreatedAt,
		}
		if d.DeviceUUID.Valid {
			item["deviceUuid"] = d.DeviceUUID.String
		}
		if d.LastLogin.Valid {
			item["lastLogin"] = d.LastLogin.Time
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListProvincesHandler returns all valid provinces.
func (h *APIHandler) ListProvincesHandler(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.profileRepo.ListValidProvinces(r.Context())
	if err != nil {
		logger.Error("[Province] failed to list provinces", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load provinces")
		return
	}
	if provinces == nil {
		provinces = []*model.Province{}
	}
	writeJSON(w, http.StatusOK, provinces)
}
