package server

import (
	"encoding/json"
	"net/http"
	"time"

	"dpstore/cache"
	"dpstore/core/validate"
	"dpstore/logger"
	"dpstore/model"
)

// GetPackagesHandler returns all enabled subscription packages. Public;
// the full set is returned on every call, Redis-cached.
func (h *APIHandler) GetPackagesHandler(w http.ResponseWriter, r *http.Request) {
	packages, err := cache.GetEnabledPackages(r.Context())
	if err != nil {
		logger.Warn("[Packages] cache read failed", logger.ErrorField(err))
	}

	if packages == nil {
		packages, err = h.packageRepo.ListEnabled(r.Context())
		if err != nil {
			logger.Error("[Packages] failed to list packages", logger.ErrorField(err))
			writeErrorMsg(w, http.StatusInternalServerError, "Failed to load packages")
			return
		}
		if err := cache.SetEnabledPackages(r.Context(), packages); err != nil {
			logger.Warn("[Packages] cache write failed", logger.ErrorField(err))
		}
	}

	if packages == nil {
		packages = []*model.Package{}
	}
	writeJSON(w, http.StatusOK, packages)
}

// GetMySubscriptionsHandler returns the caller's active (non-expired)
// subscriptions. Expiry is strict: expire_at must be after now.
func (h *APIHandler) GetMySubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	subs, err := h.subRepo.ListActiveByUser(r.Context(), userID, time.Now())
	if err != nil {
		logger.Error("[Subscriptions] failed to list subscriptions", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load subscriptions")
		return
	}

	if subs == nil {
		subs = []*model.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// PurchaseRequest represents the package purchase body.
type PurchaseRequest struct {
	PackageID  int64  `json:"packageId"`
	CardNumber string `json:"cardNumber"`
}

// PurchaseHandler buys a package for the caller: the card number is
// format-checked, and a subscription expiring durationDays from now is
// created. Payment capture itself is out of scope here.
func (h *APIHandler) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.BankCardNumber.Validate(req.CardNumber); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pkg, err := h.packageRepo.GetByID(r.Context(), req.PackageID)
	if err != nil {
		logger.Error("[Purchase] failed to load package", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load package")
		return
	}
	if pkg == nil || !pkg.IsEnable {
		writeErrorMsg(w, http.StatusNotFound, "Package not found")
		return
	}

	sub := &model.Subscription{
		UserID:    userID,
		PackageID: pkg.ID,
		ExpireAt:  time.Now().AddDate(0, 0, pkg.DurationDays),
	}
	if err := h.subRepo.Create(r.Context(), sub); err != nil {
		logger.Error("[Purchase] failed to create subscription", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to create subscription")
		return
	}
	sub.Package = *pkg

	logger.Info("[Purchase] subscription created",
		logger.Int64("userId", userID),
		logger.Int64("packageId", pkg.ID))
	writeJSON(w, http.StatusCreated, sub)
}
