package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"dpstore/cache"
	"dpstore/logger"
	"dpstore/storage"

	"github.com/gorilla/mux"
)

// GetCategoriesHandler returns all enabled categories, Redis-cached.
func (h *APIHandler) GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := cache.GetEnabledCategories(r.Context())
	if err != nil {
		logger.Warn("[Catalog] category cache read failed", logger.ErrorField(err))
	}

	if categories == nil {
		categories, err = h.categoryRepo.ListEnabled(r.Context())
		if err != nil {
			logger.Error("[Catalog] failed to list categories", logger.ErrorField(err))
			writeErrorMsg(w, http.StatusInternalServerError, "Failed to load categories")
			return
		}
		if err := cache.SetEnabledCategories(r.Context(), categories); err != nil {
			logger.Warn("[Catalog] category cache write failed", logger.ErrorField(err))
		}
	}

	// Fixed payload shape; internal columns stay out of the listing.
	out := make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		item := serializeCategory(c)
		item["id"] = c.ID
		if c.ParentID.Valid {
			item["parentId"] = c.ParentID.Int64
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProductsHandler returns enabled products, optionally filtered by
// ?category=<id>.
func (h *APIHandler) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "category must be an integer")
			return
		}
		categoryID = parsed
	}

	products, err := h.productRepo.ListEnabled(r.Context(), categoryID)
	if err != nil {
		logger.Error("[Catalog] failed to list products", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	out := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		out = append(out, serializeProduct(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProductHandler returns one product with its enabled files.
func (h *APIHandler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.productRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("[Catalog] failed to load product", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if product == nil || !product.IsEnable {
		writeErrorMsg(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, serializeProduct(product))
}

// DownloadFileHandler streams a product file from object storage. The
// caller must be authenticated and hold an active subscription.
func (h *APIHandler) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	subs, err := h.subRepo.ListActiveByUser(r.Context(), userID, time.Now())
	if err != nil {
		logger.Error("[Download] failed to check entitlements", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to check subscription")
		return
	}
	if len(subs) == 0 {
		writeErrorMsg(w, http.StatusForbidden, "An active subscription is required to download files")
		return
	}

	file, err := h.productRepo.GetFileByID(r.Context(), id)
	if err != nil {
		logger.Error("[Download] failed to load file", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load file")
		return
	}
	if file == nil || !file.IsEnable {
		writeErrorMsg(w, http.StatusNotFound, "File not found")
		return
	}

	object, err := storage.GetObject(r.Context(), file.FilePath)
	if err != nil {
		logger.Error("[Download] failed to open object", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to open file")
		return
	}
	defer object.Close()

	stat, err := object.Stat()
	if err != nil {
		writeErrorMsg(w, http.StatusNotFound, "File not found in storage")
		return
	}

	if stat.ContentType != "" {
		w.Header().Set("Content-Type", stat.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size, 10))

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("[Download] stream interrupted", logger.ErrorField(err))
	}
}
