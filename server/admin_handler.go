package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"dpstore/cache"
	"dpstore/core/account"
	"dpstore/core/validate"
	"dpstore/logger"
	"dpstore/model"
	"dpstore/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// CategoryRequest represents the admin category create/update body.
type CategoryRequest struct {
	ParentID    int64  `json:"parentId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsEnable    bool   `json:"isEnable"`
}

func (req *CategoryRequest) toModel() *model.Category {
	c := &model.Category{
		Title:       req.Title,
		Description: req.Description,
		IsEnable:    req.IsEnable,
	}
	if req.ParentID > 0 {
		c.ParentID = sql.NullInt64{Int64: req.ParentID, Valid: true}
	}
	return c
}

// AdminListCategoriesHandler returns every category including disabled ones.
func (h *APIHandler) AdminListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryRepo.ListAll(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// AdminCreateCategoryHandler creates a category.
func (h *APIHandler) AdminCreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Title is required")
		return
	}

	category := req.toModel()
	id, err := h.categoryRepo.Create(r.Context(), category)
	if err != nil {
		logger.Error("[Admin] failed to create category", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to create category")
		return
	}
	category.ID = id

	cache.InvalidateCategories(r.Context())
	writeJSON(w, http.StatusCreated, category)
}

// AdminUpdateCategoryHandler rewrites a category.
func (h *APIHandler) AdminUpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := req.toModel()
	category.ID = id
	if err := h.categoryRepo.Update(r.Context(), category); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Category not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	cache.InvalidateCategories(r.Context())
	writeJSON(w, http.StatusOK, category)
}

// AdminDeleteCategoryHandler deletes a category (children cascade).
func (h *APIHandler) AdminDeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	if err := h.categoryRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Category not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	cache.InvalidateCategories(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// ProductRequest represents the admin product create/update body.
type ProductRequest struct {
	Title       string  `json:"title"`
	IsEnable    bool    `json:"isEnable"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// AdminListProductsHandler returns every product including disabled ones.
func (h *APIHandler) AdminListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.ListAll(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// AdminCreateProductHandler creates a product with category links.
func (h *APIHandler) AdminCreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Title is required")
		return
	}

	product := &model.Product{Title: req.Title, IsEnable: req.IsEnable}
	id, err := h.productRepo.Create(r.Context(), product, req.CategoryIDs)
	if err != nil {
		logger.Error("[Admin] failed to create product", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	product.ID = id
	writeJSON(w, http.StatusCreated, product)
}

// AdminUpdateProductHandler rewrites a product and its category links.
func (h *APIHandler) AdminUpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := &model.Product{ID: id, Title: req.Title, IsEnable: req.IsEnable}
	if err := h.productRepo.Update(r.Context(), product, req.CategoryIDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Product not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// AdminDeleteProductHandler deletes a product; files cascade.
func (h *APIHandler) AdminDeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.productRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Product not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// AdminUploadFileHandler attaches an uploaded asset to a product.
// Expected multipart form fields: file (the binary), title, fileType
// (audio|video|document as 1|2|3).
func (h *APIHandler) AdminUploadFileHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := h.productRepo.GetByID(r.Context(), productID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if product == nil {
		writeErrorMsg(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB max memory
		writeErrorMsg(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Missing 'file' in form")
		return
	}
	defer upload.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	fileType := model.FileDocument
	if raw := r.FormValue("fileType"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || !model.FileType(parsed).Valid() {
			writeErrorMsg(w, http.StatusBadRequest, "fileType must be 1 (audio), 2 (video) or 3 (document)")
			return
		}
		fileType = model.FileType(parsed)
	}

	objectName := fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), filepath.Ext(header.Filename))
	key, err := h.uploadToStorage(r, objectName, upload, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("[Admin] file upload failed", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	file := &model.File{
		ProductID: productID,
		Title:     title,
		FileType:  fileType,
		FilePath:  key,
		IsEnable:  true,
	}
	id, err := h.productRepo.AddFile(r.Context(), file)
	if err != nil {
		logger.Error("[Admin] failed to save file row", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	file.ID = id
	writeJSON(w, http.StatusCreated, serializeFile(file))
}

// AdminDeleteFileHandler removes a file row.
func (h *APIHandler) AdminDeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	if err := h.productRepo.DeleteFile(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "File not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

// PackageRequest represents the admin package create/update body.
type PackageRequest struct {
	Title        string  `json:"title"`
	SKU          string  `json:"sku"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"durationDays"`
	IsEnable     bool    `json:"isEnable"`
}

func (req *PackageRequest) validate() error {
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if err := validate.SKU.Validate(req.SKU); err != nil {
		return err
	}
	if req.DurationDays <= 0 {
		return fmt.Errorf("durationDays must be positive")
	}
	return nil
}

// AdminListPackagesHandler returns every package including disabled ones.
func (h *APIHandler) AdminListPackagesHandler(w http.ResponseWriter, r *http.Request) {
	packages, err := h.packageRepo.ListAll(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to load packages")
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

// AdminCreatePackageHandler creates a subscription package.
func (h *APIHandler) AdminCreatePackageHandler(w http.ResponseWriter, r *http.Request) {
	var req PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pkg := &model.Package{
		Title:        req.Title,
		SKU:          req.SKU,
		Description:  req.Description,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		IsEnable:     req.IsEnable,
	}
	if err := h.packageRepo.Create(r.Context(), pkg); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			writeErrorMsg(w, http.StatusConflict, "A package with that SKU already exists")
			return
		}
		logger.Error("[Admin] failed to create package", logger.ErrorField(err))
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to create package")
		return
	}

	cache.InvalidatePackages(r.Context())
	writeJSON(w, http.StatusCreated, pkg)
}

// AdminUpdatePackageHandler rewrites a package.
func (h *APIHandler) AdminUpdatePackageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid package id")
		return
	}

	var req PackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	pkg := &model.Package{
		ID:           id,
		Title:        req.Title,
		SKU:          req.SKU,
		Description:  req.Description,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		IsEnable:     req.IsEnable,
	}
	if err := h.packageRepo.Update(r.Context(), pkg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Package not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to update package")
		return
	}

	cache.InvalidatePackages(r.Context())
	writeJSON(w, http.StatusOK, pkg)
}

// AdminDeletePackageHandler deletes a package.
func (h *APIHandler) AdminDeletePackageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid package id")
		return
	}

	if err := h.packageRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeErrorMsg(w, http.StatusNotFound, "Package not found")
			return
		}
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to delete package")
		return
	}

	cache.InvalidatePackages(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Package deleted"})
}

// AdminCreateUserRequest represents the privileged user creation body.
type AdminCreateUserRequest struct {
	RegisterRequest
	NoPassword bool `json:"noPassword"`
	Superuser  bool `json:"superuser"`
}

// AdminCreateUserHandler creates an account on behalf of an operator,
// optionally without a usable password or with staff/superuser flags.
func (h *APIHandler) AdminCreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
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

	params := account.CreateParams{
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NoPassword: req.NoPassword,
	}

	var user *model.User
	var err error
	if req.Superuser {
		user, err = h.accounts.CreateSuperuser(r.Context(), params)
	} else {
		user, err = h.accounts.CreateUser(r.Context(), params)
	}
	if err != nil {
		switch {
		case errors.Is(err, account.ErrUsernameRequired):
			writeErrorMsg(w, http.StatusBadRequest, "Username, email or phone is required")
		case errors.Is(err, repository.ErrDuplicateUser):
			writeErrorMsg(w, http.StatusConflict, "Username, email or phone already exists")
		default:
			logger.Error("[Admin] failed to create user", logger.ErrorField(err))
			writeErrorMsg(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, serializeUser(user))
}
