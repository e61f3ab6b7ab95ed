package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dpstore/config"
	"dpstore/core/auth"
	"dpstore/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductRepo serves products and files from memory.
type fakeProductRepo struct {
	products []*model.Product
	files    []*model.File
}

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product, categoryIDs []int64) (int64, error) {
	product.ID = int64(len(r.products) + 1)
	r.products = append(r.products, product)
	return product.ID, nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) ListEnabled(ctx context.Context, categoryID int64) ([]*model.Product, error) {
	var out []*model.Product
	for _, p := range r.products {
		if p.IsEnable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	return r.products, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *model.Product, categoryIDs []int64) error {
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *fakeProductRepo) AddFile(ctx context.Context, file *model.File) (int64, error) {
	file.ID = int64(len(r.files) + 1)
	r.files = append(r.files, file)
	return file.ID, nil
}

func (r *fakeProductRepo) GetFileByID(ctx context.Context, id int64) (*model.File, error) {
	for _, f := range r.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) DeleteFile(ctx context.Context, id int64) error { return nil }

// fakeCategoryRepo serves categories from memory.
type fakeCategoryRepo struct {
	categories []*model.Category
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *model.Category) (int64, error) {
	category.ID = int64(len(r.categories) + 1)
	r.categories = append(r.categories, category)
	return category.ID, nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) ListEnabled(ctx context.Context) ([]*model.Category, error) {
	var out []*model.Category
	for _, c := range r.categories {
		if c.IsEnable {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) ListAll(ctx context.Context) ([]*model.Category, error) {
	return r.categories, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *model.Category) error { return nil }
func (r *fakeCategoryRepo) Delete(ctx context.Context, id int64) error                 { return nil }

func newCatalogRouter(t *testing.T, productRepo *fakeProductRepo, subRepo *fakeSubRepo) http.Handler {
	t.Helper()
	auth.Init("test-secret", time.Hour)
	h := NewAPIHandler(nil, nil, nil, nil, nil, productRepo, nil, subRepo, nil, &config.Config{})
	return NewRouter(h)
}

func TestGetCategoriesPayloadShape(t *testing.T) {
	categoryRepo := &fakeCategoryRepo{categories: []*model.Category{
		{ID: 1, Title: "Books", Description: "Printed things", IsEnable: true},
		{ID: 2, ParentID: sql.NullInt64{Int64: 1, Valid: true}, Title: "Novels", IsEnable: true},
		{ID: 3, Title: "Hidden", IsEnable: false},
	}}
	auth.Init("test-secret", time.Hour)
	h := NewAPIHandler(nil, nil, nil, nil, categoryRepo, nil, nil, nil, nil, &config.Config{})
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)

	root := got[0]
	assert.Equal(t, "Books", root["title"])
	assert.Equal(t, "Printed things", root["description"])
	assert.Contains(t, root, "avatar")
	assert.Contains(t, root, "id")
	// Internal columns never reach the public listing.
	for _, key := range []string{"isEnable", "createdAt", "updatedAt"} {
		assert.NotContains(t, root, key)
	}

	child := got[1]
	assert.Equal(t, float64(1), child["parentId"])
	assert.NotContains(t, root, "parentId")
}

func TestGetProductDisabledIsNotFound(t *testing.T) {
	productRepo := &fakeProductRepo{products: []*model.Product{
		{ID: 1, Title: "Retired Course", IsEnable: false},
		{ID: 2, Title: "Live Course", IsEnable: true},
	}}
	router := newCatalogRouter(t, productRepo, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/products/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/products/2", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Live Course", got["title"])
}

func TestListProductsExcludesDisabled(t *testing.T) {
	productRepo := &fakeProductRepo{products: []*model.Product{
		{ID: 1, Title: "Retired Course", IsEnable: false},
		{ID: 2, Title: "Live Course", IsEnable: true},
	}}
	router := newCatalogRouter(t, productRepo, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Live Course", got[0]["title"])
}

func TestDownloadFileRequiresAuth(t *testing.T) {
	router := newCatalogRouter(t, &fakeProductRepo{}, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/files/1/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDownloadFileRequiresActiveSubscription(t *testing.T) {
	productRepo := &fakeProductRepo{files: []*model.File{
		{ID: 1, ProductID: 2, Title: "Lesson 1", FilePath: "products/2/lesson1.mp3", FileType: model.FileAudio, IsEnable: true},
	}}
	subRepo := &fakeSubRepo{subs: []*model.Subscription{
		{ID: 1, UserID: 7, PackageID: 1, ExpireAt: time.Now().Add(-time.Hour)},
	}}
	router := newCatalogRouter(t, productRepo, subRepo)

	// Only an expired subscription on record: the download is refused.
	req := httptest.NewRequest(http.MethodGet, "/api/files/1/download", nil)
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
