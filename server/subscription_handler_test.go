package server

import (
	"bytes"
	"context"
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

// fakePackageRepo serves packages from memory.
type fakePackageRepo struct {
	packages []*model.Package
}

func (r *fakePackageRepo) Create(ctx context.Context, pkg *model.Package) error {
	pkg.ID = int64(len(r.packages) + 1)
	r.packages = append(r.packages, pkg)
	return nil
}

func (r *fakePackageRepo) GetByID(ctx context.Context, id int64) (*model.Package, error) {
	for _, p := range r.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePackageRepo) ListEnabled(ctx context.Context) ([]*model.Package, error) {
	var out []*model.Package
	for _, p := range r.packages {
		if p.IsEnable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePackageRepo) ListAll(ctx context.Context) ([]*model.Package, error) {
	return r.packages, nil
}

func (r *fakePackageRepo) Update(ctx context.Context, pkg *model.Package) error { return nil }
func (r *fakePackageRepo) Delete(ctx context.Context, id int64) error           { return nil }

// fakeSubRepo filters by expiry the same way the real repository's
// query does.
type fakeSubRepo struct {
	subs []*model.Subscription
}

func (r *fakeSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	sub.ID = int64(len(r.subs) + 1)
	r.subs = append(r.subs, sub)
	return nil
}

func (r *fakeSubRepo) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]*model.Subscription, error) {
	var out []*model.Subscription
	for _, s := range r.subs {
		if s.UserID == userID && s.ExpireAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T, pkgRepo *fakePackageRepo, subRepo *fakeSubRepo) http.Handler {
	t.Helper()
	auth.Init("test-secret", time.Hour)
	h := NewAPIHandler(nil, nil, nil, nil, nil, nil, pkgRepo, subRepo, nil, &config.Config{})
	return NewRouter(h)
}

func bearerToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "tester", false)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGetPackagesOnlyEnabled(t *testing.T) {
	pkgRepo := &fakePackageRepo{packages: []*model.Package{
		{ID: 1, Title: "Monthly", SKU: "plan_m1", Price: 9.9, DurationDays: 30, IsEnable: true},
		{ID: 2, Title: "Legacy", SKU: "plan_old", Price: 5, DurationDays: 30, IsEnable: false},
	}}
	router := newTestRouter(t, pkgRepo, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/subs/packages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*model.Package
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "plan_m1", got[0].SKU)
}

func TestGetMySubscriptionsRequiresAuth(t *testing.T) {
	router := newTestRouter(t, &fakePackageRepo{}, &fakeSubRepo{})

	// No Authorization header: the caller gets a rejection, never an
	// empty list.
	req := httptest.NewRequest(http.MethodGet, "/api/subs/mine", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "[]")
}

func TestGetMySubscriptionsFiltersExpired(t *testing.T) {
	now := time.Now()
	subRepo := &fakeSubRepo{subs: []*model.Subscription{
		{ID: 1, UserID: 7, PackageID: 1, ExpireAt: now.Add(-time.Hour)},
		{ID: 2, UserID: 7, PackageID: 1, ExpireAt: now.Add(24 * time.Hour)},
		{ID: 3, UserID: 8, PackageID: 1, ExpireAt: now.Add(24 * time.Hour)},
	}}
	router := newTestRouter(t, &fakePackageRepo{}, subRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/subs/mine", nil)
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []*model.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestGetMySubscriptionsEmptyIsList(t *testing.T) {
	router := newTestRouter(t, &fakePackageRepo{}, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/subs/mine", nil)
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestPurchaseRejectsBadCard(t *testing.T) {
	pkgRepo := &fakePackageRepo{packages: []*model.Package{
		{ID: 1, Title: "Monthly", SKU: "plan_m1", DurationDays: 30, IsEnable: true},
	}}
	router := newTestRouter(t, pkgRepo, &fakeSubRepo{})

	body, _ := json.Marshal(PurchaseRequest{PackageID: 1, CardNumber: "1234"})
	req := httptest.NewRequest(http.MethodPost, "/api/subs/purchase", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_bank_card_number")
}

func TestPurchaseCreatesSubscription(t *testing.T) {
	pkgRepo := &fakePackageRepo{packages: []*model.Package{
		{ID: 1, Title: "Monthly", SKU: "plan_m1", DurationDays: 30, IsEnable: true},
	}}
	subRepo := &fakeSubRepo{}
	router := newTestRouter(t, pkgRepo, subRepo)

	body, _ := json.Marshal(PurchaseRequest{PackageID: 1, CardNumber: "6037991234567890"})
	req := httptest.NewRequest(http.MethodPost, "/api/subs/purchase", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, subRepo.subs, 1)

	sub := subRepo.subs[0]
	assert.Equal(t, int64(7), sub.UserID)
	assert.Equal(t, int64(1), sub.PackageID)

	wantExpiry := time.Now().AddDate(0, 0, 30)
	assert.WithinDuration(t, wantExpiry, sub.ExpireAt, time.Minute)
}

func TestPurchaseDisabledPackageNotFound(t *testing.T) {
	pkgRepo := &fakePackageRepo{packages: []*model.Package{
		{ID: 1, Title: "Legacy", SKU: "plan_old", DurationDays: 30, IsEnable: false},
	}}
	router := newTestRouter(t, pkgRepo, &fakeSubRepo{})

	body, _ := json.Marshal(PurchaseRequest{PackageID: 1, CardNumber: "6037991234567890"})
	req := httptest.NewRequest(http.MethodPost, "/api/subs/purchase", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
