package api_test

import (
	"alcyxob/gym-tracker/internal/api"
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/repository/memory"
	"alcyxob/gym-tracker/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithDocuments(t, nil)
}

// newTestServerWithDocuments serves tracker documents from docs, or from the
// in-memory store when docs is nil.
func newTestServerWithDocuments(t *testing.T, docs repository.DocumentRepository) *testServer {
	t.Helper()

	store := memory.NewStore()
	if docs == nil {
		docs = store.Documents()
	}
	auth := service.NewAuthService(store.Users(), "test-secret", time.Hour)
	users := service.NewUserService(store.Users())
	catalog := service.NewCatalogService(store.Catalog(), nil)
	tracker := service.NewTrackerService(docs, catalog, users, metrics.NewTestManager(), service.TrackerOptions{
		Dwell: time.Hour,
	})
	t.Cleanup(tracker.Close)

	require.NoError(t, auth.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword))

	router := gin.New()
	api.SetupRoutes(router, api.Services{
		Auth:    auth,
		Users:   users,
		Catalog: catalog,
		Tracker: tracker,
	})
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, email, password string) (string, api.UserResponse) {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token, resp.User
}

func (s *testServer) signUp(t *testing.T, email string) (string, api.UserResponse) {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Lifter",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return s.login(t, email, "password123")
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) api.SnapshotResponse {
	t.Helper()
	var snap api.SnapshotResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap), rr.Body.String())
	return snap
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	token, user := s.signUp(t, "Lifter@Example.com")
	assert.Equal(t, "lifter@example.com", user.Email)
	assert.Equal(t, "user", string(user.Role))

	rr := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Again", "email": "lifter@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Bad", "email": "not-an-email", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "lifter@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me api.UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, user.ID, me.ID)
	assert.Zero(t, me.Stats.TotalWorkouts)

	rr = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAuthMiddleware_RejectsMissingOrBadToken(t *testing.T) {
	s := newTestServer(t)

	for name, header := range map[string]string{
		"missing":    "",
		"bad-scheme": "Token abc",
		"garbage":    "Bearer abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/api/v1/tracker", nil)
			require.NoError(t, err)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestAdminRoutes_ForbiddenForUsers(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "user@example.com")

	rr := s.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/admin/catalog", token, gin.H{"name": "Squat"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTrackerFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "user@example.com")

	rr := s.do(t, http.MethodGet, "/api/v1/tracker", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decodeSnapshot(t, rr)
	assert.Empty(t, snap.Document.Days)
	assert.Equal(t, service.ViewDays, snap.Navigation.View)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	dayID := decodeSnapshot(t, rr).CreatedID
	require.NotEmpty(t, dayID)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days/"+dayID+"/series", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	seriesID := decodeSnapshot(t, rr).CreatedID

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/series/"+seriesID+"/exercises", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	exerciseID := decodeSnapshot(t, rr).CreatedID

	rr = s.do(t, http.MethodPatch, "/api/v1/tracker/series/"+seriesID, token, gin.H{"rounds": 2, "name": "Legs"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/nav/series/"+seriesID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, service.ViewSeries, snap.Navigation.View)
	assert.Equal(t, seriesID, snap.Navigation.SeriesID)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/exercises/"+exerciseID+"/rounds", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 50, decodeSnapshot(t, rr).ProgressPercent)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/exercises/"+exerciseID+"/rounds", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, rr)
	assert.Equal(t, 100, snap.ProgressPercent)
	assert.True(t, snap.Celebrating)
	ex, ok := snap.Document.ExerciseByID(exerciseID)
	require.True(t, ok)
	assert.True(t, ex.Completed)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/exercises/"+exerciseID+"/rating", token, gin.H{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/exercises/"+exerciseID+"/rating", token, gin.H{"rating": 4})
	require.Equal(t, http.StatusOK, rr.Code)
	ex, _ = decodeSnapshot(t, rr).Document.ExerciseByID(exerciseID)
	require.NotNil(t, ex.Rating)
	assert.Equal(t, 4, *ex.Rating)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/nav/back", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.ViewDay, decodeSnapshot(t, rr).Navigation.View)

	// A new session reloads the persisted document.
	rr = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/tracker", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap = decodeSnapshot(t, rr)
	require.Len(t, snap.Document.Days, 1)
	series, ok := snap.Document.SeriesByID(seriesID)
	require.True(t, ok)
	assert.Equal(t, "Legs", series.Name)
	assert.Equal(t, 1.0, series.Progress)
}

// unreachableDocuments fails reads while down is set.
type unreachableDocuments struct {
	repository.DocumentRepository
	down atomic.Bool
}

func (r *unreachableDocuments) Get(ctx context.Context, key string) (*domain.Document, error) {
	if r.down.Load() {
		return nil, errors.New("server selection error: context deadline exceeded")
	}
	return r.DocumentRepository.Get(ctx, key)
}

func TestTrackerFlow_StorageUnavailable(t *testing.T) {
	docs := &unreachableDocuments{DocumentRepository: memory.NewStore().Documents()}
	s := newTestServerWithDocuments(t, docs)
	token, _ := s.signUp(t, "user@example.com")

	rr := s.do(t, http.MethodPost, "/api/v1/tracker/days", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	token, _ = s.login(t, "user@example.com", "password123")

	docs.down.Store(true)
	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/tracker", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	docs.down.Store(false)
	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, decodeSnapshot(t, rr).Document.Days, 2)
}

func TestTrackerFlow_UnknownIDs(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signUp(t, "user@example.com")

	for name, req := range map[string]struct {
		method string
		path   string
		body   any
	}{
		"record-round":   {http.MethodPost, "/api/v1/tracker/exercises/nope/rounds", nil},
		"update-day":     {http.MethodPatch, "/api/v1/tracker/days/nope", gin.H{"name": "x"}},
		"delete-day":     {http.MethodDelete, "/api/v1/tracker/days/nope", nil},
		"add-series":     {http.MethodPost, "/api/v1/tracker/days/nope/series", nil},
		"reset-series":   {http.MethodPost, "/api/v1/tracker/series/nope/reset", nil},
		"add-exercise":   {http.MethodPost, "/api/v1/tracker/series/nope/exercises", nil},
		"open-day":       {http.MethodPost, "/api/v1/tracker/nav/days/nope", nil},
		"open-series":    {http.MethodPost, "/api/v1/tracker/nav/series/nope", nil},
		"missing-rating": {http.MethodPost, "/api/v1/tracker/exercises/nope/rating", gin.H{"rating": 3}},
	} {
		t.Run(name, func(t *testing.T) {
			rr := s.do(t, req.method, req.path, token, req.body)
			assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
		})
	}
}

func TestTrackerFlow_UsersAreIsolated(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signUp(t, "alice@example.com")
	bob, _ := s.signUp(t, "bob@example.com")

	rr := s.do(t, http.MethodPost, "/api/v1/tracker/days", alice, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	dayID := decodeSnapshot(t, rr).CreatedID

	rr = s.do(t, http.MethodGet, "/api/v1/tracker", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeSnapshot(t, rr).Document.Days)

	rr = s.do(t, http.MethodDelete, "/api/v1/tracker/days/"+dayID, bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalog_AdminManagesTemplates(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, adminEmail, adminPassword)

	rr := s.do(t, http.MethodPost, "/api/v1/admin/catalog", admin, gin.H{
		"name":        "Squat",
		"muscleGroup": "Legs",
		"difficulty":  "beginner",
		"videoUrl":    "https://videos.example.com/squat.mp4",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var squat api.TemplateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &squat))

	rr = s.do(t, http.MethodPost, "/api/v1/admin/catalog", admin, gin.H{"name": "Plank", "difficulty": "legendary"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	user, _ := s.signUp(t, "user@example.com")

	rr = s.do(t, http.MethodGet, "/api/v1/catalog?muscleGroup=Legs", user, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []api.TemplateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Squat", listed[0].Name)

	rr = s.do(t, http.MethodGet, "/api/v1/catalog/not-an-id", user, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/catalog/"+primitive.NewObjectID().Hex(), user, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// The user's workspace opens after the template exists, so its catalog has it.
	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days", user, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	dayID := decodeSnapshot(t, rr).CreatedID
	rr = s.do(t, http.MethodPost, "/api/v1/tracker/days/"+dayID+"/series", user, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	seriesID := decodeSnapshot(t, rr).CreatedID

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/series/"+seriesID+"/exercises", user, gin.H{"templateId": squat.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	snap := decodeSnapshot(t, rr)
	ex, ok := snap.Document.ExerciseByID(snap.CreatedID)
	require.True(t, ok)
	assert.Equal(t, "Squat", ex.Name)
	assert.Equal(t, "https://videos.example.com/squat.mp4", ex.VideoURL)

	rr = s.do(t, http.MethodPost, "/api/v1/tracker/series/"+seriesID+"/exercises", user, gin.H{"templateId": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/admin/catalog/"+squat.ID, admin, gin.H{"name": "Back Squat", "muscleGroup": "Legs"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/admin/catalog/"+squat.ID+"/media", admin, gin.H{
		"fileName": "squat.mp4", "contentType": "video/mp4",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = s.do(t, http.MethodDelete, "/api/v1/admin/catalog/"+squat.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodDelete, "/api/v1/admin/catalog/"+squat.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdmin_SetRole(t *testing.T) {
	s := newTestServer(t)
	admin, adminUser := s.login(t, adminEmail, adminPassword)
	_, user := s.signUp(t, "user@example.com")

	rr := s.do(t, http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []api.UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	rr = s.do(t, http.MethodPut, "/api/v1/admin/users/"+user.ID+"/role", admin, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, rr.Code)
	var promoted api.UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &promoted))
	assert.Equal(t, "admin", string(promoted.Role))

	rr = s.do(t, http.MethodPut, "/api/v1/admin/users/"+adminUser.ID+"/role", admin, gin.H{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/admin/users/"+user.ID+"/role", admin, gin.H{"role": "trainer"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/admin/users/bad-id/role", admin, gin.H{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/admin/users/"+primitive.NewObjectID().Hex()+"/role", admin, gin.H{"role": "user"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
