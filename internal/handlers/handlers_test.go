package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/internal/store"
	"github.com/noob2628/Inventory-App/types"
)

type memUsers struct {
	mu    sync.Mutex
	users []types.User
}

func (m *memUsers) find(match func(types.User) bool) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	return m.find(func(u types.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	return m.find(func(u types.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Username == username })
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = len(m.users) + 1
	m.users = append(m.users, user)
	return user, nil
}

func (m *memUsers) UpdateRole(_ context.Context, email string, role types.Role) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if strings.EqualFold(m.users[i].Email, email) {
			m.users[i].Role = role
			return m.users[i], nil
		}
	}
	return types.User{}, store.ErrNotFound
}

type memInventory struct {
	mu      sync.Mutex
	records map[int]types.InventoryRecord
	nextID  int
}

func newMemInventory() *memInventory {
	return &memInventory{records: make(map[int]types.InventoryRecord), nextID: 1}
}

func (m *memInventory) List(_ context.Context, q types.InventoryQuery) ([]types.InventoryRecord, int, error) {
	all, _ := m.All(context.Background())
	var matched []types.InventoryRecord
	for _, r := range all {
		if q.Search == "" || (r.ItemCode != nil && strings.Contains(strings.ToLower(*r.ItemCode), strings.ToLower(q.Search))) {
			matched = append(matched, r)
		}
	}
	total := len(matched)
	if q.Offset >= total {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func (m *memInventory) All(context.Context) ([]types.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.InventoryRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memInventory) Get(_ context.Context, id int) (types.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return types.InventoryRecord{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memInventory) Create(_ context.Context, r types.InventoryRecord) (types.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	r.CreatedAt = types.NewTimestamp(time.Now())
	r.UpdatedAt = r.CreatedAt
	m.records[r.ID] = r
	return r, nil
}

func (m *memInventory) Update(_ context.Context, id int, fields []types.FieldUpdate) (types.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return types.InventoryRecord{}, store.ErrNotFound
	}
	for _, f := range fields {
		switch f.Column {
		case "color":
			r.Color = nil
			if f.Value != nil {
				v := f.Value.(string)
				r.Color = &v
			}
		case "qty":
			r.Qty = f.Value.(types.Quantity)
		case "item_description":
			r.ItemDescription = f.Value.(string)
		case "refill_status":
			r.RefillStatus = types.RefillStatus(f.Value.(string))
		case "date_of_refill":
			r.DateOfRefill = types.NewDate(f.Value.(time.Time))
		case "refill_by":
			r.RefillBy = f.Value.(string)
		case "edited_by":
			v := f.Value.(int)
			r.EditedBy = &v
		case "updated_at":
			r.UpdatedAt = types.NewTimestamp(f.Value.(time.Time))
		}
	}
	m.records[id] = r
	return r, nil
}

func (m *memInventory) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memInventory) Summary(context.Context) (types.InventorySummary, error) {
	all, _ := m.All(context.Background())
	summary := types.InventorySummary{Total: len(all), TotalQty: types.QuantityFromInt(0), ByRefillStatus: map[string]int{}}
	for _, r := range all {
		summary.ByRefillStatus[string(r.RefillStatus)]++
	}
	return summary, nil
}

type testEnv struct {
	router    *chi.Mux
	tokens    *auth.TokenManager
	users     *memUsers
	inventory *memInventory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := &memUsers{}
	inventory := newMemInventory()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	userService := services.NewUserService(users)
	inventoryService := services.NewInventoryService(inventory, services.InventoryServiceConfig{})
	exportService := services.NewExportService(inventory, nil, "", nil)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, tokens, nil)
	})
	router.Route("/inventory", func(r chi.Router) {
		InventoryRouter(r, inventoryService, exportService, tokens, nil)
	})

	return &testEnv{router: router, tokens: tokens, users: users, inventory: inventory}
}

func (e *testEnv) token(t *testing.T, id int, role types.Role) string {
	t.Helper()
	token, err := e.tokens.Issue(auth.Claims{UserID: id, Role: role})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, rec).Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignupLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/signup", "", `{"username":"alice","email":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := decodeBody[AuthResponse](t, rec)
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, types.RoleUser, signup.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/auth/signup", "", `{"username":"alice","email":"alice@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email and username already exist", errorMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/auth/signup", "", `{"username":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeBody[AuthResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decodeBody[types.User](t, rec).Username)
}

func TestInventoryRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/inventory", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged := auth.NewTokenManager("other-secret", time.Hour)
	token, err := forged.Issue(auth.Claims{UserID: 1, Role: types.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/inventory", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInventoryWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := env.token(t, 2, types.RoleUser)

	rec := env.do(t, http.MethodPost, "/inventory", user, `{"item_description":"Nut","qty":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", errorMessage(t, rec))

	for _, path := range []string{"/inventory/1/duplicate", "/inventory/1/refill"} {
		rec = env.do(t, http.MethodPost, path, user, `{"refill_status":"YES"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
	rec = env.do(t, http.MethodPut, "/inventory/1", user, `{"color":"red"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin access required", errorMessage(t, rec))

	rec = env.do(t, http.MethodDelete, "/inventory/1", user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory/export", user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInventoryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, 1, types.RoleAdmin)
	user := env.token(t, 2, types.RoleUser)

	rec := env.do(t, http.MethodPost, "/inventory", admin, `{"item_description":"Blue Widget","qty":10,"delivery_no":"D-1","item_code":"BW-1","color":"blue"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(1), created["recorded_by"])
	assert.Equal(t, "", created["refill_status"])
	assert.Equal(t, float64(10), created["qty"])

	rec = env.do(t, http.MethodPost, "/inventory", admin, `{"qty":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "item_description is required", errorMessage(t, rec))

	rec = env.do(t, http.MethodPut, "/inventory/1", admin, `{"color":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "", updated["color"])
	assert.Equal(t, "Blue Widget", updated["item_description"])
	assert.Equal(t, float64(10), updated["qty"])
	assert.Equal(t, float64(1), updated["edited_by"])

	rec = env.do(t, http.MethodPut, "/inventory/1", admin, `{"qty":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/inventory/abc", admin, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/inventory/99", admin, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "record not found", errorMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/inventory/1/refill", admin, `{"refill_status":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/inventory/1/refill", admin, `{"refill_status":"YES"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	refilled := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "YES", refilled["refill_status"])
	assert.NotNil(t, refilled["date_of_refill"])
	assert.Equal(t, "1", refilled["refill_by"])

	rec = env.do(t, http.MethodPost, "/inventory/1/duplicate", admin, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	copied := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(2), copied["id"])
	assert.Equal(t, "", copied["refill_status"])
	assert.Nil(t, copied["delivery_no"])

	rec = env.do(t, http.MethodGet, "/inventory/2", user, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory/summary", user, "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[types.InventorySummary](t, rec)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByRefillStatus["YES"])

	rec = env.do(t, http.MethodDelete, "/inventory/2", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"record deleted"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/inventory/2", admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventoryListPagination(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, 1, types.RoleAdmin)
	counter := env.token(t, 3, types.RoleCounter)

	for _, code := range []string{"AA-1", "AA-2", "BB-1"} {
		rec := env.do(t, http.MethodPost, "/inventory", admin, `{"item_description":"Part","qty":1,"item_code":"`+code+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/inventory?search=aa&limit=1&page=2&sort=bogus", counter, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[InventoryListResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "AA-2", *page.Data[0].ItemCode)
	assert.Equal(t, Pagination{Total: 2, Page: 2, Limit: 1, TotalPages: 2}, page.Pagination)

	rec = env.do(t, http.MethodGet, "/inventory?page=0&limit=abc", counter, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[InventoryListResponse](t, rec)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, Pagination{Total: 3, Page: 1, Limit: 100, TotalPages: 1}, page.Pagination)

	rec = env.do(t, http.MethodGet, "/inventory?limit=1125899906842624", counter, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[InventoryListResponse](t, rec)
	assert.Len(t, page.Data, 3)
	assert.Equal(t, Pagination{Total: 3, Page: 1, Limit: 1000, TotalPages: 1}, page.Pagination)

	rec = env.do(t, http.MethodGet, "/inventory?page=5", counter, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestInventoryExport(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, 1, types.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/inventory", admin, `{"item_description":"Blue Widget","qty":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/inventory/export", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,delivery_date"))
	assert.Contains(t, lines[1], "Blue Widget")
}
