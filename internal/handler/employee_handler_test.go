package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/employee_directory/internal/database"
	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/service"
	"github.com/locvowork/employee_directory/internal/store"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// brokenKV accepts reads but fails writes while broken is set.
type brokenKV struct {
	*database.MemoryStore
	mu     sync.Mutex
	broken bool
}

func (b *brokenKV) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken {
		return errors.New("quota exceeded")
	}
	return b.MemoryStore.Set(ctx, key, value)
}

func newTestServer(t *testing.T, kv domain.KVStore) (*echo.Echo, *store.RecordStore) {
	t.Helper()
	return newTestServerWithLayout(t, kv, "")
}

func newTestServerWithLayout(t *testing.T, kv domain.KVStore, layoutPath string) (*echo.Echo, *store.RecordStore) {
	t.Helper()
	s := store.New(context.Background(), kv)
	h := NewEmployeeHandler(service.NewEmployeeService(s, 10, layoutPath))

	e := echo.New()
	api := e.Group("/api")
	api.GET("/employees", h.ListHandler)
	api.POST("/employees", h.CreateHandler)
	api.POST("/employees/validate", h.ValidateHandler)
	api.GET("/employees/:id", h.GetHandler)
	api.PUT("/employees/:id", h.UpdateHandler)
	api.DELETE("/employees/:id", h.DeleteHandler)
	api.GET("/departments", h.DepartmentsHandler)
	api.GET("/roles", h.RolesHandler)
	api.GET("/export", h.ExportHandler)
	e.GET("/healthz", NewHealthHandler(s).HealthHandler)
	return e, s
}

func do(t *testing.T, e *echo.Echo, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func amyFields() domain.EmployeeFields {
	return domain.EmployeeFields{FirstName: "Amy", LastName: "Adams", Email: "amy@x.com", Department: "Engineering", Role: "Developer"}
}

func bobFields() domain.EmployeeFields {
	return domain.EmployeeFields{FirstName: "Bob", LastName: "Brown", Email: "bob@x.com", Department: "Sales", Role: "Manager"}
}

func TestCreateAndGet(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())

	rec, env := do(t, e, http.MethodPost, "/api/employees", amyFields())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var created domain.Employee
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "amy@x.com", created.Email)

	rec, env = do(t, e, http.MethodGet, "/api/employees/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Employee
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created, got)
}

func TestCreateValidation(t *testing.T) {
	e, s := newTestServer(t, database.NewMemoryStore())

	rec, env := do(t, e, http.MethodPost, "/api/employees", domain.EmployeeFields{FirstName: "A", Email: "nope"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "First Name must be at least 2 characters long", env.Errors["firstName"])
	assert.Equal(t, "Please enter a valid email address", env.Errors["email"])
	assert.Contains(t, env.Errors, "lastName")
	assert.Empty(t, s.All())

	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())
	dup := bobFields()
	dup.Email = "AMY@X.COM"
	rec, env = do(t, e, http.MethodPost, "/api/employees", dup)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "email in use", env.Errors["email"])
}

func TestUpdateAndDelete(t *testing.T) {
	e, s := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	f := amyFields()
	f.Role = "Tech Lead"
	rec, _ := do(t, e, http.MethodPut, "/api/employees/1", f)
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Tech Lead", got.Role)

	rec, _ = do(t, e, http.MethodPut, "/api/employees/99", f)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := do(t, e, http.MethodDelete, "/api/employees/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Employee Amy Adams deleted successfully", env.Message)

	rec, _ = do(t, e, http.MethodGet, "/api/employees/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, e, http.MethodDelete, "/api/employees/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadID(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	for _, target := range []string{"/api/employees/abc", "/api/employees/0", "/api/employees/-3"} {
		rec, _ := do(t, e, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestPersistenceFailureKeepsRecord(t *testing.T) {
	kv := &brokenKV{MemoryStore: database.NewMemoryStore(), broken: true}
	e, s := newTestServer(t, kv)

	rec, env := do(t, e, http.MethodPost, "/api/employees", amyFields())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgNotPersisted, env.Message)
	var kept domain.Employee
	require.NoError(t, json.Unmarshal(env.Data, &kept))
	assert.Equal(t, "Amy", kept.FirstName)
	assert.Len(t, s.All(), 1)

	rec, env = do(t, e, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.True(t, health.Dirty)
	assert.Equal(t, 1, health.Records)
}

func TestValidateEndpoint(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	rec, _ := do(t, e, http.MethodPost, "/api/employees/validate", bobFields())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, e, http.MethodPost, "/api/employees/validate", amyFields())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "email in use", env.Errors["email"])

	rec, _ = do(t, e, http.MethodPost, "/api/employees/validate?id=1", amyFields())
	assert.Equal(t, http.StatusOK, rec.Code, "editing record keeps its own email")
}

func TestList(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", bobFields())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	var res service.ListResult

	rec, env := do(t, e, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Amy", res.Items[0].FirstName)
	assert.Equal(t, "Showing 1-2 of 2", res.ResultText)
	assert.Nil(t, res.Rendered)

	rec, env = do(t, e, http.MethodGet, "/api/employees?search=am", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = service.ListResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.TotalMatches)

	rec, env = do(t, e, http.MethodGet, "/api/employees?page=3&pageSize=1&view=table", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = service.ListResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.PageReset)
	assert.Equal(t, 1, res.View.Page)
	require.NotNil(t, res.Rendered)
	require.NotNil(t, res.Rendered.Table)

	rec, _ = do(t, e, http.MethodGet, "/api/employees?view=list", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/employees?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReportsPageNumber(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", bobFields())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	rec, env := do(t, e, http.MethodGet, "/api/employees?page=2&pageSize=1&view=grid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	assert.JSONEq(t, "2", string(raw["page"]))
	assert.Contains(t, raw, "rendered")

	var res service.ListResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.View.Page)
	assert.Equal(t, "Showing 2-2 of 2", res.ResultText)
	require.NotNil(t, res.Rendered)
	require.Len(t, res.Rendered.Cards, 1)
	assert.Equal(t, "Bob Brown", res.Rendered.Cards[0].Name)
}

func TestDepartmentsAndRoles(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", bobFields())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	_, env := do(t, e, http.MethodGet, "/api/departments", nil)
	var deps []string
	require.NoError(t, json.Unmarshal(env.Data, &deps))
	assert.Equal(t, domain.Departments(), deps)

	_, env = do(t, e, http.MethodGet, "/api/roles", nil)
	var roles []string
	require.NoError(t, json.Unmarshal(env.Data, &roles))
	assert.Equal(t, []string{"Developer", "Manager"}, roles)
}

func TestExport(t *testing.T) {
	e, _ := newTestServer(t, database.NewMemoryStore())
	_, _ = do(t, e, http.MethodPost, "/api/employees", bobFields())
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	rec, _ := do(t, e, http.MethodGet, "/api/export?format=csv&all=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "employees.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID,First Name,Last Name,Email Address,Department,Role", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2,Amy,Adams"))

	rec, _ = do(t, e, http.MethodGet, "/api/export?format=xlsx&department=Sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, _ := f.GetCellValue("Employees", "B3")
	assert.Equal(t, "Bob", v)
	v, _ = f.GetCellValue("Employees", "B4")
	assert.Empty(t, v)

	rec, _ = do(t, e, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportLayoutFailure(t *testing.T) {
	layout := filepath.Join(t.TempDir(), "missing.yaml")
	e, _ := newTestServerWithLayout(t, database.NewMemoryStore(), layout)
	_, _ = do(t, e, http.MethodPost, "/api/employees", amyFields())

	for _, format := range []string{"xlsx", "csv"} {
		rec, env := do(t, e, http.MethodGet, "/api/export?format="+format, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, format)
		assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition), format)
		assert.False(t, env.Success, format)
		assert.Contains(t, env.Errors["_"], "export layout", format)
	}
}
