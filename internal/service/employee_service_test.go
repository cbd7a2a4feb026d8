package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/employee_directory/internal/database"
	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/store"
	"github.com/locvowork/employee_directory/internal/ui"
)

func seeded(t *testing.T, names ...string) *store.RecordStore {
	t.Helper()
	s := store.New(context.Background(), database.NewMemoryStore())
	for i, n := range names {
		_, err := s.Create(context.Background(), domain.EmployeeFields{
			FirstName:  n,
			LastName:   "Tester",
			Email:      n + "@x.com",
			Department: domain.Departments()[i%len(domain.Departments())],
			Role:       "Developer",
		})
		require.NoError(t, err)
	}
	return s
}

func TestNormalize(t *testing.T) {
	svc := NewEmployeeService(seeded(t), 20, "")

	p := svc.Normalize(domain.ViewParams{SortBy: "salary", Page: -1})
	assert.Equal(t, domain.SortByFirstName, p.SortBy)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)

	p = svc.Normalize(domain.ViewParams{SortBy: domain.SortByEmail, Page: 3, PageSize: 5})
	assert.Equal(t, domain.ViewParams{SortBy: domain.SortByEmail, Page: 3, PageSize: 5}, p)

	assert.Equal(t, domain.DefaultPageSize, NewEmployeeService(seeded(t), 0, "").Normalize(domain.ViewParams{}).PageSize)
}

func TestList(t *testing.T) {
	svc := NewEmployeeService(seeded(t, "Carl", "Amy", "Bea", "Dan", "Eve"), 2, "")
	ctx := context.Background()

	res := svc.List(ctx, domain.ViewParams{Page: 2}, "")
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Carl", res.Items[0].FirstName)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, "Showing 3-4 of 5", res.ResultText)
	assert.False(t, res.PageReset)
	assert.Nil(t, res.Rendered)

	res = svc.List(ctx, domain.ViewParams{Page: 9}, ui.ModeGrid)
	assert.True(t, res.PageReset)
	assert.Equal(t, 1, res.View.Page)
	assert.Equal(t, "Amy", res.Items[0].FirstName)
	require.NotNil(t, res.Rendered)
	assert.Len(t, res.Rendered.Cards, 2)

	res = svc.List(ctx, domain.ViewParams{Search: "zzz"}, ui.ModeTable)
	assert.Empty(t, res.Items)
	assert.False(t, res.PageReset)
	assert.Equal(t, "Showing 0-0 of 0", res.ResultText)
	assert.Equal(t, ui.EmptyText, res.Rendered.Empty)
}

func TestRoles(t *testing.T) {
	s := seeded(t, "Amy")
	_, err := s.Create(context.Background(), domain.EmployeeFields{
		FirstName: "Zed", LastName: "Zulu", Email: "zed@x.com", Department: "HR", Role: "Analyst",
	})
	require.NoError(t, err)

	svc := NewEmployeeService(s, 10, "")
	assert.Equal(t, []string{"Analyst", "Developer"}, svc.Roles())
	assert.Equal(t, domain.Departments(), svc.Departments())
}

func TestExport(t *testing.T) {
	svc := NewEmployeeService(seeded(t, "Carl", "Amy", "Bea"), 2, "")
	ctx := context.Background()

	out, err := svc.Export(ctx, domain.ViewParams{}, false, FormatXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Employees")
	require.NoError(t, err)
	// title, header and the first page only
	require.Len(t, rows, 4)
	assert.Equal(t, "Employee Directory", rows[0][0])
	assert.Equal(t, "Amy", rows[2][1])
	assert.Equal(t, "Bea", rows[3][1])

	out, err = svc.Export(ctx, domain.ViewParams{}, true, FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Carl")

	out, err = svc.Export(ctx, domain.ViewParams{}, true, "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Nil(t, out)
}

func TestExportCustomLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	layout := `
sheets:
  - name: "People"
    sections:
      - id: "employees"
        show_header: true
        columns:
          - field_name: "email"
            header: "Mail"
`
	require.NoError(t, os.WriteFile(path, []byte(layout), 0o644))

	svc := NewEmployeeService(seeded(t, "Amy"), 10, path)
	out, err := svc.Export(context.Background(), domain.ViewParams{}, true, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Mail\nAmy@x.com\n", string(out))

	missing := NewEmployeeService(seeded(t), 10, filepath.Join(t.TempDir(), "nope.yaml"))
	out, err = missing.Export(context.Background(), domain.ViewParams{}, false, FormatXLSX)
	assert.Error(t, err)
	assert.Empty(t, out)
}
