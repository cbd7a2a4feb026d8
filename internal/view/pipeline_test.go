package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_directory/internal/domain"
)

func sample() []domain.Employee {
	return []domain.Employee{
		{ID: 1, FirstName: "Amy", LastName: "Adams", Email: "amy@x.com", Department: "Engineering", Role: "Engineer"},
		{ID: 2, FirstName: "Bob", LastName: "Brown", Email: "bob@x.com", Department: "Sales", Role: "Manager"},
		{ID: 3, FirstName: "carl", LastName: "Clark", Email: "carl@x.com", Department: "Engineering", Role: "Manager"},
		{ID: 4, FirstName: "Dana", LastName: "Ames", Email: "dana@x.com", Department: "HR", Role: "Recruiter"},
	}
}

func params(mod func(p *domain.ViewParams)) domain.ViewParams {
	p := domain.DefaultViewParams()
	if mod != nil {
		mod(&p)
	}
	return p
}

func ids(records []domain.Employee) []int64 {
	out := make([]int64, len(records))
	for i, e := range records {
		out[i] = e.ID
	}
	return out
}

func TestComputeSortByFirstName(t *testing.T) {
	collection := []domain.Employee{
		{ID: 2, FirstName: "Bob", Department: "Sales"},
		{ID: 1, FirstName: "Amy", Department: "Eng"},
	}

	v := Compute(collection, params(nil))

	assert.Equal(t, []int64{1, 2}, ids(v.Items))
	assert.Equal(t, 2, v.TotalMatches)
}

func TestComputeSearch(t *testing.T) {
	collection := []domain.Employee{
		{ID: 1, FirstName: "Amy", LastName: "Lee", Email: "a@x.com", Department: "Eng"},
		{ID: 2, FirstName: "Bob", LastName: "Ray", Email: "b@x.com", Department: "Sales"},
	}

	v := Compute(collection, params(func(p *domain.ViewParams) { p.Search = "am" }))

	assert.Equal(t, []int64{1}, ids(v.Items))
	assert.Equal(t, 1, v.TotalMatches)
}

func TestComputeSearchFullNameAndEmail(t *testing.T) {
	tests := []struct {
		search string
		want   []int64
	}{
		{"amy adams", []int64{1}},
		{"  AMES ", []int64{4}},
		{"carl@", []int64{3}},
		{"@x.com", []int64{1, 2, 3, 4}},
		{"zzz", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			v := Compute(sample(), params(func(p *domain.ViewParams) { p.Search = tt.search }))
			assert.Equal(t, tt.want, ids(v.Items))
		})
	}
}

func TestComputeFieldFilters(t *testing.T) {
	v := Compute(sample(), params(func(p *domain.ViewParams) {
		p.Department = "Engineering"
		p.Role = "Manager"
	}))
	assert.Equal(t, []int64{3}, ids(v.Items))

	v = Compute(sample(), params(func(p *domain.ViewParams) { p.FirstName = "A" }))
	assert.Equal(t, []int64{1, 3, 4}, ids(v.Items), "first name filter is a case-insensitive substring")

	v = Compute(sample(), params(func(p *domain.ViewParams) { p.Department = "engineering" }))
	assert.Empty(t, v.Items, "department match is exact")
}

func TestComputeSortIsStable(t *testing.T) {
	v := Compute(sample(), params(func(p *domain.ViewParams) { p.SortBy = domain.SortByDepartment }))
	assert.Equal(t, []int64{1, 3, 4, 2}, ids(v.Items))

	v = Compute(sample(), params(func(p *domain.ViewParams) { p.SortBy = domain.SortByRole }))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(v.Items))
}

func TestComputeSortIsCaseInsensitive(t *testing.T) {
	v := Compute(sample(), params(nil))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(v.Items), "lower-case carl sorts between Bob and Dana")
}

func TestComputePageBeyondResults(t *testing.T) {
	collection := make([]domain.Employee, 5)
	for i := range collection {
		collection[i] = domain.Employee{ID: int64(i + 1), FirstName: fmt.Sprintf("N%d", i)}
	}

	v := Compute(collection, params(func(p *domain.ViewParams) {
		p.Page = 3
		p.PageSize = 10
	}))

	assert.Empty(t, v.Items)
	assert.Equal(t, 5, v.TotalMatches)
	assert.Equal(t, 3, v.Page, "page number is not clamped")
	assert.True(t, NeedsPageReset(v))
}

func TestComputePaginationBound(t *testing.T) {
	for total := 0; total <= 12; total++ {
		collection := make([]domain.Employee, total)
		for i := range collection {
			collection[i] = domain.Employee{ID: int64(i + 1), FirstName: fmt.Sprintf("N%02d", i)}
		}
		for size := 1; size <= 5; size++ {
			for page := 1; page <= 6; page++ {
				v := Compute(collection, params(func(p *domain.ViewParams) {
					p.Page = page
					p.PageSize = size
				}))
				want := min(size, max(0, total-(page-1)*size))
				require.Lenf(t, v.Items, want, "total=%d size=%d page=%d", total, size, page)
				require.Equal(t, total, v.TotalMatches)
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	collection := sample()
	p := params(func(p *domain.ViewParams) {
		p.Search = "a"
		p.SortBy = domain.SortByLastName
		p.PageSize = 2
	})

	first := Compute(collection, p)
	second := Compute(collection, p)

	assert.Equal(t, first, second)
	assert.Equal(t, sample(), collection, "input is not mutated")
}

func TestComputeNormalizesInvalidPaging(t *testing.T) {
	v := Compute(sample(), params(func(p *domain.ViewParams) {
		p.Page = 0
		p.PageSize = 0
	}))
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, domain.DefaultPageSize, v.PageSize)
	assert.Len(t, v.Items, 4)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestRoles(t *testing.T) {
	assert.Equal(t, []string{"Engineer", "Manager", "Recruiter"}, Roles(sample()))
}
