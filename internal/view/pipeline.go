// Package view derives the displayed subset of the directory.
//
// Compute applies, in this order: search, field filters, a stable sort and
// the page window. It is pure and never mutates its input.
package view

import (
	"slices"
	"sort"
	"strings"

	"github.com/locvowork/employee_directory/internal/domain"
)

// Compute returns the page of collection selected by params together with the
// number of records matching before pagination.
//
// An out-of-range page yields an empty slice; the page number itself is not
// corrected here.
func Compute(collection []domain.Employee, params domain.ViewParams) domain.View {
	page, size := params.Page, params.PageSize
	if page < 1 {
		page = domain.DefaultPage
	}
	if size < 1 {
		size = domain.DefaultPageSize
	}

	matches := Filter(collection, params)
	Sort(matches, params.SortBy)

	return domain.View{
		Items:        Paginate(matches, page, size),
		TotalMatches: len(matches),
		Page:         page,
		PageSize:     size,
	}
}

// Filter runs the search stage then the field filter stage and returns a new
// slice in input order.
func Filter(collection []domain.Employee, params domain.ViewParams) []domain.Employee {
	search := strings.ToLower(strings.TrimSpace(params.Search))
	firstName := strings.ToLower(strings.TrimSpace(params.FirstName))

	out := make([]domain.Employee, 0, len(collection))
	for _, e := range collection {
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		if firstName != "" && !strings.Contains(strings.ToLower(e.FirstName), firstName) {
			continue
		}
		if params.Department != "" && e.Department != params.Department {
			continue
		}
		if params.Role != "" && e.Role != params.Role {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesSearch(e domain.Employee, needle string) bool {
	return strings.Contains(strings.ToLower(e.FullName()), needle) ||
		strings.Contains(strings.ToLower(e.Email), needle)
}

// Sort orders records in place, ascending by the lower-cased key field.
// Equal keys keep their relative order.
func Sort(records []domain.Employee, key domain.SortKey) {
	key = domain.ParseSortKey(string(key))
	sort.SliceStable(records, func(i, j int) bool {
		return strings.ToLower(key.Value(records[i])) < strings.ToLower(key.Value(records[j]))
	})
}

// Paginate returns the 1-based page of records, clamped to the available
// records. The result shares no memory with records.
func Paginate(records []domain.Employee, page, size int) []domain.Employee {
	if page < 1 || size < 1 {
		return []domain.Employee{}
	}
	start := (page - 1) * size
	if start >= len(records) {
		return []domain.Employee{}
	}
	end := min(start+size, len(records))
	return slices.Clone(records[start:end])
}

// PageCount is the number of pages needed to show total matches.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// NeedsPageReset reports whether v points past the last page of a non-empty
// result, in which case the caller should go back to page 1.
func NeedsPageReset(v domain.View) bool {
	return v.Page > 1 && len(v.Items) == 0
}

// Roles returns the distinct roles of collection, sorted case-insensitively.
func Roles(collection []domain.Employee) []string {
	seen := make(map[string]struct{}, len(collection))
	roles := make([]string, 0)
	for _, e := range collection {
		if _, ok := seen[e.Role]; ok || e.Role == "" {
			continue
		}
		seen[e.Role] = struct{}{}
		roles = append(roles, e.Role)
	}
	sort.SliceStable(roles, func(i, j int) bool {
		return strings.ToLower(roles[i]) < strings.ToLower(roles[j])
	})
	return roles
}
