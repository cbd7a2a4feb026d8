package domain

import "strings"

// ==================== EMPLOYEE DIRECTORY ====================

// Employee is one directory record. The JSON shape is the persisted encoding
// of the collection.
type Employee struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Fields returns the mutable part of the record.
func (e Employee) Fields() EmployeeFields {
	return EmployeeFields{
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Role:       e.Role,
	}
}

// EmployeeFields holds every field of an Employee except its id.
// It is the input of create and update.
type EmployeeFields struct {
	FirstName  string `json:"firstName" validate:"required,min=2,personname"`
	LastName   string `json:"lastName" validate:"required,min=2,personname"`
	Email      string `json:"email" validate:"required,emailshape"`
	Department string `json:"department" validate:"required,department"`
	Role       string `json:"role" validate:"required,min=2"`
}

// Normalize trims surrounding whitespace from every field.
func (f *EmployeeFields) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Department = strings.TrimSpace(f.Department)
	f.Role = strings.TrimSpace(f.Role)
}

// WithID builds the record carrying these fields under id.
func (f EmployeeFields) WithID(id int64) Employee {
	return Employee{
		ID:         id,
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Email:      f.Email,
		Department: f.Department,
		Role:       f.Role,
	}
}

// ==================== DEPARTMENTS ====================

const (
	DepartmentEngineering = "Engineering"
	DepartmentMarketing   = "Marketing"
	DepartmentSales       = "Sales"
	DepartmentHR          = "HR"
	DepartmentFinance     = "Finance"
	DepartmentOperations  = "Operations"
	DepartmentDesign      = "Design"
	DepartmentSupport     = "Support"
)

var departments = []string{
	DepartmentEngineering,
	DepartmentMarketing,
	DepartmentSales,
	DepartmentHR,
	DepartmentFinance,
	DepartmentOperations,
	DepartmentDesign,
	DepartmentSupport,
}

// Departments returns the fixed department set in display order.
func Departments() []string {
	out := make([]string, len(departments))
	copy(out, departments)
	return out
}

// ValidDepartment reports whether name is one of the known departments.
// The comparison is exact.
func ValidDepartment(name string) bool {
	for _, d := range departments {
		if d == name {
			return true
		}
	}
	return false
}

// ==================== VIEW PARAMETERS ====================

// SortKey names the textual field the directory is ordered by.
type SortKey string

const (
	SortByFirstName  SortKey = "firstName"
	SortByLastName   SortKey = "lastName"
	SortByEmail      SortKey = "email"
	SortByDepartment SortKey = "department"
	SortByRole       SortKey = "role"
)

// DefaultSortKey is used when no or an unknown sort key is supplied.
const DefaultSortKey = SortByFirstName

// ParseSortKey maps s to a SortKey, falling back to DefaultSortKey.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByFirstName, SortByLastName, SortByEmail, SortByDepartment, SortByRole:
		return k
	default:
		return DefaultSortKey
	}
}

// Value returns the field of e selected by k.
func (k SortKey) Value(e Employee) string {
	switch k {
	case SortByLastName:
		return e.LastName
	case SortByEmail:
		return e.Email
	case SortByDepartment:
		return e.Department
	case SortByRole:
		return e.Role
	default:
		return e.FirstName
	}
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// PageSizes are the page sizes offered to the user.
var PageSizes = []int{5, 10, 20, 50}

// ViewParams are the user-controlled inputs of the listing.
// They are always passed by value.
type ViewParams struct {
	Search     string  `json:"search" query:"search"`
	FirstName  string  `json:"firstName" query:"firstName"`
	Department string  `json:"department" query:"department"`
	Role       string  `json:"role" query:"role"`
	SortBy     SortKey `json:"sortBy" query:"sortBy"`
	Page       int     `json:"page" query:"page"`
	PageSize   int     `json:"pageSize" query:"pageSize"`
}

// DefaultViewParams returns the params of a fresh listing.
func DefaultViewParams() ViewParams {
	return ViewParams{
		SortBy:   DefaultSortKey,
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// HasFilters reports whether any search or filter constraint is set.
func (p ViewParams) HasFilters() bool {
	return strings.TrimSpace(p.Search) != "" ||
		strings.TrimSpace(p.FirstName) != "" ||
		p.Department != "" ||
		p.Role != ""
}

// ==================== DERIVED VIEW ====================

// View is the filtered, sorted and paginated slice of the collection.
type View struct {
	Items        []Employee `json:"items"`
	TotalMatches int        `json:"totalMatches"`
	Page         int        `json:"page"`
	PageSize     int        `json:"pageSize"`
}

// TotalPages is the number of pages needed for all matches.
func (v View) TotalPages() int {
	if v.PageSize <= 0 || v.TotalMatches <= 0 {
		return 0
	}
	return (v.TotalMatches + v.PageSize - 1) / v.PageSize
}

// Start is the 1-based position of the first shown match, 0 when nothing is shown.
func (v View) Start() int {
	if len(v.Items) == 0 {
		return 0
	}
	return (v.Page-1)*v.PageSize + 1
}

// End is the 1-based position of the last shown match, 0 when nothing is shown.
func (v View) End() int {
	if len(v.Items) == 0 {
		return 0
	}
	return v.Start() + len(v.Items) - 1
}
