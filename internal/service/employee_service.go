package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/ui"
	"github.com/locvowork/employee_directory/internal/view"
	"github.com/locvowork/employee_directory/pkg/sheetexport"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// exportSectionID is the section of the export layout the records bind to.
const exportSectionID = "employees"

// DefaultExportLayout is used when no layout file is configured.
const DefaultExportLayout = `
sheets:
  - name: "Employees"
    sections:
      - id: "employees"
        title: "Employee Directory"
        show_header: true
        title_style:
          font:
            bold: true
        header_style:
          font:
            bold: true
            color: "#FFFFFF"
          fill:
            color: "#4F81BD"
        columns:
          - field_name: "id"
            header: "ID"
            width: 8
          - field_name: "firstName"
            header: "First Name"
            width: 18
          - field_name: "lastName"
            header: "Last Name"
            width: 18
          - field_name: "email"
            header: "Email Address"
            width: 32
          - field_name: "department"
            header: "Department"
            width: 16
          - field_name: "role"
            header: "Role"
            width: 24
`

// EmployeeService is the use-case layer between the HTTP handlers and the
// record store.
type EmployeeService struct {
	dir             domain.EmployeeDirectory
	defaultPageSize int
	exportLayout    string
}

// NewEmployeeService creates the service. An empty layoutPath uses
// DefaultExportLayout; a non-positive page size uses the domain default.
func NewEmployeeService(dir domain.EmployeeDirectory, defaultPageSize int, layoutPath string) *EmployeeService {
	if defaultPageSize <= 0 {
		defaultPageSize = domain.DefaultPageSize
	}
	return &EmployeeService{dir: dir, defaultPageSize: defaultPageSize, exportLayout: layoutPath}
}

// ListResult is a computed view, rendered when a layout was requested.
// The page number is View.Page; the rendered layout is under "rendered".
type ListResult struct {
	domain.View
	TotalPages int      `json:"totalPages"`
	ResultText string   `json:"resultText"`
	PageReset  bool     `json:"pageReset"`
	Rendered   *ui.Page `json:"rendered,omitempty"`
}

// Normalize fills unset params with the listing defaults.
func (s *EmployeeService) Normalize(params domain.ViewParams) domain.ViewParams {
	params.SortBy = domain.ParseSortKey(string(params.SortBy))
	if params.Page < 1 {
		params.Page = domain.DefaultPage
	}
	if params.PageSize < 1 {
		params.PageSize = s.defaultPageSize
	}
	return params
}

// List computes the view of params. A page past the results is recomputed
// as page 1 and reported with PageReset.
func (s *EmployeeService) List(ctx context.Context, params domain.ViewParams, mode ui.Mode) ListResult {
	params = s.Normalize(params)
	collection := s.dir.All()

	v := view.Compute(collection, params)
	reset := false
	if view.NeedsPageReset(v) {
		params.Page = domain.DefaultPage
		v = view.Compute(collection, params)
		reset = true
		logger.DebugLog(ctx, "Requested page is past %d matches, reset to page 1", v.TotalMatches)
	}

	res := ListResult{
		View:       v,
		TotalPages: v.TotalPages(),
		ResultText: ui.ResultText(v),
		PageReset:  reset,
	}
	if mode != "" {
		p := ui.Render(v, mode)
		res.Rendered = &p
	}
	return res
}

func (s *EmployeeService) Get(id int64) (domain.Employee, error) {
	return s.dir.Get(id)
}

func (s *EmployeeService) Create(ctx context.Context, fields domain.EmployeeFields) (domain.Employee, error) {
	return s.dir.Create(ctx, fields)
}

func (s *EmployeeService) Update(ctx context.Context, id int64, fields domain.EmployeeFields) (domain.Employee, error) {
	return s.dir.Update(ctx, id, fields)
}

func (s *EmployeeService) Delete(ctx context.Context, id int64) (domain.Employee, error) {
	return s.dir.Delete(ctx, id)
}

// Validate checks fields without saving. excludeID is the record being
// edited, 0 for a new one.
func (s *EmployeeService) Validate(fields domain.EmployeeFields, excludeID int64) error {
	return s.dir.Validate(fields, excludeID)
}

func (s *EmployeeService) Departments() []string {
	return domain.Departments()
}

// Roles lists the distinct roles of the collection, sorted.
func (s *EmployeeService) Roles() []string {
	return view.Roles(s.dir.All())
}

// ErrUnsupportedFormat is returned by Export for a format other than xlsx or csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Export renders either the current page of params or, with all set, every
// match of params in sorted order. Nothing is returned unless the whole
// document was rendered.
func (s *EmployeeService) Export(ctx context.Context, params domain.ViewParams, all bool, format string) ([]byte, error) {
	if format != FormatXLSX && format != FormatCSV && format != "" {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	records := s.exportRecords(params, all)

	exporter, err := s.newExporter()
	if err != nil {
		return nil, fmt.Errorf("failed to load export layout: %w", err)
	}
	exporter.BindSectionData(exportSectionID, records)

	var out []byte
	if format == FormatCSV {
		out, err = exporter.ToCSVBytes()
	} else {
		out, err = exporter.ToBytes()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export employees: %w", err)
	}
	logger.InfoLog(ctx, "Exported %d employees as %s", len(records), format)
	return out, nil
}

func (s *EmployeeService) exportRecords(params domain.ViewParams, all bool) []domain.Employee {
	collection := s.dir.All()
	if !all {
		params = s.Normalize(params)
		return view.Compute(collection, params).Items
	}
	matches := view.Filter(collection, params)
	view.Sort(matches, domain.ParseSortKey(string(params.SortBy)))
	return matches
}

func (s *EmployeeService) newExporter() (*sheetexport.DataExporter, error) {
	if s.exportLayout != "" {
		return sheetexport.NewDataExporterFromYAMLFile(s.exportLayout)
	}
	return sheetexport.NewDataExporterFromYAMLString(DefaultExportLayout)
}
