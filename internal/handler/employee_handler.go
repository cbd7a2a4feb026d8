package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/service"
	"github.com/locvowork/employee_directory/internal/service/serviceutils"
	"github.com/locvowork/employee_directory/internal/ui"
)

// MsgNotPersisted is the message of a mutation that was applied in memory
// but could not be written to the backend.
const MsgNotPersisted = "Change saved in memory but not persisted; it may not survive a reload"

type EmployeeHandler struct {
	svc *service.EmployeeService
}

func NewEmployeeHandler(svc *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	var req domain.EmployeeFields
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return respondMutationError(c, "Failed to create employee", emp, err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Employee created successfully", emp)
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid employee ID", err)
	}

	emp, err := h.svc.Get(id)
	if err != nil {
		return respondMutationError(c, "Failed to get employee", emp, err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee retrieved successfully", emp)
}

func (h *EmployeeHandler) UpdateHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid employee ID", err)
	}

	var req domain.EmployeeFields
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	emp, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondMutationError(c, "Failed to update employee", emp, err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee updated successfully", emp)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid employee ID", err)
	}

	emp, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return respondMutationError(c, "Failed to delete employee", emp, err)
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK,
		fmt.Sprintf("Employee %s %s deleted successfully", emp.FirstName, emp.LastName), emp)
}

// ValidateHandler checks a form without saving it. The optional "id" query
// parameter names the record being edited.
func (h *EmployeeHandler) ValidateHandler(c echo.Context) error {
	var req domain.EmployeeFields
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	var excludeID int64
	if err := echo.QueryParamsBinder(c).Int64("id", &excludeID).BindError(); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid employee ID", err)
	}

	if err := h.svc.Validate(req, excludeID); err != nil {
		return respondMutationError(c, "Validation failed", domain.Employee{}, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employee is valid", nil)
}

func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	params, err := bindViewParams(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid list parameters", err)
	}

	var mode ui.Mode
	if v := c.QueryParam("view"); v != "" {
		m, ok := ui.ParseMode(v)
		if !ok {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid view mode", fmt.Errorf("view must be grid or table, got %q", v))
		}
		mode = m
	}

	res := h.svc.List(c.Request().Context(), params, mode)
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Employees listed successfully", res)
}

func (h *EmployeeHandler) DepartmentsHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Departments listed successfully", h.svc.Departments())
}

func (h *EmployeeHandler) RolesHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Roles listed successfully", h.svc.Roles())
}

// ExportHandler streams the listing as a workbook or CSV. With all=true
// every match is exported instead of the requested page.
func (h *EmployeeHandler) ExportHandler(c echo.Context) error {
	params, err := bindViewParams(c)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid export parameters", err)
	}
	var all bool
	format := service.FormatXLSX
	if err := echo.QueryParamsBinder(c).Bool("all", &all).String("format", &format).BindError(); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid export parameters", err)
	}

	var contentType, filename string
	switch format {
	case service.FormatXLSX:
		contentType, filename = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "employees.xlsx"
	case service.FormatCSV:
		contentType, filename = "text/csv; charset=utf-8", "employees.csv"
	default:
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid export format", fmt.Errorf("format must be xlsx or csv, got %q", format))
	}

	ctx := c.Request().Context()
	body, err := h.svc.Export(ctx, params, all, format)
	if err != nil {
		logger.ErrLog(ctx, err, "Export failed")
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to export employees", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, contentType, body)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

func bindViewParams(c echo.Context) (domain.ViewParams, error) {
	var p domain.ViewParams
	var sortBy string
	err := echo.QueryParamsBinder(c).
		String("search", &p.Search).
		String("firstName", &p.FirstName).
		String("department", &p.Department).
		String("role", &p.Role).
		String("sortBy", &sortBy).
		Int("page", &p.Page).
		Int("pageSize", &p.PageSize).
		BindError()
	if err != nil {
		return p, err
	}
	p.SortBy = domain.SortKey(sortBy)
	return p, nil
}

// respondMutationError maps the domain error taxonomy onto HTTP statuses.
func respondMutationError(c echo.Context, message string, emp domain.Employee, err error) error {
	ctx := c.Request().Context()

	var verr *domain.ValidationError
	var nferr *domain.NotFoundError
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &verr):
		return serviceutils.ResponseFieldErrors(c, http.StatusUnprocessableEntity, message, verr.Fields)
	case errors.As(err, &nferr):
		return serviceutils.ResponseError(c, http.StatusNotFound, message, err)
	case errors.As(err, &perr):
		logger.ErrLog(ctx, err, message)
		return serviceutils.ResponseErrorWithData(c, http.StatusInternalServerError, MsgNotPersisted, emp, err)
	default:
		logger.ErrLog(ctx, err, message)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, message, err)
	}
}
