package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/employee_directory/internal/service/serviceutils"
)

// StoreStatus is what the health check reads from the record store.
type StoreStatus interface {
	Dirty() bool
	Len() int
}

type HealthHandler struct {
	store StoreStatus
}

func NewHealthHandler(store StoreStatus) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse reports whether the collection has unpersisted changes.
type HealthResponse struct {
	Status  string `json:"status"`
	Dirty   bool   `json:"dirty"`
	Records int    `json:"records"`
}

func (h *HealthHandler) HealthHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", HealthResponse{
		Status:  "ok",
		Dirty:   h.store.Dirty(),
		Records: h.store.Len(),
	})
}
