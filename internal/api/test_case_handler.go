package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

type listTestCasesRequest struct {
	Page     int                  `query:"page" validate:"omitempty,min=1"`
	Limit    int                  `query:"limit" validate:"omitempty,min=1"`
	Search   string               `query:"search"`
	Status   model.TestCaseStatus `query:"status" validate:"omitempty,oneof=draft active completed archived"`
	Priority model.Priority       `query:"priority" validate:"omitempty,oneof=low medium high critical"`
}

func (h *Handler) ListTestCases(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req listTestCasesRequest
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	page, err := h.testCase.List(e.Request().Context(), model.TestCaseFilter{
		Page:     req.Page,
		Limit:    req.Limit,
		Search:   strings.TrimSpace(req.Search),
		Status:   req.Status,
		Priority: req.Priority,
	})
	if err != nil {
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, page)
}

func (h *Handler) GetTestCase(e echo.Context) error {
	tc, err := h.testCase.Get(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, tc)
}

func (h *Handler) CreateTestCase(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.TestCase
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	tc, err := h.testCase.Create(e.Request().Context(), &req, actor(e).ID)
	if err != nil {
		l.Error("failed to create test case", zap.Any("error", err))
		return transportError(e, err)
	}

	l.Info("test case created", zap.String("test_case_id", tc.ID))
	return e.JSON(http.StatusCreated, tc)
}

func (h *Handler) UpdateTestCase(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.TestCasePatch
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	tc, err := h.testCase.Update(e.Request().Context(), e.Param("id"), &req, actor(e))
	if err != nil {
		l.Info("failed to update test case", zap.String("test_case_id", e.Param("id")), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, tc)
}

func (h *Handler) DeleteTestCase(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	if err := h.testCase.Delete(e.Request().Context(), e.Param("id"), actor(e)); err != nil {
		l.Info("failed to delete test case", zap.String("test_case_id", e.Param("id")), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "test case deleted"})
}

// BatchImportTestCases validates every element before anything is written, so
// the first invalid element is reported by its index.
func (h *Handler) BatchImportTestCases(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var items []*model.TestCase
	if err := e.Bind(&items); err != nil {
		l.Info("invalid request", zap.Error(err))
		return transportError(e, service.NewServiceError(service.ErrorCodeInvalidBody, "request body must be a JSON array of test cases"))
	}
	if len(items) == 0 {
		return transportError(e, service.NewServiceError(service.ErrorCodeValidation, "no test cases to import"))
	}

	for i, item := range items {
		if item == nil {
			return transportError(e, service.NewServiceError(service.ErrorCodeValidation, fmt.Sprintf("test case at index %d is empty", i)))
		}
		if err := e.Validate(item); err != nil {
			return transportError(e, service.NewServiceError(service.ErrorCodeValidation, fmt.Sprintf("test case at index %d is invalid: %v", i, err)))
		}
	}

	created, err := h.testCase.BatchImport(e.Request().Context(), items, actor(e).ID)
	if err != nil {
		l.Error("failed to import test cases", zap.Int("count", len(items)), zap.Any("error", err))
		return transportError(e, err)
	}

	l.Info("test cases imported", zap.Int("count", len(created)))
	return e.JSON(http.StatusCreated, struct {
		Count     int               `json:"count"`
		TestCases []*model.TestCase `json:"testCases"`
	}{Count: len(created), TestCases: created})
}

var testCaseCSVHeader = []string{"id", "title", "steps", "expectedResults", "status", "priority", "category", "createdBy", "createdAt", "updatedAt"}

// ExportTestCases takes ids from the path or the ids query parameter; without
// ids every test case is exported.
func (h *Handler) ExportTestCases(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	raw := e.Param("ids")
	if raw == "" {
		raw = e.QueryParam("ids")
	}

	items, err := h.testCase.Export(e.Request().Context(), splitList(raw))
	if err != nil {
		l.Info("failed to export test cases", zap.Any("error", err))
		return transportError(e, err)
	}

	if !strings.EqualFold(e.QueryParam("format"), "csv") {
		return e.JSON(http.StatusOK, items)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(testCaseCSVHeader)
	for _, tc := range items {
		_ = w.Write([]string{
			tc.ID, tc.Title, tc.Steps, tc.ExpectedResults,
			string(tc.Status), string(tc.Priority), tc.Category, tc.CreatedBy,
			tc.CreatedAt.Format(time.RFC3339), tc.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if werr := w.Error(); werr != nil {
		l.Error("failed to encode test cases", zap.Error(werr))
		return transportError(e, service.NewServiceError(service.ErrorCodeUnspecified, "failed to export test cases"))
	}

	e.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="test-cases.csv"`)
	return e.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// splitList splits a comma separated parameter, dropping blanks.
func splitList(raw string) []string {
	var res []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
