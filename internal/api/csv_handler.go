package api

import (
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) UploadCsv(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	fh, err := e.FormFile("file")
	if err != nil {
		l.Info("upload without file", zap.Error(err))
		return transportError(e, service.NewServiceError(service.ErrorCodeValidation, "multipart field \"file\" is required"))
	}

	f, err := fh.Open()
	if err != nil {
		l.Error("failed to open uploaded file", zap.Error(err))
		return transportError(e, service.NewServiceError(service.ErrorCodeInvalidBody, "failed to read uploaded file"))
	}
	defer f.Close()

	data, serr := h.csvData.Upload(e.Request().Context(), &service.CsvUpload{
		OriginalName: fh.Filename,
		Description:  e.FormValue("description"),
		Size:         fh.Size,
		Body:         f,
	}, actor(e).ID)
	if serr != nil {
		l.Info("upload rejected", zap.String("original_name", fh.Filename), zap.Any("error", serr))
		return transportError(e, serr)
	}

	l.Info("csv uploaded", zap.String("csv_id", data.ID), zap.Int64("size", data.Size))
	// Rows are fetched through GET /:id.
	data.Rows = nil
	return e.JSON(http.StatusCreated, struct {
		Message string         `json:"message"`
		File    *model.CsvData `json:"file"`
	}{Message: "file uploaded", File: data})
}

func (h *Handler) ListCsv(e echo.Context) error {
	items, err := h.csvData.List(e.Request().Context())
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, items)
}

func (h *Handler) GetCsv(e echo.Context) error {
	data, err := h.csvData.Get(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, data)
}

func (h *Handler) ExportCsv(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	r, data, err := h.csvData.Export(e.Request().Context(), e.Param("id"))
	if err != nil {
		l.Info("failed to export csv", zap.String("csv_id", e.Param("id")), zap.Any("error", err))
		return transportError(e, err)
	}
	defer r.Close()

	e.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": data.OriginalName}))
	return e.Stream(http.StatusOK, "text/csv", r)
}

func (h *Handler) CsvStats(e echo.Context) error {
	stats, err := h.csvData.Stats(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, stats)
}

func (h *Handler) UpdateCsvDescription(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Description string `json:"description" validate:"max=1000"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	data, err := h.csvData.UpdateDescription(e.Request().Context(), e.Param("id"), req.Description)
	if err != nil {
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, data)
}

func (h *Handler) DeleteCsv(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	if err := h.csvData.Delete(e.Request().Context(), e.Param("id")); err != nil {
		l.Info("failed to delete csv", zap.String("csv_id", e.Param("id")), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, messageResponse{Message: "file deleted"})
}
