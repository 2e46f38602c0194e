package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

type listKnowledgeRequest struct {
	Status   model.KnowledgeStatus `query:"status" validate:"omitempty,oneof=draft published archived"`
	Category string                `query:"category"`
	Query    string                `query:"query"`
	Tags     string                `query:"tags"`
}

func (h *Handler) ListKnowledge(e echo.Context) error {
	return h.listKnowledge(e)
}

func (h *Handler) SearchKnowledge(e echo.Context) error {
	return h.listKnowledge(e)
}

func (h *Handler) listKnowledge(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req listKnowledgeRequest
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	items, err := h.knowledge.List(e.Request().Context(), model.KnowledgeFilter{
		Status:   req.Status,
		Category: req.Category,
		Query:    req.Query,
		Tags:     splitList(req.Tags),
	})
	if err != nil {
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, items)
}

func (h *Handler) GetKnowledge(e echo.Context) error {
	k, err := h.knowledge.Get(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, k)
}

func (h *Handler) CreateKnowledge(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.KnowledgeDraft
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	k, err := h.knowledge.Create(e.Request().Context(), &req, actor(e).ID)
	if err != nil {
		l.Error("failed to create knowledge share", zap.Any("error", err))
		return transportError(e, err)
	}

	l.Info("knowledge share created", zap.String("knowledge_id", k.ID))
	return e.JSON(http.StatusCreated, k)
}

func (h *Handler) UpdateKnowledge(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.KnowledgePatch
	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	k, err := h.knowledge.Update(e.Request().Context(), e.Param("id"), &req)
	if err != nil {
		l.Info("failed to update knowledge share", zap.String("knowledge_id", e.Param("id")), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, k)
}

func (h *Handler) DeleteKnowledge(e echo.Context) error {
	if err := h.knowledge.Delete(e.Request().Context(), e.Param("id")); err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, messageResponse{Message: "knowledge share deleted"})
}

func (h *Handler) KnowledgeVersions(e echo.Context) error {
	versions, err := h.knowledge.Versions(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, versions)
}

func (h *Handler) RevertKnowledge(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	index, convErr := strconv.Atoi(e.Param("version"))
	if convErr != nil {
		return transportError(e, service.NewServiceError(service.ErrorCodeValidation, "version must be an integer"))
	}

	k, err := h.knowledge.Revert(e.Request().Context(), e.Param("id"), index)
	if err != nil {
		l.Info("failed to revert knowledge share", zap.String("knowledge_id", e.Param("id")), zap.Int("index", index), zap.Any("error", err))
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, k)
}

func (h *Handler) ListComments(e echo.Context) error {
	comments, err := h.knowledge.Comments(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, comments)
}

func (h *Handler) AddComment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Content  string  `json:"content" validate:"required"`
		ParentID *string `json:"parentId"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	comment, err := h.knowledge.AddComment(e.Request().Context(), e.Param("id"),
		&model.Comment{Content: req.Content, ParentID: req.ParentID}, actor(e).ID)
	if err != nil {
		return transportError(e, err)
	}

	return e.JSON(http.StatusCreated, comment)
}

func (h *Handler) LikeKnowledge(e echo.Context) error {
	likes, err := h.knowledge.Like(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, struct {
		Likes int `json:"likes"`
	}{Likes: likes})
}

func (h *Handler) KnowledgeTags(e echo.Context) error {
	tags, err := h.knowledge.Tags(e.Request().Context(), e.Param("id"))
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, tags)
}

func (h *Handler) AddKnowledgeTags(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Tags []string `json:"tags" validate:"required,min=1"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Info("invalid request", zap.Any("error", err))
		return transportError(e, err)
	}

	tags, err := h.knowledge.AddTags(e.Request().Context(), e.Param("id"), req.Tags)
	if err != nil {
		return transportError(e, err)
	}

	return e.JSON(http.StatusOK, tags)
}

func (h *Handler) RemoveKnowledgeTag(e echo.Context) error {
	if err := h.knowledge.RemoveTag(e.Request().Context(), e.Param("id"), e.Param("tagId")); err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, messageResponse{Message: "tag removed"})
}

func (h *Handler) ListTags(e echo.Context) error {
	tags, err := h.knowledge.AllTags(e.Request().Context())
	if err != nil {
		return transportError(e, err)
	}
	return e.JSON(http.StatusOK, tags)
}
