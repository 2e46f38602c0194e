package model

import "time"

type KnowledgeStatus string

const (
	KnowledgeStatusDraft     KnowledgeStatus = "draft"
	KnowledgeStatusPublished KnowledgeStatus = "published"
	KnowledgeStatusArchived  KnowledgeStatus = "archived"
)

const DefaultKnowledgeCategory = "general"

type Knowledge struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	HTMLContent string             `json:"htmlContent"`
	Summary     string             `json:"summary"`
	Category    string             `json:"category"`
	AuthorID    string             `json:"authorId"`
	Status      KnowledgeStatus    `json:"status"`
	ViewCount   int                `json:"viewCount"`
	LikeCount   int                `json:"likeCount"`
	Version     int                `json:"version"`
	Versions    []KnowledgeVersion `json:"-"`
	Tags        []*Tag             `json:"tags"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// KnowledgeVersion is a snapshot of an article taken before it was changed.
type KnowledgeVersion struct {
	Version     int       `json:"version"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	HTMLContent string    `json:"htmlContent"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	SavedAt     time.Time `json:"savedAt"`
}

type KnowledgeDraft struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Content     string          `json:"content" validate:"required"`
	HTMLContent string          `json:"htmlContent"`
	Summary     string          `json:"summary"`
	Category    string          `json:"category"`
	Status      KnowledgeStatus `json:"status" validate:"omitempty,oneof=draft published archived"`
	Tags        []string        `json:"tags"`
}

type KnowledgePatch struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Content     *string          `json:"content" validate:"omitempty,min=1"`
	HTMLContent *string          `json:"htmlContent"`
	Summary     *string          `json:"summary"`
	Category    *string          `json:"category"`
	Status      *KnowledgeStatus `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type KnowledgeFilter struct {
	Status   KnowledgeStatus
	Category string
	Query    string
	Tags     []string
}

type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

const DefaultTagColor = "#1890ff"

type Comment struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	UserID      string    `json:"userId"`
	KnowledgeID string    `json:"knowledgeId"`
	ParentID    *string   `json:"parentId,omitempty"`
	IsEdited    bool      `json:"isEdited"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
