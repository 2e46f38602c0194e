package model

import "time"

type TestCaseStatus string

const (
	TestCaseStatusDraft     TestCaseStatus = "draft"
	TestCaseStatusActive    TestCaseStatus = "active"
	TestCaseStatusCompleted TestCaseStatus = "completed"
	TestCaseStatusArchived  TestCaseStatus = "archived"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type TestCase struct {
	ID              string         `json:"id"`
	Title           string         `json:"title" validate:"required,max=255"`
	Steps           string         `json:"steps" validate:"required"`
	ExpectedResults string         `json:"expectedResults" validate:"required"`
	Status          TestCaseStatus `json:"status" validate:"omitempty,oneof=draft active completed archived"`
	Priority        Priority       `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Category        string         `json:"category,omitempty"`
	CreatedBy       string         `json:"createdBy"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// TestCasePatch carries a partial update; nil fields are left untouched.
type TestCasePatch struct {
	Title           *string         `json:"title" validate:"omitempty,min=1,max=255"`
	Steps           *string         `json:"steps" validate:"omitempty,min=1"`
	ExpectedResults *string         `json:"expectedResults" validate:"omitempty,min=1"`
	Status          *TestCaseStatus `json:"status" validate:"omitempty,oneof=draft active completed archived"`
	Priority        *Priority       `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Category        *string         `json:"category"`
}

type TestCaseFilter struct {
	Page     int
	Limit    int
	Search   string
	Status   TestCaseStatus
	Priority Priority
	IDs      []string
}

type TestCasePage struct {
	Total      int         `json:"total"`
	Items      []*TestCase `json:"items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}
