package service

import (
	"github.com/google/uuid"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

// validID reports whether id can address a row; other ids are never found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func userFromRepo(u *repository.User) *model.User {
	return &model.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Profile: model.Profile{
			Name:       u.FullName,
			Avatar:     u.Avatar,
			Department: u.Department,
			Position:   u.Position,
		},
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func testCaseFromRepo(tc *repository.TestCase) *model.TestCase {
	return &model.TestCase{
		ID:              tc.ID,
		Title:           tc.Title,
		Steps:           tc.Steps,
		ExpectedResults: tc.ExpectedResults,
		Status:          tc.Status,
		Priority:        tc.Priority,
		Category:        tc.Category,
		CreatedBy:       tc.CreatedBy,
		CreatedAt:       tc.CreatedAt,
		UpdatedAt:       tc.UpdatedAt,
	}
}

func csvFromRepo(d *repository.CsvData) *model.CsvData {
	return &model.CsvData{
		ID:           d.ID,
		Filename:     d.Filename,
		OriginalName: d.OriginalName,
		Description:  d.Description,
		Headers:      d.Headers,
		Rows:         d.Rows,
		Size:         d.Size,
		UploadedBy:   d.UploadedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func knowledgeFromRepo(k *repository.Knowledge, tags []*repository.Tag) *model.Knowledge {
	return &model.Knowledge{
		ID:          k.ID,
		Title:       k.Title,
		Content:     k.Content,
		HTMLContent: k.HTMLContent,
		Summary:     k.Summary,
		Category:    k.Category,
		AuthorID:    k.AuthorID,
		Status:      k.Status,
		ViewCount:   k.ViewCount,
		LikeCount:   k.LikeCount,
		Version:     k.Version,
		Versions:    k.Versions,
		Tags:        tagsFromRepo(tags),
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

func tagsFromRepo(tags []*repository.Tag) []*model.Tag {
	res := make([]*model.Tag, 0, len(tags))
	for _, t := range tags {
		res = append(res, &model.Tag{
			ID:          t.ID,
			Name:        t.Name,
			Color:       t.Color,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		})
	}
	return res
}

func commentFromRepo(c *repository.Comment) *model.Comment {
	return &model.Comment{
		ID:          c.ID,
		Content:     c.Content,
		UserID:      c.UserID,
		KnowledgeID: c.KnowledgeID,
		ParentID:    c.ParentID,
		IsEdited:    c.IsEdited,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
