package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

type KnowledgeService struct {
	tx db.Transactor

	knowledge repository.KnowledgeRepository
	tags      repository.TagRepository
	comments  repository.CommentRepository
}

func NewKnowledgeService(tx db.Transactor) *KnowledgeService {
	return &KnowledgeService{tx: tx}
}

var errKnowledgeNotFound = NewServiceError(ErrorCodeNotFound, "knowledge share not found")

func (s *KnowledgeService) List(ctx context.Context, filter model.KnowledgeFilter) ([]*model.Knowledge, *Error) {
	repoItems, err := s.knowledge.List(ctx, repository.KnowledgeQuery{
		Status:   filter.Status,
		Category: filter.Category,
		Text:     strings.TrimSpace(filter.Query),
		Tags:     normalizeTags(filter.Tags),
	})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list knowledge shares")
	}

	ids := make([]string, 0, len(repoItems))
	for _, item := range repoItems {
		ids = append(ids, item.ID)
	}

	tagsByID, err := s.tags.ListByKnowledge(ctx, ids)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list tags")
	}

	res := make([]*model.Knowledge, 0, len(repoItems))
	for _, item := range repoItems {
		res = append(res, knowledgeFromRepo(item, tagsByID[item.ID]))
	}
	return res, nil
}

// Get returns an article and counts the view.
func (s *KnowledgeService) Get(ctx context.Context, id string) (*model.Knowledge, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	_, err := s.knowledge.IncrementViews(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, errKnowledgeNotFound
	case err != nil:
		return nil, unspecified(ctx, err, "failed to count view")
	}

	return s.load(ctx, id)
}

func (s *KnowledgeService) load(ctx context.Context, id string) (*model.Knowledge, *Error) {
	k, err := s.knowledge.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, errKnowledgeNotFound
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get knowledge share")
	}

	tagsByID, err := s.tags.ListByKnowledge(ctx, []string{id})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list tags")
	}
	return knowledgeFromRepo(k, tagsByID[id]), nil
}

func (s *KnowledgeService) Create(ctx context.Context, draft *model.KnowledgeDraft, authorID string) (*model.Knowledge, *Error) {
	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = model.DefaultKnowledgeCategory
	}
	status := draft.Status
	if status == "" {
		status = model.KnowledgeStatusDraft
	}

	k := &repository.Knowledge{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Content:     draft.Content,
		HTMLContent: draft.HTMLContent,
		Summary:     draft.Summary,
		Category:    category,
		AuthorID:    authorID,
		Status:      status,
		Version:     1,
	}

	var tags []*repository.Tag
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.knowledge.Create(txCtx, k); err != nil {
			return err
		}

		var err error
		tags, err = s.attachTags(txCtx, k.ID, draft.Tags)
		return err
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to create knowledge share")
	}
	return knowledgeFromRepo(k, tags), nil
}

// Update snapshots the current state into the history before applying the patch.
func (s *KnowledgeService) Update(ctx context.Context, id string, patch *model.KnowledgePatch) (*model.Knowledge, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		k, err := s.knowledge.Get(txCtx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return errKnowledgeNotFound
		}
		if err != nil {
			return err
		}

		pushVersion(k)
		if patch.Title != nil {
			k.Title = *patch.Title
		}
		if patch.Content != nil {
			k.Content = *patch.Content
		}
		if patch.HTMLContent != nil {
			k.HTMLContent = *patch.HTMLContent
		}
		if patch.Summary != nil {
			k.Summary = *patch.Summary
		}
		if patch.Category != nil && strings.TrimSpace(*patch.Category) != "" {
			k.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Status != nil {
			k.Status = *patch.Status
		}

		return s.knowledge.Update(txCtx, k)
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to update knowledge share")
	}
	return s.load(ctx, id)
}

func (s *KnowledgeService) Delete(ctx context.Context, id string) *Error {
	if !validID(id) {
		return errKnowledgeNotFound
	}

	err := s.knowledge.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errKnowledgeNotFound
	case err != nil:
		return unspecified(ctx, err, "failed to delete knowledge share")
	}
	return nil
}

func (s *KnowledgeService) Versions(ctx context.Context, id string) ([]model.KnowledgeVersion, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	k, err := s.knowledge.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, errKnowledgeNotFound
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get knowledge share")
	}

	if k.Versions == nil {
		return []model.KnowledgeVersion{}, nil
	}
	return k.Versions, nil
}

// Revert restores the snapshot at index in the history. The current state is
// pushed to the history first, so a revert can itself be reverted.
func (s *KnowledgeService) Revert(ctx context.Context, id string, index int) (*model.Knowledge, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		k, err := s.knowledge.Get(txCtx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return errKnowledgeNotFound
		}
		if err != nil {
			return err
		}

		if index < 0 || index >= len(k.Versions) {
			return NewServiceError(ErrorCodeNotFound, "version not found")
		}
		target := k.Versions[index]

		pushVersion(k)
		k.Title = target.Title
		k.Content = target.Content
		k.HTMLContent = target.HTMLContent
		k.Summary = target.Summary
		k.Category = target.Category

		return s.knowledge.Update(txCtx, k)
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to revert knowledge share")
	}
	return s.load(ctx, id)
}

func pushVersion(k *repository.Knowledge) {
	k.Versions = append(k.Versions, model.KnowledgeVersion{
		Version:     k.Version,
		Title:       k.Title,
		Content:     k.Content,
		HTMLContent: k.HTMLContent,
		Summary:     k.Summary,
		Category:    k.Category,
		SavedAt:     time.Now().UTC(),
	})
	k.Version++
}

func (s *KnowledgeService) AddComment(ctx context.Context, id string, comment *model.Comment, userID string) (*model.Comment, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}
	if strings.TrimSpace(comment.Content) == "" {
		return nil, NewServiceError(ErrorCodeValidation, "comment content is required")
	}

	if _, err := s.knowledge.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errKnowledgeNotFound
		}
		return nil, unspecified(ctx, err, "failed to get knowledge share")
	}

	if comment.ParentID != nil {
		if !validID(*comment.ParentID) {
			return nil, NewServiceError(ErrorCodeValidation, "parent comment not found")
		}
		parent, err := s.comments.Get(ctx, *comment.ParentID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewServiceError(ErrorCodeValidation, "parent comment not found")
		case err != nil:
			return nil, unspecified(ctx, err, "failed to get parent comment")
		}
		if parent.KnowledgeID != id {
			return nil, NewServiceError(ErrorCodeValidation, "parent comment belongs to another knowledge share")
		}
	}

	c := &repository.Comment{
		ID:          uuid.NewString(),
		Content:     comment.Content,
		UserID:      userID,
		KnowledgeID: id,
		ParentID:    comment.ParentID,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errKnowledgeNotFound
		}
		return nil, unspecified(ctx, err, "failed to create comment")
	}
	return commentFromRepo(c), nil
}

func (s *KnowledgeService) Comments(ctx context.Context, id string) ([]*model.Comment, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	if _, err := s.knowledge.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errKnowledgeNotFound
		}
		return nil, unspecified(ctx, err, "failed to get knowledge share")
	}

	repoComments, err := s.comments.ListByKnowledge(ctx, id)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list comments")
	}

	res := make([]*model.Comment, 0, len(repoComments))
	for _, c := range repoComments {
		res = append(res, commentFromRepo(c))
	}
	return res, nil
}

func (s *KnowledgeService) Like(ctx context.Context, id string) (int, *Error) {
	if !validID(id) {
		return 0, errKnowledgeNotFound
	}

	likes, err := s.knowledge.IncrementLikes(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return 0, errKnowledgeNotFound
	case err != nil:
		return 0, unspecified(ctx, err, "failed to like knowledge share")
	}
	return likes, nil
}

func (s *KnowledgeService) Tags(ctx context.Context, id string) ([]*model.Tag, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}

	if _, err := s.knowledge.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errKnowledgeNotFound
		}
		return nil, unspecified(ctx, err, "failed to get knowledge share")
	}

	tagsByID, err := s.tags.ListByKnowledge(ctx, []string{id})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list tags")
	}
	return tagsFromRepo(tagsByID[id]), nil
}

// AddTags attaches the named tags, creating unknown ones, and returns the article's full tag set.
func (s *KnowledgeService) AddTags(ctx context.Context, id string, names []string) ([]*model.Tag, *Error) {
	if !validID(id) {
		return nil, errKnowledgeNotFound
	}
	if len(normalizeTags(names)) == 0 {
		return nil, NewServiceError(ErrorCodeValidation, "tags are required")
	}

	var tags []*repository.Tag
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.knowledge.Get(txCtx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errKnowledgeNotFound
			}
			return err
		}

		if _, err := s.attachTags(txCtx, id, names); err != nil {
			return err
		}

		tagsByID, err := s.tags.ListByKnowledge(txCtx, []string{id})
		tags = tagsByID[id]
		return err
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to add tags")
	}
	return tagsFromRepo(tags), nil
}

func (s *KnowledgeService) attachTags(ctx context.Context, knowledgeID string, names []string) ([]*repository.Tag, error) {
	tags, err := s.tags.Ensure(ctx, normalizeTags(names))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	if err = s.tags.Attach(ctx, knowledgeID, ids); err != nil {
		return nil, err
	}
	return tags, nil
}

// RemoveTag detaches a tag given either its id or its name.
func (s *KnowledgeService) RemoveTag(ctx context.Context, id, tagRef string) *Error {
	if !validID(id) {
		return errKnowledgeNotFound
	}

	var (
		tag *repository.Tag
		err = repository.ErrNotFound
	)
	if validID(tagRef) {
		tag, err = s.tags.Get(ctx, tagRef)
	}
	if errors.Is(err, repository.ErrNotFound) {
		tag, err = s.tags.GetByName(ctx, tagRef)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "tag not found")
	case err != nil:
		return unspecified(ctx, err, "failed to get tag")
	}

	err = s.tags.Detach(ctx, id, tag.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "tag is not attached to this knowledge share")
	case err != nil:
		return unspecified(ctx, err, "failed to remove tag")
	}
	return nil
}

func (s *KnowledgeService) AllTags(ctx context.Context) ([]*model.Tag, *Error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list tags")
	}
	return tagsFromRepo(tags), nil
}

// normalizeTags trims names and drops blanks and duplicates, keeping order.
func normalizeTags(names []string) []string {
	res := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		res = append(res, name)
	}
	return res
}

func (s *KnowledgeService) WithKnowledgeRepo(repo repository.KnowledgeRepository) *KnowledgeService {
	s.knowledge = repo
	return s
}

func (s *KnowledgeService) WithTagRepo(repo repository.TagRepository) *KnowledgeService {
	s.tags = repo
	return s
}

func (s *KnowledgeService) WithCommentRepo(repo repository.CommentRepository) *KnowledgeService {
	s.comments = repo
	return s
}
