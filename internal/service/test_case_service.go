package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type TestCaseService struct {
	tx db.Transactor

	testCases repository.TestCaseRepository
}

func NewTestCaseService(tx db.Transactor) *TestCaseService {
	return &TestCaseService{tx: tx}
}

func (s *TestCaseService) List(ctx context.Context, filter model.TestCaseFilter) (*model.TestCasePage, *Error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	repoItems, total, err := s.testCases.List(ctx, repository.TestCaseQuery{
		Search:   filter.Search,
		Status:   filter.Status,
		Priority: filter.Priority,
		Limit:    filter.Limit,
		Offset:   (filter.Page - 1) * filter.Limit,
	})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list test cases")
	}

	return &model.TestCasePage{
		Total:      total,
		Items:      testCasesFromRepo(repoItems),
		Page:       filter.Page,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

func (s *TestCaseService) Get(ctx context.Context, id string) (*model.TestCase, *Error) {
	if !validID(id) {
		return nil, NewServiceError(ErrorCodeNotFound, "test case not found")
	}

	tc, err := s.testCases.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "test case not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get test case")
	}
	return testCaseFromRepo(tc), nil
}

func (s *TestCaseService) Create(ctx context.Context, tc *model.TestCase, creatorID string) (*model.TestCase, *Error) {
	repoTC := newRepoTestCase(tc, creatorID)

	err := s.testCases.Create(ctx, repoTC)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "creator not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to create test case")
	}
	return testCaseFromRepo(repoTC), nil
}

// BatchImport inserts every test case or none of them.
func (s *TestCaseService) BatchImport(ctx context.Context, items []*model.TestCase, creatorID string) ([]*model.TestCase, *Error) {
	if len(items) == 0 {
		return nil, NewServiceError(ErrorCodeValidation, "no test cases to import")
	}

	created := make([]*model.TestCase, 0, len(items))
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			repoTC := newRepoTestCase(item, creatorID)
			if err := s.testCases.Create(txCtx, repoTC); err != nil {
				return err
			}
			created = append(created, testCaseFromRepo(repoTC))
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to import test cases")
	}
	return created, nil
}

func (s *TestCaseService) Update(ctx context.Context, id string, patch *model.TestCasePatch, actor model.Actor) (*model.TestCase, *Error) {
	var updated *repository.TestCase

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkOwner(txCtx, id, actor); err != nil {
			return err
		}

		var err error
		updated, err = s.testCases.Patch(txCtx, &repository.TestCasePatch{
			ID:              id,
			Title:           patch.Title,
			Steps:           patch.Steps,
			ExpectedResults: patch.ExpectedResults,
			Status:          patch.Status,
			Priority:        patch.Priority,
			Category:        patch.Category,
		})
		if errors.Is(err, repository.ErrNotFound) {
			return NewServiceError(ErrorCodeNotFound, "test case not found")
		}
		return err
	})
	if err != nil {
		return nil, asServiceError(ctx, err, "failed to update test case")
	}
	return testCaseFromRepo(updated), nil
}

func (s *TestCaseService) Delete(ctx context.Context, id string, actor model.Actor) *Error {
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkOwner(txCtx, id, actor); err != nil {
			return err
		}

		err := s.testCases.Delete(txCtx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return NewServiceError(ErrorCodeNotFound, "test case not found")
		}
		return err
	})
	if err != nil {
		return asServiceError(ctx, err, "failed to delete test case")
	}
	return nil
}

// checkOwner allows the creator and admins to modify a test case.
func (s *TestCaseService) checkOwner(ctx context.Context, id string, actor model.Actor) error {
	if !validID(id) {
		return NewServiceError(ErrorCodeNotFound, "test case not found")
	}

	tc, err := s.testCases.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "test case not found")
	case err != nil:
		return err
	}

	if tc.CreatedBy != actor.ID && !actor.IsAdmin() {
		return NewServiceError(ErrorCodeForbidden, "only the creator can modify this test case")
	}
	return nil
}

// Export returns the selected test cases, or all of them when ids is empty.
func (s *TestCaseService) Export(ctx context.Context, ids []string) ([]*model.TestCase, *Error) {
	for _, id := range ids {
		if !validID(id) {
			return nil, NewServiceError(ErrorCodeValidation, "invalid test case id: "+id)
		}
	}

	repoItems, _, err := s.testCases.List(ctx, repository.TestCaseQuery{IDs: ids})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to export test cases")
	}
	return testCasesFromRepo(repoItems), nil
}

func newRepoTestCase(tc *model.TestCase, creatorID string) *repository.TestCase {
	status := tc.Status
	if status == "" {
		status = model.TestCaseStatusDraft
	}
	priority := tc.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	return &repository.TestCase{
		ID:              uuid.NewString(),
		Title:           tc.Title,
		Steps:           tc.Steps,
		ExpectedResults: tc.ExpectedResults,
		Status:          status,
		Priority:        priority,
		Category:        tc.Category,
		CreatedBy:       creatorID,
	}
}

func testCasesFromRepo(items []*repository.TestCase) []*model.TestCase {
	res := make([]*model.TestCase, 0, len(items))
	for _, item := range items {
		res = append(res, testCaseFromRepo(item))
	}
	return res
}

func (s *TestCaseService) WithTestCaseRepo(repo repository.TestCaseRepository) *TestCaseService {
	s.testCases = repo
	return s
}
