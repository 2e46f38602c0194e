package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

const (
	testCaseID1 = "3f1d7c2a-6b8e-4f0a-9c3d-2e1f0a9b8c01"
	testCaseID2 = "3f1d7c2a-6b8e-4f0a-9c3d-2e1f0a9b8c02"
)

func TestTestCaseService_List(t *testing.T) {
	tests := []struct {
		name          string
		filter        model.TestCaseFilter
		expectedQuery repository.TestCaseQuery
		total         int
		expectedPage  int
		expectedPages int
	}{
		{
			name:          "defaults",
			filter:        model.TestCaseFilter{},
			expectedQuery: repository.TestCaseQuery{Limit: 10, Offset: 0},
			total:         25,
			expectedPage:  1,
			expectedPages: 3,
		},
		{
			name:          "second page with filters",
			filter:        model.TestCaseFilter{Page: 2, Limit: 5, Search: "load", Status: model.TestCaseStatusActive},
			expectedQuery: repository.TestCaseQuery{Search: "load", Status: model.TestCaseStatusActive, Limit: 5, Offset: 5},
			total:         6,
			expectedPage:  2,
			expectedPages: 2,
		},
		{
			name:          "limit capped",
			filter:        model.TestCaseFilter{Page: 1, Limit: 1000, Priority: model.PriorityHigh},
			expectedQuery: repository.TestCaseQuery{Priority: model.PriorityHigh, Limit: 100, Offset: 0},
			total:         0,
			expectedPage:  1,
			expectedPages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTestCaseRepository)
			mockRepo.On("List", mock.Anything, tt.expectedQuery).
				Return([]*repository.TestCase{}, tt.total, nil)

			service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

			got, err := service.List(context.Background(), tt.filter)
			require.Nil(t, err)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.expectedPage, got.Page)
			assert.Equal(t, tt.expectedPages, got.TotalPages)
			assert.NotNil(t, got.Items)

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTestCaseService_Get(t *testing.T) {
	tests := []struct {
		name          string
		id            string
		setupMocks    func(*MockTestCaseRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success",
			id:   testCaseID1,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, Title: "Login load"}, nil)
			},
		},
		{
			name: "not found",
			id:   testCaseID1,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:          "malformed id",
			id:            "42",
			setupMocks:    func(r *MockTestCaseRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTestCaseRepository)
			tt.setupMocks(mockRepo)

			service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

			got, err := service.Get(context.Background(), tt.id)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, tt.errorCode, err.Code)
				}
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, "Login load", got.Title)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTestCaseService_Create(t *testing.T) {
	mockRepo := new(MockTestCaseRepository)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(tc *repository.TestCase) bool {
		return tc.ID != "" && tc.CreatedBy == userID1 &&
			tc.Status == model.TestCaseStatusDraft && tc.Priority == model.PriorityMedium
	})).Return(nil)

	service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

	got, err := service.Create(context.Background(), &model.TestCase{
		Title:           "Checkout spike",
		Steps:           "ramp to 500 rps",
		ExpectedResults: "p99 < 300ms",
	}, userID1)
	require.Nil(t, err)
	assert.Equal(t, userID1, got.CreatedBy)
	assert.Equal(t, model.TestCaseStatusDraft, got.Status)

	mockRepo.AssertExpectations(t)
}

func TestTestCaseService_Update(t *testing.T) {
	title := "Renamed"
	owner := model.Actor{ID: userID1, Role: model.RoleTester}
	stranger := model.Actor{ID: userID2, Role: model.RoleTester}
	admin := model.Actor{ID: userID2, Role: model.RoleAdmin}

	tests := []struct {
		name          string
		actor         model.Actor
		setupMocks    func(*MockTestCaseRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:  "creator updates",
			actor: owner,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
				r.On("Patch", mock.Anything, &repository.TestCasePatch{ID: testCaseID1, Title: &title}).
					Return(&repository.TestCase{ID: testCaseID1, Title: title, CreatedBy: userID1}, nil)
			},
		},
		{
			name:  "admin updates someone else's",
			actor: admin,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
				r.On("Patch", mock.Anything, mock.Anything).
					Return(&repository.TestCase{ID: testCaseID1, Title: title, CreatedBy: userID1}, nil)
			},
		},
		{
			name:  "non-creator forbidden",
			actor: stranger,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:  "not found",
			actor: owner,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:  "patch failed",
			actor: owner,
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
				r.On("Patch", mock.Anything, mock.Anything).Return(nil, errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTestCaseRepository)
			tt.setupMocks(mockRepo)

			service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

			got, err := service.Update(context.Background(), testCaseID1, &model.TestCasePatch{Title: &title}, tt.actor)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, tt.errorCode, err.Code)
				}
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, title, got.Title)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTestCaseService_Delete(t *testing.T) {
	tests := []struct {
		name          string
		actor         model.Actor
		setupMocks    func(*MockTestCaseRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:  "success",
			actor: model.Actor{ID: userID1, Role: model.RoleTester},
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
				r.On("Delete", mock.Anything, testCaseID1).Return(nil)
			},
		},
		{
			name:  "forbidden",
			actor: model.Actor{ID: userID2, Role: model.RoleManager},
			setupMocks: func(r *MockTestCaseRepository) {
				r.On("Get", mock.Anything, testCaseID1).Return(&repository.TestCase{ID: testCaseID1, CreatedBy: userID1}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTestCaseRepository)
			tt.setupMocks(mockRepo)

			service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

			err := service.Delete(context.Background(), testCaseID1, tt.actor)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, tt.errorCode, err.Code)
				}
			} else {
				assert.Nil(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTestCaseService_BatchImport(t *testing.T) {
	items := []*model.TestCase{
		{Title: "a", Steps: "s", ExpectedResults: "r"},
		{Title: "b", Steps: "s", ExpectedResults: "r", Priority: model.PriorityCritical},
	}

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTestCaseRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

		service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

		got, err := service.BatchImport(context.Background(), items, userID1)
		require.Nil(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.PriorityCritical, got[1].Priority)

		mockRepo.AssertExpectations(t)
	})

	t.Run("empty", func(t *testing.T) {
		service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(new(MockTestCaseRepository))

		_, err := service.BatchImport(context.Background(), nil, userID1)
		if assert.NotNil(t, err) {
			assert.Equal(t, ErrorCodeValidation, err.Code)
		}
	})

	t.Run("insert failed", func(t *testing.T) {
		mockRepo := new(MockTestCaseRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error")).Once()

		service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

		got, err := service.BatchImport(context.Background(), items, userID1)
		if assert.NotNil(t, err) {
			assert.Equal(t, ErrorCodeUnspecified, err.Code)
		}
		assert.Nil(t, got)
	})
}

func TestTestCaseService_Export(t *testing.T) {
	t.Run("selected ids", func(t *testing.T) {
		mockRepo := new(MockTestCaseRepository)
		ids := []string{testCaseID1, testCaseID2}
		mockRepo.On("List", mock.Anything, repository.TestCaseQuery{IDs: ids}).
			Return([]*repository.TestCase{{ID: testCaseID1}, {ID: testCaseID2}}, 2, nil)

		service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(mockRepo)

		got, err := service.Export(context.Background(), ids)
		require.Nil(t, err)
		assert.Len(t, got, 2)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed id", func(t *testing.T) {
		service := NewTestCaseService(new(MockTransactor)).WithTestCaseRepo(new(MockTestCaseRepository))

		_, err := service.Export(context.Background(), []string{"abc"})
		if assert.NotNil(t, err) {
			assert.Equal(t, ErrorCodeValidation, err.Code)
		}
	})
}
