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
	knowledgeID1 = "5b2e8f1a-0c3d-4a6b-9e7f-1d2c3b4a5f01"
	knowledgeID2 = "5b2e8f1a-0c3d-4a6b-9e7f-1d2c3b4a5f02"
	commentID1   = "e4d3c2b1-a0f9-4e8d-b7c6-a5b4c3d2e101"
	tagID1       = "b1a2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c01"
)

type knowledgeMocks struct {
	knowledge *MockKnowledgeRepository
	tags      *MockTagRepository
	comments  *MockCommentRepository
}

func newKnowledgeMocks() *knowledgeMocks {
	return &knowledgeMocks{
		knowledge: new(MockKnowledgeRepository),
		tags:      new(MockTagRepository),
		comments:  new(MockCommentRepository),
	}
}

func (m *knowledgeMocks) service() *KnowledgeService {
	return NewKnowledgeService(new(MockTransactor)).
		WithKnowledgeRepo(m.knowledge).
		WithTagRepo(m.tags).
		WithCommentRepo(m.comments)
}

func (m *knowledgeMocks) assert(t *testing.T) {
	m.knowledge.AssertExpectations(t)
	m.tags.AssertExpectations(t)
	m.comments.AssertExpectations(t)
}

func article() *repository.Knowledge {
	return &repository.Knowledge{
		ID:       knowledgeID1,
		Title:    "JMeter tips",
		Content:  "use thread groups",
		Category: "tools",
		AuthorID: userID1,
		Status:   model.KnowledgeStatusPublished,
		Version:  1,
	}
}

func TestKnowledgeService_Create(t *testing.T) {
	m := newKnowledgeMocks()
	tags := []*repository.Tag{{ID: tagID1, Name: "jmeter", Color: model.DefaultTagColor}}

	m.knowledge.On("Create", mock.Anything, mock.MatchedBy(func(k *repository.Knowledge) bool {
		return k.Category == model.DefaultKnowledgeCategory && k.Status == model.KnowledgeStatusDraft &&
			k.Version == 1 && k.AuthorID == userID1
	})).Return(nil)
	m.tags.On("Ensure", mock.Anything, []string{"jmeter"}).Return(tags, nil)
	m.tags.On("Attach", mock.Anything, mock.Anything, []string{tagID1}).Return(nil)

	got, err := m.service().Create(context.Background(), &model.KnowledgeDraft{
		Title:   "JMeter tips",
		Content: "use thread groups",
		Tags:    []string{" jmeter ", "jmeter", ""},
	}, userID1)
	require.Nil(t, err)
	assert.Equal(t, model.DefaultKnowledgeCategory, got.Category)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "jmeter", got.Tags[0].Name)

	m.assert(t)
}

func TestKnowledgeService_Get(t *testing.T) {
	tests := []struct {
		name          string
		id            string
		setupMocks    func(*knowledgeMocks)
		expectedError bool
	}{
		{
			name: "success counts view",
			id:   knowledgeID1,
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("IncrementViews", mock.Anything, knowledgeID1).Return(1, nil)
				k := article()
				k.ViewCount = 1
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(k, nil)
				m.tags.On("ListByKnowledge", mock.Anything, []string{knowledgeID1}).
					Return(map[string][]*repository.Tag{}, nil)
			},
		},
		{
			name: "not found",
			id:   knowledgeID1,
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("IncrementViews", mock.Anything, knowledgeID1).Return(0, repository.ErrNotFound)
			},
			expectedError: true,
		},
		{
			name:          "malformed id",
			id:            "nope",
			setupMocks:    func(m *knowledgeMocks) {},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newKnowledgeMocks()
			tt.setupMocks(m)

			got, err := m.service().Get(context.Background(), tt.id)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, ErrorCodeNotFound, err.Code)
				}
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, 1, got.ViewCount)
				assert.NotNil(t, got.Tags)
			}

			m.assert(t)
		})
	}
}

func TestKnowledgeService_UpdatePushesVersion(t *testing.T) {
	m := newKnowledgeMocks()
	title := "JMeter tips v2"

	m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(article(), nil).Once()
	m.knowledge.On("Update", mock.Anything, mock.MatchedBy(func(k *repository.Knowledge) bool {
		return k.Title == title && k.Version == 2 && len(k.Versions) == 1 &&
			k.Versions[0].Title == "JMeter tips" && k.Versions[0].Version == 1
	})).Return(nil)

	updated := article()
	updated.Title = title
	updated.Version = 2
	m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(updated, nil).Once()
	m.tags.On("ListByKnowledge", mock.Anything, []string{knowledgeID1}).Return(map[string][]*repository.Tag{}, nil)

	got, err := m.service().Update(context.Background(), knowledgeID1, &model.KnowledgePatch{Title: &title})
	require.Nil(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, title, got.Title)

	m.assert(t)
}

func TestKnowledgeService_Revert(t *testing.T) {
	withHistory := func() *repository.Knowledge {
		k := article()
		k.Title = "current"
		k.Version = 2
		k.Versions = []model.KnowledgeVersion{{Version: 1, Title: "JMeter tips", Content: "use thread groups", Category: "tools"}}
		return k
	}

	tests := []struct {
		name          string
		index         int
		setupMocks    func(*knowledgeMocks)
		expectedError bool
	}{
		{
			name:  "restores snapshot",
			index: 0,
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(withHistory(), nil).Once()
				m.knowledge.On("Update", mock.Anything, mock.MatchedBy(func(k *repository.Knowledge) bool {
					return k.Title == "JMeter tips" && k.Version == 3 && len(k.Versions) == 2 &&
						k.Versions[1].Title == "current"
				})).Return(nil)
				reverted := article()
				reverted.Version = 3
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(reverted, nil).Once()
				m.tags.On("ListByKnowledge", mock.Anything, []string{knowledgeID1}).Return(map[string][]*repository.Tag{}, nil)
			},
		},
		{
			name:  "version out of range",
			index: 5,
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(withHistory(), nil).Once()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newKnowledgeMocks()
			tt.setupMocks(m)

			got, err := m.service().Revert(context.Background(), knowledgeID1, tt.index)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, ErrorCodeNotFound, err.Code)
				}
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, "JMeter tips", got.Title)
			}

			m.assert(t)
		})
	}
}

func TestKnowledgeService_AddComment(t *testing.T) {
	parent := commentID1

	tests := []struct {
		name          string
		comment       *model.Comment
		setupMocks    func(*knowledgeMocks)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:    "success",
			comment: &model.Comment{Content: "nice"},
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(article(), nil)
				m.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *repository.Comment) bool {
					return c.KnowledgeID == knowledgeID1 && c.UserID == userID1 && c.ParentID == nil
				})).Return(nil)
			},
		},
		{
			name:    "reply to same article",
			comment: &model.Comment{Content: "agreed", ParentID: &parent},
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(article(), nil)
				m.comments.On("Get", mock.Anything, commentID1).Return(&repository.Comment{ID: commentID1, KnowledgeID: knowledgeID1}, nil)
				m.comments.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:    "reply to another article",
			comment: &model.Comment{Content: "agreed", ParentID: &parent},
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(article(), nil)
				m.comments.On("Get", mock.Anything, commentID1).Return(&repository.Comment{ID: commentID1, KnowledgeID: knowledgeID2}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:          "empty content",
			comment:       &model.Comment{Content: "  "},
			setupMocks:    func(m *knowledgeMocks) {},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:    "article missing",
			comment: &model.Comment{Content: "nice"},
			setupMocks: func(m *knowledgeMocks) {
				m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newKnowledgeMocks()
			tt.setupMocks(m)

			got, err := m.service().AddComment(context.Background(), knowledgeID1, tt.comment, userID1)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, tt.errorCode, err.Code)
				}
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.comment.Content, got.Content)
			}

			m.assert(t)
		})
	}
}

func TestKnowledgeService_Like(t *testing.T) {
	m := newKnowledgeMocks()
	m.knowledge.On("IncrementLikes", mock.Anything, knowledgeID1).Return(4, nil)
	m.knowledge.On("IncrementLikes", mock.Anything, knowledgeID2).Return(0, errors.New("db error"))

	likes, err := m.service().Like(context.Background(), knowledgeID1)
	require.Nil(t, err)
	assert.Equal(t, 4, likes)

	_, err = m.service().Like(context.Background(), knowledgeID2)
	if assert.NotNil(t, err) {
		assert.Equal(t, ErrorCodeUnspecified, err.Code)
	}

	m.assert(t)
}

func TestKnowledgeService_RemoveTag(t *testing.T) {
	tag := &repository.Tag{ID: tagID1, Name: "jmeter"}

	tests := []struct {
		name          string
		ref           string
		setupMocks    func(*knowledgeMocks)
		expectedError bool
	}{
		{
			name: "by id",
			ref:  tagID1,
			setupMocks: func(m *knowledgeMocks) {
				m.tags.On("Get", mock.Anything, tagID1).Return(tag, nil)
				m.tags.On("Detach", mock.Anything, knowledgeID1, tagID1).Return(nil)
			},
		},
		{
			name: "by name",
			ref:  "jmeter",
			setupMocks: func(m *knowledgeMocks) {
				m.tags.On("GetByName", mock.Anything, "jmeter").Return(tag, nil)
				m.tags.On("Detach", mock.Anything, knowledgeID1, tagID1).Return(nil)
			},
		},
		{
			name: "not attached",
			ref:  "jmeter",
			setupMocks: func(m *knowledgeMocks) {
				m.tags.On("GetByName", mock.Anything, "jmeter").Return(tag, nil)
				m.tags.On("Detach", mock.Anything, knowledgeID1, tagID1).Return(repository.ErrNotFound)
			},
			expectedError: true,
		},
		{
			name: "unknown tag",
			ref:  "gatling",
			setupMocks: func(m *knowledgeMocks) {
				m.tags.On("GetByName", mock.Anything, "gatling").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newKnowledgeMocks()
			tt.setupMocks(m)

			err := m.service().RemoveTag(context.Background(), knowledgeID1, tt.ref)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, ErrorCodeNotFound, err.Code)
				}
			} else {
				assert.Nil(t, err)
			}

			m.assert(t)
		})
	}
}

func TestKnowledgeService_AddTags(t *testing.T) {
	m := newKnowledgeMocks()
	tags := []*repository.Tag{{ID: tagID1, Name: "k6"}}

	m.knowledge.On("Get", mock.Anything, knowledgeID1).Return(article(), nil)
	m.tags.On("Ensure", mock.Anything, []string{"k6"}).Return(tags, nil)
	m.tags.On("Attach", mock.Anything, knowledgeID1, []string{tagID1}).Return(nil)
	m.tags.On("ListByKnowledge", mock.Anything, []string{knowledgeID1}).
		Return(map[string][]*repository.Tag{knowledgeID1: tags}, nil)

	got, err := m.service().AddTags(context.Background(), knowledgeID1, []string{"k6"})
	require.Nil(t, err)
	assert.Len(t, got, 1)

	_, err = m.service().AddTags(context.Background(), knowledgeID1, []string{" "})
	if assert.NotNil(t, err) {
		assert.Equal(t, ErrorCodeValidation, err.Code)
	}

	m.assert(t)
}

func TestKnowledgeService_List(t *testing.T) {
	m := newKnowledgeMocks()
	second := article()
	second.ID = knowledgeID2

	m.knowledge.On("List", mock.Anything, repository.KnowledgeQuery{
		Text: "jmeter",
		Tags: []string{"tools"},
	}).Return([]*repository.Knowledge{article(), second}, nil)
	m.tags.On("ListByKnowledge", mock.Anything, []string{knowledgeID1, knowledgeID2}).
		Return(map[string][]*repository.Tag{knowledgeID2: {{ID: tagID1, Name: "tools"}}}, nil)

	got, err := m.service().List(context.Background(), model.KnowledgeFilter{Query: " jmeter ", Tags: []string{"tools"}})
	require.Nil(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].Tags)
	assert.Len(t, got[1].Tags, 1)

	m.assert(t)
}
