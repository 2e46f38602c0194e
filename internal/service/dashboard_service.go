package service

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
)

const recentActivitiesLimit = 10

type DashboardService struct {
	tx db.Transactor

	users     repository.UserRepository
	testCases repository.TestCaseRepository
	csvData   repository.CsvDataRepository
	knowledge repository.KnowledgeRepository
}

func NewDashboardService(tx db.Transactor) *DashboardService {
	return &DashboardService{tx: tx}
}

// Summary counts everything in one transaction so the totals come from a
// single snapshot when the transactor uses repeatable read.
func (d *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, *Error) {
	res := &model.DashboardSummary{
		TestCasesByStatus:   make(map[model.TestCaseStatus]int),
		TestCasesByPriority: make(map[model.Priority]int),
	}

	err := d.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if res.TestCasesCount, err = d.testCases.Count(txCtx); err != nil {
			return errors.Wrap(err, "count test cases")
		}

		byStatus, err := d.testCases.CountByStatus(txCtx)
		if err != nil {
			return errors.Wrap(err, "count test cases by status")
		}
		for k, v := range byStatus {
			res.TestCasesByStatus[model.TestCaseStatus(k)] = v
		}

		byPriority, err := d.testCases.CountByPriority(txCtx)
		if err != nil {
			return errors.Wrap(err, "count test cases by priority")
		}
		for k, v := range byPriority {
			res.TestCasesByPriority[model.Priority(k)] = v
		}

		if res.KnowledgeCount, err = d.knowledge.Count(txCtx); err != nil {
			return errors.Wrap(err, "count knowledge shares")
		}
		if res.CsvFilesCount, err = d.csvData.Count(txCtx); err != nil {
			return errors.Wrap(err, "count csv files")
		}
		if res.UsersCount, err = d.users.Count(txCtx); err != nil {
			return errors.Wrap(err, "count users")
		}
		return nil
	})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to build dashboard summary")
	}
	return res, nil
}

// RecentActivities merges the latest test case, article and upload changes, newest first.
func (d *DashboardService) RecentActivities(ctx context.Context) ([]*model.Activity, *Error) {
	activities := make([]*model.Activity, 0, 3*recentActivitiesLimit)

	testCases, err := d.testCases.Recent(ctx, recentActivitiesLimit)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to get recent test cases")
	}
	for _, tc := range testCases {
		activities = append(activities, &model.Activity{
			Kind:      model.ActivityTestCase,
			ID:        tc.ID,
			Title:     tc.Title,
			ActorID:   tc.CreatedBy,
			Timestamp: tc.UpdatedAt,
		})
	}

	articles, err := d.knowledge.List(ctx, repository.KnowledgeQuery{Limit: recentActivitiesLimit})
	if err != nil {
		return nil, unspecified(ctx, err, "failed to get recent knowledge shares")
	}
	for _, k := range articles {
		activities = append(activities, &model.Activity{
			Kind:      model.ActivityKnowledge,
			ID:        k.ID,
			Title:     k.Title,
			ActorID:   k.AuthorID,
			Timestamp: k.UpdatedAt,
		})
	}

	uploads, err := d.csvData.Recent(ctx, recentActivitiesLimit)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to get recent csv uploads")
	}
	for _, u := range uploads {
		activities = append(activities, &model.Activity{
			Kind:      model.ActivityCsvUpload,
			ID:        u.ID,
			Title:     u.OriginalName,
			ActorID:   u.UploadedBy,
			Timestamp: u.CreatedAt,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > recentActivitiesLimit {
		activities = activities[:recentActivitiesLimit]
	}
	return activities, nil
}

func (d *DashboardService) WithUserRepo(repo repository.UserRepository) *DashboardService {
	d.users = repo
	return d
}

func (d *DashboardService) WithTestCaseRepo(repo repository.TestCaseRepository) *DashboardService {
	d.testCases = repo
	return d
}

func (d *DashboardService) WithCsvDataRepo(repo repository.CsvDataRepository) *DashboardService {
	d.csvData = repo
	return d
}

func (d *DashboardService) WithKnowledgeRepo(repo repository.KnowledgeRepository) *DashboardService {
	d.knowledge = repo
	return d
}
