package model

import "time"

type DashboardSummary struct {
	TestCasesCount      int                    `json:"testCasesCount"`
	TestCasesByStatus   map[TestCaseStatus]int `json:"testCasesByStatus"`
	TestCasesByPriority map[Priority]int       `json:"testCasesByPriority"`
	KnowledgeCount      int                    `json:"knowledgeCount"`
	CsvFilesCount       int                    `json:"csvFilesCount"`
	UsersCount          int                    `json:"usersCount"`
}

type ActivityKind string

const (
	ActivityTestCase  ActivityKind = "test_case"
	ActivityKnowledge ActivityKind = "knowledge"
	ActivityCsvUpload ActivityKind = "csv_upload"
)

type Activity struct {
	Kind      ActivityKind `json:"kind"`
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	ActorID   string       `json:"actorId"`
	Timestamp time.Time    `json:"timestamp"`
}
