package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/perftest-admin/internal/repository"
	"github.com/yakoovad/perftest-admin/internal/storage"
)

const csvID1 = "7c0e5d4b-1a2f-4e3d-8c9b-0a1b2c3d4e01"

func newTestCsvService(t *testing.T, repo *MockCsvDataRepository) (*CsvDataService, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewDiskStore(dir)
	require.NoError(t, err)

	return NewCsvDataService(new(MockTransactor)).
		WithCsvDataRepo(repo).
		WithFileStore(files).
		WithMaxSize(64), dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCsvDataService_Upload(t *testing.T) {
	tests := []struct {
		name          string
		upload        *CsvUpload
		setupMocks    func(*MockCsvDataRepository)
		expectedError bool
		errorCode     ErrorCode
		expectedFiles int
	}{
		{
			name:   "success",
			upload: &CsvUpload{OriginalName: "Results.CSV", Description: "run 1", Size: 17, Body: strings.NewReader("a,b\n1,2\n3,4\n")},
			setupMocks: func(r *MockCsvDataRepository) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(d *repository.CsvData) bool {
					return d.OriginalName == "Results.CSV" && d.UploadedBy == userID1 &&
						len(d.Rows) == 2 && d.Size == 12 && strings.HasSuffix(d.Filename, ".csv")
				})).Return(nil)
			},
			expectedFiles: 1,
		},
		{
			name:          "not a csv",
			upload:        &CsvUpload{OriginalName: "notes.txt", Size: 3, Body: strings.NewReader("a,b")},
			setupMocks:    func(r *MockCsvDataRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:          "announced size too large",
			upload:        &CsvUpload{OriginalName: "big.csv", Size: 65, Body: strings.NewReader("a,b")},
			setupMocks:    func(r *MockCsvDataRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:          "body larger than announced",
			upload:        &CsvUpload{OriginalName: "big.csv", Size: 1, Body: strings.NewReader(strings.Repeat("a,b\n", 20))},
			setupMocks:    func(r *MockCsvDataRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:          "empty file",
			upload:        &CsvUpload{OriginalName: "empty.csv", Body: strings.NewReader("")},
			setupMocks:    func(r *MockCsvDataRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeValidation,
		},
		{
			name:   "save record failed",
			upload: &CsvUpload{OriginalName: "a.csv", Size: 4, Body: strings.NewReader("a,b\n")},
			setupMocks: func(r *MockCsvDataRepository) {
				r.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockCsvDataRepository)
			tt.setupMocks(mockRepo)

			service, dir := newTestCsvService(t, mockRepo)

			got, err := service.Upload(context.Background(), tt.upload, userID1)
			if tt.expectedError {
				if assert.NotNil(t, err) {
					assert.Equal(t, tt.errorCode, err.Code)
				}
				assert.Nil(t, got)
			} else {
				require.Nil(t, err)
				assert.Equal(t, []string{"a", "b"}, got.Headers)
				assert.Equal(t, "run 1", got.Description)
			}
			assert.Len(t, dirEntries(t, dir), tt.expectedFiles)

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCsvDataService_ExportAndDelete(t *testing.T) {
	mockRepo := new(MockCsvDataRepository)
	service, dir := newTestCsvService(t, mockRepo)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stored.csv"), []byte("a,b\n1,2\n"), 0o644))

	record := &repository.CsvData{ID: csvID1, Filename: "stored.csv", OriginalName: "orig.csv"}
	mockRepo.On("Get", mock.Anything, csvID1).Return(record, nil)
	mockRepo.On("Delete", mock.Anything, csvID1).Return(nil)

	rc, data, err := service.Export(context.Background(), csvID1)
	require.Nil(t, err)
	content, rerr := io.ReadAll(rc)
	require.NoError(t, rerr)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(content))
	assert.Equal(t, "orig.csv", data.OriginalName)

	require.Nil(t, service.Delete(context.Background(), csvID1))
	assert.Empty(t, dirEntries(t, dir))

	mockRepo.AssertExpectations(t)
}

func TestCsvDataService_Get_NotFound(t *testing.T) {
	mockRepo := new(MockCsvDataRepository)
	mockRepo.On("Get", mock.Anything, csvID1).Return(nil, repository.ErrNotFound)

	service, _ := newTestCsvService(t, mockRepo)

	for _, id := range []string{csvID1, "not-a-uuid"} {
		_, err := service.Get(context.Background(), id)
		if assert.NotNil(t, err) {
			assert.Equal(t, ErrorCodeNotFound, err.Code)
		}
	}
	mockRepo.AssertExpectations(t)
}

func TestCsvDataService_Stats(t *testing.T) {
	mockRepo := new(MockCsvDataRepository)
	mockRepo.On("Get", mock.Anything, csvID1).Return(&repository.CsvData{
		ID:      csvID1,
		Headers: []string{"endpoint", "rps"},
		Rows:    [][]string{{"/a", "10"}, {"/b", "30"}},
		Size:    2048,
	}, nil)

	service, _ := newTestCsvService(t, mockRepo)

	got, err := service.Stats(context.Background(), csvID1)
	require.Nil(t, err)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, 2, got.ColumnCount)
	assert.Equal(t, int64(2048), got.FileSizeBytes)
	assert.Equal(t, "2.0 kB", got.FileSize)
	require.Len(t, got.Numeric, 1)
	assert.Equal(t, "rps", got.Numeric[0].Column)
	assert.Equal(t, float64(20), got.Numeric[0].Mean)
}

func TestCsvDataService_UpdateDescription(t *testing.T) {
	mockRepo := new(MockCsvDataRepository)
	mockRepo.On("UpdateDescription", mock.Anything, csvID1, "baseline").
		Return(&repository.CsvData{ID: csvID1, Description: "baseline"}, nil)

	service, _ := newTestCsvService(t, mockRepo)

	got, err := service.UpdateDescription(context.Background(), csvID1, "baseline")
	require.Nil(t, err)
	assert.Equal(t, "baseline", got.Description)
	mockRepo.AssertExpectations(t)
}
