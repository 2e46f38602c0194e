package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/repository"
	"github.com/yakoovad/perftest-admin/internal/storage"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

const DefaultMaxUploadSize int64 = 10 << 20

// CsvUpload is an incoming file. Size is the size announced by the client.
type CsvUpload struct {
	OriginalName string
	Description  string
	Size         int64
	Body         io.Reader
}

type CsvDataService struct {
	tx db.Transactor

	csvData repository.CsvDataRepository
	files   storage.FileStore
	maxSize int64
}

func NewCsvDataService(tx db.Transactor) *CsvDataService {
	return &CsvDataService{tx: tx, maxSize: DefaultMaxUploadSize}
}

func (s *CsvDataService) Upload(ctx context.Context, upload *CsvUpload, uploaderID string) (*model.CsvData, *Error) {
	if !strings.EqualFold(filepath.Ext(upload.OriginalName), ".csv") {
		return nil, NewServiceError(ErrorCodeValidation, "only .csv files are allowed")
	}
	if upload.Size > s.maxSize {
		return nil, s.tooLarge()
	}

	filename := uuid.NewString() + ".csv"
	size, err := s.files.Save(ctx, filename, io.LimitReader(upload.Body, s.maxSize+1))
	if err != nil {
		return nil, unspecified(ctx, err, "failed to store file")
	}

	data, serr := s.store(ctx, filename, size, upload, uploaderID)
	if serr != nil {
		if err = s.files.Delete(ctx, filename); err != nil {
			logger.FromContext(ctx).Warn("failed to remove rejected upload",
				zap.String("filename", filename), zap.Error(err))
		}
		return nil, serr
	}
	return data, nil
}

func (s *CsvDataService) store(ctx context.Context, filename string, size int64, upload *CsvUpload, uploaderID string) (*model.CsvData, *Error) {
	if size > s.maxSize {
		return nil, s.tooLarge()
	}

	f, err := s.files.Open(ctx, filename)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to open stored file")
	}
	defer f.Close()

	headers, rows, err := parseCSV(f)
	if err != nil {
		return nil, NewServiceError(ErrorCodeValidation, "invalid csv file: "+err.Error())
	}

	repoData := &repository.CsvData{
		ID:           uuid.NewString(),
		Filename:     filename,
		OriginalName: filepath.Base(upload.OriginalName),
		Description:  upload.Description,
		Headers:      headers,
		Rows:         rows,
		Size:         size,
		UploadedBy:   uploaderID,
	}
	if err = s.csvData.Create(ctx, repoData); err != nil {
		return nil, unspecified(ctx, err, "failed to save csv data")
	}
	return csvFromRepo(repoData), nil
}

func (s *CsvDataService) tooLarge() *Error {
	return NewServiceError(ErrorCodeValidation, "file exceeds the "+humanize.IBytes(uint64(s.maxSize))+" limit")
}

func (s *CsvDataService) List(ctx context.Context) ([]*model.CsvData, *Error) {
	repoItems, err := s.csvData.List(ctx)
	if err != nil {
		return nil, unspecified(ctx, err, "failed to list csv data")
	}

	res := make([]*model.CsvData, 0, len(repoItems))
	for _, item := range repoItems {
		res = append(res, csvFromRepo(item))
	}
	return res, nil
}

func (s *CsvDataService) Get(ctx context.Context, id string) (*model.CsvData, *Error) {
	if !validID(id) {
		return nil, NewServiceError(ErrorCodeNotFound, "csv data not found")
	}

	data, err := s.csvData.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "csv data not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to get csv data")
	}
	return csvFromRepo(data), nil
}

// Export opens the stored original file. The caller closes the reader.
func (s *CsvDataService) Export(ctx context.Context, id string) (io.ReadCloser, *model.CsvData, *Error) {
	data, serr := s.Get(ctx, id)
	if serr != nil {
		return nil, nil, serr
	}

	f, err := s.files.Open(ctx, data.Filename)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil, NewServiceError(ErrorCodeNotFound, "file not found")
	case err != nil:
		return nil, nil, unspecified(ctx, err, "failed to open file")
	}
	return f, data, nil
}

func (s *CsvDataService) UpdateDescription(ctx context.Context, id, description string) (*model.CsvData, *Error) {
	if !validID(id) {
		return nil, NewServiceError(ErrorCodeNotFound, "csv data not found")
	}

	data, err := s.csvData.UpdateDescription(ctx, id, description)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NewServiceError(ErrorCodeNotFound, "csv data not found")
	case err != nil:
		return nil, unspecified(ctx, err, "failed to update csv data")
	}
	return csvFromRepo(data), nil
}

// Delete removes the record first; a file left behind is only logged.
func (s *CsvDataService) Delete(ctx context.Context, id string) *Error {
	data, serr := s.Get(ctx, id)
	if serr != nil {
		return serr
	}

	err := s.csvData.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return NewServiceError(ErrorCodeNotFound, "csv data not found")
	case err != nil:
		return unspecified(ctx, err, "failed to delete csv data")
	}

	if err = s.files.Delete(ctx, data.Filename); err != nil {
		logger.FromContext(ctx).Warn("failed to remove csv file",
			zap.String("filename", data.Filename), zap.Error(err))
	}
	return nil
}

func (s *CsvDataService) Stats(ctx context.Context, id string) (*model.CsvStats, *Error) {
	data, serr := s.Get(ctx, id)
	if serr != nil {
		return nil, serr
	}

	return &model.CsvStats{
		RowCount:      len(data.Rows),
		ColumnCount:   len(data.Headers),
		FileSizeBytes: data.Size,
		FileSize:      humanize.Bytes(uint64(data.Size)),
		Numeric:       numericColumns(data.Headers, data.Rows),
	}, nil
}

func (s *CsvDataService) WithCsvDataRepo(repo repository.CsvDataRepository) *CsvDataService {
	s.csvData = repo
	return s
}

func (s *CsvDataService) WithFileStore(files storage.FileStore) *CsvDataService {
	s.files = files
	return s
}

func (s *CsvDataService) WithMaxSize(maxSize int64) *CsvDataService {
	if maxSize > 0 {
		s.maxSize = maxSize
	}
	return s
}
