package model

import "time"

type CsvData struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"originalName"`
	Description  string     `json:"description"`
	Headers      []string   `json:"headers"`
	Rows         [][]string `json:"data,omitempty"`
	Size         int64      `json:"size"`
	UploadedBy   string     `json:"uploadedBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

type CsvStats struct {
	RowCount      int            `json:"rowCount"`
	ColumnCount   int            `json:"columnCount"`
	FileSizeBytes int64          `json:"fileSizeBytes"`
	FileSize      string         `json:"fileSize"`
	Numeric       []*ColumnStats `json:"numericColumns"`
}
