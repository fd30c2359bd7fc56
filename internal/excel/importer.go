package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/vocabdrill/internal/session"
	"github.com/example/vocabdrill/pkg/models"
)

// Seeder creates review items. *session.Service implements it.
type Seeder interface {
	EnsureItem(ctx context.Context, id string) (models.ReviewItem, session.ItemState)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath   string // Path to the Excel or CSV file
	WordColumn string // Column with the word
	SheetName  string // Name of the sheet to import, Excel only
	StartRow   int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn: "A",
		SheetName:  "Sheet1",
		StartRow:   2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Existing       int
	Unsaved        int // Words that could not be written to the store
	Skipped        int
	Errors         []string
}

// ImportWords creates a review item for every word in an Excel or CSV file.
// Words that already have an item are left as they are.
func ImportWords(ctx context.Context, seeder Seeder, config ImportConfig) (*ImportResult, error) {
	// Check the file extension
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		// Process as CSV
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		return ImportCSV(ctx, seeder, file, config)
	}

	// Process as Excel
	return importFromExcel(ctx, seeder, config)
}

// importFromExcel imports words from an Excel file
func importFromExcel(ctx context.Context, seeder Seeder, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		processRow(ctx, seeder, row, config, result, i+1)
	}
	return result, nil
}

// ImportCSV imports words from CSV data
func ImportCSV(ctx context.Context, seeder Seeder, r io.Reader, config ImportConfig) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true    // Allow lazy quotes for custom CSV format

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("error reading CSV: %w", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		processRow(ctx, seeder, row, config, result, rowNum)
	}
	return result, nil
}

// processRow seeds the word found in one row
func processRow(ctx context.Context, seeder Seeder, row []string, config ImportConfig, result *ImportResult, rowNum int) {
	result.TotalProcessed++

	colIdx := columnToIndex(config.WordColumn)
	if colIdx < 0 {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid word column %q", rowNum, config.WordColumn))
		return
	}

	var word string
	if colIdx < len(row) {
		word = cleanWord(row[colIdx])
	}
	if word == "" {
		result.Skipped++
		return
	}

	switch _, state := seeder.EnsureItem(ctx, word); state {
	case session.ItemCreated:
		result.Created++
	case session.ItemExisting:
		result.Existing++
	default:
		result.Unsaved++
	}
}

// cleanWord удаляет из слова дополнительную информацию в скобках
func cleanWord(word string) string {
	// Удаляем информацию в скобках "(went, gone)" из слова
	indexOpenParen := strings.Index(word, "(")
	if indexOpenParen > 0 {
		return strings.TrimSpace(word[:indexOpenParen])
	}
	return strings.TrimSpace(word)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
