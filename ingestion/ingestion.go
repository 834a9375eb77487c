package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"quizbank-server/models"
)

const (
	maxOptionCells = 4
	colTitle       = 0
	colFirstOption = 1
	colCorrect     = colFirstOption + maxOptionCells
	colDifficulty  = colCorrect + 1
)

// QuestionWriter is the store capability the importer needs.
type QuestionWriter interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
}

// ErrLegacyWorkbook is returned for BIFF (.xls) workbooks. Only OOXML
// workbooks can be decoded.
var ErrLegacyWorkbook = errors.New("legacy .xls workbook")

// oleSignature opens every OLE2 compound file, which is how BIFF workbooks are
// stored. Encrypted OOXML also uses it, so excelize still gets first try.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ReadWorkbook decodes the first sheet of an .xlsx spreadsheet into rows of
// cell text.
func ReadWorkbook(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(oleSignature))
	f, err := excelize.OpenReader(br)
	if err != nil && bytes.Equal(head, oleSignature) {
		return nil, fmt.Errorf("%w: %v", ErrLegacyWorkbook, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ProcessRows imports one question per row into categoryID. Row 0 is the
// header. Rows with an empty first cell are skipped without comment; invalid
// rows, including a title of only whitespace, are reported by their 1-based sheet line and the rest still import.
// Only a store failure aborts the run.
func ProcessRows(ctx context.Context, store QuestionWriter, categoryID uuid.UUID, rows [][]string) (models.ImportResult, error) {
	var (
		imported int
		rowErrs  []string
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if len(row) == 0 || row[colTitle] == "" {
			continue
		}

		q, err := parseRow(row)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		q.CategoryID = categoryID
		if err := store.CreateQuestion(ctx, &q); err != nil {
			return models.ImportResult{}, fmt.Errorf("failed to save question from row %d: %w", line, err)
		}
		imported++
	}

	if len(rowErrs) > 0 {
		log.Printf("Import into category %s: %d imported, %d rows rejected", categoryID, imported, len(rowErrs))
	}
	return models.ImportResult{
		Message:  fmt.Sprintf("Imported %d questions.", imported),
		Imported: imported,
		Errors:   rowErrs,
	}, nil
}

func parseRow(row []string) (models.Question, error) {
	title := strings.TrimSpace(cell(row, colTitle))
	if title == "" {
		return models.Question{}, errors.New("title is required")
	}

	var options []string
	for c := colFirstOption; c < colFirstOption+maxOptionCells; c++ {
		if opt := strings.TrimSpace(cell(row, c)); opt != "" {
			options = append(options, opt)
		}
	}

	correct, ok := parseIndex(cell(row, colCorrect))
	if !ok || correct < 0 || correct >= maxOptionCells {
		return models.Question{}, fmt.Errorf("correct answer must be a number from 0 to %d", maxOptionCells-1)
	}
	if correct >= len(options) {
		return models.Question{}, fmt.Errorf("correct answer %d points at an empty option", correct)
	}

	return models.Question{
		Title:         title,
		Options:       options,
		CorrectAnswer: correct,
		Difficulty:    models.NormalizeDifficulty(cell(row, colDifficulty)),
	}, nil
}

// cell returns row[i], or "" for cells trimmed off the end of a short row.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseIndex(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
