package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quizbank-server/db"
	"quizbank-server/models"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

var header = []any{"Title", "A", "B", "C", "D", "Correct", "Difficulty"}

func TestReadWorkbook(t *testing.T) {
	buf := workbook(t, [][]any{
		header,
		{"What is 2+2?", "3", "4", "5", "", 1, "Easy"},
	})

	rows, err := ReadWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "What is 2+2?", rows[1][0])
	assert.Equal(t, "1", rows[1][5])
}

func TestReadWorkbookRejectsGarbage(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a spreadsheet"))
	assert.Error(t, err)
}

func TestReadWorkbookRejectsLegacyXLS(t *testing.T) {
	biff := make([]byte, 4096)
	copy(biff, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})

	_, err := ReadWorkbook(bytes.NewReader(biff))
	assert.ErrorIs(t, err, ErrLegacyWorkbook)

	_, err = ReadWorkbook(strings.NewReader("PK not really a zip"))
	assert.False(t, errors.Is(err, ErrLegacyWorkbook))
}

func TestProcessRowsPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	category := uuid.New()

	rows, err := ReadWorkbook(workbook(t, [][]any{
		header,
		{"q1", "a", "b", "c", "d", 0, "Easy"},
		{"q2", "a", "b", "c", "d", 7, "Hard"},
		{"q3", "a", "b", "c", "d", 3},
		{"q4", "a", "b", "", "d", 2, "Khó"},
		{"q5", "a", "b", "c", "d", "1", "Legendary"},
	}))
	require.NoError(t, err)

	res, err := ProcessRows(ctx, store, category, rows)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Row 3:"), res.Errors[0])

	questions, err := store.ListQuestionsByCategories(ctx, []uuid.UUID{category})
	require.NoError(t, err)
	require.Len(t, questions, 4)

	byTitle := map[string]models.Question{}
	for _, q := range questions {
		byTitle[q.Title] = q
	}
	assert.Equal(t, models.DifficultyEasy, byTitle["q1"].Difficulty)
	assert.Equal(t, models.DifficultyMedium, byTitle["q3"].Difficulty, "missing difficulty defaults to Medium")
	assert.Equal(t, []string{"a", "b", "d"}, byTitle["q4"].Options, "blank option cells are dropped")
	assert.Equal(t, models.DifficultyHard, byTitle["q4"].Difficulty)
	assert.Equal(t, models.DifficultyMedium, byTitle["q5"].Difficulty, "unknown difficulty defaults to Medium")
}

func TestProcessRowsSkipsBlankTitles(t *testing.T) {
	rows := [][]string{
		{"Title", "A", "B", "C", "D", "Correct"},
		{},
		{"", "a", "b", "", "", "0"},
		{"kept", "a", "b", "", "", "1"},
	}
	res, err := ProcessRows(context.Background(), db.NewMemStore(), uuid.New(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.Errors)
}

func TestProcessRowsReportsWhitespaceTitle(t *testing.T) {
	rows := [][]string{
		{"Title", "A", "B", "C", "D", "Correct"},
		{"   ", "a", "b", "", "", "0"},
		{"kept", "a", "b", "", "", "1"},
	}
	res, err := ProcessRows(context.Background(), db.NewMemStore(), uuid.New(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, []string{"Row 2: title is required"}, res.Errors)
}

func TestProcessRowsRejectsAnswerPastOptions(t *testing.T) {
	rows := [][]string{
		{"Title"},
		{"short", "only", "", "", "", "3"},
		{"no index", "a", "b"},
	}
	res, err := ProcessRows(context.Background(), db.NewMemStore(), uuid.New(), rows)
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	require.Len(t, res.Errors, 2)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Row 2:"))
	assert.True(t, strings.HasPrefix(res.Errors[1], "Row 3:"))
}

type failingWriter struct{}

func (failingWriter) CreateQuestion(context.Context, *models.Question) error {
	return errors.New("connection reset")
}

func TestProcessRowsAbortsOnStoreError(t *testing.T) {
	rows := [][]string{{"Title"}, {"q", "a", "b", "", "", "0"}}
	_, err := ProcessRows(context.Background(), failingWriter{}, uuid.New(), rows)
	assert.ErrorContains(t, err, "connection reset")
}
