package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbank-server/models"
)

const seedYAML = `
subjects:
  - Mathematics
  - History
users:
  - username: teacher1
    password: secret
    role: teacher
    name: Ms Nguyen
  - username: student1
    password: pass
    role: admin
    name: Tom
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mathematics", "History"}, seed.Subjects)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, "Ms Nguyen", seed.Users[0].Name)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSeedFile(writeSeed(t, "subjects: [unterminated"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	seed, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	upper := func(p string) (string, error) { return strings.ToUpper(p), nil }
	require.NoError(t, Seed(ctx, s, seed, upper))
	require.NoError(t, Seed(ctx, s, seed, upper))

	subjects, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "History", subjects[0].Name)

	teacher, err := s.FindUserByUsername(ctx, "teacher1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	assert.Equal(t, "SECRET", teacher.Password)

	student, err := s.FindUserByUsername(ctx, "student1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, student.Role, "unknown roles fall back to student")
}
