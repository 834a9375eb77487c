package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizbank-server/models"
)

// InitDB initializes the PostgreSQL database connection pool
func InitDB(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Ping the database to verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return pool, nil
}

// CreateSchema sets up the tables for the question bank.
// Ordered id sequences (exam questions, class members) live in uuid[] columns
// so a sequence is read and written as one value.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS subjects (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		subject_id UUID NOT NULL REFERENCES subjects(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS categories_subject_idx ON categories (subject_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS questions (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		options TEXT[] NOT NULL,
		correct_answer INT NOT NULL,
		category_id UUID NOT NULL REFERENCES categories(id),
		image TEXT,
		difficulty TEXT NOT NULL DEFAULT 'Medium' CHECK (difficulty IN ('Easy', 'Medium', 'Hard', 'Very Hard')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (correct_answer >= 0 AND correct_answer < cardinality(options))
	);
	CREATE INDEX IF NOT EXISTS questions_category_idx ON questions (category_id, created_at);

	CREATE TABLE IF NOT EXISTS practice_exams (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		subject_id UUID NOT NULL,
		category_ids UUID[] NOT NULL,
		question_ids UUID[] NOT NULL DEFAULT '{}', -- dangling ids are tolerated on read
		duration INT NOT NULL DEFAULT 60,
		open_time TIMESTAMPTZ,
		close_time TIMESTAMPTZ,
		attempts INT NOT NULL DEFAULT 1,
		score_per_question DOUBLE PRECISION NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('teacher', 'student')),
		name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS classes (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		teacher_id UUID,
		student_ids UUID[] NOT NULL DEFAULT '{}',
		exam_ids UUID[] NOT NULL DEFAULT '{}'
	);
	`
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps an initialized pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Close releases the pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- subjects ---

func (s *PGStore) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func (s *PGStore) GetSubject(ctx context.Context, id uuid.UUID) (models.Subject, error) {
	var sub models.Subject
	err := s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM subjects WHERE id = $1`, id).
		Scan(&sub.ID, &sub.Name, &sub.CreatedAt)
	if err != nil {
		return models.Subject{}, notFound(err)
	}
	return sub, nil
}

func (s *PGStore) CreateSubject(ctx context.Context, sub *models.Subject) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subjects (id, name) VALUES ($1, $2) RETURNING created_at
	`, sub.ID, sub.Name).Scan(&sub.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert subject %s: %w", sub.Name, err)
	}
	return nil
}

// --- categories ---

const categoryColumns = `id, name, description, subject_id, created_at, updated_at`

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.SubjectID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PGStore) queryCategories(ctx context.Context, sql string, args ...any) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PGStore) ListCategories(ctx context.Context, subjectID uuid.UUID) ([]models.Category, error) {
	return s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE subject_id = $1 ORDER BY created_at DESC
	`, subjectID)
}

func (s *PGStore) GetCategoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	return s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1::uuid[])
	`, uuidStrings(ids))
}

func (s *PGStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, name, description, subject_id)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Description, c.SubjectID).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (models.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 RETURNING `+categoryColumns,
		name, description, id))
	if err != nil {
		return models.Category{}, notFound(err)
	}
	return c, nil
}

func (s *PGStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
