package db

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizbank-server/models"
)

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*PGStore)(nil)
)

// MemStore is an in-process Store. Every read returns copies, so callers can
// mutate results freely.
type MemStore struct {
	mu         sync.RWMutex
	last       time.Time
	subjects   map[uuid.UUID]models.Subject
	categories map[uuid.UUID]models.Category
	questions  map[uuid.UUID]models.Question
	exams      map[uuid.UUID]models.PracticeExam
	classes    map[uuid.UUID]models.Class
	users      map[uuid.UUID]models.User
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		subjects:   make(map[uuid.UUID]models.Subject),
		categories: make(map[uuid.UUID]models.Category),
		questions:  make(map[uuid.UUID]models.Question),
		exams:      make(map[uuid.UUID]models.PracticeExam),
		classes:    make(map[uuid.UUID]models.Class),
		users:      make(map[uuid.UUID]models.User),
	}
}

// Close is a no-op.
func (s *MemStore) Close() {}

// now returns a strictly increasing timestamp so creation order is total.
// Callers must hold the write lock.
func (s *MemStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func cloneQuestion(q models.Question) models.Question {
	q.Options = slices.Clone(q.Options)
	if q.Image != nil {
		img := *q.Image
		q.Image = &img
	}
	return q
}

func cloneExam(e models.PracticeExam) models.PracticeExam {
	e.CategoryIDs = slices.Clone(e.CategoryIDs)
	e.QuestionIDs = slices.Clone(e.QuestionIDs)
	if e.QuestionIDs == nil {
		e.QuestionIDs = []uuid.UUID{}
	}
	return e
}

func cloneClass(c models.Class) models.Class {
	c.StudentIDs = slices.Clone(c.StudentIDs)
	c.ExamIDs = slices.Clone(c.ExamIDs)
	if c.StudentIDs == nil {
		c.StudentIDs = []uuid.UUID{}
	}
	if c.ExamIDs == nil {
		c.ExamIDs = []uuid.UUID{}
	}
	return c
}

// --- subjects ---

func (s *MemStore) ListSubjects(_ context.Context) ([]models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetSubject(_ context.Context, id uuid.UUID) (models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subjects[id]
	if !ok {
		return models.Subject{}, ErrNotFound
	}
	return sub, nil
}

func (s *MemStore) CreateSubject(_ context.Context, sub *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = s.now()
	s.subjects[sub.ID] = *sub
	return nil
}

// --- categories ---

func (s *MemStore) ListCategories(_ context.Context, subjectID uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Category{}
	for _, c := range s.categories {
		if c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetCategoriesByIDs(_ context.Context, ids []uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Category{}
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemStore) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.categories[c.ID] = *c
	return nil
}

func (s *MemStore) UpdateCategory(_ context.Context, id uuid.UUID, name, description string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, ErrNotFound
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = s.now()
	s.categories[id] = c
	return c, nil
}

func (s *MemStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// --- questions ---

func (s *MemStore) ListQuestionsByCategories(_ context.Context, categoryIDs []uuid.UUID) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Question{}
	for _, q := range s.questions {
		if slices.Contains(categoryIDs, q.CategoryID) {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetQuestionsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Question{}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := s.questions[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *MemStore) GetQuestion(_ context.Context, id uuid.UUID) (models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return models.Question{}, ErrNotFound
	}
	return cloneQuestion(q), nil
}

func (s *MemStore) CountQuestionsByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.questions {
		if q.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) CreateQuestion(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt
	s.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (s *MemStore) UpdateQuestion(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.questions[q.ID]
	if !ok {
		return ErrNotFound
	}
	q.CategoryID = old.CategoryID
	q.CreatedAt = old.CreatedAt
	q.UpdatedAt = s.now()
	s.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (s *MemStore) DeleteQuestion(_ context.Context, id uuid.UUID) (models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return models.Question{}, ErrNotFound
	}
	delete(s.questions, id)
	return q, nil
}

// --- exams ---

func (s *MemStore) ListExams(_ context.Context) ([]models.PracticeExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PracticeExam, 0, len(s.exams))
	for _, e := range s.exams {
		out = append(out, cloneExam(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetExam(_ context.Context, id uuid.UUID) (models.PracticeExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[id]
	if !ok {
		return models.PracticeExam{}, ErrNotFound
	}
	return cloneExam(e), nil
}

func (s *MemStore) GetExamsByIDs(_ context.Context, ids []uuid.UUID) ([]models.PracticeExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.PracticeExam{}
	for _, id := range ids {
		if e, ok := s.exams[id]; ok {
			out = append(out, cloneExam(e))
		}
	}
	return out, nil
}

func (s *MemStore) CreateExam(_ context.Context, e *models.PracticeExam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.now()
	*e = cloneExam(*e)
	s.exams[e.ID] = cloneExam(*e)
	return nil
}

func (s *MemStore) UpdateExam(_ context.Context, e *models.PracticeExam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.exams[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.QuestionIDs = slices.Clone(old.QuestionIDs)
	e.CreatedAt = old.CreatedAt
	s.exams[e.ID] = cloneExam(*e)
	return nil
}

func (s *MemStore) DeleteExam(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return ErrNotFound
	}
	delete(s.exams, id)
	return nil
}

func (s *MemStore) SetExamQuestions(_ context.Context, examID uuid.UUID, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[examID]
	if !ok {
		return ErrNotFound
	}
	e.QuestionIDs = slices.Clone(ids)
	s.exams[examID] = e
	return nil
}

func (s *MemStore) ApplyShuffle(_ context.Context, examID uuid.UUID, order []uuid.UUID, questions []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[examID]
	if !ok {
		return ErrNotFound
	}
	e.QuestionIDs = slices.Clone(order)
	s.exams[examID] = e
	for _, q := range questions {
		stored, ok := s.questions[q.ID]
		if !ok {
			continue
		}
		stored.Options = slices.Clone(q.Options)
		stored.CorrectAnswer = q.CorrectAnswer
		stored.UpdatedAt = s.now()
		s.questions[q.ID] = stored
	}
	return nil
}

// --- classes ---

func (s *MemStore) sortedClasses(keep func(models.Class) bool) []models.Class {
	out := []models.Class{}
	for _, c := range s.classes {
		if keep(c) {
			out = append(out, cloneClass(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemStore) ListClasses(_ context.Context) ([]models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedClasses(func(models.Class) bool { return true }), nil
}

func (s *MemStore) ListClassesByStudent(_ context.Context, studentID uuid.UUID) ([]models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedClasses(func(c models.Class) bool { return slices.Contains(c.StudentIDs, studentID) }), nil
}

func (s *MemStore) GetClass(_ context.Context, id uuid.UUID) (models.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return models.Class{}, ErrNotFound
	}
	return cloneClass(c), nil
}

func (s *MemStore) CreateClass(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	*c = cloneClass(*c)
	s.classes[c.ID] = cloneClass(*c)
	return nil
}

func (s *MemStore) SaveClassMembers(_ context.Context, c *models.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.classes[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.StudentIDs = slices.Clone(c.StudentIDs)
	stored.ExamIDs = slices.Clone(c.ExamIDs)
	s.classes[c.ID] = stored
	return nil
}

// --- users ---

func (s *MemStore) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = *u
	return nil
}
