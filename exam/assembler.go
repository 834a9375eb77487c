package exam

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"quizbank-server/db"
	"quizbank-server/models"
)

// Store is the slice of persistence the assembler works against.
type Store interface {
	db.SubjectStore
	db.CategoryStore
	db.QuestionStore
	db.ExamStore
}

// Assembler builds and maintains practice exams on top of the question bank.
// Attach and detach rewrite the whole question sequence, so two concurrent
// writers on one exam resolve last-write-wins.
type Assembler struct {
	store Store
	intn  IntN
}

// NewAssembler returns an assembler using intn as its random source
// (math/rand/v2 when nil).
func NewAssembler(store Store, intn IntN) *Assembler {
	return &Assembler{store: store, intn: defaultIntN(intn)}
}

func (a *Assembler) load(ctx context.Context, id uuid.UUID) (models.PracticeExam, error) {
	e, err := a.store.GetExam(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.PracticeExam{}, notFoundf("Practice exam not found")
	}
	if err != nil {
		return models.PracticeExam{}, fmt.Errorf("failed to load practice exam %s: %w", id, err)
	}
	return e, nil
}

// List returns every exam, newest first, with subject and category names.
func (a *Assembler) List(ctx context.Context) ([]models.ExamDetail, error) {
	exams, err := a.store.ListExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice exams: %w", err)
	}
	return a.populate(ctx, exams)
}

// Get returns one exam with subject and category names.
func (a *Assembler) Get(ctx context.Context, id uuid.UUID) (models.ExamDetail, error) {
	e, err := a.load(ctx, id)
	if err != nil {
		return models.ExamDetail{}, err
	}
	details, err := a.populate(ctx, []models.PracticeExam{e})
	if err != nil {
		return models.ExamDetail{}, err
	}
	return details[0], nil
}

func (a *Assembler) populate(ctx context.Context, exams []models.PracticeExam) ([]models.ExamDetail, error) {
	subjects, err := a.store.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	subjectNames := make(map[uuid.UUID]string, len(subjects))
	for _, s := range subjects {
		subjectNames[s.ID] = s.Name
	}

	var categoryIDs []uuid.UUID
	for _, e := range exams {
		categoryIDs = append(categoryIDs, e.CategoryIDs...)
	}
	categories, err := a.store.GetCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam categories: %w", err)
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	details := make([]models.ExamDetail, 0, len(exams))
	for _, e := range exams {
		d := models.ExamDetail{PracticeExam: e, Categories: []models.NamedRef{}}
		if name, ok := subjectNames[e.SubjectID]; ok {
			d.Subject = &models.NamedRef{ID: e.SubjectID, Name: name}
		}
		for _, id := range e.CategoryIDs {
			if name, ok := categoryNames[id]; ok {
				d.Categories = append(d.Categories, models.NamedRef{ID: id, Name: name})
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// Create validates req and stores a new exam with an empty question sequence.
func (a *Assembler) Create(ctx context.Context, req models.ExamRequest) (models.PracticeExam, error) {
	e, err := BuildExam(req)
	if err != nil {
		return models.PracticeExam{}, err
	}
	if err := a.store.CreateExam(ctx, &e); err != nil {
		return models.PracticeExam{}, fmt.Errorf("failed to create practice exam: %w", err)
	}
	log.Printf("Created practice exam %s (%q)", e.ID, e.Title)
	return e, nil
}

// Update overwrites the exam's settings. Blank open/close times clear the
// window. The question sequence is left alone.
func (a *Assembler) Update(ctx context.Context, id uuid.UUID, req models.ExamRequest) (models.PracticeExam, error) {
	e, err := BuildExam(req)
	if err != nil {
		return models.PracticeExam{}, err
	}
	e.ID = id
	if err := a.store.UpdateExam(ctx, &e); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.PracticeExam{}, notFoundf("Practice exam not found")
		}
		return models.PracticeExam{}, fmt.Errorf("failed to update practice exam %s: %w", id, err)
	}
	return a.load(ctx, id)
}

// Delete removes the exam. Bank questions are untouched.
func (a *Assembler) Delete(ctx context.Context, id uuid.UUID) error {
	if err := a.store.DeleteExam(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return notFoundf("Practice exam not found")
		}
		return fmt.Errorf("failed to delete practice exam %s: %w", id, err)
	}
	return nil
}

// BankView returns every question in the exam's categories, oldest first,
// whether attached or not.
func (a *Assembler) BankView(ctx context.Context, id uuid.UUID) ([]models.Question, error) {
	e, err := a.load(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := a.store.ListQuestionsByCategories(ctx, e.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank for exam %s: %w", id, err)
	}
	return questions, nil
}

// ExamView returns the attached questions in stored order, skipping ids whose
// question no longer exists.
func (a *Assembler) ExamView(ctx context.Context, id uuid.UUID) ([]models.Question, error) {
	e, err := a.load(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := a.store.GetQuestionsByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for exam %s: %w", id, err)
	}
	return OrderByIDs(e.QuestionIDs, questions), nil
}

// AttachNew creates q in categoryID (or the exam's first category when nil)
// and appends it to the exam. The category must exist and be one of the
// exam's categories.
func (a *Assembler) AttachNew(ctx context.Context, id uuid.UUID, q models.Question, categoryID *uuid.UUID) (models.Question, error) {
	e, err := a.load(ctx, id)
	if err != nil {
		return models.Question{}, err
	}
	switch {
	case categoryID != nil:
		q.CategoryID = *categoryID
	case len(e.CategoryIDs) > 0:
		q.CategoryID = e.CategoryIDs[0]
	default:
		return models.Question{}, validationf("Exam has no category to hold the question")
	}
	cats, err := a.store.GetCategoriesByIDs(ctx, []uuid.UUID{q.CategoryID})
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to load category for exam %s: %w", id, err)
	}
	if len(cats) == 0 {
		return models.Question{}, notFoundf("Category not found")
	}
	if !e.HasCategory(q.CategoryID) {
		return models.Question{}, conflictf("Category %s does not belong to the exam's categories", q.CategoryID)
	}
	if len(q.Options) == 0 {
		return models.Question{}, validationf("At least one option is required")
	}
	if !q.ValidAnswer() {
		return models.Question{}, validationf("correctAnswer must be between 0 and %d", len(q.Options)-1)
	}
	q.ID = uuid.Nil
	q.Difficulty = models.NormalizeDifficulty(q.Difficulty)

	if err := a.store.CreateQuestion(ctx, &q); err != nil {
		return models.Question{}, fmt.Errorf("failed to create question for exam %s: %w", id, err)
	}
	merged, _ := AppendUnique(e.QuestionIDs, []uuid.UUID{q.ID})
	if err := a.store.SetExamQuestions(ctx, id, merged); err != nil {
		return models.Question{}, fmt.Errorf("failed to attach question %s to exam %s: %w", q.ID, id, err)
	}
	return q, nil
}

// AttachBulk appends existing bank questions. Either every id belongs to one
// of the exam's categories and the new ones are appended, or nothing changes.
// It returns how many ids were actually added.
func (a *Assembler) AttachBulk(ctx context.Context, id uuid.UUID, questionIDs []uuid.UUID) (int, error) {
	if len(questionIDs) == 0 {
		return 0, validationf("questionIds must be a non-empty array")
	}
	e, err := a.load(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.attach(ctx, e, questionIDs)
}

func (a *Assembler) attach(ctx context.Context, e models.PracticeExam, questionIDs []uuid.UUID) (int, error) {
	questions, err := a.store.GetQuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load questions for exam %s: %w", e.ID, err)
	}
	byID := make(map[uuid.UUID]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for _, qid := range questionIDs {
		q, ok := byID[qid]
		if !ok {
			return 0, conflictf("Question %s does not exist", qid)
		}
		if !e.HasCategory(q.CategoryID) {
			return 0, conflictf("Question %s does not belong to the exam's categories", qid)
		}
	}

	merged, added := AppendUnique(e.QuestionIDs, questionIDs)
	if added == 0 {
		return 0, nil
	}
	if err := a.store.SetExamQuestions(ctx, e.ID, merged); err != nil {
		return 0, fmt.Errorf("failed to attach questions to exam %s: %w", e.ID, err)
	}
	return added, nil
}

// AttachRandom samples up to count unattached bank questions, optionally from
// a single category, and attaches them. Asking for more than are available
// attaches all of them.
func (a *Assembler) AttachRandom(ctx context.Context, id uuid.UUID, count int, categoryID *uuid.UUID) (int, error) {
	if count <= 0 {
		return 0, validationf("count must be a positive number")
	}
	e, err := a.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if categoryID != nil && !e.HasCategory(*categoryID) {
		return 0, validationf("Category %s is not part of this exam", *categoryID)
	}
	bank, err := a.store.ListQuestionsByCategories(ctx, e.CategoryIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load bank for exam %s: %w", id, err)
	}

	attached := make(map[uuid.UUID]bool, len(e.QuestionIDs))
	for _, qid := range e.QuestionIDs {
		attached[qid] = true
	}
	var eligible []uuid.UUID
	for _, q := range bank {
		if attached[q.ID] {
			continue
		}
		if categoryID != nil && q.CategoryID != *categoryID {
			continue
		}
		eligible = append(eligible, q.ID)
	}

	sample := SampleIDs(eligible, count, a.intn)
	if len(sample) == 0 {
		return 0, nil
	}
	return a.attach(ctx, e, sample)
}

// Detach removes questionID from the exam. Removing an id that is not
// attached is not an error.
func (a *Assembler) Detach(ctx context.Context, id, questionID uuid.UUID) error {
	e, err := a.load(ctx, id)
	if err != nil {
		return err
	}
	remaining, changed := RemoveID(e.QuestionIDs, questionID)
	if !changed {
		return nil
	}
	if err := a.store.SetExamQuestions(ctx, id, remaining); err != nil {
		return fmt.Errorf("failed to detach question %s from exam %s: %w", questionID, id, err)
	}
	return nil
}

// Shuffle randomizes the exam's question order and, independently, the option
// order of every attached question. The correct answer follows its option.
// It returns the number of questions rewritten; dangling ids are reordered but
// not counted.
func (a *Assembler) Shuffle(ctx context.Context, id uuid.UUID) (int, error) {
	e, err := a.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(e.QuestionIDs) == 0 {
		return 0, validationf("Exam has no questions to shuffle")
	}

	order := ShuffleOrder(e.QuestionIDs, a.intn)
	questions, err := a.store.GetQuestionsByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load questions for exam %s: %w", id, err)
	}
	shuffled := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		shuffled = append(shuffled, ShuffleOptions(q, a.intn))
	}

	if err := a.store.ApplyShuffle(ctx, id, order, shuffled); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, notFoundf("Practice exam not found")
		}
		return 0, fmt.Errorf("failed to shuffle exam %s: %w", id, err)
	}
	log.Printf("Shuffled exam %s: %d ids reordered, %d questions rewritten", id, len(order), len(shuffled))
	return len(shuffled), nil
}
