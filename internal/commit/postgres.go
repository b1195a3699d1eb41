package commit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRunner runs commits against PostgreSQL. Each WithinTx call owns one
// transaction spanning every content table; the course subtree is exclusively
// ours for the duration (single active editor per course).
type PgRunner struct {
	pool *pgxpool.Pool
}

// NewPgRunner creates a PgRunner on a connection pool.
func NewPgRunner(pool *pgxpool.Pool) *PgRunner {
	return &PgRunner{pool: pool}
}

// WithinTx implements TxRunner.
func (r *PgRunner) WithinTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// pgStore is the Store bound to one open transaction.
type pgStore struct {
	tx pgx.Tx
}

func (s *pgStore) UpdateCourse(ctx context.Context, id int64, f CourseFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE courses SET name = $2, description = $3, category_id = $4, owner_id = $5
		 WHERE id = $1`,
		id, f.Name, f.Description, f.CategoryID, f.OwnerID,
	)
	return err
}

func (s *pgStore) ReplaceCourseSkills(ctx context.Context, courseID int64, skillIDs []int64) error {
	if _, err := s.tx.Exec(ctx,
		`DELETE FROM course_skills WHERE course_id = $1`, courseID,
	); err != nil {
		return err
	}
	for _, skillID := range skillIDs {
		if _, err := s.tx.Exec(ctx,
			`INSERT INTO course_skills (course_id, skill_id) VALUES ($1, $2)`,
			courseID, skillID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgStore) CreateModule(ctx context.Context, courseID int64, f ModuleFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO modules (course_id, title, position) VALUES ($1, $2, $3) RETURNING id`,
		courseID, f.Title, f.Position,
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateModule(ctx context.Context, id int64, f ModuleFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE modules SET title = $2, position = $3 WHERE id = $1`,
		id, f.Title, f.Position,
	)
	return err
}

func (s *pgStore) DeleteModule(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM modules WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateItem(ctx context.Context, moduleID int64, f ItemFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO course_items (module_id, item_type, position) VALUES ($1, $2, $3) RETURNING id`,
		moduleID, string(f.Type), f.Position,
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateItem(ctx context.Context, id int64, f ItemFields) error {
	// item_type is immutable; only the position moves.
	_, err := s.tx.Exec(ctx,
		`UPDATE course_items SET position = $2 WHERE id = $1`,
		id, f.Position,
	)
	return err
}

func (s *pgStore) DeleteItem(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM course_items WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateLesson(ctx context.Context, itemID int64, f LessonFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO lessons (item_id, title, description, kind) VALUES ($1, $2, $3, $4) RETURNING id`,
		itemID, f.Title, f.Description, string(f.Kind),
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateLesson(ctx context.Context, id int64, f LessonFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE lessons SET title = $2, description = $3, kind = $4 WHERE id = $1`,
		id, f.Title, f.Description, string(f.Kind),
	)
	return err
}

func (s *pgStore) DeleteLesson(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateResource(ctx context.Context, lessonID int64, f ResourceFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO lesson_resources (lesson_id, name, url, size_bytes) VALUES ($1, $2, $3, $4) RETURNING id`,
		lessonID, f.Name, f.URL, f.SizeBytes,
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateResource(ctx context.Context, id int64, f ResourceFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE lesson_resources SET name = $2, url = $3, size_bytes = $4 WHERE id = $1`,
		id, f.Name, f.URL, f.SizeBytes,
	)
	return err
}

func (s *pgStore) DeleteResource(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM lesson_resources WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateExam(ctx context.Context, itemID int64, f ExamFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO exams (item_id, title, description, duration_preset, duration_minutes)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		itemID, f.Title, f.Description, presetOrNil(f), minutesOrNil(f),
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateExam(ctx context.Context, id int64, f ExamFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE exams SET title = $2, description = $3, duration_preset = $4, duration_minutes = $5
		 WHERE id = $1`,
		id, f.Title, f.Description, presetOrNil(f), minutesOrNil(f),
	)
	return err
}

func presetOrNil(f ExamFields) *string {
	if f.Duration.Preset == "" {
		return nil
	}
	p := string(f.Duration.Preset)
	return &p
}

func minutesOrNil(f ExamFields) *int {
	if f.Duration.CustomMinutes == 0 {
		return nil
	}
	m := f.Duration.CustomMinutes
	return &m
}

func (s *pgStore) DeleteExam(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateBankEntry(ctx context.Context, row BankEntryRow) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO question_bank (question_text, question_type, canonical_answer, lesson_id, course_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		row.Text, row.Type, row.Answer, row.LessonID, row.CourseID,
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateBankEntry(ctx context.Context, id int64, row BankEntryRow) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE question_bank SET question_text = $2, question_type = $3, canonical_answer = $4,
		 lesson_id = $5, course_id = $6 WHERE id = $1`,
		id, row.Text, row.Type, row.Answer, row.LessonID, row.CourseID,
	)
	return err
}

// DeleteBankEntry tolerates an already-absent row: shared entries can be
// tombstoned under more than one exam in the same document.
func (s *pgStore) DeleteBankEntry(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM question_bank WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateAnswer(ctx context.Context, entryID int64, f AnswerFields) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO question_answers (entry_id, answer_text, is_correct) VALUES ($1, $2, $3) RETURNING id`,
		entryID, f.Text, f.Correct,
	).Scan(&id)
	return id, err
}

func (s *pgStore) UpdateAnswer(ctx context.Context, id int64, f AnswerFields) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE question_answers SET answer_text = $2, is_correct = $3 WHERE id = $1`,
		id, f.Text, f.Correct,
	)
	return err
}

func (s *pgStore) DeleteAnswer(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM question_answers WHERE id = $1`, id)
	return err
}

func (s *pgStore) CreateQuestionLink(ctx context.Context, examID, entryID int64) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO exam_questions (exam_id, entry_id) VALUES ($1, $2) RETURNING id`,
		examID, entryID,
	).Scan(&id)
	return id, err
}

func (s *pgStore) DeleteQuestionLink(ctx context.Context, id int64) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM exam_questions WHERE id = $1`, id)
	return err
}

func (s *pgStore) ClearStagedDraft(ctx context.Context, courseID int64) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE courses SET staged_draft = NULL WHERE id = $1`, courseID,
	)
	return err
}

func (s *pgStore) TouchCourse(ctx context.Context, courseID int64, publish bool) error {
	if publish {
		_, err := s.tx.Exec(ctx,
			`UPDATE courses SET updated_at = NOW(), published_at = NOW() WHERE id = $1`, courseID,
		)
		return err
	}
	_, err := s.tx.Exec(ctx,
		`UPDATE courses SET updated_at = NOW() WHERE id = $1`, courseID,
	)
	return err
}
