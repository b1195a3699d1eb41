package commit

import "context"

// Store is the storage surface the executor drives. One implementation wraps
// a pgx transaction; tests use a recording stub so plan ordering and
// atomicity are observable without a database.
//
// Delete methods must treat an already-absent row as a no-op: a document may
// carry duplicate tombstones for a shared bank entry.
type Store interface {
	UpdateCourse(ctx context.Context, id int64, f CourseFields) error
	ReplaceCourseSkills(ctx context.Context, courseID int64, skillIDs []int64) error

	CreateModule(ctx context.Context, courseID int64, f ModuleFields) (int64, error)
	UpdateModule(ctx context.Context, id int64, f ModuleFields) error
	DeleteModule(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, moduleID int64, f ItemFields) (int64, error)
	UpdateItem(ctx context.Context, id int64, f ItemFields) error
	DeleteItem(ctx context.Context, id int64) error

	CreateLesson(ctx context.Context, itemID int64, f LessonFields) (int64, error)
	UpdateLesson(ctx context.Context, id int64, f LessonFields) error
	DeleteLesson(ctx context.Context, id int64) error

	CreateResource(ctx context.Context, lessonID int64, f ResourceFields) (int64, error)
	UpdateResource(ctx context.Context, id int64, f ResourceFields) error
	DeleteResource(ctx context.Context, id int64) error

	CreateExam(ctx context.Context, itemID int64, f ExamFields) (int64, error)
	UpdateExam(ctx context.Context, id int64, f ExamFields) error
	DeleteExam(ctx context.Context, id int64) error

	CreateBankEntry(ctx context.Context, row BankEntryRow) (int64, error)
	UpdateBankEntry(ctx context.Context, id int64, row BankEntryRow) error
	DeleteBankEntry(ctx context.Context, id int64) error

	CreateAnswer(ctx context.Context, entryID int64, f AnswerFields) (int64, error)
	UpdateAnswer(ctx context.Context, id int64, f AnswerFields) error
	DeleteAnswer(ctx context.Context, id int64) error

	CreateQuestionLink(ctx context.Context, examID, entryID int64) (int64, error)
	DeleteQuestionLink(ctx context.Context, id int64) error

	ClearStagedDraft(ctx context.Context, courseID int64) error
	TouchCourse(ctx context.Context, courseID int64, publish bool) error
}

// BankEntryRow is a bank entry with its ownership refs already resolved to
// real identities (nil when absent).
type BankEntryRow struct {
	Text     string
	Type     string
	Answer   string
	LessonID *int64
	CourseID *int64
}

// TxRunner opens one atomic transaction spanning every entity table and runs
// fn against a Store bound to it. Any error from fn rolls everything back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}
