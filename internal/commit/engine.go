package commit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// Engine applies a draft document to relational storage as a single atomic
// unit of work: full success with storage updated, or full failure with the
// prior state untouched.
type Engine struct {
	runner TxRunner
	log    zerolog.Logger
}

// NewEngine creates an Engine on top of a transaction runner.
func NewEngine(runner TxRunner, log zerolog.Logger) *Engine {
	return &Engine{
		runner: runner,
		log:    log.With().Str("component", "commit_engine").Logger(),
	}
}

// Options tune a single commit invocation.
type Options struct {
	// Publish additionally stamps the course's published timestamp.
	Publish bool
}

// Commit reconciles doc against storage for courseID. The caller is expected
// to have run the validator already; Commit re-checks only the structural
// consistency needed to avoid corrupting storage. The method never returns a
// partial application: any failure rolls the transaction back.
func (e *Engine) Commit(ctx context.Context, courseID int64, doc *model.DraftDocument, opts Options) model.CommitResult {
	plan, err := BuildPlan(courseID, doc)
	if err != nil {
		return model.CommitResult{CourseID: courseID, Errors: []string{err.Error()}}
	}

	err = e.runner.WithinTx(ctx, func(s Store) error {
		return execute(ctx, s, plan, opts)
	})
	if err != nil {
		e.log.Error().Err(err).Int64("course_id", courseID).Msg("Commit rolled back")
		return model.CommitResult{CourseID: courseID, Errors: []string{err.Error()}}
	}

	e.log.Info().
		Int64("course_id", courseID).
		Int("deletes", len(plan.Deletes)).
		Int("upserts", len(plan.Upserts)).
		Bool("publish", opts.Publish).
		Msg("Commit applied")
	return model.CommitResult{Success: true, CourseID: courseID}
}

// remapKey scopes placeholder tokens per entity kind; a module and a lesson
// may both carry the token "-1".
type remapKey struct {
	kind  Kind
	token string
}

// execute runs the plan inside one transaction: deletes, then upserts, then
// finalize. The placeholder remap table lives and dies here; it is never
// persisted.
func execute(ctx context.Context, s Store, plan *Plan, opts Options) error {
	for _, op := range plan.Deletes {
		if err := applyDelete(ctx, s, op); err != nil {
			return fmt.Errorf("%s: %w", op.Describe(), err)
		}
	}

	if err := s.UpdateCourse(ctx, plan.CourseID, plan.Course); err != nil {
		return fmt.Errorf("update course %d: %w", plan.CourseID, err)
	}
	if err := s.ReplaceCourseSkills(ctx, plan.CourseID, plan.SkillIDs); err != nil {
		return fmt.Errorf("replace skills for course %d: %w", plan.CourseID, err)
	}

	remap := make(map[remapKey]int64)
	for _, op := range plan.Upserts {
		var err error
		switch o := op.(type) {
		case CreateOp:
			err = applyCreate(ctx, s, o, remap)
		case UpdateOp:
			err = applyUpdate(ctx, s, o, remap)
		default:
			err = fmt.Errorf("unsupported op %T", op)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op.Describe(), err)
		}
	}

	if err := s.ClearStagedDraft(ctx, plan.CourseID); err != nil {
		return fmt.Errorf("clear staged draft: %w", err)
	}
	if err := s.TouchCourse(ctx, plan.CourseID, opts.Publish); err != nil {
		return fmt.Errorf("stamp course: %w", err)
	}
	return nil
}

func applyDelete(ctx context.Context, s Store, op DeleteOp) error {
	switch op.Kind {
	case KindAnswer:
		return s.DeleteAnswer(ctx, op.ID)
	case KindQuestionLink:
		return s.DeleteQuestionLink(ctx, op.ID)
	case KindBankEntry:
		return s.DeleteBankEntry(ctx, op.ID)
	case KindResource:
		return s.DeleteResource(ctx, op.ID)
	case KindLesson:
		return s.DeleteLesson(ctx, op.ID)
	case KindExam:
		return s.DeleteExam(ctx, op.ID)
	case KindItem:
		return s.DeleteItem(ctx, op.ID)
	case KindModule:
		return s.DeleteModule(ctx, op.ID)
	}
	return fmt.Errorf("unsupported delete kind %q", op.Kind)
}

func applyCreate(ctx context.Context, s Store, op CreateOp, remap map[remapKey]int64) error {
	var (
		newID int64
		err   error
	)
	switch f := op.Fields.(type) {
	case ModuleFields:
		var courseID int64
		if courseID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateModule(ctx, courseID, f)
		}
	case ItemFields:
		var moduleID int64
		if moduleID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateItem(ctx, moduleID, f)
		}
	case LessonFields:
		var itemID int64
		if itemID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateLesson(ctx, itemID, f)
		}
	case ResourceFields:
		var lessonID int64
		if lessonID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateResource(ctx, lessonID, f)
		}
	case ExamFields:
		var itemID int64
		if itemID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateExam(ctx, itemID, f)
		}
	case BankEntryFields:
		var row BankEntryRow
		if row, err = resolveBankEntry(f, remap); err == nil {
			newID, err = s.CreateBankEntry(ctx, row)
		}
	case AnswerFields:
		var entryID int64
		if entryID, err = resolve(op.Parent, remap); err == nil {
			newID, err = s.CreateAnswer(ctx, entryID, f)
		}
	case LinkFields:
		var examID, entryID int64
		if examID, err = resolve(op.Parent, remap); err == nil {
			if entryID, err = resolve(f.Question, remap); err == nil {
				newID, err = s.CreateQuestionLink(ctx, examID, entryID)
			}
		}
	default:
		err = fmt.Errorf("unsupported create fields %T", op.Fields)
	}
	if err != nil {
		return err
	}
	remap[remapKey{kind: op.Kind, token: op.Node.Token()}] = newID
	return nil
}

func applyUpdate(ctx context.Context, s Store, op UpdateOp, remap map[remapKey]int64) error {
	switch f := op.Fields.(type) {
	case ModuleFields:
		return s.UpdateModule(ctx, op.ID, f)
	case ItemFields:
		return s.UpdateItem(ctx, op.ID, f)
	case LessonFields:
		return s.UpdateLesson(ctx, op.ID, f)
	case ResourceFields:
		return s.UpdateResource(ctx, op.ID, f)
	case ExamFields:
		return s.UpdateExam(ctx, op.ID, f)
	case BankEntryFields:
		row, err := resolveBankEntry(f, remap)
		if err != nil {
			return err
		}
		return s.UpdateBankEntry(ctx, op.ID, row)
	case AnswerFields:
		return s.UpdateAnswer(ctx, op.ID, f)
	}
	return fmt.Errorf("unsupported update fields %T", op.Fields)
}

// resolve turns a ref into a real identity, consulting the remap table for
// placeholders created earlier in this commit.
func resolve(ref Ref, remap map[remapKey]int64) (int64, error) {
	if ref.IsZero() {
		return 0, fmt.Errorf("%w: missing %s reference", ErrUnresolvedReference, ref.Kind)
	}
	if !ref.ID.IsPlaceholder() {
		return ref.ID.Real(), nil
	}
	real, ok := remap[remapKey{kind: ref.Kind, token: ref.ID.Token()}]
	if !ok {
		return 0, fmt.Errorf("%w: %s %s was never created in this commit", ErrUnresolvedReference, ref.Kind, ref.ID)
	}
	return real, nil
}

// resolveBankEntry resolves the optional ownership refs of a bank entry.
func resolveBankEntry(f BankEntryFields, remap map[remapKey]int64) (BankEntryRow, error) {
	row := BankEntryRow{
		Text:   f.Text,
		Type:   string(f.Type),
		Answer: f.Answer,
	}
	if !f.Lesson.IsZero() {
		id, err := resolve(f.Lesson, remap)
		if err != nil {
			return BankEntryRow{}, err
		}
		row.LessonID = &id
	}
	if !f.Course.IsZero() {
		id, err := resolve(f.Course, remap)
		if err != nil {
			return BankEntryRow{}, err
		}
		row.CourseID = &id
	}
	return row, nil
}
