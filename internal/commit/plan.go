// Package commit reconciles a staged draft document against relational
// storage. Reconciliation is split in two: BuildPlan reduces the draft to an
// ordered list of typed storage operations, and Engine executes that plan
// inside a single transaction, resolving placeholder identities as it goes.
package commit

import (
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ErrUnresolvedReference is returned when an operation references a
// placeholder identity that was never created during the same commit.
var ErrUnresolvedReference = errors.New("unresolved reference")

// Kind names an entity table touched by the engine.
type Kind string

const (
	KindCourse       Kind = "course"
	KindModule       Kind = "module"
	KindItem         Kind = "item"
	KindLesson       Kind = "lesson"
	KindResource     Kind = "resource"
	KindExam         Kind = "exam"
	KindBankEntry    Kind = "bank_entry"
	KindAnswer       Kind = "answer"
	KindQuestionLink Kind = "question_link"
)

// Ref points at a node that an operation depends on. The ID may be a
// placeholder, in which case the executor substitutes the real identity
// assigned earlier in the same commit.
type Ref struct {
	Kind Kind
	ID   model.ID
}

// IsZero reports whether the ref points at nothing.
func (r Ref) IsZero() bool { return r.ID.IsZero() }

// Op is one storage mutation in a plan.
type Op interface {
	Describe() string
}

// DeleteOp removes a row. Only nodes with real identities ever produce one;
// placeholder tombstones are dropped at plan time.
type DeleteOp struct {
	Kind Kind
	ID   int64
}

// Describe implements Op.
func (o DeleteOp) Describe() string {
	return fmt.Sprintf("delete %s %d", o.Kind, o.ID)
}

// CreateOp inserts a row for a placeholder node. Node carries the
// placeholder identity so the executor can record the assigned real id.
type CreateOp struct {
	Kind   Kind
	Node   model.ID
	Parent Ref
	Fields any
}

// Describe implements Op.
func (o CreateOp) Describe() string {
	return fmt.Sprintf("create %s %s", o.Kind, o.Node)
}

// UpdateOp rewrites the mutable fields of an existing row.
type UpdateOp struct {
	Kind   Kind
	ID     int64
	Fields any
}

// Describe implements Op.
func (o UpdateOp) Describe() string {
	return fmt.Sprintf("update %s %d", o.Kind, o.ID)
}

// Field payloads, one per entity. Parent identities are not part of the
// fields; they travel as Refs on the op so placeholder resolution stays in
// one place.

// CourseFields are the course-level metadata carried by the draft root.
type CourseFields struct {
	Name        string
	Description string
	CategoryID  *int64
	OwnerID     int64
}

// ModuleFields are a module's mutable columns.
type ModuleFields struct {
	Title    string
	Position int
}

// ItemFields are an item's columns. Type is written at creation and never
// updated; an item cannot change from lesson to exam.
type ItemFields struct {
	Type     model.ItemType
	Position int
}

// LessonFields are a lesson's mutable columns.
type LessonFields struct {
	Title       string
	Description string
	Kind        model.LessonKind
}

// ResourceFields are a lesson resource's mutable columns. URLs are persisted
// verbatim.
type ResourceFields struct {
	Name      string
	URL       string
	SizeBytes int64
}

// ExamFields are an exam's mutable columns.
type ExamFields struct {
	Title       string
	Description string
	Duration    model.ExamDuration
}

// BankEntryFields are a question-bank entry's mutable columns. Lesson and
// Course are optional ownership refs and may be placeholders.
type BankEntryFields struct {
	Text   string
	Type   model.QuestionType
	Answer string
	Lesson Ref
	Course Ref
}

// AnswerFields are an answer option's mutable columns.
type AnswerFields struct {
	Text    string
	Correct bool
}

// LinkFields carry the question-bank side of an exam-question link. The exam
// side is the op's Parent.
type LinkFields struct {
	Question Ref
}

// Plan is the full ordered mutation set for one commit: deletes first
// (child-before-parent), then upserts (parent-before-child), then the
// finalize steps the executor performs itself.
type Plan struct {
	CourseID int64
	Course   CourseFields
	SkillIDs []int64
	Deletes  []DeleteOp
	Upserts  []Op
}
