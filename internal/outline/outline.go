// Package outline holds the editor-facing course outline model and the codec
// between it and the staged draft document. The outline never represents
// tombstones; deletion is bookkeeping that exists only in the draft.
package outline

import (
	"github.com/courseloom/courseloom-backend/internal/model"
)

// Outline is the local, in-memory representation of a course as the editing
// surface sees it. Node identities are either real or numeric placeholders
// assigned by the editor; item identities may additionally carry the
// composite "tmp-" form synthesized by Encode.
type Outline struct {
	Name        string
	Description string
	CategoryID  int64
	OwnerID     int64
	SkillIDs    []int64
	Modules     []Module
}

// Module is an ordered group of items. Position is authoritative; sibling
// positions are persisted as-is, collisions included.
type Module struct {
	ID       model.ID
	Title    string
	Position int
	Items    []Item
}

// Item is a slot in a module holding exactly one payload. The payload's
// dynamic type selects lesson vs exam, so a tag/payload mismatch is
// unrepresentable here.
type Item struct {
	ID       model.ID
	Position int
	Payload  Payload
}

// Payload is the discriminated item payload: *Lesson or *Exam.
type Payload interface {
	ItemType() model.ItemType
}

// Lesson is the lesson item payload.
type Lesson struct {
	ID          model.ID
	Title       string
	Description string
	Kind        model.LessonKind
	Resources   []Resource
}

// ItemType implements Payload.
func (*Lesson) ItemType() model.ItemType { return model.ItemTypeLesson }

// Resource is a file attached to a lesson.
type Resource struct {
	ID        model.ID
	Name      string
	URL       string
	SizeBytes int64
}

// Exam is the exam item payload.
type Exam struct {
	ID          model.ID
	Title       string
	Description string
	Duration    model.ExamDuration
	Questions   []Question
}

// ItemType implements Payload.
func (*Exam) ItemType() model.ItemType { return model.ItemTypeExam }

// Question links an exam to a question-bank entry.
type Question struct {
	ID    model.ID
	Entry BankEntry
}

// BankEntry is a question-bank entry as the editor sees it.
type BankEntry struct {
	ID       model.ID
	Text     string
	Type     model.QuestionType
	Answer   string
	LessonID model.ID
	CourseID model.ID
	Answers  []Answer
}

// Answer is one option of a non-essay bank entry.
type Answer struct {
	ID      model.ID
	Text    string
	Correct bool
}
