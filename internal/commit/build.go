package commit

import (
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// BuildPlan reduces a draft document to the ordered mutation set for one
// course. It performs the structural checks needed for safe application
// (tag/payload consistency, parseable identities, coherent exam durations)
// but no semantic validation; that happened in the codec's validator before
// commit was ever attempted.
//
// Deletes come out child-before-parent across the whole tree: answers,
// exam-question links, bank entries, resources, lessons, exams, items,
// modules. A tombstoned ancestor condemns its entire subtree; descendants do
// not need their own tombstones. Bank entries are shared, so they are only
// deleted when tombstoned themselves, always after every link that references
// them, and at most once per entry.
//
// Upserts come out parent-before-child in document order, with parent
// identities carried as refs so the executor can substitute real ids
// assigned earlier in the same commit. Bank entries, their answers and
// their exam links trail the structural upserts: an entry may claim a
// lesson from any module in the document, so its ownership refs only
// resolve once every lesson has been created.
func BuildPlan(courseID int64, doc *model.DraftDocument) (*Plan, error) {
	b := &planBuilder{
		plan: &Plan{
			CourseID: courseID,
			Course: CourseFields{
				Name:        doc.Name,
				Description: doc.Description,
				OwnerID:     doc.OwnerID,
			},
			SkillIDs: append([]int64(nil), doc.SkillIDs...),
		},
		seenEntryDeletes:  make(map[int64]bool),
		seenAnswerDeletes: make(map[int64]bool),
		seenEntryUpserts:  make(map[string]bool),
	}
	if doc.CategoryID > 0 {
		cat := doc.CategoryID
		b.plan.Course.CategoryID = &cat
	}

	for _, m := range doc.Modules {
		if err := b.module(m); err != nil {
			return nil, err
		}
	}

	b.plan.Upserts = append(b.plan.Upserts, b.questionOps...)
	b.plan.Deletes = b.orderedDeletes()
	return b.plan, nil
}

// planBuilder accumulates deletes into per-kind buckets (so the global
// child-before-parent order falls out of concatenation) and upserts in walk
// order. Question ops are buffered separately and flushed after the walk.
type planBuilder struct {
	plan *Plan

	questionOps []Op

	delAnswers   []DeleteOp
	delLinks     []DeleteOp
	delEntries   []DeleteOp
	delResources []DeleteOp
	delLessons   []DeleteOp
	delExams     []DeleteOp
	delItems     []DeleteOp
	delModules   []DeleteOp

	seenEntryDeletes  map[int64]bool
	seenAnswerDeletes map[int64]bool
	seenEntryUpserts  map[string]bool
}

func (b *planBuilder) orderedDeletes() []DeleteOp {
	out := make([]DeleteOp, 0,
		len(b.delAnswers)+len(b.delLinks)+len(b.delEntries)+len(b.delResources)+
			len(b.delLessons)+len(b.delExams)+len(b.delItems)+len(b.delModules))
	out = append(out, b.delAnswers...)
	out = append(out, b.delLinks...)
	out = append(out, b.delEntries...)
	out = append(out, b.delResources...)
	out = append(out, b.delLessons...)
	out = append(out, b.delExams...)
	out = append(out, b.delItems...)
	out = append(out, b.delModules...)
	return out
}

func (b *planBuilder) module(m model.DraftModule) error {
	id, err := m.NodeID()
	if err != nil {
		return fmt.Errorf("module %q: %w", m.Title, err)
	}
	gone := m.Deleted

	if !gone {
		fields := ModuleFields{Title: m.Title, Position: m.Position}
		if id.IsPlaceholder() {
			b.plan.Upserts = append(b.plan.Upserts, CreateOp{
				Kind:   KindModule,
				Node:   id,
				Parent: Ref{Kind: KindCourse, ID: model.RealID(b.plan.CourseID)},
				Fields: fields,
			})
		} else {
			b.plan.Upserts = append(b.plan.Upserts, UpdateOp{Kind: KindModule, ID: id.Real(), Fields: fields})
		}
	}

	moduleRef := Ref{Kind: KindModule, ID: id}
	for _, it := range m.Items {
		if err := b.item(moduleRef, gone, it); err != nil {
			return err
		}
	}

	if gone && !id.IsPlaceholder() {
		b.delModules = append(b.delModules, DeleteOp{Kind: KindModule, ID: id.Real()})
	}
	return nil
}

func (b *planBuilder) item(moduleRef Ref, parentGone bool, it model.DraftItem) error {
	id, err := it.NodeID()
	if err != nil {
		return err
	}
	if err := checkItemPayload(it); err != nil {
		return err
	}
	gone := parentGone || it.Deleted

	var payloadGone bool
	switch it.Type {
	case model.ItemTypeLesson:
		payloadGone = it.Lesson.Deleted
	case model.ItemTypeExam:
		payloadGone = it.Exam.Deleted
	}
	// A tombstoned payload takes its item slot with it.
	gone = gone || payloadGone

	if !gone {
		fields := ItemFields{Type: it.Type, Position: it.Position}
		if id.IsPlaceholder() {
			b.plan.Upserts = append(b.plan.Upserts, CreateOp{
				Kind:   KindItem,
				Node:   id,
				Parent: moduleRef,
				Fields: fields,
			})
		} else {
			b.plan.Upserts = append(b.plan.Upserts, UpdateOp{Kind: KindItem, ID: id.Real(), Fields: fields})
		}
	}

	itemRef := Ref{Kind: KindItem, ID: id}
	switch it.Type {
	case model.ItemTypeLesson:
		if err := b.lesson(itemRef, gone, it.Lesson); err != nil {
			return err
		}
	case model.ItemTypeExam:
		if err := b.exam(itemRef, gone, it.Exam); err != nil {
			return err
		}
	}

	if gone && !id.IsPlaceholder() {
		b.delItems = append(b.delItems, DeleteOp{Kind: KindItem, ID: id.Real()})
	}
	return nil
}

// checkItemPayload rejects a type tag that disagrees with the payload the
// item actually carries.
func checkItemPayload(it model.DraftItem) error {
	switch it.Type {
	case model.ItemTypeLesson:
		if it.Lesson == nil || it.Exam != nil {
			return fmt.Errorf("%w: item %s tagged lesson with inconsistent payload", model.ErrMalformedReference, it.ID)
		}
	case model.ItemTypeExam:
		if it.Exam == nil || it.Lesson != nil {
			return fmt.Errorf("%w: item %s tagged exam with inconsistent payload", model.ErrMalformedReference, it.ID)
		}
	default:
		return fmt.Errorf("%w: item %s has unknown type %q", model.ErrMalformedReference, it.ID, it.Type)
	}
	return nil
}

func (b *planBuilder) lesson(itemRef Ref, parentGone bool, l *model.DraftLesson) error {
	id, err := l.NodeID()
	if err != nil {
		return fmt.Errorf("lesson %q: %w", l.Title, err)
	}
	gone := parentGone || l.Deleted

	if !gone {
		fields := LessonFields{Title: l.Title, Description: l.Description, Kind: l.Kind}
		if id.IsPlaceholder() {
			b.plan.Upserts = append(b.plan.Upserts, CreateOp{
				Kind:   KindLesson,
				Node:   id,
				Parent: itemRef,
				Fields: fields,
			})
		} else {
			b.plan.Upserts = append(b.plan.Upserts, UpdateOp{Kind: KindLesson, ID: id.Real(), Fields: fields})
		}
	}

	lessonRef := Ref{Kind: KindLesson, ID: id}
	for _, r := range l.Resources {
		rid, err := r.NodeID()
		if err != nil {
			return fmt.Errorf("resource %q: %w", r.Name, err)
		}
		rGone := gone || r.Deleted
		if rGone {
			if !rid.IsPlaceholder() {
				b.delResources = append(b.delResources, DeleteOp{Kind: KindResource, ID: rid.Real()})
			}
			continue
		}
		fields := ResourceFields{Name: r.Name, URL: r.URL, SizeBytes: r.SizeBytes}
		if rid.IsPlaceholder() {
			b.plan.Upserts = append(b.plan.Upserts, CreateOp{
				Kind:   KindResource,
				Node:   rid,
				Parent: lessonRef,
				Fields: fields,
			})
		} else {
			b.plan.Upserts = append(b.plan.Upserts, UpdateOp{Kind: KindResource, ID: rid.Real(), Fields: fields})
		}
	}

	if gone && !id.IsPlaceholder() {
		b.delLessons = append(b.delLessons, DeleteOp{Kind: KindLesson, ID: id.Real()})
	}
	return nil
}

func (b *planBuilder) exam(itemRef Ref, parentGone bool, e *model.DraftExam) error {
	id, err := e.NodeID()
	if err != nil {
		return fmt.Errorf("exam %q: %w", e.Title, err)
	}
	if err := checkDuration(e); err != nil {
		return err
	}
	gone := parentGone || e.Deleted

	if !gone {
		fields := ExamFields{Title: e.Title, Description: e.Description, Duration: e.Duration}
		if id.IsPlaceholder() {
			b.plan.Upserts = append(b.plan.Upserts, CreateOp{
				Kind:   KindExam,
				Node:   id,
				Parent: itemRef,
				Fields: fields,
			})
		} else {
			b.plan.Upserts = append(b.plan.Upserts, UpdateOp{Kind: KindExam, ID: id.Real(), Fields: fields})
		}
	}

	examRef := Ref{Kind: KindExam, ID: id}
	for _, q := range e.Questions {
		if err := b.question(examRef, gone, q); err != nil {
			return err
		}
	}

	if gone && !id.IsPlaceholder() {
		b.delExams = append(b.delExams, DeleteOp{Kind: KindExam, ID: id.Real()})
	}
	return nil
}

func checkDuration(e *model.DraftExam) error {
	d := e.Duration
	if d.Preset != "" {
		if d.CustomMinutes != 0 {
			return fmt.Errorf("exam %q: duration preset and custom minutes are mutually exclusive", e.Title)
		}
		if d.Preset.Minutes() == 0 {
			return fmt.Errorf("exam %q: unknown duration preset %q", e.Title, d.Preset)
		}
		return nil
	}
	if d.CustomMinutes < 0 {
		return fmt.Errorf("exam %q: custom duration must be positive", e.Title)
	}
	return nil
}

func (b *planBuilder) question(examRef Ref, examGone bool, q model.DraftQuestion) error {
	linkID, err := q.NodeID()
	if err != nil {
		return err
	}
	entry := q.Entry
	entryID, err := entry.NodeID()
	if err != nil {
		return fmt.Errorf("question %q: %w", entry.Text, err)
	}
	if !entry.Type.Valid() {
		return fmt.Errorf("%w: question %s has unknown type %q", model.ErrMalformedReference, entryID, entry.Type)
	}

	linkGone := examGone || q.Deleted || entry.Deleted
	entryRef := Ref{Kind: KindBankEntry, ID: entryID}

	// Answer deletions are driven by the entry, not the exam: an individually
	// tombstoned answer goes, and a tombstoned entry takes all its answers.
	for _, a := range entry.Answers {
		aid, err := a.NodeID()
		if err != nil {
			return err
		}
		if (a.Deleted || entry.Deleted) && !aid.IsPlaceholder() && !b.seenAnswerDeletes[aid.Real()] {
			b.seenAnswerDeletes[aid.Real()] = true
			b.delAnswers = append(b.delAnswers, DeleteOp{Kind: KindAnswer, ID: aid.Real()})
		}
	}

	if linkGone {
		if !linkID.IsPlaceholder() {
			b.delLinks = append(b.delLinks, DeleteOp{Kind: KindQuestionLink, ID: linkID.Real()})
		}
	} else {
		b.upsertEntry(entryRef, entry)
		if linkID.IsPlaceholder() {
			b.questionOps = append(b.questionOps, CreateOp{
				Kind:   KindQuestionLink,
				Node:   linkID,
				Parent: examRef,
				Fields: LinkFields{Question: entryRef},
			})
		}
		// An existing link has no mutable fields; nothing to update.
	}

	// Tolerate the same entry tombstoned under several links: one delete.
	if entry.Deleted && !entryID.IsPlaceholder() && !b.seenEntryDeletes[entryID.Real()] {
		b.seenEntryDeletes[entryID.Real()] = true
		b.delEntries = append(b.delEntries, DeleteOp{Kind: KindBankEntry, ID: entryID.Real()})
	}
	return nil
}

// upsertEntry emits the bank entry and its answers once per commit, no
// matter how many links embed it.
func (b *planBuilder) upsertEntry(entryRef Ref, entry model.DraftBankEntry) {
	key := entryRef.ID.String()
	if b.seenEntryUpserts[key] {
		return
	}
	b.seenEntryUpserts[key] = true

	fields := BankEntryFields{
		Text:   entry.Text,
		Type:   entry.Type,
		Answer: entry.Answer,
	}
	if entry.LessonID != 0 {
		if ref, err := model.ParseNumericID(entry.LessonID); err == nil {
			fields.Lesson = Ref{Kind: KindLesson, ID: ref}
		}
	}
	if entry.CourseID != 0 {
		if ref, err := model.ParseNumericID(entry.CourseID); err == nil {
			fields.Course = Ref{Kind: KindCourse, ID: ref}
		}
	}

	if entryRef.ID.IsPlaceholder() {
		b.questionOps = append(b.questionOps, CreateOp{
			Kind:   KindBankEntry,
			Node:   entryRef.ID,
			Fields: fields,
		})
	} else {
		b.questionOps = append(b.questionOps, UpdateOp{Kind: KindBankEntry, ID: entryRef.ID.Real(), Fields: fields})
	}

	// Essay entries never manage answers.
	if !entry.Type.HasAnswers() {
		return
	}
	for _, a := range entry.Answers {
		if a.Deleted {
			continue
		}
		aid, err := a.NodeID()
		if err != nil {
			continue
		}
		afields := AnswerFields{Text: a.Text, Correct: a.Correct}
		if aid.IsPlaceholder() {
			b.questionOps = append(b.questionOps, CreateOp{
				Kind:   KindAnswer,
				Node:   aid,
				Parent: entryRef,
				Fields: afields,
			})
		} else {
			b.questionOps = append(b.questionOps, UpdateOp{Kind: KindAnswer, ID: aid.Real(), Fields: afields})
		}
	}
}
