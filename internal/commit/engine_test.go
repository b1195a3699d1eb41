package commit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// fakeStore records every call in order and keeps a flat row set so tests can
// assert both ordering and end state. Created rows get sequential ids
// starting at 1000.
type fakeStore struct {
	calls  []string
	rows   map[string]bool
	nextID int64

	failAt   int // fail the Nth mutating call (1-based), 0 = never
	callSeen int
}

func newFakeStore(existing ...string) *fakeStore {
	rows := make(map[string]bool)
	for _, r := range existing {
		rows[r] = true
	}
	return &fakeStore{rows: rows, nextID: 1000}
}

func (f *fakeStore) step(call string) error {
	f.callSeen++
	f.calls = append(f.calls, call)
	if f.failAt > 0 && f.callSeen == f.failAt {
		return errors.New("injected failure")
	}
	return nil
}

func (f *fakeStore) create(kind string, call string) (int64, error) {
	if err := f.step(call); err != nil {
		return 0, err
	}
	f.nextID++
	f.rows[fmt.Sprintf("%s:%d", kind, f.nextID)] = true
	return f.nextID, nil
}

func (f *fakeStore) del(kind string, id int64, call string) error {
	if err := f.step(call); err != nil {
		return err
	}
	// Absent rows are a no-op, matching the SQL store.
	delete(f.rows, fmt.Sprintf("%s:%d", kind, id))
	return nil
}

func (f *fakeStore) UpdateCourse(_ context.Context, id int64, _ CourseFields) error {
	return f.step(fmt.Sprintf("UpdateCourse(%d)", id))
}

func (f *fakeStore) ReplaceCourseSkills(_ context.Context, id int64, skills []int64) error {
	return f.step(fmt.Sprintf("ReplaceCourseSkills(%d,%v)", id, skills))
}

func (f *fakeStore) CreateModule(_ context.Context, courseID int64, _ ModuleFields) (int64, error) {
	return f.create("module", fmt.Sprintf("CreateModule(course=%d)", courseID))
}

func (f *fakeStore) UpdateModule(_ context.Context, id int64, _ ModuleFields) error {
	return f.step(fmt.Sprintf("UpdateModule(%d)", id))
}

func (f *fakeStore) DeleteModule(_ context.Context, id int64) error {
	return f.del("module", id, fmt.Sprintf("DeleteModule(%d)", id))
}

func (f *fakeStore) CreateItem(_ context.Context, moduleID int64, _ ItemFields) (int64, error) {
	return f.create("item", fmt.Sprintf("CreateItem(module=%d)", moduleID))
}

func (f *fakeStore) UpdateItem(_ context.Context, id int64, _ ItemFields) error {
	return f.step(fmt.Sprintf("UpdateItem(%d)", id))
}

func (f *fakeStore) DeleteItem(_ context.Context, id int64) error {
	return f.del("item", id, fmt.Sprintf("DeleteItem(%d)", id))
}

func (f *fakeStore) CreateLesson(_ context.Context, itemID int64, _ LessonFields) (int64, error) {
	return f.create("lesson", fmt.Sprintf("CreateLesson(item=%d)", itemID))
}

func (f *fakeStore) UpdateLesson(_ context.Context, id int64, _ LessonFields) error {
	return f.step(fmt.Sprintf("UpdateLesson(%d)", id))
}

func (f *fakeStore) DeleteLesson(_ context.Context, id int64) error {
	return f.del("lesson", id, fmt.Sprintf("DeleteLesson(%d)", id))
}

func (f *fakeStore) CreateResource(_ context.Context, lessonID int64, _ ResourceFields) (int64, error) {
	return f.create("resource", fmt.Sprintf("CreateResource(lesson=%d)", lessonID))
}

func (f *fakeStore) UpdateResource(_ context.Context, id int64, _ ResourceFields) error {
	return f.step(fmt.Sprintf("UpdateResource(%d)", id))
}

func (f *fakeStore) DeleteResource(_ context.Context, id int64) error {
	return f.del("resource", id, fmt.Sprintf("DeleteResource(%d)", id))
}

func (f *fakeStore) CreateExam(_ context.Context, itemID int64, _ ExamFields) (int64, error) {
	return f.create("exam", fmt.Sprintf("CreateExam(item=%d)", itemID))
}

func (f *fakeStore) UpdateExam(_ context.Context, id int64, _ ExamFields) error {
	return f.step(fmt.Sprintf("UpdateExam(%d)", id))
}

func (f *fakeStore) DeleteExam(_ context.Context, id int64) error {
	return f.del("exam", id, fmt.Sprintf("DeleteExam(%d)", id))
}

func (f *fakeStore) CreateBankEntry(_ context.Context, row BankEntryRow) (int64, error) {
	if row.LessonID != nil {
		return f.create("entry", fmt.Sprintf("CreateBankEntry(lesson=%d)", *row.LessonID))
	}
	return f.create("entry", "CreateBankEntry()")
}

func (f *fakeStore) UpdateBankEntry(_ context.Context, id int64, _ BankEntryRow) error {
	return f.step(fmt.Sprintf("UpdateBankEntry(%d)", id))
}

func (f *fakeStore) DeleteBankEntry(_ context.Context, id int64) error {
	return f.del("entry", id, fmt.Sprintf("DeleteBankEntry(%d)", id))
}

func (f *fakeStore) CreateAnswer(_ context.Context, entryID int64, _ AnswerFields) (int64, error) {
	return f.create("answer", fmt.Sprintf("CreateAnswer(entry=%d)", entryID))
}

func (f *fakeStore) UpdateAnswer(_ context.Context, id int64, _ AnswerFields) error {
	return f.step(fmt.Sprintf("UpdateAnswer(%d)", id))
}

func (f *fakeStore) DeleteAnswer(_ context.Context, id int64) error {
	return f.del("answer", id, fmt.Sprintf("DeleteAnswer(%d)", id))
}

func (f *fakeStore) CreateQuestionLink(_ context.Context, examID, entryID int64) (int64, error) {
	return f.create("link", fmt.Sprintf("CreateQuestionLink(exam=%d,question=%d)", examID, entryID))
}

func (f *fakeStore) DeleteQuestionLink(_ context.Context, id int64) error {
	return f.del("link", id, fmt.Sprintf("DeleteQuestionLink(%d)", id))
}

func (f *fakeStore) ClearStagedDraft(_ context.Context, id int64) error {
	return f.step(fmt.Sprintf("ClearStagedDraft(%d)", id))
}

func (f *fakeStore) TouchCourse(_ context.Context, id int64, publish bool) error {
	return f.step(fmt.Sprintf("TouchCourse(%d,publish=%v)", id, publish))
}

// fakeRunner snapshots the row set before running fn and restores it when fn
// fails, mirroring transaction rollback.
type fakeRunner struct {
	store      *fakeStore
	rolledBack bool
}

func (r *fakeRunner) WithinTx(_ context.Context, fn func(Store) error) error {
	snapshot := make(map[string]bool, len(r.store.rows))
	for k, v := range r.store.rows {
		snapshot[k] = v
	}
	if err := fn(r.store); err != nil {
		r.store.rows = snapshot
		r.rolledBack = true
		return err
	}
	return nil
}

func newTestEngine(store *fakeStore) (*Engine, *fakeRunner) {
	runner := &fakeRunner{store: store}
	return NewEngine(runner, zerolog.Nop()), runner
}

// scenarioA is a brand-new module with a new lesson and a new exam carrying
// one new multiple-choice bank entry, two answers, and one link.
func scenarioA() *model.DraftDocument {
	return &model.DraftDocument{
		Version:     1,
		Name:        "Intro to Gardening",
		Description: "From seed to harvest",
		OwnerID:     7,
		SkillIDs:    []int64{3, 5},
		Modules: []model.DraftModule{{
			ID:       -1,
			Title:    "Basics",
			Position: 1,
			Items: []model.DraftItem{
				{
					ID:       "tmp--1.-2",
					Type:     model.ItemTypeLesson,
					Position: 1,
					Lesson: &model.DraftLesson{
						ID:    -2,
						Title: "Soil 101",
						Kind:  model.LessonKindVideo,
						Resources: []model.DraftResource{
							{ID: -10, Name: "slides.pdf", URL: "https://cdn/draft/slides.pdf", SizeBytes: 2048},
						},
					},
				},
				{
					ID:       "tmp--1.-3",
					Type:     model.ItemTypeExam,
					Position: 2,
					Exam: &model.DraftExam{
						ID:       -3,
						Title:    "Soil quiz",
						Duration: model.ExamDuration{Preset: model.DurationPreset30},
						Questions: []model.DraftQuestion{{
							ID: -4,
							Entry: model.DraftBankEntry{
								ID:   -5,
								Text: "Best pH for tomatoes?",
								Type: model.QuestionTypeMultipleChoice,
								Answers: []model.DraftAnswer{
									{ID: -6, Text: "6.5", Correct: true},
									{ID: -7, Text: "9.0"},
								},
							},
						}},
					},
				},
			},
		}},
	}
}

func TestCommitCreatesWholeSubtreeWithRealParents(t *testing.T) {
	store := newFakeStore()
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, scenarioA(), Options{Publish: true})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, int64(9), res.CourseID)

	// Parent references must be the real ids assigned this commit, never
	// placeholder values.
	assert.Equal(t, []string{
		"UpdateCourse(9)",
		"ReplaceCourseSkills(9,[3 5])",
		"CreateModule(course=9)",       // -> 1001
		"CreateItem(module=1001)",      // -> 1002
		"CreateLesson(item=1002)",      // -> 1003
		"CreateResource(lesson=1003)",  // -> 1004
		"CreateItem(module=1001)",      // -> 1005
		"CreateExam(item=1005)",        // -> 1006
		"CreateBankEntry()",            // -> 1007
		"CreateAnswer(entry=1007)",     // -> 1008
		"CreateAnswer(entry=1007)",     // -> 1009
		"CreateQuestionLink(exam=1006,question=1007)",
		"ClearStagedDraft(9)",
		"TouchCourse(9,publish=true)",
	}, store.calls)
}

func TestCommitResolvesEntryOwnerLessonFromLaterModule(t *testing.T) {
	// The exam in the first module carries a bank entry owned by a lesson
	// that only appears in the second module. Entry creation must wait until
	// every lesson in the document has a real id.
	doc := &model.DraftDocument{
		Version: 1,
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{
			{
				ID:       -1,
				Title:    "Assessments",
				Position: 1,
				Items: []model.DraftItem{{
					ID:       "tmp--1.-3",
					Type:     model.ItemTypeExam,
					Position: 1,
					Exam: &model.DraftExam{
						ID:       -3,
						Title:    "Pruning quiz",
						Duration: model.ExamDuration{Preset: model.DurationPreset30},
						Questions: []model.DraftQuestion{{
							ID: -4,
							Entry: model.DraftBankEntry{
								ID:       -5,
								Text:     "Prune before or after flowering?",
								Type:     model.QuestionTypeMultipleChoice,
								LessonID: -20,
								Answers: []model.DraftAnswer{
									{ID: -6, Text: "After", Correct: true},
								},
							},
						}},
					},
				}},
			},
			{
				ID:       -2,
				Title:    "Lessons",
				Position: 2,
				Items: []model.DraftItem{{
					ID:       "tmp--2.-20",
					Type:     model.ItemTypeLesson,
					Position: 1,
					Lesson: &model.DraftLesson{
						ID:    -20,
						Title: "Pruning",
						Kind:  model.LessonKindVideo,
					},
				}},
			},
		},
	}

	store := newFakeStore()
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	assert.Equal(t, []string{
		"UpdateCourse(9)",
		"ReplaceCourseSkills(9,[])",
		"CreateModule(course=9)",  // -> 1001
		"CreateItem(module=1001)", // -> 1002
		"CreateExam(item=1002)",   // -> 1003
		"CreateModule(course=9)",  // -> 1004
		"CreateItem(module=1004)", // -> 1005
		"CreateLesson(item=1005)", // -> 1006
		"CreateBankEntry(lesson=1006)",
		"CreateAnswer(entry=1007)",
		"CreateQuestionLink(exam=1003,question=1007)",
		"ClearStagedDraft(9)",
		"TouchCourse(9,publish=false)",
	}, store.calls)
}

func TestCommitDeletesTombstonedExamBottomUp(t *testing.T) {
	// Existing module 7 holds exam item 12 / exam 42 linked (link 80) to bank
	// entry 90 with four answers; the exam and two answers are tombstoned.
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{{
			ID:       7,
			Title:    "Advanced",
			Position: 1,
			Items: []model.DraftItem{{
				ID:       "12",
				Type:     model.ItemTypeExam,
				Position: 1,
				Exam: &model.DraftExam{
					ID:      42,
					Title:   "Final",
					Deleted: true,
					Questions: []model.DraftQuestion{{
						ID: 80,
						Entry: model.DraftBankEntry{
							ID:   90,
							Text: "Prune in winter?",
							Type: model.QuestionTypeTrueFalse,
							Answers: []model.DraftAnswer{
								{ID: 101, Text: "Yes", Correct: true, Deleted: true},
								{ID: 102, Text: "No", Deleted: true},
								{ID: 103, Text: "Sometimes"},
								{ID: 104, Text: "Never"},
							},
						},
					}},
				},
			}},
		}},
	}

	store := newFakeStore(
		"module:7", "item:12", "exam:42", "link:80", "entry:90",
		"answer:101", "answer:102", "answer:103", "answer:104",
	)
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	assert.Equal(t, []string{
		"DeleteAnswer(101)",
		"DeleteAnswer(102)",
		"DeleteQuestionLink(80)",
		"DeleteExam(42)",
		"DeleteItem(12)",
		"UpdateCourse(9)",
		"ReplaceCourseSkills(9,[])",
		"UpdateModule(7)",
		"ClearStagedDraft(9)",
		"TouchCourse(9,publish=false)",
	}, store.calls)

	// The shared bank entry and its surviving answers are untouched.
	assert.True(t, store.rows["entry:90"])
	assert.True(t, store.rows["answer:103"])
	assert.True(t, store.rows["answer:104"])
	assert.False(t, store.rows["exam:42"])
	assert.True(t, store.rows["module:7"], "module must remain")
}

func TestCommitAtomicityOnInjectedFailure(t *testing.T) {
	store := newFakeStore("module:7")
	before := make(map[string]bool)
	for k, v := range store.rows {
		before[k] = v
	}
	store.failAt = 8 // somewhere in the middle of the upsert pass

	engine, runner := newTestEngine(store)
	res := engine.Commit(context.Background(), 9, scenarioA(), Options{})

	require.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	assert.True(t, runner.rolledBack)
	assert.Equal(t, before, store.rows, "storage must match the pre-commit state")
}

func TestCommitPlaceholderTombstoneIssuesNoDeletes(t *testing.T) {
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{
			{ID: 3, Title: "Keep me", Position: 1},
			{
				ID:      -1,
				Title:   "Never saved",
				Deleted: true,
				Items: []model.DraftItem{{
					ID:      "tmp--1.-2",
					Type:    model.ItemTypeLesson,
					Deleted: true,
					Lesson:  &model.DraftLesson{ID: -2, Title: "Ghost"},
				}},
			},
		},
	}

	store := newFakeStore("module:3")
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	for _, call := range store.calls {
		assert.NotContains(t, call, "Delete", "placeholder tombstones must not reach storage")
	}
}

func TestCommitTombstonedAncestorCondemnsSubtree(t *testing.T) {
	// Only the module carries a tombstone; every real descendant must go
	// anyway, children before parents.
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{{
			ID:      5,
			Title:   "Retired",
			Deleted: true,
			Items: []model.DraftItem{{
				ID:   "20",
				Type: model.ItemTypeLesson,
				Lesson: &model.DraftLesson{
					ID:    30,
					Title: "Old lesson",
					Resources: []model.DraftResource{
						{ID: 40, Name: "old.pdf", URL: "u"},
					},
				},
			}},
		}},
	}

	store := newFakeStore("module:5", "item:20", "lesson:30", "resource:40")
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	assert.Equal(t, []string{
		"DeleteResource(40)",
		"DeleteLesson(30)",
		"DeleteItem(20)",
		"DeleteModule(5)",
		"UpdateCourse(9)",
		"ReplaceCourseSkills(9,[])",
		"ClearStagedDraft(9)",
		"TouchCourse(9,publish=false)",
	}, store.calls)
}

func TestCommitSharedEntryTombstonedOnceAcrossLinks(t *testing.T) {
	entry := model.DraftBankEntry{
		ID:      90,
		Text:    "Shared",
		Type:    model.QuestionTypeEssay,
		Deleted: true,
	}
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{{
			ID:       7,
			Title:    "M",
			Position: 1,
			Items: []model.DraftItem{
				{ID: "12", Type: model.ItemTypeExam, Position: 1, Exam: &model.DraftExam{
					ID: 42, Title: "A",
					Questions: []model.DraftQuestion{{ID: 80, Entry: entry}},
				}},
				{ID: "13", Type: model.ItemTypeExam, Position: 2, Exam: &model.DraftExam{
					ID: 43, Title: "B",
					Questions: []model.DraftQuestion{{ID: 81, Entry: entry}},
				}},
			},
		}},
	}

	store := newFakeStore("module:7", "item:12", "item:13", "exam:42", "exam:43", "link:80", "link:81", "entry:90")
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	// Both links go before the single entry delete.
	deletes := []string{}
	for _, c := range store.calls {
		if c == "DeleteQuestionLink(80)" || c == "DeleteQuestionLink(81)" || c == "DeleteBankEntry(90)" {
			deletes = append(deletes, c)
		}
	}
	assert.Equal(t, []string{"DeleteQuestionLink(80)", "DeleteQuestionLink(81)", "DeleteBankEntry(90)"}, deletes)

	count := 0
	for _, c := range store.calls {
		if c == "DeleteBankEntry(90)" {
			count++
		}
	}
	assert.Equal(t, 1, count, "shared entry must be deleted exactly once")
}

func TestCommitEssayEntrySkipsAnswerUpserts(t *testing.T) {
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{{
			ID:       7,
			Title:    "M",
			Position: 1,
			Items: []model.DraftItem{{
				ID:       "12",
				Type:     model.ItemTypeExam,
				Position: 1,
				Exam: &model.DraftExam{
					ID:    42,
					Title: "Essay exam",
					Questions: []model.DraftQuestion{{
						ID: -4,
						Entry: model.DraftBankEntry{
							ID:   -5,
							Text: "Discuss crop rotation.",
							Type: model.QuestionTypeEssay,
						},
					}},
				},
			}},
		}},
	}

	store := newFakeStore("module:7", "item:12", "exam:42")
	engine, _ := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.True(t, res.Success, "errors: %v", res.Errors)

	for _, c := range store.calls {
		assert.NotContains(t, c, "Answer", "essay entries have no answers to manage")
	}
}

func TestCommitRejectsTagPayloadMismatch(t *testing.T) {
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{{
			ID:    7,
			Title: "M",
			Items: []model.DraftItem{{
				ID:   "12",
				Type: model.ItemTypeLesson,
				Exam: &model.DraftExam{ID: 42, Title: "Mismatched"},
			}},
		}},
	}

	store := newFakeStore()
	engine, runner := newTestEngine(store)

	res := engine.Commit(context.Background(), 9, doc, Options{})
	require.False(t, res.Success)
	require.NotEmpty(t, res.Errors)
	assert.False(t, runner.rolledBack, "plan building fails before any transaction opens")
	assert.Empty(t, store.calls)
}

func TestExecuteUnresolvedParentReference(t *testing.T) {
	plan := &Plan{
		CourseID: 9,
		Course:   CourseFields{Name: "X", OwnerID: 1},
		Upserts: []Op{CreateOp{
			Kind:   KindItem,
			Node:   model.PlaceholderID("tmp-x"),
			Parent: Ref{Kind: KindModule, ID: model.NumericPlaceholder(-99)},
			Fields: ItemFields{Type: model.ItemTypeLesson, Position: 1},
		}},
	}

	store := newFakeStore()
	err := execute(context.Background(), store, plan, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
}

func TestBuildPlanPersistsOrderNumbersVerbatim(t *testing.T) {
	// Colliding sibling positions are not renumbered.
	doc := &model.DraftDocument{
		Name:    "Gardening",
		OwnerID: 7,
		Modules: []model.DraftModule{
			{ID: 1, Title: "A", Position: 3},
			{ID: 2, Title: "B", Position: 3},
		},
	}
	plan, err := BuildPlan(9, doc)
	require.NoError(t, err)

	positions := []int{}
	for _, op := range plan.Upserts {
		if u, ok := op.(UpdateOp); ok {
			if f, ok := u.Fields.(ModuleFields); ok {
				positions = append(positions, f.Position)
			}
		}
	}
	assert.Equal(t, []int{3, 3}, positions)
}
