package outline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloom/courseloom-backend/internal/model"
)

func sampleOutline() *Outline {
	return &Outline{
		Name:        "Intro to Gardening",
		Description: "From seed to harvest",
		CategoryID:  4,
		OwnerID:     7,
		SkillIDs:    []int64{3, 5},
		Modules: []Module{{
			ID:       model.NumericPlaceholder(-1),
			Title:    "Basics",
			Position: 1,
			Items: []Item{
				{
					ID:       model.PlaceholderID("tmp--1.-2"),
					Position: 1,
					Payload: &Lesson{
						ID:          model.NumericPlaceholder(-2),
						Title:       "Soil 101",
						Description: "Dirt matters",
						Kind:        model.LessonKindVideo,
						Resources: []Resource{{
							ID:        model.NumericPlaceholder(-10),
							Name:      "slides.pdf",
							URL:       "https://cdn/draft/slides.pdf",
							SizeBytes: 2048,
						}},
					},
				},
				{
					ID:       model.PlaceholderID("tmp--1.-3"),
					Position: 2,
					Payload: &Exam{
						ID:       model.NumericPlaceholder(-3),
						Title:    "Soil quiz",
						Duration: model.ExamDuration{Preset: model.DurationPreset30},
						Questions: []Question{{
							ID: model.NumericPlaceholder(-4),
							Entry: BankEntry{
								ID:   model.NumericPlaceholder(-5),
								Text: "Best pH for tomatoes?",
								Type: model.QuestionTypeMultipleChoice,
								Answers: []Answer{
									{ID: model.NumericPlaceholder(-6), Text: "6.5", Correct: true},
									{ID: model.NumericPlaceholder(-7), Text: "9.0"},
								},
							},
						}},
					},
				},
			},
		}},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleOutline()

	doc := Encode(original)
	decoded, err := Decode(doc)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

func TestEncodeSynthesizesStableItemIDs(t *testing.T) {
	o := sampleOutline()
	// Wipe the item ids; encode must synthesize composites from the module
	// and payload identities.
	o.Modules[0].Items[0].ID = model.ID{}
	o.Modules[0].Items[1].ID = model.ID{}

	first := Encode(o)
	second := Encode(o)

	assert.Equal(t, "tmp--1.-2", first.Modules[0].Items[0].ID)
	assert.Equal(t, "tmp--1.-3", first.Modules[0].Items[1].ID)
	assert.Equal(t, first.Modules[0].Items[0].ID, second.Modules[0].Items[0].ID)
	assert.Equal(t, first.Modules[0].Items[1].ID, second.Modules[0].Items[1].ID)
}

func TestEncodeKeepsRealItemIDs(t *testing.T) {
	o := sampleOutline()
	o.Modules[0].ID = model.RealID(7)
	o.Modules[0].Items[0].ID = model.RealID(12)

	doc := Encode(o)
	assert.Equal(t, "12", doc.Modules[0].Items[0].ID)
	assert.Equal(t, int64(7), doc.Modules[0].ID)
}

func TestDecodeFiltersTombstones(t *testing.T) {
	doc := Encode(sampleOutline())
	doc.Modules[0].Items[0].Deleted = true
	doc.Modules = append(doc.Modules, model.DraftModule{ID: 8, Title: "Gone", Deleted: true})

	o, err := Decode(doc)
	require.NoError(t, err)

	require.Len(t, o.Modules, 1)
	require.Len(t, o.Modules[0].Items, 1)
	_, isExam := o.Modules[0].Items[0].Payload.(*Exam)
	assert.True(t, isExam)
}

func TestDecodeRejectsTagPayloadMismatch(t *testing.T) {
	doc := Encode(sampleOutline())
	doc.Modules[0].Items[0].Type = model.ItemTypeExam // still carries a lesson payload

	_, err := Decode(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedReference))
}

func TestDecodeRejectsUnparseableIdentity(t *testing.T) {
	doc := Encode(sampleOutline())
	doc.Modules[0].Items[0].ID = "not-a-number"

	_, err := Decode(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedReference))
}

func TestDecodeRejectsZeroModuleID(t *testing.T) {
	doc := Encode(sampleOutline())
	doc.Modules[0].ID = 0

	_, err := Decode(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedReference))
}

func TestValidateBlankModuleTitle(t *testing.T) {
	doc := &model.DraftDocument{
		Name: "Gardening",
		Modules: []model.DraftModule{{
			ID:    -1,
			Title: "",
			Items: []model.DraftItem{{
				ID:     "tmp--1.-2",
				Type:   model.ItemTypeLesson,
				Lesson: &model.DraftLesson{ID: -2, Title: "L", Resources: []model.DraftResource{{ID: -3, Name: "r", URL: "u"}}},
			}},
		}},
	}

	res := Validate(doc)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Module 1 has no title"}, res.Errors)
	assert.Equal(t, []string{"Course description is missing"}, res.Warnings)
}

func TestValidateEmptyModuleWarns(t *testing.T) {
	doc := &model.DraftDocument{
		Name:        "Gardening",
		Description: "d",
		Modules:     []model.DraftModule{{ID: -1, Title: "X"}},
	}

	res := Validate(doc)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{`Module "X" has no lessons or exams`}, res.Warnings)
}

func TestValidateMissingNameAndModules(t *testing.T) {
	res := Validate(&model.DraftDocument{Description: "d"})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Course name is required")
	assert.Contains(t, res.Errors, "Course has no modules")
}

func TestValidateNonEssayEntryWithoutAnswers(t *testing.T) {
	doc := &model.DraftDocument{
		Name:        "Gardening",
		Description: "d",
		Modules: []model.DraftModule{{
			ID:    1,
			Title: "M",
			Items: []model.DraftItem{{
				ID:   "12",
				Type: model.ItemTypeExam,
				Exam: &model.DraftExam{
					ID:    42,
					Title: "Quiz",
					Questions: []model.DraftQuestion{{
						ID: 80,
						Entry: model.DraftBankEntry{
							ID:   90,
							Text: "Orphaned question",
							Type: model.QuestionTypeFillIn,
						},
					}},
				},
			}},
		}},
	}

	res := Validate(doc)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, `Question "Orphaned question" has no answers`)
}

func TestValidateIgnoresTombstonedNodes(t *testing.T) {
	doc := &model.DraftDocument{
		Name:        "Gardening",
		Description: "d",
		Modules: []model.DraftModule{
			{ID: -1, Title: "", Deleted: true}, // blank title, but tombstoned
			{ID: 1, Title: "Live", Items: []model.DraftItem{{
				ID:     "12",
				Type:   model.ItemTypeLesson,
				Lesson: &model.DraftLesson{ID: 30, Title: "L", Resources: []model.DraftResource{{ID: 40, Name: "r", URL: "u"}}},
			}}},
		},
	}

	res := Validate(doc)
	assert.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
}

func TestStatsCountsActiveNodesOnly(t *testing.T) {
	doc := Encode(sampleOutline())
	doc.Modules = append(doc.Modules, model.DraftModule{
		ID:      8,
		Title:   "Gone",
		Deleted: true,
		Items: []model.DraftItem{{
			ID:     "99",
			Type:   model.ItemTypeLesson,
			Lesson: &model.DraftLesson{ID: 100, Title: "Ghost"},
		}},
	})

	s := Collect(doc)
	assert.Equal(t, Stats{
		Modules:   1,
		Lessons:   1,
		Exams:     1,
		Questions: 1,
		Resources: 1,
	}, s)
}
