package model

import "time"

// ItemType discriminates the payload of a module item.
type ItemType string

const (
	ItemTypeLesson ItemType = "lesson"
	ItemTypeExam   ItemType = "exam"
)

// LessonKind is informational at this layer; storage persists it verbatim.
type LessonKind string

const (
	LessonKindVideo    LessonKind = "video"
	LessonKindDocument LessonKind = "document"
)

// QuestionType enumerates question-bank entry types.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeFillIn         QuestionType = "fill_in"
	QuestionTypeEssay          QuestionType = "essay"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeFillIn, QuestionTypeEssay:
		return true
	}
	return false
}

// HasAnswers reports whether entries of this type carry an answer list.
func (t QuestionType) HasAnswers() bool {
	return t != QuestionTypeEssay
}

// DurationPreset is a fixed exam time limit from a closed set.
type DurationPreset string

const (
	DurationPreset15  DurationPreset = "15m"
	DurationPreset30  DurationPreset = "30m"
	DurationPreset45  DurationPreset = "45m"
	DurationPreset60  DurationPreset = "60m"
	DurationPreset90  DurationPreset = "90m"
	DurationPreset120 DurationPreset = "120m"
)

// Minutes returns the preset's minute count, or 0 for an unknown preset.
func (p DurationPreset) Minutes() int {
	switch p {
	case DurationPreset15:
		return 15
	case DurationPreset30:
		return 30
	case DurationPreset45:
		return 45
	case DurationPreset60:
		return 60
	case DurationPreset90:
		return 90
	case DurationPreset120:
		return 120
	}
	return 0
}

// ExamDuration is either a preset, a custom positive minute count, or unset
// (no limit). Preset and CustomMinutes are mutually exclusive.
type ExamDuration struct {
	Preset        DurationPreset `json:"preset,omitempty"`
	CustomMinutes int            `json:"custom_minutes,omitempty"`
}

// Minutes resolves the effective limit in minutes; 0 means no limit.
func (d ExamDuration) Minutes() int {
	if d.Preset != "" {
		return d.Preset.Minutes()
	}
	return d.CustomMinutes
}

// DraftDocument is the staged, hierarchical, not-yet-committed representation
// of a course outline. It is persisted opaquely as the course's staging blob
// and reconciled against relational storage on commit.
type DraftDocument struct {
	Version     int           `json:"version"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CategoryID  int64         `json:"category_id"`
	OwnerID     int64         `json:"owner_id"`
	SkillIDs    []int64       `json:"skill_ids,omitempty"`
	Modules     []DraftModule `json:"modules"`
}

// DraftModule is a module as staged. Negative IDs are placeholders.
type DraftModule struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Position int         `json:"position"`
	Deleted  bool        `json:"deleted,omitempty"`
	Items    []DraftItem `json:"items,omitempty"`
}

// NodeID interprets the module's wire identity.
func (m DraftModule) NodeID() (ID, error) {
	return ParseNumericID(m.ID)
}

// DraftItem is an ordered slot inside a module carrying exactly one payload,
// selected by Type. The item's wire identity is a string: decimal digits for
// real ids, a "tmp-" prefixed token for placeholders.
type DraftItem struct {
	ID       string       `json:"id"`
	Type     ItemType     `json:"type"`
	Position int          `json:"position"`
	Deleted  bool         `json:"deleted,omitempty"`
	Lesson   *DraftLesson `json:"lesson,omitempty"`
	Exam     *DraftExam   `json:"exam,omitempty"`
}

// NodeID interprets the item's wire identity.
func (i DraftItem) NodeID() (ID, error) {
	return ParseTokenID(i.ID)
}

// DraftLesson is a lesson payload with its ordered resources.
type DraftLesson struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        LessonKind      `json:"kind"`
	Deleted     bool            `json:"deleted,omitempty"`
	Resources   []DraftResource `json:"resources,omitempty"`
}

// NodeID interprets the lesson's wire identity.
func (l DraftLesson) NodeID() (ID, error) {
	return ParseNumericID(l.ID)
}

// DraftResource is a file attached to a lesson. URLs are persisted verbatim;
// draft-to-production URL rewriting happens before commit.
type DraftResource struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// NodeID interprets the resource's wire identity.
func (r DraftResource) NodeID() (ID, error) {
	return ParseNumericID(r.ID)
}

// DraftExam is an exam payload with its question links.
type DraftExam struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Duration    ExamDuration    `json:"duration"`
	Deleted     bool            `json:"deleted,omitempty"`
	Questions   []DraftQuestion `json:"questions,omitempty"`
}

// NodeID interprets the exam's wire identity.
func (e DraftExam) NodeID() (ID, error) {
	return ParseNumericID(e.ID)
}

// DraftQuestion is an exam-question link. The referenced bank entry is
// embedded so a link can both reference an existing entry and carry edits or
// a brand-new entry in one place. The same bank entry may appear under
// several links (shared questions).
type DraftQuestion struct {
	ID      int64          `json:"id"`
	Deleted bool           `json:"deleted,omitempty"`
	Entry   DraftBankEntry `json:"entry"`
}

// NodeID interprets the link's wire identity.
func (q DraftQuestion) NodeID() (ID, error) {
	return ParseNumericID(q.ID)
}

// DraftBankEntry is a question-bank entry. Essay entries never carry answers.
// LessonID and CourseID are optional ownership references and may themselves
// be placeholders when the owner was created this session.
type DraftBankEntry struct {
	ID       int64         `json:"id"`
	Text     string        `json:"text"`
	Type     QuestionType  `json:"type"`
	Answer   string        `json:"answer,omitempty"`
	LessonID int64         `json:"lesson_id,omitempty"`
	CourseID int64         `json:"course_id,omitempty"`
	Deleted  bool          `json:"deleted,omitempty"`
	Answers  []DraftAnswer `json:"answers,omitempty"`
}

// NodeID interprets the entry's wire identity.
func (e DraftBankEntry) NodeID() (ID, error) {
	return ParseNumericID(e.ID)
}

// DraftAnswer is one answer option of a non-essay bank entry.
type DraftAnswer struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Deleted bool   `json:"deleted,omitempty"`
}

// NodeID interprets the answer's wire identity.
func (a DraftAnswer) NodeID() (ID, error) {
	return ParseNumericID(a.ID)
}
