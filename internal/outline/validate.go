package outline

import (
	"fmt"
	"strings"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// ValidationResult classifies draft problems. Errors block commit; warnings
// are advisory and commit may proceed once the author acknowledges them.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks a draft document against the authoring rules. It is a pure
// function over the document; no storage access happens here. Tombstoned
// nodes are ignored throughout.
func Validate(doc *model.DraftDocument) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if strings.TrimSpace(doc.Name) == "" {
		res.Errors = append(res.Errors, "Course name is required")
	}
	if strings.TrimSpace(doc.Description) == "" {
		res.Warnings = append(res.Warnings, "Course description is missing")
	}

	activeModules := 0
	for _, m := range doc.Modules {
		if m.Deleted {
			continue
		}
		activeModules++
		validateModule(&res, activeModules, m)
	}
	if activeModules == 0 {
		res.Errors = append(res.Errors, "Course has no modules")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func validateModule(res *ValidationResult, idx int, m model.DraftModule) {
	if strings.TrimSpace(m.Title) == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("Module %d has no title", idx))
	}

	activeItems := 0
	for _, it := range m.Items {
		if it.Deleted {
			continue
		}
		switch it.Type {
		case model.ItemTypeLesson:
			if it.Lesson == nil || it.Lesson.Deleted {
				continue
			}
			activeItems++
			validateLesson(res, idx, activeItems, it.Lesson)
		case model.ItemTypeExam:
			if it.Exam == nil || it.Exam.Deleted {
				continue
			}
			activeItems++
			validateExam(res, idx, activeItems, it.Exam)
		}
	}
	if activeItems == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Module %q has no lessons or exams", m.Title))
	}
}

func validateLesson(res *ValidationResult, moduleIdx, itemIdx int, l *model.DraftLesson) {
	if strings.TrimSpace(l.Title) == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("Module %d, item %d has no title", moduleIdx, itemIdx))
	}
	resources := 0
	for _, r := range l.Resources {
		if !r.Deleted {
			resources++
		}
	}
	if resources == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Lesson %q has no resources", l.Title))
	}
}

func validateExam(res *ValidationResult, moduleIdx, itemIdx int, e *model.DraftExam) {
	if strings.TrimSpace(e.Title) == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("Module %d, item %d has no title", moduleIdx, itemIdx))
	}
	questions := 0
	for _, q := range e.Questions {
		if q.Deleted || q.Entry.Deleted {
			continue
		}
		questions++
		validateBankEntry(res, q.Entry)
	}
	if questions == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Exam %q has no questions", e.Title))
	}
}

// validateBankEntry enforces the commit-time invariant that non-essay
// entries carry at least one live answer.
func validateBankEntry(res *ValidationResult, e model.DraftBankEntry) {
	if !e.Type.HasAnswers() {
		return
	}
	answers := 0
	for _, a := range e.Answers {
		if !a.Deleted {
			answers++
		}
	}
	if answers == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("Question %q has no answers", truncate(e.Text, 60)))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
