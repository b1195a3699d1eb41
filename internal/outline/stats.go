package outline

import "github.com/courseloom/courseloom-backend/internal/model"

// Stats counts active (non-tombstoned) nodes in a draft. Used for editor
// summaries and as a post-commit sanity check against storage.
type Stats struct {
	Modules   int `json:"modules"`
	Lessons   int `json:"lessons"`
	Exams     int `json:"exams"`
	Questions int `json:"questions"`
	Resources int `json:"resources"`
}

// Collect reduces a draft document to its active node counts.
func Collect(doc *model.DraftDocument) Stats {
	var s Stats
	for _, m := range doc.Modules {
		if m.Deleted {
			continue
		}
		s.Modules++
		for _, it := range m.Items {
			if it.Deleted {
				continue
			}
			switch {
			case it.Type == model.ItemTypeLesson && it.Lesson != nil && !it.Lesson.Deleted:
				s.Lessons++
				for _, r := range it.Lesson.Resources {
					if !r.Deleted {
						s.Resources++
					}
				}
			case it.Type == model.ItemTypeExam && it.Exam != nil && !it.Exam.Deleted:
				s.Exams++
				for _, q := range it.Exam.Questions {
					if !q.Deleted && !q.Entry.Deleted {
						s.Questions++
					}
				}
			}
		}
	}
	return s
}
