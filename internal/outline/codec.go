package outline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/courseloom/courseloom-backend/internal/model"
)

// DraftVersion is the current draft document format version.
const DraftVersion = 1

// Encode maps a local outline to a draft document. Every local node maps to
// exactly one draft node. Items without a real identity get a composite
// placeholder synthesized from the parent module and payload identities, so
// repeated encodes of the same session produce the same item ids.
func Encode(o *Outline) *model.DraftDocument {
	doc := &model.DraftDocument{
		Version:     DraftVersion,
		UpdatedAt:   time.Now().UTC(),
		Name:        o.Name,
		Description: o.Description,
		CategoryID:  o.CategoryID,
		OwnerID:     o.OwnerID,
		SkillIDs:    append([]int64(nil), o.SkillIDs...),
	}
	for _, m := range o.Modules {
		doc.Modules = append(doc.Modules, encodeModule(m))
	}
	return doc
}

func encodeModule(m Module) model.DraftModule {
	wire := wireNumeric(m.ID)
	dm := model.DraftModule{
		ID:       wire,
		Title:    m.Title,
		Position: m.Position,
	}
	for _, it := range m.Items {
		dm.Items = append(dm.Items, encodeItem(wire, it))
	}
	return dm
}

func encodeItem(moduleWire int64, it Item) model.DraftItem {
	di := model.DraftItem{
		ID:       encodeItemID(moduleWire, it),
		Position: it.Position,
	}
	switch p := it.Payload.(type) {
	case *Lesson:
		di.Type = model.ItemTypeLesson
		di.Lesson = encodeLesson(p)
	case *Exam:
		di.Type = model.ItemTypeExam
		di.Exam = encodeExam(p)
	}
	return di
}

// encodeItemID keeps real item identities verbatim and synthesizes a stable
// composite placeholder for everything else.
func encodeItemID(moduleWire int64, it Item) string {
	if !it.ID.IsZero() && !it.ID.IsPlaceholder() {
		return strconv.FormatInt(it.ID.Real(), 10)
	}
	var payloadWire int64
	switch p := it.Payload.(type) {
	case *Lesson:
		payloadWire = wireNumeric(p.ID)
	case *Exam:
		payloadWire = wireNumeric(p.ID)
	}
	return fmt.Sprintf("%s%d.%d", model.PlaceholderPrefix, moduleWire, payloadWire)
}

func encodeLesson(l *Lesson) *model.DraftLesson {
	dl := &model.DraftLesson{
		ID:          wireNumeric(l.ID),
		Title:       l.Title,
		Description: l.Description,
		Kind:        l.Kind,
	}
	for _, r := range l.Resources {
		dl.Resources = append(dl.Resources, model.DraftResource{
			ID:        wireNumeric(r.ID),
			Name:      r.Name,
			URL:       r.URL,
			SizeBytes: r.SizeBytes,
		})
	}
	return dl
}

func encodeExam(e *Exam) *model.DraftExam {
	de := &model.DraftExam{
		ID:          wireNumeric(e.ID),
		Title:       e.Title,
		Description: e.Description,
		Duration:    e.Duration,
	}
	for _, q := range e.Questions {
		de.Questions = append(de.Questions, model.DraftQuestion{
			ID:    wireNumeric(q.ID),
			Entry: encodeBankEntry(q.Entry),
		})
	}
	return de
}

func encodeBankEntry(e BankEntry) model.DraftBankEntry {
	de := model.DraftBankEntry{
		ID:       wireNumeric(e.ID),
		Text:     e.Text,
		Type:     e.Type,
		Answer:   e.Answer,
		LessonID: wireNumeric(e.LessonID),
		CourseID: wireNumeric(e.CourseID),
	}
	for _, a := range e.Answers {
		de.Answers = append(de.Answers, model.DraftAnswer{
			ID:      wireNumeric(a.ID),
			Text:    a.Text,
			Correct: a.Correct,
		})
	}
	return de
}

// wireNumeric produces the signed-integer wire form of an id. Zero ids stay
// zero; the validator and decoder reject them downstream.
func wireNumeric(id model.ID) int64 {
	if id.IsZero() {
		return 0
	}
	n, err := id.Numeric()
	if err != nil {
		return 0
	}
	return n
}

// Decode maps a draft document back to a local outline. Tombstoned nodes are
// filtered out entirely. It fails with model.ErrMalformedReference when an
// item's type tag and payload disagree or an identity cannot be parsed.
func Decode(doc *model.DraftDocument) (*Outline, error) {
	o := &Outline{
		Name:        doc.Name,
		Description: doc.Description,
		CategoryID:  doc.CategoryID,
		OwnerID:     doc.OwnerID,
		SkillIDs:    append([]int64(nil), doc.SkillIDs...),
	}
	for _, dm := range doc.Modules {
		if dm.Deleted {
			continue
		}
		m, err := decodeModule(dm)
		if err != nil {
			return nil, err
		}
		o.Modules = append(o.Modules, m)
	}
	return o, nil
}

func decodeModule(dm model.DraftModule) (Module, error) {
	id, err := dm.NodeID()
	if err != nil {
		return Module{}, fmt.Errorf("module %q: %w", dm.Title, err)
	}
	m := Module{ID: id, Title: dm.Title, Position: dm.Position}
	for _, di := range dm.Items {
		if di.Deleted {
			continue
		}
		it, keep, err := decodeItem(di)
		if err != nil {
			return Module{}, err
		}
		if keep {
			m.Items = append(m.Items, it)
		}
	}
	return m, nil
}

func decodeItem(di model.DraftItem) (Item, bool, error) {
	id, err := di.NodeID()
	if err != nil {
		return Item{}, false, err
	}
	it := Item{ID: id, Position: di.Position}

	switch di.Type {
	case model.ItemTypeLesson:
		if di.Lesson == nil || di.Exam != nil {
			return Item{}, false, fmt.Errorf("%w: item %s tagged lesson with inconsistent payload", model.ErrMalformedReference, di.ID)
		}
		if di.Lesson.Deleted {
			return Item{}, false, nil
		}
		l, err := decodeLesson(di.Lesson)
		if err != nil {
			return Item{}, false, err
		}
		it.Payload = l
	case model.ItemTypeExam:
		if di.Exam == nil || di.Lesson != nil {
			return Item{}, false, fmt.Errorf("%w: item %s tagged exam with inconsistent payload", model.ErrMalformedReference, di.ID)
		}
		if di.Exam.Deleted {
			return Item{}, false, nil
		}
		e, err := decodeExam(di.Exam)
		if err != nil {
			return Item{}, false, err
		}
		it.Payload = e
	default:
		return Item{}, false, fmt.Errorf("%w: item %s has unknown type %q", model.ErrMalformedReference, di.ID, di.Type)
	}
	return it, true, nil
}

func decodeLesson(dl *model.DraftLesson) (*Lesson, error) {
	id, err := dl.NodeID()
	if err != nil {
		return nil, fmt.Errorf("lesson %q: %w", dl.Title, err)
	}
	l := &Lesson{
		ID:          id,
		Title:       dl.Title,
		Description: dl.Description,
		Kind:        dl.Kind,
	}
	for _, dr := range dl.Resources {
		if dr.Deleted {
			continue
		}
		rid, err := dr.NodeID()
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", dr.Name, err)
		}
		l.Resources = append(l.Resources, Resource{
			ID:        rid,
			Name:      dr.Name,
			URL:       dr.URL,
			SizeBytes: dr.SizeBytes,
		})
	}
	return l, nil
}

func decodeExam(de *model.DraftExam) (*Exam, error) {
	id, err := de.NodeID()
	if err != nil {
		return nil, fmt.Errorf("exam %q: %w", de.Title, err)
	}
	e := &Exam{
		ID:          id,
		Title:       de.Title,
		Description: de.Description,
		Duration:    de.Duration,
	}
	for _, dq := range de.Questions {
		if dq.Deleted || dq.Entry.Deleted {
			continue
		}
		qid, err := dq.NodeID()
		if err != nil {
			return nil, err
		}
		entry, err := decodeBankEntry(dq.Entry)
		if err != nil {
			return nil, err
		}
		e.Questions = append(e.Questions, Question{ID: qid, Entry: entry})
	}
	return e, nil
}

func decodeBankEntry(de model.DraftBankEntry) (BankEntry, error) {
	id, err := de.NodeID()
	if err != nil {
		return BankEntry{}, fmt.Errorf("question: %w", err)
	}
	e := BankEntry{
		ID:     id,
		Text:   de.Text,
		Type:   de.Type,
		Answer: de.Answer,
	}
	if de.LessonID != 0 {
		ref, err := model.ParseNumericID(de.LessonID)
		if err != nil {
			return BankEntry{}, err
		}
		e.LessonID = ref
	}
	if de.CourseID != 0 {
		ref, err := model.ParseNumericID(de.CourseID)
		if err != nil {
			return BankEntry{}, err
		}
		e.CourseID = ref
	}
	for _, da := range de.Answers {
		if da.Deleted {
			continue
		}
		aid, err := da.NodeID()
		if err != nil {
			return BankEntry{}, err
		}
		e.Answers = append(e.Answers, Answer{ID: aid, Text: da.Text, Correct: da.Correct})
	}
	return e, nil
}
