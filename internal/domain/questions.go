package domain

// Normalize fills in a missing question type by probing legacy structural
// fields. Older exports of the question bank carried no type tag, so the
// ingestion boundary infers one: hotspot zones, drag-drop elements, then
// flashcard faces, defaulting to QCM when options are present. Records
// authored with an explicit tag pass through untouched.
func Normalize(q Question) Question {
	if q.Type != "" {
		return q
	}
	switch {
	case len(q.Hotspots) > 0:
		q.Type = TypeHotspot
	case len(q.Draggables) > 0:
		q.Type = TypeDragDrop
	case q.Front != "" && q.Back != "":
		q.Type = TypeFlashcard
	case len(q.Options) > 0:
		q.Type = TypeQCM
	}
	return q
}

// NormalizeBank applies Normalize to every question in the bank.
func NormalizeBank(b Bank) Bank {
	for i := range b.Questions {
		b.Questions[i] = Normalize(b.Questions[i])
	}
	return b
}

// IsQCMLike reports whether the question is answered by choosing an option
// index. Hotspot and drag-drop questions reduce to the same submission shape.
func (q Question) IsQCMLike() bool {
	switch q.Type {
	case TypeQCM, TypeHotspot, TypeDragDrop:
		return true
	}
	return false
}
