package domain

import "testing"

func TestNormalizeInfersLegacyTypes(t *testing.T) {
	cases := []struct {
		name string
		in   Question
		want QuestionType
	}{
		{"hotspot zones", Question{Hotspots: []Hotspot{{ID: "h1"}}}, TypeHotspot},
		{"drag elements", Question{Draggables: []string{"electron"}}, TypeDragDrop},
		{"flashcard faces", Question{Front: "f", Back: "b"}, TypeFlashcard},
		{"bare options", Question{Options: []string{"a", "b"}}, TypeQCM},
		{"explicit tag wins", Question{Type: TypeQCM, Front: "f", Back: "b"}, TypeQCM},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in).Type; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNormalizeBank(t *testing.T) {
	bank := NormalizeBank(Bank{Questions: []Question{
		{ID: "q1", Options: []string{"a"}},
		{ID: "q2", Front: "f", Back: "b"},
	}})
	if bank.Questions[0].Type != TypeQCM || bank.Questions[1].Type != TypeFlashcard {
		t.Fatalf("unexpected inferred types %+v", bank.Questions)
	}
}

func TestIsQCMLike(t *testing.T) {
	for _, typ := range []QuestionType{TypeQCM, TypeHotspot, TypeDragDrop} {
		if !(Question{Type: typ}).IsQCMLike() {
			t.Fatalf("expected %s to be QCM-like", typ)
		}
	}
	if (Question{Type: TypeFlashcard}).IsQCMLike() {
		t.Fatal("flashcards are not QCM-like")
	}
}
