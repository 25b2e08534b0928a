package booklet

import (
	"errors"
	"math"
	"testing"
)

func TestAlignmentBlanks(t *testing.T) {
	tests := []struct {
		pages int
		want  int
	}{
		{0, 2},
		{1, 1},
		{2, 0},
		{3, 3},
		{6, 0},
		{10, 0},
		{11, 3},
	}
	for _, tt := range tests {
		if got := alignmentBlanks(tt.pages); got != tt.want {
			t.Errorf("alignmentBlanks(%d) = %d, want %d", tt.pages, got, tt.want)
		}
	}
	for p := 0; p < 64; p++ {
		if total := p + alignmentBlanks(p) + backCoverPages; total%BookletMultiple != 0 {
			t.Fatalf("%d pages finalize to %d", p, total)
		}
	}
}

func TestTallySpreads(t *testing.T) {
	tests := []struct {
		name   string
		before int
		n      int
		added  int
		blanks int
	}{
		{"even start", 4, 2, 5, 1},
		{"odd start", 5, 2, 4, 0},
		{"empty", 0, 1, 3, 1},
		{"no spreads", 3, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tl tally
			tl.add(Color, tt.before)
			tl.spreads(Color, tt.n)
			if got := tl.PageCount - tt.before; got != tt.added {
				t.Errorf("spreads added %d pages, want %d", got, tt.added)
			}
			if tl.BPages != tt.blanks {
				t.Errorf("blank pages = %d, want %d", tl.BPages, tt.blanks)
			}
		})
	}
}

func TestTallyFinalize(t *testing.T) {
	var tl tally
	tl.add(Color, 2)
	tl.add(Grayscale, 5)
	tl.finalize(Color)

	want := Accounting{PageCount: 12, BPages: 8, CPages: 4}
	if tl.Accounting != want {
		t.Errorf("tally = %+v, want %+v", tl.Accounting, want)
	}
}

func TestAccountingIgnoresNonPositive(t *testing.T) {
	var a Accounting
	a.add(Color, 0)
	a.add(Grayscale, -3)
	if a != (Accounting{}) {
		t.Errorf("Accounting = %+v, want zero", a)
	}
}

func TestWithBleed(t *testing.T) {
	got := A4.WithBleed(3)
	if math.Abs(got.Width-612.288) > 0.01 || math.Abs(got.Height-858.898) > 0.01 {
		t.Errorf("A4.WithBleed(3) = %+v", got)
	}
	if A4.WithBleed(0) != A4 {
		t.Error("zero bleed changed the page size")
	}
}

func TestSplitFragments(t *testing.T) {
	in := []Fragment{
		{ID: "c", Type: "notes", Index: 2},
		{ID: "a", Type: "notes", Index: 1},
		{ID: "cover", Type: TypeCover, Index: 9},
		{ID: "b", Type: TypePlanner, Index: 1},
		{ID: "d", Type: "notes", Index: 0},
	}
	cover, rest, err := splitFragments(in)
	if err != nil {
		t.Fatalf("splitFragments() error = %v", err)
	}
	if cover.ID != "cover" {
		t.Errorf("cover = %s", cover.ID)
	}
	var order string
	for _, f := range rest {
		order += f.ID
	}
	if order != "dabc" {
		t.Errorf("order = %s, want dabc", order)
	}
	if in[0].ID != "c" {
		t.Error("input slice was reordered")
	}

	if _, _, err := splitFragments(in[:2]); !errors.Is(err, ErrCoverNotFound) {
		t.Errorf("no cover: error = %v", err)
	}
	two := append([]Fragment{{ID: "second", Type: TypeCover}}, in...)
	_, _, err = splitFragments(two)
	var fe *FragmentError
	if !errors.As(err, &fe) || fe.FragmentID != "cover" || !errors.Is(err, ErrCoverNotFound) {
		t.Errorf("two covers: error = %v", err)
	}
}

func TestWindow(t *testing.T) {
	h := NewPlannerHandler(Deps{Settings: DefaultSettings()})
	if _, _, err := h.Window(&BookDetails{}, false); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("zero start: error = %v", err)
	}
}
