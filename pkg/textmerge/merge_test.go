package textmerge

import (
	"strings"
	"testing"
)

func TestMergeNoChanges(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"

	merged, conflict := Merge(base, base, base, "ours", "theirs")

	if conflict {
		t.Error("expected no conflict")
	}
	if merged != base {
		t.Errorf("expected %q, got %q", base, merged)
	}
}

func TestMergeOneSided(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		ours   string
		theirs string
		want   string
	}{
		{
			name:   "ours appends",
			base:   "alpha\nbeta\n",
			ours:   "alpha\nbeta\ngamma\n",
			theirs: "alpha\nbeta\n",
			want:   "alpha\nbeta\ngamma\n",
		},
		{
			name:   "theirs rewrites first line",
			base:   "alpha\nbeta\n",
			ours:   "alpha\nbeta\n",
			theirs: "ALPHA\nbeta\n",
			want:   "ALPHA\nbeta\n",
		},
		{
			name:   "ours deletes a line",
			base:   "alpha\nbeta\ngamma\n",
			ours:   "alpha\ngamma\n",
			theirs: "alpha\nbeta\ngamma\n",
			want:   "alpha\ngamma\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, conflict := Merge(tt.base, tt.ours, tt.theirs, "ours", "theirs")
			if conflict {
				t.Error("expected no conflict")
			}
			if merged != tt.want {
				t.Errorf("expected %q, got %q", tt.want, merged)
			}
		})
	}
}

func TestMergeNonOverlappingEdits(t *testing.T) {
	base := "사과\n배\n"
	ours := "사과\n배\n포도\n"
	theirs := "바나나\n사과\n배\n"

	merged, conflict := Merge(base, ours, theirs, "ours", "theirs")

	if conflict {
		t.Error("expected clean merge for edits in different regions")
	}
	want := "바나나\n사과\n배\n포도\n"
	if merged != want {
		t.Errorf("expected %q, got %q", want, merged)
	}
}

func TestMergeConflict(t *testing.T) {
	base := "김치찌개\n"
	ours := "부대찌개\n"
	theirs := "된장찌개\n"

	merged, conflict := Merge(base, ours, theirs, "ours", "theirs")

	if !conflict {
		t.Fatal("expected a conflict")
	}
	want := "<<<<<<< ours\n부대찌개\n=======\n된장찌개\n>>>>>>> theirs\n"
	if merged != want {
		t.Errorf("expected %q, got %q", want, merged)
	}
}

func TestMergeConflictKeepsContext(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	ours := "alpha\nBETA\ngamma\n"
	theirs := "alpha\nbeta!\ngamma\n"

	merged, conflict := Merge(base, ours, theirs, "a", "b")

	if !conflict {
		t.Fatal("expected a conflict")
	}
	want := "alpha\n<<<<<<< a\nBETA\n=======\nbeta!\n>>>>>>> b\ngamma\n"
	if merged != want {
		t.Errorf("expected %q, got %q", want, merged)
	}
}

func TestMergeIdenticalChanges(t *testing.T) {
	base := "alpha\n"
	both := "alpha\nbeta\n"

	merged, conflict := Merge(base, both, both, "ours", "theirs")

	if conflict {
		t.Error("identical changes on both sides must not conflict")
	}
	if merged != both {
		t.Errorf("expected %q, got %q", both, merged)
	}
}

func TestMergeEmptyBase(t *testing.T) {
	merged, conflict := Merge("", "left\n", "right\n", "ours", "theirs")

	if !conflict {
		t.Fatal("expected a conflict when both sides add different content")
	}
	for _, marker := range []string{"<<<<<<< ours", "=======", ">>>>>>> theirs"} {
		if !strings.Contains(merged, marker) {
			t.Errorf("merged output missing marker %q: %q", marker, merged)
		}
	}
}

func TestMergeDeleteVersusEdit(t *testing.T) {
	base := "alpha\nbeta\ngamma\n"
	ours := "alpha\ngamma\n"
	theirs := "alpha\nBETA\ngamma\n"

	merged, conflict := Merge(base, ours, theirs, "ours", "theirs")

	if !conflict {
		t.Fatal("expected delete versus edit to conflict")
	}
	want := "alpha\n<<<<<<< ours\n=======\nBETA\n>>>>>>> theirs\ngamma\n"
	if merged != want {
		t.Errorf("expected %q, got %q", want, merged)
	}
}

func TestMergePreservesMissingFinalNewline(t *testing.T) {
	base := "alpha\nbeta"
	theirs := "ALPHA\nbeta"

	merged, conflict := Merge(base, base, theirs, "ours", "theirs")

	if conflict {
		t.Error("expected no conflict")
	}
	if merged != theirs {
		t.Errorf("expected %q, got %q", theirs, merged)
	}
}

func TestMergeEmptyLabels(t *testing.T) {
	merged, conflict := Merge("x\n", "y\n", "z\n", "", "")

	if !conflict {
		t.Fatal("expected a conflict")
	}
	if !strings.HasPrefix(merged, "<<<<<<<\n") {
		t.Errorf("expected bare begin marker, got %q", merged)
	}
	if !strings.Contains(merged, ">>>>>>>\n") {
		t.Errorf("expected bare end marker, got %q", merged)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single line", input: "a\n", want: []string{"a\n"}},
		{name: "no final newline", input: "a\nb", want: []string{"a\n", "b"}},
		{name: "blank lines", input: "\n\n", want: []string{"\n", "\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d (%q)", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
