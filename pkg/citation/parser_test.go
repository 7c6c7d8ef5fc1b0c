package citation

import (
	"testing"
)

func text(s string) Segment { return Segment{Kind: SegmentKindText, Content: s} }

func cite(s string, i int) Segment {
	return Segment{Kind: SegmentKindCitation, Content: s, Index: i}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		citationCount int
		want          []Segment
	}{
		{
			name:          "text around a marker",
			text:          "text [1] more",
			citationCount: 1,
			want:          []Segment{text("text "), cite("1", 0), text(" more")},
		},
		{
			name:          "markers separated by text",
			text:          "[1] and [2]",
			citationCount: 2,
			want:          []Segment{cite("1", 0), text(" and "), cite("2", 1)},
		},
		{
			name:          "adjacent markers produce no empty text segment",
			text:          "text [1][2]",
			citationCount: 2,
			want:          []Segment{text("text "), cite("1", 0), cite("2", 1)},
		},
		{
			name:          "empty input",
			text:          "",
			citationCount: 5,
			want:          []Segment{text("")},
		},
		{
			name:          "zero citations never parse",
			text:          "text [1] here",
			citationCount: 0,
			want:          []Segment{text("text [1] here")},
		},
		{
			name:          "out of range stays literal",
			text:          "See [1] and also [3]",
			citationCount: 2,
			want:          []Segment{text("See "), cite("1", 0), text(" and also [3]")},
		},
		{
			name:          "non-numeric brackets and zero are literal",
			text:          "array[0] and [abc] test",
			citationCount: 1,
			want:          []Segment{text("array[0] and [abc] test")},
		},
		{
			name:          "marker at end of text",
			text:          "Pasal 5 UU Cipta Kerja [2]",
			citationCount: 3,
			want:          []Segment{text("Pasal 5 UU Cipta Kerja "), cite("2", 1)},
		},
		{
			name:          "only markers",
			text:          "[1][2][3]",
			citationCount: 3,
			want:          []Segment{cite("1", 0), cite("2", 1), cite("3", 2)},
		},
		{
			name:          "negative-looking bracket is not a marker",
			text:          "range [-1] stays",
			citationCount: 4,
			want:          []Segment{text("range [-1] stays")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, tt.citationCount)

			if len(got) != len(tt.want) {
				t.Fatalf("segment count = %d, want %d (%+v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Concatenating segment contents, restoring brackets around citation
// segments, must reconstruct the input byte-for-byte.
func TestParseReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"plain text without markers",
		"text [1] more",
		"[1][2] adjacent",
		"mixed [abc] [2] [99] tail",
		"unclosed [3 bracket and ]4[ reversed",
		"unicode teks hukum [1] pasal ayat (2)",
		"[0] zero is out of the 1-based range",
	}

	for _, input := range inputs {
		for _, count := range []int{0, 1, 2, 5} {
			rebuilt := ""
			for _, seg := range Parse(input, count) {
				if seg.Kind == SegmentKindCitation {
					rebuilt += "[" + seg.Content + "]"
				} else {
					rebuilt += seg.Content
				}
			}
			if rebuilt != input {
				t.Errorf("Parse(%q, %d) does not reconstruct: got %q", input, count, rebuilt)
			}
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	const input = "See [1], then [2], then [7]."

	first := Parse(input, 2)
	for i := 0; i < 3; i++ {
		again := Parse(input, 2)
		if len(again) != len(first) {
			t.Fatalf("run %d: segment count changed", i)
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: segment %d changed: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}
