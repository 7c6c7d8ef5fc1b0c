package citation

import (
	"regexp"
	"strconv"
)

// SegmentKind indicates how a segment should be rendered
type SegmentKind string

const (
	SegmentKindText     SegmentKind = "text"
	SegmentKindCitation SegmentKind = "citation"
)

// Segment is a single renderable unit of answer content. For citation
// segments Content holds the marker numeral as text (e.g. "1") and Index
// is the 0-based position into the message's citation list.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
	Index   int         `json:"citation_index,omitempty"`
}

// Marker pattern: an opening bracket, one or more ASCII digits, a closing
// bracket. Anything else between brackets is ordinary text.
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Parse splits generated answer text into text and citation segments.
//
// A bracketed numeral n is a citation marker only when 1 <= n <= citationCount
// (markers are 1-based against the citation list). Out-of-range numerals and
// non-numeric bracket content stay literal, merged into the surrounding text.
// Adjacent valid markers produce back-to-back citation segments with no empty
// text segment between them. When the input holds no valid marker at all the
// whole input becomes a single text segment, even if empty.
//
// Parse is total: it never fails, and concatenating segment contents (with
// brackets restored around citation segments) reconstructs text exactly.
func Parse(text string, citationCount int) []Segment {
	segments := make([]Segment, 0)

	if citationCount > 0 {
		runStart := 0
		for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
			numeral := text[loc[2]:loc[3]]
			n, err := strconv.Atoi(numeral)
			if err != nil || n < 1 || n > citationCount {
				// Out of range (or overflow on an absurdly long numeral):
				// leave it inside the current text run.
				continue
			}

			if loc[0] > runStart {
				segments = append(segments, Segment{
					Kind:    SegmentKindText,
					Content: text[runStart:loc[0]],
				})
			}
			segments = append(segments, Segment{
				Kind:    SegmentKindCitation,
				Content: numeral,
				Index:   n - 1,
			})
			runStart = loc[1]
		}

		if runStart < len(text) {
			segments = append(segments, Segment{
				Kind:    SegmentKindText,
				Content: text[runStart:],
			})
		}
	}

	// Degenerate case: no valid marker anywhere (including empty input and
	// citationCount == 0) collapses to exactly one text segment.
	if len(segments) == 0 {
		segments = append(segments, Segment{
			Kind:    SegmentKindText,
			Content: text,
		})
	}

	return segments
}
