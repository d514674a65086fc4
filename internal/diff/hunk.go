// Package diff turns file changes into unified diff text plus structured
// hunks. Two front ends exist: a structured one driven by object-graph
// patches or in-process line diffs, and a textual one that scans the output
// of the git binary. Both feed the same Assembler, so the hunk records look
// the same regardless of where the diff came from.
package diff

import (
	"fmt"
	"regexp"
	"strconv"
)

// Origin tags each line handed to the Assembler.
type Origin byte

const (
	OriginFileHeader Origin = 'F'
	OriginHunkHeader Origin = 'H'
	OriginContext    Origin = ' '
	OriginAddition   Origin = '+'
	OriginDeletion   Origin = '-'
	// OriginNoNewline marks the "\ No newline at end of file" line.
	OriginNoNewline Origin = '\\'
)

const noNewlineMarker = `\ No newline at end of file`

// HunkBuilder emits one file's diff into an Assembler.
type HunkBuilder interface {
	Emit(a *Assembler) error
}

// HunkHeader is the parsed form of "@@ -a,b +c,d @@".
type HunkHeader struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
}

// String renders the header the way git does: a count of 1 is omitted.
func (h HunkHeader) String() string {
	return fmt.Sprintf("@@ -%s +%s @@", formatRange(h.OldStart, h.OldCount), formatRange(h.NewStart, h.NewCount))
}

func formatRange(start, count int) string {
	if count == 1 {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunkHeader parses a hunk header line. Omitted counts default to 1.
func ParseHunkHeader(line string) (HunkHeader, bool) {
	m := hunkHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return HunkHeader{}, false
	}
	num := func(s string, def int) (int, bool) {
		if s == "" {
			return def, true
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	var h HunkHeader
	var ok1, ok2, ok3, ok4 bool
	h.OldStart, ok1 = num(m[1], 0)
	h.OldCount, ok2 = num(m[2], 1)
	h.NewStart, ok3 = num(m[3], 0)
	h.NewCount, ok4 = num(m[4], 1)
	if !(ok1 && ok2 && ok3 && ok4) {
		return HunkHeader{}, false
	}
	return h, true
}

// Recount tallies the body of a hunk. Lines must include the header.
func Recount(lines []string) (oldCount, newCount int) {
	for _, l := range lines[min(1, len(lines)):] {
		if l == "" {
			oldCount++
			newCount++
			continue
		}
		switch Origin(l[0]) {
		case OriginContext:
			oldCount++
			newCount++
		case OriginDeletion:
			oldCount++
		case OriginAddition:
			newCount++
		}
	}
	return oldCount, newCount
}
