package diff

import (
	"fmt"
	"strings"

	"github.com/markrai/gitpow/model"
)

// Assembler collects lines from a HunkBuilder and produces a FileDiff.
// Every hunk's LineStart is the index of its header in the final text.
// When a hunk closes its body is recounted; a header whose counts disagree
// is kept as is and recorded as a malformed-hunk-header degradation.
type Assembler struct {
	path     string
	lines    []string
	hunks    []model.DiffHunk
	open     bool
	binary   bool
	degraded []model.Degradation
}

// NewAssembler starts an empty diff for path.
func NewAssembler(path string) *Assembler {
	return &Assembler{path: path}
}

// FileHeader appends a file header line and closes any open hunk.
func (a *Assembler) FileHeader(line string) {
	a.closeHunk()
	a.lines = append(a.lines, line)
}

// Hunk opens a new hunk. raw is the header line as it should appear in the
// text; when empty it is rendered from h.
func (a *Assembler) Hunk(h HunkHeader, raw string) {
	a.closeHunk()
	if raw == "" {
		raw = h.String()
	}
	a.hunks = append(a.hunks, model.DiffHunk{
		OldStart:  h.OldStart,
		OldCount:  h.OldCount,
		NewStart:  h.NewStart,
		NewCount:  h.NewCount,
		Lines:     []string{raw},
		LineStart: len(a.lines),
	})
	a.lines = append(a.lines, raw)
	a.open = true
}

// Line appends a body line to the open hunk.
func (a *Assembler) Line(origin Origin, content string) {
	if origin == OriginNoNewline {
		a.Append(noNewlineMarker)
		return
	}
	a.Append(string(origin) + content)
}

// Append adds raw to the text and, if a hunk is open, to its lines.
func (a *Assembler) Append(raw string) {
	a.lines = append(a.lines, raw)
	if a.open {
		h := &a.hunks[len(a.hunks)-1]
		h.Lines = append(h.Lines, raw)
	}
}

// Orphan appends a line that belongs to no hunk.
func (a *Assembler) Orphan(raw string) {
	a.closeHunk()
	a.lines = append(a.lines, raw)
}

// Binary marks the diff as binary.
func (a *Assembler) Binary() {
	a.binary = true
	a.Degrade(model.DegradedBinaryContent, "binary content has no line diff")
}

// Degrade records a fallback taken while building this diff.
func (a *Assembler) Degrade(kind model.DegradationKind, detail string) {
	a.degraded = append(a.degraded, model.Degradation{Kind: kind, Subject: a.path, Detail: detail})
}

func (a *Assembler) closeHunk() {
	if !a.open {
		return
	}
	a.open = false
	h := a.hunks[len(a.hunks)-1]
	oldCount, newCount := Recount(h.Lines)
	if oldCount != h.OldCount || newCount != h.NewCount {
		a.Degrade(model.DegradedMalformedHunkHeader,
			fmt.Sprintf("%s: body has %d old and %d new lines", h.Lines[0], oldCount, newCount))
	}
}

// Result returns the assembled diff. Hunks is never nil.
func (a *Assembler) Result() *model.FileDiff {
	a.closeHunk()
	text := ""
	if len(a.lines) > 0 {
		text = strings.Join(a.lines, "\n") + "\n"
	}
	hunks := a.hunks
	if hunks == nil {
		hunks = []model.DiffHunk{}
	}
	return &model.FileDiff{
		Diff:     text,
		Hunks:    hunks,
		FilePath: a.path,
		Binary:   a.binary,
		Degraded: a.degraded,
	}
}

// Build runs b against a fresh Assembler for path.
func Build(path string, b HunkBuilder) (*model.FileDiff, error) {
	a := NewAssembler(path)
	if err := b.Emit(a); err != nil {
		return nil, err
	}
	return a.Result(), nil
}
