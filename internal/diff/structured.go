package diff

import (
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around a change.
const DefaultContext = 3

type lineOp struct {
	origin Origin // context, addition or deletion
	text   string // without the trailing newline
	// noEOL is set on the last line of a side that lacks a final newline.
	noEOL bool
}

// FileSides names the two sides of a structured diff. An empty path means
// the side does not exist (pure addition or deletion).
type FileSides struct {
	OldPath string
	NewPath string
}

func (s FileSides) emitHeader(a *Assembler) {
	from, to := "/dev/null", "/dev/null"
	if s.OldPath != "" {
		from = "a/" + s.OldPath
	}
	if s.NewPath != "" {
		to = "b/" + s.NewPath
	}
	a.FileHeader("--- " + from)
	a.FileHeader("+++ " + to)
}

// emptyChange reports whether the diff adds or removes a file without
// content. Such a diff still gets one hunk with no body lines.
func (s FileSides) emptyChange(oldText, newText string) bool {
	switch {
	case s.OldPath == "" && s.NewPath != "":
		return newText == ""
	case s.NewPath == "" && s.OldPath != "":
		return oldText == ""
	}
	return false
}

func (s FileSides) emitEmptyHunk(a *Assembler) {
	if s.OldPath == "" {
		a.Hunk(HunkHeader{OldStart: 0, OldCount: 0, NewStart: 1, NewCount: 0}, "")
		return
	}
	a.Hunk(HunkHeader{OldStart: 1, OldCount: 0, NewStart: 0, NewCount: 0}, "")
}

// PatchBuilder adapts an object-graph file patch into hunks.
type PatchBuilder struct {
	Patch fdiff.FilePatch
	Sides FileSides
	// OldEmpty and NewEmpty mark sides whose blob has no content. The
	// object graph reports empty blobs as binary.
	OldEmpty bool
	NewEmpty bool
	Context  int
}

// Emit implements HunkBuilder.
func (b PatchBuilder) Emit(a *Assembler) error {
	if b.Patch == nil {
		return nil
	}
	b.Sides.emitHeader(a)
	if (b.Sides.OldPath == "" && b.NewEmpty) || (b.Sides.NewPath == "" && b.OldEmpty) {
		b.Sides.emitEmptyHunk(a)
		return nil
	}
	if b.Patch.IsBinary() && !b.OldEmpty && !b.NewEmpty {
		a.Orphan("Binary files differ")
		a.Binary()
		return nil
	}

	var ops []lineOp
	for _, chunk := range b.Patch.Chunks() {
		var origin Origin
		switch chunk.Type() {
		case fdiff.Add:
			origin = OriginAddition
		case fdiff.Delete:
			origin = OriginDeletion
		default:
			origin = OriginContext
		}
		ops = appendChunk(ops, origin, chunk.Content())
	}
	emitGrouped(a, ops, contextOrDefault(b.Context))
	return nil
}

// LinesBuilder line-diffs two in-memory texts.
type LinesBuilder struct {
	Old, New string
	Sides    FileSides
	Context  int
}

// Emit implements HunkBuilder.
func (b LinesBuilder) Emit(a *Assembler) error {
	if b.Old == b.New && b.Sides.OldPath != "" && b.Sides.NewPath != "" {
		return nil
	}
	b.Sides.emitHeader(a)
	if b.Sides.emptyChange(b.Old, b.New) {
		b.Sides.emitEmptyHunk(a)
		return nil
	}
	if looksBinary(b.Old) || looksBinary(b.New) {
		a.Orphan("Binary files differ")
		a.Binary()
		return nil
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(b.Old, b.New)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		var origin Origin
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			origin = OriginAddition
		case diffmatchpatch.DiffDelete:
			origin = OriginDeletion
		default:
			origin = OriginContext
		}
		ops = appendChunk(ops, origin, d.Text)
	}
	emitGrouped(a, ops, contextOrDefault(b.Context))
	return nil
}

func looksBinary(s string) bool {
	probe := s
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return strings.IndexByte(probe, 0) >= 0
}

func contextOrDefault(n int) int {
	if n <= 0 {
		return DefaultContext
	}
	return n
}

func appendChunk(ops []lineOp, origin Origin, content string) []lineOp {
	for _, piece := range strings.SplitAfter(content, "\n") {
		if piece == "" {
			continue
		}
		text := strings.TrimSuffix(piece, "\n")
		ops = append(ops, lineOp{origin: origin, text: text, noEOL: text == piece})
	}
	return ops
}

// emitGrouped cuts ops into hunks: each change keeps ctx lines of context
// on either side and hunks whose context would touch are merged.
func emitGrouped(a *Assembler, ops []lineOp, ctx int) {
	type span struct{ start, end int } // inclusive op indexes
	var spans []span
	for i, op := range ops {
		if op.origin == OriginContext {
			continue
		}
		s := span{start: max(i-ctx, 0), end: min(i+ctx, len(ops)-1)}
		if n := len(spans); n > 0 && s.start <= spans[n-1].end+1 {
			spans[n-1].end = s.end
			continue
		}
		spans = append(spans, s)
	}

	oldLine, newLine, next := 0, 0, 0
	for _, s := range spans {
		for ; next < s.start; next++ {
			oldLine, newLine = advance(ops[next], oldLine, newLine)
		}
		h := HunkHeader{}
		for i := s.start; i <= s.end; i++ {
			switch ops[i].origin {
			case OriginContext:
				h.OldCount++
				h.NewCount++
			case OriginDeletion:
				h.OldCount++
			case OriginAddition:
				h.NewCount++
			}
		}
		h.OldStart = oldLine
		if h.OldCount > 0 {
			h.OldStart++
		}
		h.NewStart = newLine
		if h.NewCount > 0 {
			h.NewStart++
		}

		a.Hunk(h, "")
		for i := s.start; i <= s.end; i++ {
			a.Line(ops[i].origin, ops[i].text)
			if ops[i].noEOL {
				a.Line(OriginNoNewline, "")
			}
		}
	}
}

func advance(op lineOp, oldLine, newLine int) (int, int) {
	switch op.origin {
	case OriginContext:
		return oldLine + 1, newLine + 1
	case OriginDeletion:
		return oldLine + 1, newLine
	default:
		return oldLine, newLine + 1
	}
}
