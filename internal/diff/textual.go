package diff

import (
	"strings"

	"github.com/markrai/gitpow/model"
)

// TextBuilder scans unified diff text produced by the git binary.
type TextBuilder struct {
	Text string
}

var fileHeaderPrefixes = []string{
	"diff --git ", "index ", "--- ", "+++ ",
	"new file mode ", "deleted file mode ", "old mode ", "new mode ",
	"similarity index ", "dissimilarity index ", "rename from ", "rename to ",
	"copy from ", "copy to ",
}

func isFileHeader(line string) bool {
	for _, p := range fileHeaderPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Emit implements HunkBuilder. A malformed "@@" line is recorded as a
// degradation and every line up to the next valid header is left outside
// any hunk.
func (b TextBuilder) Emit(a *Assembler) error {
	text := strings.TrimSuffix(b.Text, "\n")
	if text == "" {
		return nil
	}

	inHunk := false
	skipping := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			h, ok := ParseHunkHeader(line)
			if !ok {
				a.Degrade(model.DegradedMalformedHunkHeader, line)
				a.Orphan(line)
				inHunk, skipping = false, true
				continue
			}
			a.Hunk(h, line)
			inHunk, skipping = true, false

		case strings.HasPrefix(line, "diff --git "):
			a.FileHeader(line)
			inHunk, skipping = false, false

		case inHunk:
			a.Append(line)

		case skipping:
			a.Orphan(line)

		case strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch"):
			a.Orphan(line)
			a.Binary()

		default:
			if isFileHeader(line) {
				a.FileHeader(line)
			} else {
				a.Orphan(line)
			}
		}
	}
	return nil
}

// ParseUnified splits diff text for path into hunks.
func ParseUnified(path, text string) *model.FileDiff {
	a := NewAssembler(path)
	_ = TextBuilder{Text: text}.Emit(a)
	return a.Result()
}

// SplitHeader returns the file header lines of text: every line before the
// first hunk header.
func SplitHeader(text string) []string {
	var header []string
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if strings.HasPrefix(line, "@@") {
			break
		}
		if line != "" {
			header = append(header, line)
		}
	}
	return header
}
