package staging

import (
	"sort"
	"strings"

	"github.com/markrai/gitpow/internal/diff"
	"github.com/markrai/gitpow/model"
)

// BuildPatch keeps the hunks of fd at the given zero-based indices and
// renders a patch for `git apply`. Unknown indices are ignored. When
// reverse is false the new-side starts of kept hunks are shifted to
// account for dropped hunks; when true the old-side starts are, so the
// patch lines up with the index for `git apply --reverse`. An empty string
// means nothing was selected.
func BuildPatch(fd *model.FileDiff, indices []int, reverse bool) string {
	keep := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(fd.Hunks) {
			keep[i] = true
		}
	}
	if len(keep) == 0 {
		return ""
	}

	lines := diff.SplitHeader(fd.Diff)
	shift := 0
	for i, h := range fd.Hunks {
		if !keep[i] {
			shift += h.NewCount - h.OldCount
			continue
		}
		header := diff.HunkHeader{OldStart: h.OldStart, OldCount: h.OldCount, NewStart: h.NewStart, NewCount: h.NewCount}
		if reverse {
			header.OldStart += shift
		} else {
			header.NewStart -= shift
		}
		lines = append(lines, header.String())
		lines = append(lines, h.Lines[1:]...)
	}
	return strings.Join(lines, "\n") + "\n"
}

// normalize sorts and dedupes hunk indices.
func normalize(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[i-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}
