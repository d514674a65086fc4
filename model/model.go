// Package model holds the records the engine returns. Every value is
// recomputed on each call and carries no reference to repository state.
package model

// Commit is a single history entry. ID is the full 40-hex hash and
// AuthoredAt is RFC 3339 in UTC.
type Commit struct {
	ID          string   `json:"sha"`
	AuthorName  string   `json:"author"`
	AuthorEmail string   `json:"email"`
	AuthoredAt  string   `json:"date"`
	Message     string   `json:"message"`
	ParentIDs   []string `json:"parents"`
	IsMerge     bool     `json:"is_merge"`
	Branches    []string `json:"branches"`
	// Decoration is presentation data owned by the client.
	Decoration map[string]string `json:"decoration,omitempty"`
}

// BranchInfo is the ref snapshot of a repository.
type BranchInfo struct {
	Current         string                    `json:"current"`
	Branches        []string                  `json:"branches"`
	Metadata        map[string]BranchMetadata `json:"branch_metadata"`
	Head            string                    `json:"head,omitempty"`
	RefsFingerprint string                    `json:"refs_fingerprint,omitempty"`
}

// BranchMetadata describes one branch relative to the main line.
type BranchMetadata struct {
	IsMerged     bool    `json:"is_merged"`
	IsStale      bool    `json:"is_stale"`
	IsUnborn     bool    `json:"is_unborn"`
	LastCommitAt *string `json:"last_commit_date,omitempty"`
}

// DiffHunk is one "@@" section of a unified diff. Lines includes the
// header line itself. LineStart is the zero-based offset of the header
// in the diff text the hunk was cut from.
type DiffHunk struct {
	OldStart  int      `json:"old_start"`
	OldCount  int      `json:"old_lines"`
	NewStart  int      `json:"new_start"`
	NewCount  int      `json:"new_lines"`
	Lines     []string `json:"lines"`
	LineStart int      `json:"line_start"`
}

// FileDiff is the diff of one file.
type FileDiff struct {
	Diff     string        `json:"diff"`
	Hunks    []DiffHunk    `json:"hunks"`
	FilePath string        `json:"file_path"`
	Binary   bool          `json:"binary,omitempty"`
	Degraded []Degradation `json:"degraded,omitempty"`
}

// FileChange is a path touched by a commit.
type FileChange struct {
	Path   string `json:"path"`
	Status string `json:"status"` // added, modified, removed
}

// CommitStats summarizes a commit against its first parent.
type CommitStats struct {
	FilesChanged int `json:"files_changed"`
	LinesChanged int `json:"lines_changed"`
}

// ConflictFile is an unmerged path. Type is always "both-modified" for
// compatibility; Cause carries the precise two-sided classification.
type ConflictFile struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Cause string `json:"cause"`
}

// Conflicts lists the unmerged paths of the working tree.
type Conflicts struct {
	Files        []ConflictFile `json:"files"`
	HasConflicts bool           `json:"has_conflicts"`
}

// ConflictContent holds the three merge stages plus the working file.
type ConflictContent struct {
	FilePath string        `json:"file_path"`
	Base     string        `json:"base"`
	Mine     string        `json:"mine"`
	Theirs   string        `json:"theirs"`
	Result   string        `json:"result"`
	Degraded []Degradation `json:"degraded,omitempty"`
}

// File status kinds.
const (
	StatusAdded     = "added"
	StatusDeleted   = "deleted"
	StatusModified  = "modified"
	StatusRenamed   = "renamed"
	StatusUntracked = "untracked"
)

// StatusFile is one entry of the porcelain status.
type StatusFile struct {
	Path     string `json:"path"`
	OldPath  string `json:"old_path,omitempty"`
	Status   string `json:"status"`
	Staged   bool   `json:"staged"`
	Unstaged bool   `json:"unstaged"`
	Type     string `json:"type"`
}

// Status is the parsed working tree status.
type Status struct {
	Files    []StatusFile  `json:"files"`
	Degraded []Degradation `json:"degraded,omitempty"`
}

// StashEntry is one line of the stash list.
type StashEntry struct {
	Ref     string `json:"index"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

// RebasePreview lists the commits a rebase would replay.
type RebasePreview struct {
	Commits   []Commit `json:"commits"`
	Onto      string   `json:"onto"`
	From      string   `json:"from"`
	MergeBase string   `json:"merge_base"`
}

// RebasePlanItem is one step of an interactive rebase plan.
type RebasePlanItem struct {
	ID      string `json:"sha"`
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
}

// RebasePlanResult is the answer to a submitted plan. Only dry runs
// succeed; Plan then holds the normalized steps.
type RebasePlanResult struct {
	Success bool             `json:"success"`
	DryRun  bool             `json:"dry_run,omitempty"`
	Plan    []RebasePlanItem `json:"plan,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// FetchResult reports which remotes were fetched.
type FetchResult struct {
	Fetched  []string      `json:"fetched"`
	Skipped  []string      `json:"skipped,omitempty"`
	Degraded []Degradation `json:"degraded,omitempty"`
}

// AheadBehind counts commits on each side of a comparison.
type AheadBehind struct {
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`
}

// OpResult is returned by mutating operations that only report tool output.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Output  string `json:"output,omitempty"`
}

// UpstreamStatus describes the current branch against its upstream.
type UpstreamStatus struct {
	Branch      string `json:"branch"`
	HasUpstream bool   `json:"has_upstream"`
	Ahead       int    `json:"ahead"`
	Behind      int    `json:"behind"`
}
