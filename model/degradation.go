package model

// DegradationKind names a best-effort fallback taken while building a result.
type DegradationKind string

const (
	DegradedMalformedStatusLine DegradationKind = "malformed-status-line"
	DegradedMalformedHunkHeader DegradationKind = "malformed-hunk-header"
	DegradedMissingStage        DegradationKind = "missing-stage"
	DegradedAuthUnavailable     DegradationKind = "authentication-unavailable"
	DegradedHunklessBootstrap   DegradationKind = "hunkless-bootstrap"
	DegradedBinaryContent       DegradationKind = "binary-content"
	DegradedMissingRevision     DegradationKind = "missing-revision"
)

// Degradation records that part of a result was produced by a fallback.
type Degradation struct {
	Kind    DegradationKind `json:"kind"`
	Subject string          `json:"subject,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}
