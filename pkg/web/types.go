// Package web provides the HTTP handlers and request types for the script
// analysis API.
package web

// AnalyzeScriptRequest is the body for starting an analysis from raw text.
type AnalyzeScriptRequest struct {
	ScriptContent string `json:"script_content" validate:"required,min=10"`
	ScriptName    string `json:"script_name,omitempty"`
}

// FeedbackRequest carries reviewer feedback for a paused run. Keys of both
// maps are analysis category names. An empty or all-false needs_revision map
// approves the run as-is.
type FeedbackRequest struct {
	Feedback      map[string]string `json:"feedback"`
	NeedsRevision map[string]bool   `json:"needs_revision"`
}
