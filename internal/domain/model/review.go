package model

import "fmt"

// Score bounds for a review. Generators must produce values in this range.
const (
	MinScore = 0
	MaxScore = 100
)

// Finding is a single reported issue in the reviewed project.
type Finding struct {
	Path     string // Relative path within the staged project; empty for project-wide findings.
	Line     int    // 1-based line number; 0 means the finding applies to the whole file.
	Severity Severity
	Message  string
}

// Location renders the finding's location reference as "path" or "path:line".
// Project-wide findings render as "project".
func (f Finding) Location() string {
	if f.Path == "" {
		return "project"
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return f.Path
}

// ReviewResult is the output of a review generator, regardless of mode.
type ReviewResult struct {
	Summary  string
	Findings []Finding // Ordered as produced by the generator.
	Score    int       // In [MinScore, MaxScore].
	Mode     ReviewMode
}

// ClampScore forces s into the valid score range.
func ClampScore(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
