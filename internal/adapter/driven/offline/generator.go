// Package offline implements the Generator port without any external
// dependency. Its output is deterministic for a given staged tree, making
// it both the no-credentials path and the fallback when the online
// provider fails.
package offline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Generator = (*Generator)(nil)

// Severity deductions applied to the starting score of 100.
const (
	errorPenalty   = 10
	warningPenalty = 5
	infoPenalty    = 2
)

// longFileLines is the threshold above which a source file draws a
// readability note.
const longFileLines = 400

// Generator produces heuristic reviews from a project scan.
type Generator struct{}

// New creates the offline generator.
func New() *Generator { return &Generator{} }

// Mode reports which review mode this generator serves.
func (g *Generator) Mode() model.ReviewMode { return model.ModeOffline }

// Generate derives findings from structural checks (README, dependency
// manifest, tests), per-file textual checks over the samples, and a keyword
// cross-check of the checklist items. It never returns an error.
func (g *Generator) Generate(_ context.Context, in driven.GeneratorInput) (*model.ReviewResult, error) {
	var findings []model.Finding

	findings = append(findings, structuralFindings(in.Scan)...)
	findings = append(findings, sampleFindings(in.Scan)...)
	findings = append(findings, checklistFindings(in.Checklist, in.Scan)...)

	// Stable order: project-wide findings first, then by path and line.
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})

	score := model.MaxScore
	var errs, warns, infos int
	for _, f := range findings {
		switch f.Severity {
		case model.SeverityError:
			score -= errorPenalty
			errs++
		case model.SeverityWarning:
			score -= warningPenalty
			warns++
		default:
			score -= infoPenalty
			infos++
		}
	}

	return &model.ReviewResult{
		Summary:  summary(in, errs, warns, infos),
		Findings: findings,
		Score:    model.ClampScore(score),
		Mode:     model.ModeOffline,
	}, nil
}

func summary(in driven.GeneratorInput, errs, warns, infos int) string {
	subject := in.Doc.Title
	if subject == "" {
		subject = "the uploaded project"
	}
	return fmt.Sprintf(
		"Reviewed %s: %d files (%d sampled), %d errors, %d warnings, %d notes.",
		subject, len(in.Scan.Files), len(in.Scan.SampleOrder), errs, warns, infos,
	)
}

// structuralFindings checks for the project hygiene files every submission
// is expected to carry.
func structuralFindings(scan *model.ProjectScan) []model.Finding {
	var findings []model.Finding
	if !hasReadme(scan.Files) {
		findings = append(findings, model.Finding{
			Severity: model.SeverityWarning,
			Message:  "no README found; add one describing the project and how to run it",
		})
	}
	if !hasDependencyManifest(scan.Files) {
		findings = append(findings, model.Finding{
			Severity: model.SeverityWarning,
			Message:  "no dependency manifest found (requirements.txt, go.mod, package.json, or similar)",
		})
	}
	if !hasTests(scan.Files) {
		findings = append(findings, model.Finding{
			Severity: model.SeverityWarning,
			Message:  "no test files found",
		})
	}
	return findings
}

// sampleFindings runs line-level checks over the sampled file contents.
func sampleFindings(scan *model.ProjectScan) []model.Finding {
	var findings []model.Finding
	for _, rel := range scan.SampleOrder {
		content := scan.Samples[rel]
		lines := strings.Split(content, "\n")

		if isPython(rel) && !strings.Contains(content, "if __name__") {
			if line := firstLineContaining(lines, "print("); line > 0 {
				findings = append(findings, model.Finding{
					Path:     rel,
					Line:     line,
					Severity: model.SeverityInfo,
					Message:  "stray print call outside a __main__ guard; prefer logging",
				})
			}
		}

		if line := firstLineMarker(lines); line > 0 {
			findings = append(findings, model.Finding{
				Path:     rel,
				Line:     line,
				Severity: model.SeverityInfo,
				Message:  "unresolved TODO/FIXME marker",
			})
		}

		if len(lines) > longFileLines {
			findings = append(findings, model.Finding{
				Path:     rel,
				Severity: model.SeverityInfo,
				Message:  fmt.Sprintf("file is %d lines long; consider splitting it up", len(lines)),
			})
		}
	}
	return findings
}

// checklistFindings cross-checks checklist items against the file overview.
// Items whose wording maps to a structural check produce an error finding
// when unsatisfied; everything else is skipped rather than guessed at.
func checklistFindings(check model.Checklist, scan *model.ProjectScan) []model.Finding {
	var findings []model.Finding
	for _, item := range check.Items {
		lower := strings.ToLower(item)
		var satisfied, checkable bool
		switch {
		case strings.Contains(lower, "readme"):
			checkable, satisfied = true, hasReadme(scan.Files)
		case strings.Contains(lower, "test"):
			checkable, satisfied = true, hasTests(scan.Files)
		case strings.Contains(lower, "requirements") || strings.Contains(lower, "dependenc") || strings.Contains(lower, "manifest"):
			checkable, satisfied = true, hasDependencyManifest(scan.Files)
		case strings.Contains(lower, "dockerfile") || strings.Contains(lower, "docker"):
			checkable, satisfied = true, hasFileNamed(scan.Files, "dockerfile")
		}
		if checkable && !satisfied {
			findings = append(findings, model.Finding{
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("checklist item not satisfied: %s", item),
			})
		}
	}
	return findings
}

func hasReadme(files []string) bool {
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		if base == "readme.md" || base == "readme.txt" || base == "readme.rst" || base == "readme" {
			return true
		}
	}
	return false
}

var manifestNames = map[string]bool{
	"requirements.txt": true,
	"pyproject.toml":   true,
	"setup.py":         true,
	"pipfile":          true,
	"go.mod":           true,
	"package.json":     true,
	"pom.xml":          true,
	"cargo.toml":       true,
	"gemfile":          true,
}

func hasDependencyManifest(files []string) bool {
	for _, f := range files {
		if manifestNames[strings.ToLower(filepath.Base(f))] {
			return true
		}
	}
	return false
}

func hasTests(files []string) bool {
	for _, f := range files {
		base := strings.ToLower(filepath.Base(f))
		if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.go") ||
			strings.HasSuffix(base, ".test.js") || strings.HasSuffix(base, ".test.ts") ||
			strings.HasSuffix(base, ".spec.js") || strings.HasSuffix(base, ".spec.ts") {
			return true
		}
		for _, seg := range strings.Split(strings.ToLower(f), "/") {
			if seg == "tests" || seg == "test" || seg == "__tests__" {
				return true
			}
		}
	}
	return false
}

func hasFileNamed(files []string, name string) bool {
	for _, f := range files {
		if strings.ToLower(filepath.Base(f)) == name {
			return true
		}
	}
	return false
}

func isPython(rel string) bool {
	return strings.HasSuffix(strings.ToLower(rel), ".py")
}

func firstLineContaining(lines []string, needle string) int {
	for i, line := range lines {
		if strings.Contains(line, needle) {
			return i + 1
		}
	}
	return 0
}

func firstLineMarker(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, "TODO") || strings.Contains(line, "FIXME") {
			return i + 1
		}
	}
	return 0
}
