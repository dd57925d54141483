package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// sampleBudgetBytes bounds the total amount of file content carried into a
// ProjectScan, keeping both the offline heuristics and the online prompt
// within a predictable size.
const sampleBudgetBytes = 80_000

// sampleExtensions lists the file types whose content is worth sampling
// for review.
var sampleExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".go":   true,
	".html": true,
	".css":  true,
	".yaml": true,
	".yml":  true,
}

// ScanProject builds the bounded view of a staged project consumed by both
// review generators: the file overview, clipped text samples of reviewable
// files, and heuristic quality issues. The walk order follows the staged
// entry list, which is sorted, so the scan is deterministic for a given tree.
func ScanProject(sp *model.StagedProject) (*model.ProjectScan, error) {
	scan := &model.ProjectScan{
		Files:   append([]string(nil), sp.Entries...),
		Samples: make(map[string]string),
	}

	remaining := sampleBudgetBytes
	for _, rel := range sp.Entries {
		info, err := os.Stat(filepath.Join(sp.Root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", rel, err)
		}
		scan.TotalBytes += info.Size()

		if remaining <= 0 || !sampleExtensions[strings.ToLower(filepath.Ext(rel))] {
			continue
		}

		data, err := os.ReadFile(filepath.Join(sp.Root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", rel, err)
		}
		if len(data) > remaining {
			data = data[:remaining]
		}
		scan.Samples[rel] = string(data)
		scan.SampleOrder = append(scan.SampleOrder, rel)
		remaining -= len(data)
	}

	scan.Issues = qualityIssues(scan)
	return scan, nil
}

// qualityIssues runs cheap textual checks over the sampled files. The
// resulting strings feed the online prompt as extra context; the offline
// generator derives structured findings separately.
func qualityIssues(scan *model.ProjectScan) []string {
	var issues []string
	for _, rel := range scan.SampleOrder {
		if !strings.HasSuffix(rel, ".py") {
			continue
		}
		code := scan.Samples[rel]
		if strings.Contains(code, "print(") && !strings.Contains(code, "if __name__") {
			issues = append(issues, fmt.Sprintf("possible stray prints in %s", rel))
		}
	}
	return issues
}
