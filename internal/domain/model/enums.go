package model

// ReviewMode selects how a review is generated for a single request.
type ReviewMode string

const (
	// ModeOnline generates the review through the external provider.
	ModeOnline ReviewMode = "online"
	// ModeOffline generates the review locally and deterministically.
	ModeOffline ReviewMode = "offline"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidSeverity reports whether s is one of the known severity values.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}
