package task

import "strings"

// Kind classifies the processing a request needs.
type Kind string

const (
	KindAnalysis       Kind = "data_analysis"
	KindTransformation Kind = "data_transformation"
	KindComputation    Kind = "computation"
	KindIntegration    Kind = "integration"
)

var supportedKinds = []Kind{
	KindAnalysis,
	KindTransformation,
	KindComputation,
	KindIntegration,
}

// SupportedKinds returns the ordered list of kinds the engine knows how to
// process.
func SupportedKinds() []Kind {
	cp := make([]Kind, len(supportedKinds))
	copy(cp, supportedKinds)
	return cp
}

// Supported reports whether the kind has a dedicated processing path.
// Unsupported kinds still flow through the pipeline via the generic handler;
// validation surfaces a warning for them.
func (k Kind) Supported() bool {
	for _, kind := range supportedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ParseKind normalizes a raw kind string. The value is lowercased and
// trimmed; unknown kinds are returned as-is with ok=false.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	return normalized, normalized.Supported()
}
