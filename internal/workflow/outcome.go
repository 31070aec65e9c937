package workflow

// Outcome classifies one scan iteration.
type Outcome int

const (
	// OutcomeInvalidConfig means required settings were missing; no scan ran.
	OutcomeInvalidConfig Outcome = iota
	// OutcomeScanned means scanimage produced a document and an upload was attempted.
	OutcomeScanned
	// OutcomeNoDocument means the feeder was empty.
	OutcomeNoDocument
	// OutcomeFailed means scanimage failed or could not be started.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalidConfig:
		return "invalid_config"
	case OutcomeScanned:
		return "scanned"
	case OutcomeNoDocument:
		return "no_document"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failed reports whether the iteration counted as a scan failure.
func (o Outcome) Failed() bool {
	return o == OutcomeInvalidConfig || o == OutcomeFailed
}
