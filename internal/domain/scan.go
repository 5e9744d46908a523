package domain

// Source labels reported in scan responses. They name the call/strategy (or
// failure mode) that produced the winning price.
const (
	SourceOracle        = "openai"
	SourceOracleRefined = "openai+code"
	SourceNoCredentials = "no-credentials"
	SourceUnavailable   = "service_unavailable"
	SourceInvalidOutput = "invalid_output"
	SourceDecodeFailed  = "decode_failed"
)

// ItemDiagnostic records the per-image outcome of a scan so that a single bad
// photo is visible in the response without failing the batch.
type ItemDiagnostic struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ScanResult is the reconciled outcome of one scan request. Constructed once,
// returned, then discarded.
type ScanResult struct {
	Candidate      *Candidate       `json:"-"`
	FinalListPrice float64          `json:"list_price"`
	OurPrice       float64          `json:"our_price"`
	Source         string           `json:"source"`
	Warnings       []string         `json:"warnings,omitempty"`
	RuntimeMS      int64            `json:"runtime_ms"`
	Items          []ItemDiagnostic `json:"items,omitempty"`
}
