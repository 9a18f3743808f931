package models

import "time"

// SignalStatus is the outcome of one verification source. Raw status
// strings from the surrounding application are closed into this type so a
// typo cannot silently fall into the zero-weight bucket of the scorer.
type SignalStatus string

const (
	SignalMatched          SignalStatus = "matched"
	SignalPartiallyMatched SignalStatus = "partially-matched"
	SignalNotMatched       SignalStatus = "not-matched"
	SignalPending          SignalStatus = "pending"
	SignalError            SignalStatus = "error"
	SignalComingSoon       SignalStatus = "coming-soon"
)

// OverallStatus is the reconciled verification status across sources.
type OverallStatus string

const (
	OverallVerified          OverallStatus = "verified"
	OverallPartiallyVerified OverallStatus = "partially-verified"
	OverallNotMatched        OverallStatus = "not-matched"
	OverallManualReview      OverallStatus = "manual-review"
)

// SignalResult is the outcome of querying a single verification source.
// Snapshot carries the provider's payload for audit; its shape is owned by
// the provider and treated as opaque everywhere else.
type SignalResult struct {
	Status   SignalStatus `bson:"status" json:"status"`
	Summary  string       `bson:"summary" json:"summary"`
	Snapshot any          `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
}

// Verification is the block persisted on a report document. It is replaced
// wholesale on every verification run.
type Verification struct {
	Status    OverallStatus `bson:"status" json:"status"`
	Summary   string        `bson:"summary" json:"summary"`
	CheckedAt time.Time     `bson:"checkedAt" json:"checkedAt"`
	Weather   SignalResult  `bson:"weather" json:"weather"`
	News      SignalResult  `bson:"news" json:"news"`
	Social    SignalResult  `bson:"social" json:"social"`
}

// VerificationOutcome is the full result of one verification run, returned
// to the caller independently of what was persisted.
type VerificationOutcome struct {
	ReportID      string        `json:"reportId"`
	Weather       SignalResult  `json:"weather"`
	News          SignalResult  `json:"news"`
	Social        SignalResult  `json:"social"`
	OverallStatus OverallStatus `json:"overallStatus"`
	Confidence    float64       `json:"confidence"`
	Summary       string        `json:"summary"`
	CheckedAt     time.Time     `json:"checkedAt"`
}

// BulkResult aggregates one sweep over pending reports. Processed counts
// successful runs regardless of their outcome status.
type BulkResult struct {
	Processed int `json:"processed"`
	Verified  int `json:"verified"`
	Disputed  int `json:"disputed"`
	Failed    int `json:"failed"`
}

// VerificationStatistics summarises the collection for the dashboard.
type VerificationStatistics struct {
	ByStatus       map[string]int64 `json:"byStatus"`
	AIVerified     int64            `json:"aiVerified"`
	AIDisputed     int64            `json:"aiDisputed"`
	ManualReview   int64            `json:"manualReview"`
	HighConfidence int64            `json:"highConfidence"` // aiConfidence >= 0.8
	LowConfidence  int64            `json:"lowConfidence"`  // verified by AI with aiConfidence < 0.5
}
