package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Domain errors surfaced past the verification service. Provider-level
// failures never reach callers; they are folded into SignalResults.
var (
	ErrReportNotFound   = errors.New("report not found")
	ErrReportNotPending = errors.New("report is no longer pending verification")
)

// VerificationStatus is the moderation-facing state of a report. The
// automated pipeline only ever moves a report out of StatusPending; once a
// human moderator has acted, automated runs must not overwrite the decision.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusDisputed VerificationStatus = "disputed"
	StatusFalse    VerificationStatus = "false"
)

// Severity is the user-declared severity of the reported incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Location is a GeoJSON point plus the administrative area used when
// querying news for the reported incident.
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
	District    string    `bson:"district,omitempty" json:"district,omitempty"`
	State       string    `bson:"state,omitempty" json:"state,omitempty"`
}

// Latitude returns the point latitude, 0 if coordinates are malformed.
func (l Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

// Longitude returns the point longitude, 0 if coordinates are malformed.
func (l Location) Longitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

// Report is a citizen-submitted flood or water-issue report as stored in
// MongoDB by the reporting application. This service owns only the
// verification, aiConfidence and (conditionally) verificationStatus fields.
type Report struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	ReportType         string             `bson:"reportType" json:"reportType"` // "flood" or "water-issue"
	Location           Location           `bson:"location" json:"location"`
	Severity           Severity           `bson:"severity" json:"severity"`
	VerificationStatus VerificationStatus `bson:"verificationStatus" json:"verificationStatus"`
	Verification       *Verification      `bson:"verification,omitempty" json:"verification,omitempty"`
	AIConfidence       float64            `bson:"aiConfidence" json:"aiConfidence"`
	ReportedBy         primitive.ObjectID `bson:"reportedBy,omitempty" json:"reportedBy,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
