package tap

import (
	"encoding/xml"
	stderrors "errors"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// UWS job lifecycle phases.
const (
	PhasePending   = "PENDING"
	PhaseQueued    = "QUEUED"
	PhaseExecuting = "EXECUTING"
	PhaseCompleted = "COMPLETED"
	PhaseError     = "ERROR"
	PhaseAborted   = "ABORTED"
	PhaseHeld      = "HELD"
	PhaseSuspended = "SUSPENDED"
	PhaseArchived  = "ARCHIVED"
	PhaseUnknown   = "UNKNOWN"
)

// TerminalPhase reports whether a job in this phase will never transition
// again.
func TerminalPhase(phase string) bool {
	switch phase {
	case PhaseCompleted, PhaseError, PhaseAborted, PhaseArchived:
		return true
	}
	return false
}

// Info describes an asynchronous job as reported by the service's UWS
// endpoint. Timestamps and durations are kept in the service's own ISO 8601
// representation since they are informational.
type Info struct {
	ID                string        `xml:"jobId"`
	OwnerID           string        `xml:"ownerId"`
	Phase             string        `xml:"phase"`
	Quote             string        `xml:"quote"`
	StartTime         string        `xml:"startTime"`
	EndTime           string        `xml:"endTime"`
	ExecutionDuration string        `xml:"executionDuration"`
	Destruction       string        `xml:"destruction"`
	Error             *ErrorSummary `xml:"errorSummary"`
}

// ErrorSummary is the error report attached to a failed job.
type ErrorSummary struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message"`
}

// parseJobInfo decodes a UWS job document. The document's namespace prefix
// does not matter; only local element names are matched.
func parseJobInfo(data []byte) (*Info, error) {
	var info Info
	if err := xml.Unmarshal(data, &info); err != nil {
		return nil, errors.NewParseError("uws", data, err)
	}
	if info.ID == "" {
		return nil, errors.NewParseError("uws", data, stderrors.New("job document has no jobId"))
	}
	return &info, nil
}
