package domain

import "time"

// GenerationRequest is the immutable input of a single generation. It is built
// once per user action by one of the media input adapters.
type GenerationRequest struct {
	ImageBytes []byte
	MIMEType   string
	Prompt     string
}

// OperationState enumerates the lifecycle of a remote video operation.
type OperationState string

const (
	StateSubmitted OperationState = "SUBMITTED"
	StatePolling   OperationState = "POLLING"
	StateDoneOK    OperationState = "DONE_OK"
	StateDoneError OperationState = "DONE_ERROR"
)

// OperationHandle identifies an in-flight remote job. Callers must treat it as
// opaque and pass it unmodified from Submit to AwaitResult.
type OperationHandle struct {
	Name   string
	Model  string
	Status OperationStatus
}

// OperationError is the failure payload reported by the remote operation.
type OperationError struct {
	Code    int
	Status  string
	Message string
}

// OperationStatus is a complete snapshot of a remote operation. Every poll
// replaces the previous snapshot.
type OperationStatus struct {
	Name      string
	Done      bool
	Error     *OperationError
	ResultURI string
}

// VideoArtifact is a downloaded video exposed through a locally resolvable
// handle (URL). The caller owns it and releases it once it is no longer shown.
type VideoArtifact struct {
	ID        string
	URL       string
	MIMEType  string
	Data      []byte
	SourceURI string
	CreatedAt time.Time
}

// Size returns the payload length in bytes.
func (a *VideoArtifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}

// GenerationOutcome enumerates how a generation finished.
type GenerationOutcome string

const (
	OutcomeSucceeded GenerationOutcome = "SUCCEEDED"
	OutcomeFailed    GenerationOutcome = "FAILED"
)

// GenerationRecord is the audit entry written after a generation finishes.
type GenerationRecord struct {
	ID            string
	OperationName string
	Model         string
	Prompt        string
	MIMEType      string
	Outcome       GenerationOutcome
	ErrorKind     string
	ErrorMessage  string
	VideoBytes    int64
	Duration      time.Duration
	CreatedAt     time.Time
}
