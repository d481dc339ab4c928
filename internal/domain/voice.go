package domain

import "time"

// VoiceProcessingRequest is sent once per recording session to the
// transcription/extraction service.
type VoiceProcessingRequest struct {
	AudioData   string `json:"audioData"` // Base64
	FarmUUID    string `json:"farmUuid"`
	UserUUID    string `json:"userUuid"`
	AudioFormat string `json:"audioFormat"`
	MaxDuration int    `json:"maxDuration"` // seconds
}

// VoiceProcessingResponse is what the extraction service returns.
type VoiceProcessingResponse struct {
	Success        bool             `json:"success"`
	Transcription  string           `json:"transcription,omitempty"`
	Data           *VoiceOperations `json:"data,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
	Unprocessed    []string         `json:"unprocessed,omitempty"`
	ProcessingTime int64            `json:"processingTime,omitempty"` // milliseconds
	TokensUsed     int              `json:"tokensUsed,omitempty"`
}

// HasOperations reports whether the response carries anything to execute.
func (r *VoiceProcessingResponse) HasOperations() bool {
	return r != nil && r.Data != nil && r.Data.Count() > 0
}

type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
)

// ProposedOperation is one create/update instruction extracted from speech.
type ProposedOperation struct {
	Operation  OperationKind          `json:"operation,omitempty"`
	UUID       string                 `json:"uuid,omitempty"`
	AnimalUUID string                 `json:"animalUuid,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

// Kind returns the operation kind, defaulting to create.
func (op ProposedOperation) Kind() OperationKind {
	if op.Operation == OperationUpdate {
		return OperationUpdate
	}
	return OperationCreate
}

// VoiceOperations groups proposed operations by domain type.
type VoiceOperations struct {
	Animals    []ProposedOperation `json:"animals,omitempty"`
	Health     []ProposedOperation `json:"health,omitempty"`
	Production []ProposedOperation `json:"production,omitempty"`
	Tasks      []ProposedOperation `json:"tasks,omitempty"`
	Relations  []ProposedOperation `json:"relations,omitempty"`
	Calendar   []ProposedOperation `json:"calendar,omitempty"`
}

// Count returns the total number of proposed operations across all groups.
func (o *VoiceOperations) Count() int {
	if o == nil {
		return 0
	}
	return len(o.Animals) + len(o.Health) + len(o.Production) +
		len(o.Tasks) + len(o.Relations) + len(o.Calendar)
}

type EntityType string

const (
	EntityAnimal     EntityType = "animal"
	EntityHealth     EntityType = "health"
	EntityProduction EntityType = "production"
	EntityTask       EntityType = "task"
	EntityRelation   EntityType = "relation"
	EntityCalendar   EntityType = "calendar"
)

// ExecutionResult is produced for every proposed operation.
type ExecutionResult struct {
	Type      EntityType    `json:"type"`
	Success   bool          `json:"success"`
	ID        string        `json:"id,omitempty"`
	Error     string        `json:"error,omitempty"`
	Operation OperationKind `json:"operation"`
}

// VoiceState models the recording/processing lifecycle.
type VoiceState string

const (
	VoiceStateIdle       VoiceState = "idle"
	VoiceStateRecording  VoiceState = "recording"
	VoiceStateProcessing VoiceState = "processing"
	VoiceStateExecuting  VoiceState = "executing"
	VoiceStateDone       VoiceState = "done"
	VoiceStateError      VoiceState = "error"
)

// VoiceStateReason tags why a transition happened.
type VoiceStateReason string

const (
	VoiceReasonRecordingStarted    VoiceStateReason = "recording_started"
	VoiceReasonStoppedManually     VoiceStateReason = "stopped_manually"
	VoiceReasonMaxDurationReached  VoiceStateReason = "max_duration_reached"
	VoiceReasonRecordingCancelled  VoiceStateReason = "recording_cancelled"
	VoiceReasonCaptureFailed       VoiceStateReason = "capture_failed"
	VoiceReasonTranscriptionFailed VoiceStateReason = "transcription_failed"
	VoiceReasonTranscribed         VoiceStateReason = "transcribed"
	VoiceReasonExecuting           VoiceStateReason = "executing"
	VoiceReasonExecuted            VoiceStateReason = "executed"
	VoiceReasonReset               VoiceStateReason = "reset"
)

// VoiceSnapshot is the client-visible view of a voice session.
type VoiceSnapshot struct {
	State         VoiceState               `json:"state"`
	Elapsed       time.Duration            `json:"elapsed"`
	Transcription string                   `json:"transcription,omitempty"`
	Response      *VoiceProcessingResponse `json:"response,omitempty"`
	Results       []ExecutionResult        `json:"results,omitempty"`
	Error         string                   `json:"error,omitempty"`
}
