package logging

// Standardized attribute keys shared across pipeline components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldStage     = "stage"
	FieldWorkID    = "work_id"
	FieldRequestID = "request_id"
	FieldTokenID   = "token_id"
	FieldIPID      = "ip_id"
)
