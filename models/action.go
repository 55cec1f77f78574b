package models

// Lifecycle actions accepted by the action dispatcher.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// ActionRequest is the body of POST /api/servers/{id}/action.
type ActionRequest struct {
	Action string `json:"action"`
}

// ActionAck reports a completed lifecycle action.
type ActionAck struct {
	ServerID  int    `json:"server_id"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
