// Package capture converts loosely-structured editor events into ledger
// writes. Dispatch is best-effort by contract: a malformed payload must
// never break the editor integration that fired it.
package capture

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Recognized event types. The set is closed; anything else is ignored.
const (
	EventAssistantResponse = "assistant_response"
	EventCodeWrite         = "code_write"
	EventCommandRun        = "command_run"
)

// Event is one decoded editor callback payload.
type Event struct {
	EventType    string   `json:"event_type"`
	TrajectoryID string   `json:"trajectory_id"`
	Timestamp    string   `json:"timestamp"`
	ToolInfo     ToolInfo `json:"tool_info"`
}

// ToolInfo is the type-dependent payload. Only the fields for the event's
// type are populated; the rest stay zero.
type ToolInfo struct {
	// assistant_response
	Response string `json:"response"`

	// code_write
	FilePath string `json:"file_path"`
	Edits    []Edit `json:"edits"`

	// command_run
	CommandLine string `json:"command_line"`
	CWD         string `json:"cwd"`
}

// Edit is one old/new text pair within a code_write event.
type Edit struct {
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// DecodeEvent parses a raw event payload.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}
