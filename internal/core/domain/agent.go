package domain

import (
	"errors"
	"time"
)

// AgentType classifies what an agent is used for.
type AgentType string

const (
	AgentTypeSupport   AgentType = "Support"
	AgentTypeSales     AgentType = "Sales"
	AgentTypeMarketing AgentType = "Marketing"
	AgentTypeOther     AgentType = "Other"
)

// AgentTypes lists the valid types in form order.
var AgentTypes = []AgentType{AgentTypeSupport, AgentTypeSales, AgentTypeMarketing, AgentTypeOther}

// AgentStatus is binary: an agent is either running or paused.
type AgentStatus string

const (
	AgentActive AgentStatus = "Active"
	AgentPaused AgentStatus = "Paused"
)

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrEmptyAgentName   = errors.New("agent name is required")
	ErrInvalidAgentType = errors.New("invalid agent type")
	ErrInvalidStatus    = errors.New("invalid agent status")
	ErrCreate           = errors.New("failed to create agent")
)

// ParseAgentType validates s against the known types.
func ParseAgentType(s string) (AgentType, error) {
	for _, t := range AgentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidAgentType
}

// ParseAgentStatus validates s.
func ParseAgentStatus(s string) (AgentStatus, error) {
	switch st := AgentStatus(s); st {
	case AgentActive, AgentPaused:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Toggled returns the opposite status.
func (s AgentStatus) Toggled() AgentStatus {
	if s == AgentActive {
		return AgentPaused
	}
	return AgentActive
}

// Agent is a user-owned automation persona. It does not execute anything;
// LastRun only records when the user last pressed "run".
type Agent struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Name        string      `json:"name"`
	Type        AgentType   `json:"type"`
	Description *string     `json:"description,omitempty"`
	Status      AgentStatus `json:"status"`
	LastRun     time.Time   `json:"last_run"`
	CreatedAt   time.Time   `json:"created_at"`
}
