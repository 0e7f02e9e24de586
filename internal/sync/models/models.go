// Package models holds the sync module's domain types: syncable records with
// optimistic-locking metadata, change requests from mobile clients, and the
// conflict-resolution vocabulary shared by service, stores and handlers.
package models

import (
	"strings"
	"time"

	"syncgate/internal/statemachine"
	domainerrors "syncgate/pkg/domainerrors"
)

// ConflictStrategy decides how a version conflict between a client change
// and the server record is resolved.
type ConflictStrategy string

const (
	// StrategyClientWins applies the client change regardless of version drift.
	StrategyClientWins ConflictStrategy = "client_wins"
	// StrategyServerWins rejects the client change on version drift.
	StrategyServerWins ConflictStrategy = "server_wins"
	// StrategyLastWriteWins applies the change only if the client edit is
	// newer than the server record's last update.
	StrategyLastWriteWins ConflictStrategy = "last_write_wins"
)

// ParseConflictStrategy creates a ConflictStrategy from a string, validating
// it. An empty string resolves to the server-wins default.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	if s == "" {
		return StrategyServerWins, nil
	}
	cs := ConflictStrategy(s)
	if !cs.IsValid() {
		return "", domainerrors.New(domainerrors.CodeInvalidInput,
			"invalid conflict strategy: must be 'client_wins', 'server_wins' or 'last_write_wins'")
	}
	return cs, nil
}

// IsValid checks if the strategy is one of the supported enum values.
func (s ConflictStrategy) IsValid() bool {
	switch s {
	case StrategyClientWins, StrategyServerWins, StrategyLastWriteWins:
		return true
	}
	return false
}

// String returns the string representation.
func (s ConflictStrategy) String() string {
	return string(s)
}

// Record is the server-side view of a syncable entity's status. Version is
// the optimistic-lock counter, bumped on every applied change.
type Record struct {
	Domain    string    `json:"domain"`
	RecordID  string    `json:"record_id"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy so stores can hand out records without aliasing.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// ChangeRequest is one status change uploaded by a mobile client.
type ChangeRequest struct {
	Domain          string           `json:"-"`
	RecordID        string           `json:"record_id"`
	ClientRequestID string           `json:"client_request_id,omitempty"`
	ToStatus        string           `json:"to_status"`
	BaseVersion     int64            `json:"base_version"`
	ChangedAt       time.Time        `json:"changed_at,omitempty"`
	Strategy        ConflictStrategy `json:"strategy,omitempty"`
	Context         map[string]any   `json:"context,omitempty"`
}

// Validate checks the request is structurally usable before any I/O.
func (r *ChangeRequest) Validate() error {
	if r.Domain == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "domain is required")
	}
	if r.RecordID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "record_id is required")
	}
	if r.ToStatus == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "to_status is required")
	}
	if r.Strategy != "" && !r.Strategy.IsValid() {
		return domainerrors.New(domainerrors.CodeInvalidInput, "invalid conflict strategy")
	}
	if r.BaseVersion < 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "base_version cannot be negative")
	}
	return nil
}

// VersionConflict describes a detected optimistic-lock mismatch and how it
// was resolved.
type VersionConflict struct {
	BaseVersion    int64  `json:"base_version"`
	CurrentVersion int64  `json:"current_version"`
	Resolution     string `json:"resolution"`
}

// ApplyResult is the outcome of applying a change request.
type ApplyResult struct {
	Applied    bool                `json:"applied"`
	Deduped    bool                `json:"deduped,omitempty"`
	Conflict   *VersionConflict    `json:"conflict,omitempty"`
	Validation statemachine.Result `json:"validation"`
	Record     *Record             `json:"record,omitempty"`
}

// TransitionSpec is the wire form of a single transition in a domain config.
type TransitionSpec struct {
	From               string         `json:"from_status"`
	To                 string         `json:"to_status"`
	Conditions         map[string]any `json:"conditions,omitempty"`
	RequiresPermission string         `json:"requires_permission,omitempty"`
	Description        string         `json:"description,omitempty"`
}

// DomainConfig is an admin-registered transition table for one domain,
// persisted so it survives restarts and is replayed into the registry at
// boot.
type DomainConfig struct {
	Domain        string           `json:"domain"`
	Policy        string           `json:"policy"`
	DefaultStatus string           `json:"default_status"`
	Transitions   []TransitionSpec `json:"transitions"`
	UpdatedAt     time.Time        `json:"updated_at,omitempty"`
}

// Validate checks the config before it reaches the registry. The transition
// list itself is stored as given: duplicate or unreachable edges are the
// operator's choice, mirroring the engine's own permissiveness.
func (c *DomainConfig) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "domain is required")
	}
	if _, err := statemachine.ParsePolicy(c.Policy); err != nil {
		return err
	}
	for _, t := range c.Transitions {
		if t.From == "" || t.To == "" {
			return domainerrors.New(domainerrors.CodeInvalidInput,
				"every transition needs from_status and to_status")
		}
	}
	return nil
}

// EngineTransitions converts the wire transitions to engine values.
func (c *DomainConfig) EngineTransitions() []statemachine.Transition {
	out := make([]statemachine.Transition, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		out = append(out, statemachine.Transition{
			From:               t.From,
			To:                 t.To,
			Conditions:         t.Conditions,
			RequiresPermission: t.RequiresPermission,
			Description:        t.Description,
		})
	}
	return out
}
