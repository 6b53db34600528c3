package events

import "fuel-pricing/internal/entities"

const (
	SuggestionSubmitted     = "suggestion.submitted"
	SuggestionLevelApproved = "suggestion.level_approved"
	SuggestionApproved      = "suggestion.approved"
	SuggestionRejected      = "suggestion.rejected"
)

// SuggestionEvent is published after the transaction that changed the suggestion commits.
// Suggestion is a snapshot of the row as committed.
type SuggestionEvent struct {
	Type       string
	Suggestion entities.PriceSuggestion
	ActorID    uint64
	TxID       string
	Comment    *string
}

func (e SuggestionEvent) Name() string {
	return e.Type
}

func NewSuggestionEvent(eventType string, s entities.PriceSuggestion, actorID uint64, txID string, comment *string) SuggestionEvent {
	return SuggestionEvent{Type: eventType, Suggestion: s, ActorID: actorID, TxID: txID, Comment: comment}
}
