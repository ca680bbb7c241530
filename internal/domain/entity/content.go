package entity

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ContentKindPlain           = "plain"
	ContentKindMeetingProposal = "meeting_proposal"
)

// MessageContent is the tagged union behind a message body. The kind is
// decided at serialization time; plain text travels as-is on the wire,
// proposals travel as a JSON envelope carrying an explicit kind tag.
type MessageContent struct {
	Kind     string           `json:"kind"`
	Text     string           `json:"text,omitempty"`
	Proposal *MeetingProposal `json:"proposal,omitempty"`
}

type wireContent struct {
	Kind     string           `json:"kind"`
	Proposal *MeetingProposal `json:"proposal,omitempty"`
}

func PlainContent(text string) MessageContent {
	return MessageContent{Kind: ContentKindPlain, Text: text}
}

func ProposalContent(p *MeetingProposal) MessageContent {
	return MessageContent{Kind: ContentKindMeetingProposal, Proposal: p}
}

// EncodeWire renders the content as the string carried in Message.Content.
func (c MessageContent) EncodeWire() (string, error) {
	if c.Kind == ContentKindPlain {
		return c.Text, nil
	}
	raw, err := json.Marshal(wireContent{Kind: c.Kind, Proposal: c.Proposal})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeWireContent parses a wire content string back into the union. Only a
// body that parses as JSON and carries a known kind tag is treated as
// structured; everything else is plain text.
func DecodeWireContent(raw string) MessageContent {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return PlainContent(raw)
	}

	var wc wireContent
	if err := json.Unmarshal([]byte(trimmed), &wc); err != nil {
		return PlainContent(raw)
	}
	if wc.Kind != ContentKindMeetingProposal || wc.Proposal == nil {
		return PlainContent(raw)
	}
	return MessageContent{Kind: wc.Kind, Proposal: wc.Proposal}
}

const (
	ProposalStatusPending  = "pending"
	ProposalStatusAccepted = "accepted"
	ProposalStatusDeclined = "declined"

	// Display-only state for pending proposals whose datetime has passed.
	// Never stored as a transition.
	ProposalStateExpired = "expired"
)

type MeetingProposal struct {
	ID              string    `json:"id"`
	ProposedBy      string    `json:"proposed_by"`
	Datetime        time.Time `json:"datetime"`
	DurationMinutes int       `json:"duration_minutes"`
	Agenda          string    `json:"agenda,omitempty"`
	ReminderOffset  int       `json:"reminder_offset_minutes"`
	Status          string    `json:"status"`
}

// DisplayState resolves what to render: a pending proposal whose datetime has
// passed shows as expired without a stored state change.
func (p *MeetingProposal) DisplayState(now time.Time) string {
	if p.Status == ProposalStatusPending && now.After(p.Datetime) {
		return ProposalStateExpired
	}
	return p.Status
}

// ReminderAt is the local reminder fire time for an accepted proposal.
func (p *MeetingProposal) ReminderAt() time.Time {
	return p.Datetime.Add(-time.Duration(p.ReminderOffset) * time.Minute)
}
