package entity

import "time"

// AnalyticsSummary is the admin dashboard projection. Every nested section is
// optional on the wire; Normalize replaces a missing section with its explicit
// default so callers never walk nil paths.
type AnalyticsSummary struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Engagement    *EngagementStats `json:"engagement,omitempty"`
	MatchFunnel   *MatchFunnel     `json:"match_funnel,omitempty"`
	RoleBreakdown *RoleBreakdown   `json:"role_breakdown,omitempty"`
}

type EngagementStats struct {
	ActiveUsers      int     `json:"active_users"`
	MessagesSent     int     `json:"messages_sent"`
	MeetingsProposed int     `json:"meetings_proposed"`
	MeetingsAccepted int     `json:"meetings_accepted"`
	AcceptRate       float64 `json:"accept_rate"`
}

type MatchFunnel struct {
	Introductions int `json:"introductions"`
	Conversations int `json:"conversations"`
	Commitments   int `json:"commitments"`
}

type RoleBreakdown struct {
	FundManagers    int `json:"fund_managers"`
	LimitedPartners int `json:"limited_partners"`
	CapitalRaisers  int `json:"capital_raisers"`
}

func (s *AnalyticsSummary) Normalize() {
	if s.Engagement == nil {
		s.Engagement = &EngagementStats{}
	}
	if s.MatchFunnel == nil {
		s.MatchFunnel = &MatchFunnel{}
	}
	if s.RoleBreakdown == nil {
		s.RoleBreakdown = &RoleBreakdown{}
	}
}

// DefaultAnalyticsSummary is the static fallback shown when the fetch itself
// fails.
func DefaultAnalyticsSummary(now time.Time) *AnalyticsSummary {
	s := &AnalyticsSummary{GeneratedAt: now}
	s.Normalize()
	return s
}
