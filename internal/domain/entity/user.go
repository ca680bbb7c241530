package entity

import "time"

const (
	RoleFundManager    = "fund_manager"
	RoleLimitedPartner = "limited_partner"
	RoleCapitalRaiser  = "capital_raiser"
	RoleAdmin          = "admin"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"` // "fund_manager", "limited_partner", "capital_raiser", "admin"
	CreatedAt   time.Time `json:"created_at"`
}

type FeatureGrant struct {
	UserID    string    `json:"user_id"`
	Feature   string    `json:"feature"`
	Allowed   bool      `json:"allowed"`
	CheckedAt time.Time `json:"checked_at"`
}
