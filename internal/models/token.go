package models

import "time"

// RefreshToken is a long-lived session credential. Rotation revokes the
// presented token and issues a replacement; password changes revoke the
// whole set for the user.
type RefreshToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`

	IPAddress string `db:"ip_address" json:"ip_address"`
	UserAgent string `db:"user_agent" json:"user_agent"`
}

// Expired reports whether the token can no longer be exchanged.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.Revoked || now.After(t.ExpiresAt)
}
