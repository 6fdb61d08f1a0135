package domain

import "time"

// Provider names the identity source an account was created through.
// A user created through one provider can later acquire another linkage;
// Provider records the original creation path only.
const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User is the sole persisted entity: one record per email address.
// PasswordHash is empty for pure social accounts; a record always has
// at least one of PasswordHash, GoogleID, FacebookID.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	GoogleID     string
	FacebookID   string
	Avatar       string
	Provider     string
	ResetOTP     string
	ResetExpires time.Time
	CreatedAt    time.Time
}

// HasValidOTP reports whether the stored reset code matches and has not
// expired. Both OTP fields are set and cleared together.
func (u User) HasValidOTP(otp string, now time.Time) bool {
	return u.ResetOTP != "" && u.ResetOTP == otp && now.Before(u.ResetExpires)
}

// ProviderID returns the stored id for the named social provider.
func (u User) ProviderID(provider string) string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return ""
}
