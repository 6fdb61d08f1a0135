package domain

// SocialProfile is the normalized shape of an external identity
// provider's user payload. Provider-specific quirks (Facebook wraps the
// picture in {data:{url}}) are flattened at the JSON boundary before a
// profile reaches reconciliation.
type SocialProfile struct {
	ID      string
	Name    string
	Email   string
	Picture string
}
