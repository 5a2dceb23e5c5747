package domain

import "time"

type APIKey struct {
	TokenHash  string
	TenantID   string
	MerchantID string
	Kind       AuthKind
	Name       string
	Active     bool
	CreatedAt  time.Time
}

// AuthType resolves the key into the auth classification recorded on api events.
func (k APIKey) AuthType() AuthType {
	kind := k.Kind
	if kind == "" {
		kind = AuthKindAPIKey
	}
	return AuthType{Kind: kind, KeyID: k.Name}
}
