package models

// Identity is an externally authenticated identity as reported by an OAuth
// provider. It is never persisted.
type Identity struct {
	Provider   string
	SubjectID  string
	Email      string
	GivenName  string
	FamilyName string
	AvatarURL  string
}
