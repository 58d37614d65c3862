package adapter

// Credentials is the access/refresh token pair issued at login.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (c Credentials) Empty() bool { return c.Access == "" && c.Refresh == "" }

// CredentialStore persists the current token pair. Load returns zero
// credentials (not an error) when none are stored.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(creds Credentials) error
	Clear() error
}
