package capability

// AuthState is published on every login and logout.
type AuthState struct {
	Authenticated bool
	OwnerID       string
}

// Auth exposes the authentication state of the local user.
type Auth interface {
	IsAuthenticated() bool
	AccessToken() string
	// OwnerID is the identity records are claimed for; empty when anonymous.
	OwnerID() string
	Subscribe() (<-chan AuthState, func())
}

// Consent reports whether the user allowed cloud sync.
type Consent interface {
	HasConsent() bool
}

// Network reports connectivity and publishes online/offline transitions.
type Network interface {
	IsOnline() bool
	Subscribe() (<-chan bool, func())
}
