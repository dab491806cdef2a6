package credentials

// Credentials is the content of credentials.toml.
type Credentials struct {
	Version int `toml:"version"`

	// Token is the bearer token sent to the document backend.
	Token string `toml:"token,omitempty"`

	// Providers maps a model provider to its API key. Keys are uploaded to
	// the backend by "gongwen models set".
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is the stored secret of one provider.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}
