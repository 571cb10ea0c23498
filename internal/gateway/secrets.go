package gateway

import "os"

// Secret names looked up by the functions.
const (
	SecretOpenAI   = "OPENAI_API_KEY"
	SecretClipdrop = "CLIPDROP_API_KEY"
)

// Secrets resolves provider credentials by name. An empty result means the
// secret is not configured.
type Secrets interface {
	Secret(name string) string
}

// StaticSecrets serves secrets from a fixed map, typically filled from the
// config file.
type StaticSecrets map[string]string

func (s StaticSecrets) Secret(name string) string { return s[name] }

// EnvSecrets reads secrets from the process environment.
type EnvSecrets struct{}

func (EnvSecrets) Secret(name string) string { return os.Getenv(name) }

// ChainSecrets returns the first non-empty secret.
type ChainSecrets []Secrets

func (c ChainSecrets) Secret(name string) string {
	for _, s := range c {
		if v := s.Secret(name); v != "" {
			return v
		}
	}
	return ""
}
