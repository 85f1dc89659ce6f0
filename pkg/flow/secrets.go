package flow

import (
	"context"
	"fmt"
	"os"
)

// SecretName is the secret the nodes resolve their API key from.
const SecretName = "ELEVEN_LABS_API_KEY"

// Secrets resolves named secrets from the host runtime. Implementations
// must not log or persist resolved values.
type Secrets interface {
	Get(ctx context.Context, name string) (string, error)
}

// EnvSecrets resolves secrets from process environment variables.
type EnvSecrets struct{}

func (EnvSecrets) Get(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// Static is a fixed secret set, for tests and for hosts that inject
// credentials directly.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (string, error) {
	return s[name], nil
}

// ResolveKey fetches the ElevenLabs API key for one node invocation.
// Callers must not hold the key beyond the request it was resolved for.
func ResolveKey(ctx context.Context, secrets Secrets) (string, error) {
	if secrets == nil {
		secrets = EnvSecrets{}
	}
	key, err := secrets.Get(ctx, SecretName)
	if err != nil {
		return "", &NodeError{
			Kind:        KindMissingCredential,
			Message:     fmt.Sprintf("resolve %s: %v", SecretName, err),
			Remediation: remedyCredential,
			Err:         err,
		}
	}
	if key == "" {
		return "", &NodeError{
			Kind:        KindMissingCredential,
			Message:     SecretName + " is not set",
			Remediation: remedyCredential,
		}
	}
	return key, nil
}
