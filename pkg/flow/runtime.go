package flow

import (
	"context"
	"sync"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// Runtime carries the state nodes share across invocations: the secret
// source, client options, and one voice preview cache.
//
// The API key is resolved from the secret source on every invocation,
// so rotating the secret takes effect on the next node run. Clients
// are reused per key fingerprint; the shared preview cache records the
// fingerprint each voice was resolved under, so a key swap forces
// voices to re-resolve instead of serving another account's cache.
type Runtime struct {
	secrets Secrets
	opts    []elevenlabs.Option
	cache   *elevenlabs.PreviewCache

	mu      sync.Mutex
	clients map[string]*elevenlabs.Client
}

// NewRuntime builds a runtime over the given secret source. A nil
// source falls back to EnvSecrets. Options apply to every client the
// runtime constructs.
func NewRuntime(secrets Secrets, opts ...elevenlabs.Option) *Runtime {
	if secrets == nil {
		secrets = EnvSecrets{}
	}
	return &Runtime{
		secrets: secrets,
		opts:    opts,
		cache:   elevenlabs.NewPreviewCache(),
		clients: make(map[string]*elevenlabs.Client),
	}
}

// Client resolves the API key and returns a client bound to it.
func (r *Runtime) Client(ctx context.Context) (*elevenlabs.Client, error) {
	key, err := ResolveKey(ctx, r.secrets)
	if err != nil {
		return nil, err
	}

	opts := make([]elevenlabs.Option, 0, len(r.opts)+1)
	opts = append(opts, r.opts...)
	opts = append(opts, elevenlabs.WithPreviewCache(r.cache))
	c := elevenlabs.NewClient(key, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.clients[c.KeyFingerprint()]; ok {
		return cached, nil
	}
	r.clients[c.KeyFingerprint()] = c
	return c, nil
}
