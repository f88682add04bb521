package factory

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// KeySource resolves a cipher key for a given application name. The
// zero-application-name key is the pipeline-wide default.
type KeySource interface {
	ResolveKey(ctx context.Context, applicationName string) (string, error)
}

// VaultKeySource resolves cipher keys from a Vault KV v2 secret, keyed by
// application name so each application can carry its own key.
type VaultKeySource struct {
	client     *api.Client
	secretPath string
}

// NewVaultKeySource creates a Vault client pointed at address, authenticated
// with token, reading keys from the KV v2 secret at secretPath.
func NewVaultKeySource(address, token, secretPath string) (*VaultKeySource, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	return &VaultKeySource{client: client, secretPath: secretPath}, nil
}

// ResolveKey reads the secret at s.secretPath and returns the key for
// applicationName (the "{applicationName}_cipher_key" entry), falling back
// to the "cipher_key" entry when no application-specific key is present.
func (s *VaultKeySource) ResolveKey(_ context.Context, applicationName string) (string, error) {
	secret, err := s.client.Logical().Read(s.secretPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret at %s: %w", s.secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no data found at %s", s.secretPath)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected data format at %s", s.secretPath)
	}

	if applicationName != "" {
		if key, ok := data[applicationName+"_cipher_key"].(string); ok {
			return key, nil
		}
	}
	key, ok := data["cipher_key"].(string)
	if !ok {
		return "", fmt.Errorf("no cipher_key at %s", s.secretPath)
	}
	return key, nil
}
