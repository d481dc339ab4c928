package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/pkg/config"
)

type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// Read returns the data of a KV v2 secret. path is the full API path, e.g.
// "secret/data/agrovoz".
func (sm *SecretManager) Read(path string) (map[string]string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("secret %s is not a kv v2 secret", path)
	}

	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// ApplySecrets overrides credentials in cfg with the values stored at
// cfg.Vault.Path. Keys absent from the secret leave cfg unchanged.
func (sm *SecretManager) ApplySecrets(cfg *config.Config) error {
	secrets, err := sm.Read(cfg.Vault.Path)
	if err != nil {
		return err
	}

	targets := map[string]*string{
		"database_url":     &cfg.Database.URL,
		"redis_url":        &cfg.Redis.URL,
		"jwt_secret":       &cfg.JWT.Secret,
		"gemini_api_key":   &cfg.Gemini.APIKey,
		"voice_api_token":  &cfg.Voice.APIToken,
		"sendgrid_api_key": &cfg.Notification.Email.APIKey,
	}

	applied := 0
	for key, dst := range targets {
		if v := secrets[key]; v != "" {
			*dst = v
			applied++
		}
	}

	sm.log.Info("Secrets loaded from vault", zap.String("path", cfg.Vault.Path), zap.Int("applied", applied))
	return nil
}
