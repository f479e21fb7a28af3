package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/promptforge/internal/workflow"
)

// Settings is one provider configuration: which provider, the encrypted
// key and the preferred model.
type Settings struct {
	Provider        string `json:"provider"`
	ModelPreference string `json:"model_preference"`
	Configured      bool   `json:"configured"`
}

// Store keeps provider settings in Postgres, one row per provider, API
// keys encrypted at rest. It also serves as the workflow credential
// resolver.
type Store struct {
	pool   *pgxpool.Pool
	cipher *Cipher
}

func NewStore(pool *pgxpool.Pool, cipher *Cipher) *Store {
	return &Store{pool: pool, cipher: cipher}
}

// EnsureSchema creates the settings table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS provider_settings (
			provider TEXT PRIMARY KEY,
			api_key_encrypted TEXT NOT NULL,
			model_preference TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create provider_settings table: %w", err)
	}
	return nil
}

// Save encrypts the key and upserts the provider's row.
func (s *Store) Save(ctx context.Context, provider, apiKey, modelPreference string) error {
	encrypted, err := s.cipher.Encrypt(apiKey)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO provider_settings (provider, api_key_encrypted, model_preference)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider)
		DO UPDATE SET api_key_encrypted = EXCLUDED.api_key_encrypted,
		              model_preference = EXCLUDED.model_preference,
		              updated_at = NOW()`,
		provider, encrypted, modelPreference,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", provider, err)
	}
	return nil
}

// Get returns the stored configuration for a provider without the key,
// or Configured=false when no row exists. An empty provider returns the
// most recently updated configuration.
func (s *Store) Get(ctx context.Context, provider string) (*Settings, error) {
	row := s.settingsRow(ctx, provider)

	var gotProvider, modelPreference string
	var encrypted string
	err := row.Scan(&gotProvider, &encrypted, &modelPreference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Settings{Configured: false}, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &Settings{
		Provider:        gotProvider,
		ModelPreference: modelPreference,
		Configured:      true,
	}, nil
}

// GetActive resolves the decrypted credential for the workflow engine.
// Returns (nil, nil) when nothing is configured for the provider.
func (s *Store) GetActive(ctx context.Context, provider string) (*workflow.Credential, error) {
	row := s.settingsRow(ctx, provider)

	var gotProvider, encrypted, modelPreference string
	err := row.Scan(&gotProvider, &encrypted, &modelPreference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	apiKey, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt API key for %s: %w", gotProvider, err)
	}

	return &workflow.Credential{
		Provider:        gotProvider,
		APIKey:          apiKey,
		ModelPreference: modelPreference,
	}, nil
}

func (s *Store) settingsRow(ctx context.Context, provider string) pgx.Row {
	if provider == "" {
		return s.pool.QueryRow(ctx, `
			SELECT provider, api_key_encrypted, model_preference
			FROM provider_settings
			ORDER BY updated_at DESC
			LIMIT 1`)
	}
	return s.pool.QueryRow(ctx, `
		SELECT provider, api_key_encrypted, model_preference
		FROM provider_settings
		WHERE provider = $1`,
		provider)
}

// ListModels returns the selectable models per provider. Static catalog;
// querying provider APIs live would need a stored key up front.
func ListModels(provider string) []string {
	switch provider {
	case "openai":
		return []string{"gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"}
	case "anthropic":
		return []string{"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307"}
	case "ollama":
		return []string{"llama3", "mistral", "gemma"}
	default:
		return []string{"default-model"}
	}
}
