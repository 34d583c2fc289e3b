// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager resolves secret values by key
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// DatabasePasswordKey is the key read from the secret store
const DatabasePasswordKey = "DB_PASSWORD"

// rdsPasswordKey is the field RDS-managed secrets store the password under
const rdsPasswordKey = "password"

// ResolveSecrets replaces credentials in c with values from sm
func (c *Config) ResolveSecrets(ctx context.Context, sm SecretsManager) error {
	password, err := sm.GetSecret(ctx, DatabasePasswordKey)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingRequiredConfig, DatabasePasswordKey, err)
	}
	c.Database.Password = password
	return nil
}

// secretValueGetter is the part of the Secrets Manager client used here
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads one JSON secret from AWS Secrets Manager and
// serves its fields. The secret is fetched once per process.
type AWSSecretsManager struct {
	client     secretValueGetter
	secretName string
	logger     *slog.Logger

	once   sync.Once
	values map[string]string
	err    error
}

// NewAWSSecretsManager creates a Secrets Manager reader for secretName
func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

func newAWSSecretsManager(client secretValueGetter, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		logger:     logger.With(slog.String("component", "secrets")),
	}
}

// GetSecret returns the field key of the secret. The database password also
// answers to the "password" field RDS writes into managed secrets.
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	sm.once.Do(func() {
		sm.values, sm.err = sm.fetch(ctx)
	})
	if sm.err != nil {
		return "", sm.err
	}

	if val, ok := sm.values[key]; ok && val != "" {
		return val, nil
	}
	if key == DatabasePasswordKey {
		if val, ok := sm.values[rdsPasswordKey]; ok && val != "" {
			return val, nil
		}
	}
	return "", fmt.Errorf("secret key %s not found in %s", key, sm.secretName)
}

func (sm *AWSSecretsManager) fetch(ctx context.Context) (map[string]string, error) {
	sm.logger.InfoContext(ctx, "fetching secret from AWS Secrets Manager",
		slog.String("secret_name", sm.secretName))

	result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &values); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}
	return values, nil
}

var (
	_ SecretsManager = (*AWSSecretsManager)(nil)
	_ SecretsManager = (*EnvSecretsManager)(nil)
)

// EnvSecretsManager reads secrets from environment variables
type EnvSecretsManager struct{}

// NewEnvSecretsManager creates a new environment-based secrets manager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

// GetSecret retrieves a secret from environment variables
func (em *EnvSecretsManager) GetSecret(_ context.Context, key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}
