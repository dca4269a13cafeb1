package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the subset of the Secrets Manager client used to resolve the API key.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveAPIKey fills Server.APIKey from Secrets Manager when apiKeySecretArn is set
// and no key was given directly.
func ResolveAPIKey(ctx context.Context, client SecretsAPI, cfg *Config) error {
	if cfg.Server.APIKey != "" || cfg.Server.APIKeySecretARN == "" {
		return nil
	}
	if client == nil {
		return fmt.Errorf("resolving API key: no secrets client")
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &cfg.Server.APIKeySecretARN,
	})
	if err != nil {
		return fmt.Errorf("resolving API key %s: %w", cfg.Server.APIKeySecretARN, err)
	}
	key := aws.ToString(out.SecretString)
	if key == "" {
		return fmt.Errorf("resolving API key %s: secret has no string value", cfg.Server.APIKeySecretARN)
	}
	cfg.Server.APIKey = key
	return nil
}
