package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// Credentials is the secret payload for a Jama OAuth client.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// secretsAPI is the Secrets Manager subset we call. Tests swap in a fake.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches Jama OAuth credentials stored in AWS Secrets Manager,
// so deployments can avoid putting client secrets in plain environment
// variables.
type Resolver struct {
	client secretsAPI
	log    *zap.Logger
}

// NewResolver builds a resolver on the default AWS credential chain.
func NewResolver(ctx context.Context, log *zap.Logger) (*Resolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{client: secretsmanager.NewFromConfig(awsCfg), log: log}, nil
}

// Resolve reads secretID and decodes its client_id/client_secret payload.
func (r *Resolver) Resolve(ctx context.Context, secretID string) (Credentials, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("reading secret %q: %w", secretID, err)
	}

	raw := aws.ToString(out.SecretString)
	if raw == "" && len(out.SecretBinary) > 0 {
		raw = string(out.SecretBinary)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Credentials{}, fmt.Errorf("secret %q is not valid credentials JSON: %w", secretID, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return Credentials{}, fmt.Errorf("secret %q must contain client_id and client_secret", secretID)
	}

	r.log.Debug("resolved jama credentials", zap.String("secret_id", secretID))
	return creds, nil
}
