package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

type fakeSecretsAPI struct {
	gotSecretID string
	out         *secretsmanager.GetSecretValueOutput
	err         error
}

func (f *fakeSecretsAPI) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotSecretID = aws.ToString(params.SecretId)
	return f.out, f.err
}

func newTestResolver(fake *fakeSecretsAPI) *Resolver {
	return &Resolver{client: fake, log: zap.NewNop()}
}

func TestResolve(t *testing.T) {
	fake := &fakeSecretsAPI{
		out: &secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"client_id": "cid", "client_secret": "csecret"}`),
		},
	}
	creds, err := newTestResolver(fake).Resolve(context.Background(), "prod/jama-mcp/oauth")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fake.gotSecretID != "prod/jama-mcp/oauth" {
		t.Errorf("secret id = %q", fake.gotSecretID)
	}
	if creds.ClientID != "cid" || creds.ClientSecret != "csecret" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestResolve_BinaryPayload(t *testing.T) {
	fake := &fakeSecretsAPI{
		out: &secretsmanager.GetSecretValueOutput{
			SecretBinary: []byte(`{"client_id": "cid", "client_secret": "csecret"}`),
		},
	}
	creds, err := newTestResolver(fake).Resolve(context.Background(), "s")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.ClientID != "cid" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestResolve_APIError(t *testing.T) {
	fake := &fakeSecretsAPI{err: errors.New("AccessDeniedException")}
	_, err := newTestResolver(fake).Resolve(context.Background(), "s")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "AccessDeniedException") {
		t.Errorf("err = %v", err)
	}
}

func TestResolve_InvalidJSON(t *testing.T) {
	fake := &fakeSecretsAPI{
		out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("not json")},
	}
	if _, err := newTestResolver(fake).Resolve(context.Background(), "s"); err == nil {
		t.Fatal("expected error for non-JSON secret")
	}
}

func TestResolve_MissingFields(t *testing.T) {
	fake := &fakeSecretsAPI{
		out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"client_id": "cid"}`)},
	}
	_, err := newTestResolver(fake).Resolve(context.Background(), "s")
	if err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
	if !strings.Contains(err.Error(), "client_secret") {
		t.Errorf("err = %v", err)
	}
}
