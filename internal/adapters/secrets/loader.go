// Package secrets exports a dotenv blob stored in AWS Secrets Manager into
// the process environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"

	"github.com/emiliopalmerini/onboardtrack/internal/logging"
)

var ErrEmptySecret = errors.New("secret has no string value")

type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Loader fetches one secret and sets every key it defines.
type Loader struct {
	client secretGetter
	name   string
	setenv func(key, value string) error
}

// NewLoader builds a Secrets Manager client for region using the default AWS
// credential chain.
func NewLoader(ctx context.Context, name, region string) (*Loader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newLoader(secretsmanager.NewFromConfig(awsCfg), name), nil
}

func newLoader(client secretGetter, name string) *Loader {
	return &Loader{client: client, name: name, setenv: os.Setenv}
}

// Load sets the secret's variables in the environment, overriding existing
// values, and returns how many were set.
func (l *Loader) Load(ctx context.Context) (int, error) {
	out, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(l.name),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch secret %s: %w", l.name, err)
	}
	raw := aws.ToString(out.SecretString)
	if raw == "" {
		return 0, fmt.Errorf("%s: %w", l.name, ErrEmptySecret)
	}

	vars, err := godotenv.Unmarshal(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse secret %s: %w", l.name, err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := l.setenv(k, vars[k]); err != nil {
			return 0, fmt.Errorf("setting %s: %w", k, err)
		}
	}

	logging.Info().Str("secret", l.name).Int("variables", len(keys)).Msg("loaded secrets")
	return len(keys), nil
}
