// Package config loads runtime configuration from the environment, with
// optional .env overrides the same way the workshop scripts do.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
)

// Defaults for the workshop environment.
const (
	DefaultRegion      = "ap-southeast-1"
	DefaultSharedTable = "WorkshopShared"
	DefaultTenantID    = "t-037"
	DefaultOtherTenant = "t-999"
	DefaultUserID      = "hotuser"
	DefaultShardCount  = 4
)

// Config holds the settings shared by all commands.
type Config struct {
	Region      string
	Table       string // per-attendee table
	SharedTable string // multi-tenant table
	TenantID    string
	OtherTenant string
	UserID      string
	ShardCount  int

	// EndpointURL points the SDK at DynamoDB Local when set.
	EndpointURL string
	AccessKeyID string
	SecretKey   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Region:      envOr("AWS_REGION", DefaultRegion),
		Table:       os.Getenv("TABLE"),
		SharedTable: envOr("SHARED_TABLE", DefaultSharedTable),
		TenantID:    envOr("TENANT_ID", DefaultTenantID),
		OtherTenant: envOr("OTHER_TENANT_ID", DefaultOtherTenant),
		UserID:      envOr("USER_ID", DefaultUserID),
		ShardCount:  DefaultShardCount,
		EndpointURL: os.Getenv("DYNAMODB_ENDPOINT_URL"),
		AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	if raw := os.Getenv("SHARD_COUNT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SHARD_COUNT %q: %w", raw, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("SHARD_COUNT must be at least 1, got %d", n)
		}
		cfg.ShardCount = n
	}

	return cfg, nil
}

// RequireTable returns the per-attendee table name or an error when TABLE is
// unset.
func (c *Config) RequireTable() (string, error) {
	if c.Table == "" {
		return "", fmt.Errorf("TABLE environment variable is not set")
	}
	return c.Table, nil
}

// LoadAWSConfig builds the AWS SDK configuration. When an endpoint override
// is configured (DynamoDB Local), static credentials are used so the SDK
// does not reach for the instance metadata service.
func (c *Config) LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.EndpointURL != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// NewDynamoDBClient constructs the DynamoDB client, honoring the endpoint
// override.
func (c *Config) NewDynamoDBClient(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.EndpointURL != "" {
			o.BaseEndpoint = aws.String(c.EndpointURL)
		}
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
