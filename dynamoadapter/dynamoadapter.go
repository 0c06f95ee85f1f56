// Package dynamoadapter wires an AWS SDK *dynamodb.Client into exec.DynamoClient.
// The SDK client already satisfies the interface method-for-method, so there
// is no wrapper type to maintain — only the construction helpers callers need.
package dynamoadapter

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/dqlang/dql/exec"
)

// New loads the default AWS config chain and returns a *dynamodb.Client
// satisfying exec.DynamoClient, applying any dynamodb.Options overrides.
func New(ctx context.Context, optFns ...func(*dynamodb.Options)) (exec.DynamoClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, optFns...), nil
}

// WithBaseEndpoint points the client at a custom endpoint, e.g. a local
// DynamoDB instance for integration tests.
func WithBaseEndpoint(endpoint string) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}
}
