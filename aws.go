package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/crossplane/function-sdk-go/logging"
)

// loadAWSConfig builds the SDK config shared by the DynamoDB store and the
// EKS action. Explicit credentials win when provided; otherwise the default
// chain (environment, shared config, IAM role) applies.
func loadAWSConfig(ctx context.Context, log logging.Logger, region string, awsCreds map[string]string) (aws.Config, error) {
	if len(awsCreds) > 0 {
		accessKeyID := awsCreds["accessKeyId"]
		secretAccessKey := awsCreds["secretAccessKey"]
		sessionToken := awsCreds["sessionToken"] // Optional for temporary credentials

		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, fmt.Errorf("AWS credentials missing required fields (accessKeyId, secretAccessKey)")
		}

		creds := credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(creds),
		)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config with provided credentials: %w", err)
		}
		log.Info("Using provided AWS credentials", "region", region)
		return cfg, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config with default credentials: %w", err)
	}
	log.Info("Using default AWS credential chain", "region", region)
	return cfg, nil
}
