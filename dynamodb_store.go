package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/crossplane/function-sdk-go/logging"
)

// DynamoDBStore implements TriggerStore using AWS DynamoDB. The table is
// keyed by cluster_name (partition) and nodegroup_name (sort) with one item
// per node group holding the last pushed desired size.
type DynamoDBStore struct {
	client    *dynamodb.Client
	tableName string
	log       logging.Logger
}

// NewDynamoDBStore creates a new DynamoDB trigger store with provided
// configuration.
func NewDynamoDBStore(ctx context.Context, log logging.Logger, tableName, region string, awsCreds map[string]string) (*DynamoDBStore, error) {
	cfg, err := loadAWSConfig(ctx, log, region, awsCreds)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg)

	store := &DynamoDBStore{
		client:    client,
		tableName: tableName,
		log:       log,
	}

	// Health check: verify table exists and is accessible
	_, err = client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access DynamoDB table '%s': %w", tableName, err)
	}

	log.Info("Successfully connected to DynamoDB table", "table", tableName, "region", region)
	return store, nil
}

func (d *DynamoDBStore) itemKey(handle ResourceHandle) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"cluster_name":   &types.AttributeValueMemberS{Value: handle.ClusterName},
		"nodegroup_name": &types.AttributeValueMemberS{Value: handle.NodegroupName},
	}
}

// Load retrieves the recorded desired size for a node group from DynamoDB.
func (d *DynamoDBStore) Load(ctx context.Context, handle ResourceHandle) (int32, bool, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.itemKey(handle),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to get trigger record from DynamoDB: %w", err)
	}

	if result.Item == nil {
		d.log.Info("No trigger record found in DynamoDB",
			"cluster", handle.ClusterName,
			"nodegroup", handle.NodegroupName)
		return 0, false, nil
	}

	attr, ok := result.Item["desired_size"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, false, fmt.Errorf("trigger record for %s has no desired_size attribute", handle.Key())
	}

	value, err := strconv.ParseInt(attr.Value, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse desired_size '%s' for %s: %w", attr.Value, handle.Key(), err)
	}

	d.log.Debug("Loaded trigger record from DynamoDB",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", value)
	return int32(value), true, nil
}

// Save commits the recorded desired size for a node group to DynamoDB.
func (d *DynamoDBStore) Save(ctx context.Context, handle ResourceHandle, value int32) error {
	item := d.itemKey(handle)
	item["desired_size"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(value), 10)}

	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save trigger record to DynamoDB: %w", err)
	}

	d.log.Info("Saved trigger record to DynamoDB",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", value)
	return nil
}

// Forget removes the trigger record for a node group from DynamoDB. Deleting
// an absent item succeeds, so forgetting an unknown handle is not an error.
func (d *DynamoDBStore) Forget(ctx context.Context, handle ResourceHandle) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.itemKey(handle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete trigger record from DynamoDB: %w", err)
	}

	d.log.Info("Forgot trigger record in DynamoDB",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName)
	return nil
}
