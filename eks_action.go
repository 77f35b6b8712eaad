package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/smithy-go"

	"github.com/crossplane/function-sdk-go/logging"
)

// eksUpdater is the one EKS API call the action needs, narrowed for testing.
type eksUpdater interface {
	UpdateNodegroupConfig(ctx context.Context, params *eks.UpdateNodegroupConfigInput, optFns ...func(*eks.Options)) (*eks.UpdateNodegroupConfigOutput, error)
}

// EKSAction implements ExternalAction against the EKS UpdateNodegroupConfig
// API, updating only scalingConfig.desiredSize. EKS validates the bounds
// itself (minSize <= desiredSize <= maxSize); a rejected update surfaces as
// the API's own error. Only the synchronous call result is observed, the
// asynchronous fate of the scaling update is not tracked.
type EKSAction struct {
	client eksUpdater
	log    logging.Logger
}

// NewEKSAction creates an EKS-backed external action.
func NewEKSAction(ctx context.Context, log logging.Logger, region string, awsCreds map[string]string) (*EKSAction, error) {
	cfg, err := loadAWSConfig(ctx, log, region, awsCreds)
	if err != nil {
		return nil, err
	}
	return &EKSAction{
		client: eks.NewFromConfig(cfg),
		log:    log,
	}, nil
}

// Update pushes the desired size to the node group's scaling config.
func (a *EKSAction) Update(ctx context.Context, handle ResourceHandle, desired int32) error {
	out, err := a.client.UpdateNodegroupConfig(ctx, &eks.UpdateNodegroupConfigInput{
		ClusterName:   aws.String(handle.ClusterName),
		NodegroupName: aws.String(handle.NodegroupName),
		ScalingConfig: &ekstypes.NodegroupScalingConfig{
			DesiredSize: aws.Int32(desired),
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("EKS rejected the update (%s): %w", apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("failed to call UpdateNodegroupConfig: %w", err)
	}

	updateID := ""
	if out.Update != nil {
		updateID = aws.ToString(out.Update.Id)
	}
	a.log.Info("Submitted node group scaling update",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", desired,
		"update-id", updateID)
	return nil
}
