package main

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/smithy-go"

	"github.com/crossplane/function-sdk-go/logging"
)

type fakeEKSClient struct {
	in  *eks.UpdateNodegroupConfigInput
	out *eks.UpdateNodegroupConfigOutput
	err error
}

func (f *fakeEKSClient) UpdateNodegroupConfig(ctx context.Context, params *eks.UpdateNodegroupConfigInput, optFns ...func(*eks.Options)) (*eks.UpdateNodegroupConfigOutput, error) {
	f.in = params
	return f.out, f.err
}

func TestEKSActionUpdate(t *testing.T) {
	ctx := context.Background()
	handle := ResourceHandle{ClusterName: "prod", NodegroupName: "workers"}

	t.Run("SendsScalingConfig", func(t *testing.T) {
		client := &fakeEKSClient{
			out: &eks.UpdateNodegroupConfigOutput{
				Update: &ekstypes.Update{Id: aws.String("update-1")},
			},
		}
		a := &EKSAction{client: client, log: logging.NewNopLogger()}

		if err := a.Update(ctx, handle, 50); err != nil {
			t.Fatalf("Update(...): unexpected error: %v", err)
		}

		in := client.in
		if in == nil {
			t.Fatal("Update(...): UpdateNodegroupConfig was not called")
		}
		if got := aws.ToString(in.ClusterName); got != "prod" {
			t.Errorf("ClusterName = %q, want %q", got, "prod")
		}
		if got := aws.ToString(in.NodegroupName); got != "workers" {
			t.Errorf("NodegroupName = %q, want %q", got, "workers")
		}
		if in.ScalingConfig == nil || aws.ToInt32(in.ScalingConfig.DesiredSize) != 50 {
			t.Errorf("ScalingConfig.DesiredSize = %v, want 50", in.ScalingConfig)
		}
	})

	t.Run("APIErrorSurfacedWithCode", func(t *testing.T) {
		client := &fakeEKSClient{
			err: &smithy.GenericAPIError{
				Code:    "InvalidParameterException",
				Message: "Minimum capacity 10 can't be greater than desired size 5",
			},
		}
		a := &EKSAction{client: client, log: logging.NewNopLogger()}

		err := a.Update(ctx, handle, 5)
		if err == nil {
			t.Fatal("Update(...): expected error, got nil")
		}
		if !strings.Contains(err.Error(), "InvalidParameterException") {
			t.Errorf("Update(...): error %q should carry the EKS error code", err)
		}
	})

	t.Run("TransportErrorWrapped", func(t *testing.T) {
		client := &fakeEKSClient{err: context.DeadlineExceeded}
		a := &EKSAction{client: client, log: logging.NewNopLogger()}

		if err := a.Update(ctx, handle, 5); err == nil {
			t.Fatal("Update(...): expected error, got nil")
		}
	})
}
