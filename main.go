// Package main implements sizesync, a trigger-gated desired-size
// synchronizer for EKS node groups. Each invocation is one reconciliation
// pass: the declared desired size is compared against the last successfully
// pushed value in a trigger store, and the scaling API is called only when
// they differ. This keeps out-of-band autoscaling of desiredSize from
// fighting with declarative min/max management.
package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	function "github.com/crossplane/function-sdk-go"
	"github.com/crossplane/function-sdk-go/errors"
	"github.com/crossplane/function-sdk-go/logging"
)

// CLI is the top-level command line interface.
type CLI struct {
	Sync   SyncCmd   `cmd:"" default:"withargs" help:"Run one reconciliation pass."`
	Forget ForgetCmd `cmd:"" help:"Drop the recorded trigger so the next sync pushes again."`
}

type commonFlags struct {
	Debug bool `short:"d" help:"Emit debug logs in addition to info logs."`

	Cluster   string `required:"" help:"EKS cluster name."`
	Nodegroup string `required:"" help:"Node group name."`
	Region    string `default:"us-west-2" env:"AWS_REGION" help:"AWS region for the EKS and DynamoDB clients."`

	Store              string `default:"file" enum:"file,awsdynamodb,configmap" help:"Trigger store backend."`
	TriggerFile        string `default:"sizesync-triggers.json" help:"Path of the file store."`
	DynamoDBTable      string `default:"nodegroup-triggers" help:"DynamoDB table for the awsdynamodb store."`
	ConfigMapNamespace string `default:"default" help:"Namespace for the configmap store."`
}

func (f *commonFlags) handle() ResourceHandle {
	return ResourceHandle{ClusterName: f.Cluster, NodegroupName: f.Nodegroup}
}

func (f *commonFlags) newStore(ctx context.Context, log logging.Logger) (TriggerStore, error) {
	switch f.Store {
	case "file":
		return NewFileStore(log, f.TriggerFile)
	case "awsdynamodb":
		return NewDynamoDBStore(ctx, log, f.DynamoDBTable, f.Region, nil)
	case "configmap":
		return NewConfigMapStore(ctx, log, f.ConfigMapNamespace)
	default:
		return nil, errors.Errorf("unknown store type %q", f.Store)
	}
}

// SyncCmd runs one reconciliation pass. The process exit status reflects
// whether the pass succeeded; a failed external call leaves the trigger
// record untouched so the next invocation retries.
type SyncCmd struct {
	commonFlags

	Desired int32    `required:"" help:"Desired node count to converge on."`
	Action  string   `default:"eks" enum:"eks,exec" help:"External update mechanism."`
	Command []string `help:"Command template for the exec action; {cluster}, {nodegroup} and {desired} are substituted."`
	DryRun  bool     `help:"Report what would change without calling the scaling API."`
}

func (c *SyncCmd) newAction(ctx context.Context, log logging.Logger) (ExternalAction, error) {
	switch c.Action {
	case "eks":
		return NewEKSAction(ctx, log, c.Region, nil)
	case "exec":
		return NewExecAction(log, c.Command)
	default:
		return nil, errors.Errorf("unknown action type %q", c.Action)
	}
}

// Run executes the sync command.
func (c *SyncCmd) Run() error {
	ctx := context.Background()

	log, err := function.NewLogger(c.Debug)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}

	store, err := c.newStore(ctx, log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize trigger store")
	}

	action, err := c.newAction(ctx, log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize external action")
	}

	r := NewReconciler(store, action, log)
	res, err := r.Reconcile(ctx, c.handle(), c.Desired, c.DryRun)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case OutcomeInSync:
		fmt.Printf("%s already at desired size %d, no update needed\n", c.handle().Key(), res.Desired)
	case OutcomeDryRun:
		fmt.Printf("%s would be updated to desired size %d (dry run)\n", c.handle().Key(), res.Desired)
	case OutcomeUpdated:
		fmt.Printf("%s updated to desired size %d\n", c.handle().Key(), res.Desired)
	}
	return nil
}

// ForgetCmd drops the recorded trigger for a node group. The next sync then
// behaves like a first-ever run and pushes unconditionally.
type ForgetCmd struct {
	commonFlags
}

// Run executes the forget command.
func (c *ForgetCmd) Run() error {
	ctx := context.Background()

	log, err := function.NewLogger(c.Debug)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}

	handle := c.handle()
	if err := handle.Validate(); err != nil {
		return err
	}

	store, err := c.newStore(ctx, log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize trigger store")
	}

	if err := store.Forget(ctx, handle); err != nil {
		return errors.Wrapf(err, "failed to forget trigger record for %s", handle.Key())
	}

	fmt.Printf("forgot recorded trigger for %s\n", handle.Key())
	return nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("sizesync"),
		kong.Description("Pushes a node group's desired size to the scaling API only when it changed since the last successful push."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
