package main

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/crossplane/function-sdk-go/logging"
)

// ExecAction shells out to an operator-supplied command, substituting
// {cluster}, {nodegroup} and {desired} placeholders in each argument, e.g.
//
//	aws eks update-nodegroup-config --cluster-name {cluster} \
//	  --nodegroup-name {nodegroup} --scaling-config desiredSize={desired}
//
// A non-zero exit is failure; stdout/stderr are included in the error.
type ExecAction struct {
	argv []string
	log  logging.Logger
}

// NewExecAction creates an exec-backed external action from a command
// template.
func NewExecAction(log logging.Logger, command []string) (*ExecAction, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("exec action requires a command")
	}
	return &ExecAction{argv: command, log: log}, nil
}

// Update runs the command with placeholders substituted.
func (a *ExecAction) Update(ctx context.Context, handle ResourceHandle, desired int32) error {
	repl := strings.NewReplacer(
		"{cluster}", handle.ClusterName,
		"{nodegroup}", handle.NodegroupName,
		"{desired}", strconv.FormatInt(int64(desired), 10),
	)
	argv := make([]string, len(a.argv))
	for i, arg := range a.argv {
		argv[i] = repl.Replace(arg)
	}

	a.log.Debug("Running external update command", "command", strings.Join(argv, " "))

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("command '%s' failed: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}

	a.log.Info("External update command succeeded",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", desired)
	return nil
}
