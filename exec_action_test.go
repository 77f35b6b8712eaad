//go:build !windows

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/crossplane/function-sdk-go/logging"
)

func TestExecAction(t *testing.T) {
	ctx := context.Background()
	handle := ResourceHandle{ClusterName: "prod", NodegroupName: "workers"}

	t.Run("EmptyCommandRejected", func(t *testing.T) {
		if _, err := NewExecAction(logging.NewNopLogger(), nil); err == nil {
			t.Error("NewExecAction(nil): expected error, got nil")
		}
	})

	t.Run("SuccessfulCommand", func(t *testing.T) {
		a, err := NewExecAction(logging.NewNopLogger(), []string{"true"})
		if err != nil {
			t.Fatalf("NewExecAction(...): unexpected error: %v", err)
		}
		if err := a.Update(ctx, handle, 3); err != nil {
			t.Errorf("Update(...): unexpected error: %v", err)
		}
	})

	t.Run("FailingCommand", func(t *testing.T) {
		a, err := NewExecAction(logging.NewNopLogger(), []string{"false"})
		if err != nil {
			t.Fatalf("NewExecAction(...): unexpected error: %v", err)
		}
		if err := a.Update(ctx, handle, 3); err == nil {
			t.Error("Update(...): expected error from non-zero exit, got nil")
		}
	})

	t.Run("PlaceholdersSubstituted", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "args")
		a, err := NewExecAction(logging.NewNopLogger(), []string{
			"sh", "-c", `printf %s "$1" > ` + out, "sh", "{cluster}:{nodegroup}:{desired}",
		})
		if err != nil {
			t.Fatalf("NewExecAction(...): unexpected error: %v", err)
		}
		if err := a.Update(ctx, handle, 42); err != nil {
			t.Fatalf("Update(...): unexpected error: %v", err)
		}

		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if want := "prod:workers:42"; string(got) != want {
			t.Errorf("substituted argument = %q, want %q", got, want)
		}
	})
}
