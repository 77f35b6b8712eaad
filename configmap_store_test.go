package main

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/crossplane/function-sdk-go/logging"
)

func TestConfigMapStore(t *testing.T) {
	ctx := context.Background()
	handle := ResourceHandle{ClusterName: "prod", NodegroupName: "workers"}
	other := ResourceHandle{ClusterName: "prod", NodegroupName: "batch"}

	newStore := func() *ConfigMapStore {
		return newConfigMapStoreWithClient(fake.NewSimpleClientset(), "default", logging.NewNopLogger())
	}

	t.Run("LoadMissingConfigMap", func(t *testing.T) {
		s := newStore()
		_, ok, err := s.Load(ctx, handle)
		if err != nil {
			t.Fatalf("Load(...): unexpected error: %v", err)
		}
		if ok {
			t.Error("Load(...) with no ConfigMap: expected no record")
		}
	})

	t.Run("SaveCreatesThenUpdates", func(t *testing.T) {
		s := newStore()
		if err := s.Save(ctx, handle, 5); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}
		if err := s.Save(ctx, handle, 50); err != nil {
			t.Fatalf("Save(...) update: unexpected error: %v", err)
		}

		got, ok, err := s.Load(ctx, handle)
		if err != nil {
			t.Fatalf("Load(...): unexpected error: %v", err)
		}
		if !ok || got != 50 {
			t.Errorf("Load(...) = (%d, %t), want (50, true)", got, ok)
		}
	})

	t.Run("NodeGroupsShareClusterConfigMap", func(t *testing.T) {
		s := newStore()
		if err := s.Save(ctx, handle, 10); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}
		if err := s.Save(ctx, other, 20); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}

		cm, err := s.client.CoreV1().ConfigMaps("default").Get(ctx, s.getConfigMapName("prod"), metav1.GetOptions{})
		if err != nil {
			t.Fatalf("expected one ConfigMap for the cluster: %v", err)
		}
		if len(cm.Data) != 2 {
			t.Errorf("ConfigMap holds %d records, want 2", len(cm.Data))
		}
	})

	t.Run("ForgetRemovesRecordAndEmptyConfigMap", func(t *testing.T) {
		s := newStore()
		if err := s.Save(ctx, handle, 10); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}
		if err := s.Save(ctx, other, 20); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}

		if err := s.Forget(ctx, handle); err != nil {
			t.Fatalf("Forget(...): unexpected error: %v", err)
		}
		if _, ok, _ := s.Load(ctx, handle); ok {
			t.Error("Load(...) after Forget: expected no record")
		}
		if got, _, _ := s.Load(ctx, other); got != 20 {
			t.Errorf("Load(batch) after forgetting workers = %d, want 20", got)
		}

		// Dropping the last record deletes the ConfigMap itself.
		if err := s.Forget(ctx, other); err != nil {
			t.Fatalf("Forget(...): unexpected error: %v", err)
		}
		_, err := s.client.CoreV1().ConfigMaps("default").Get(ctx, s.getConfigMapName("prod"), metav1.GetOptions{})
		if err == nil {
			t.Error("expected empty ConfigMap to be deleted")
		}
	})

	t.Run("ForgetUnknownHandle", func(t *testing.T) {
		s := newStore()
		if err := s.Forget(ctx, handle); err != nil {
			t.Errorf("Forget(...) on unknown handle: unexpected error: %v", err)
		}
	})

	t.Run("CorruptedValueSurfaces", func(t *testing.T) {
		s := newStore()
		if err := s.Save(ctx, handle, 5); err != nil {
			t.Fatalf("Save(...): unexpected error: %v", err)
		}
		cm, err := s.client.CoreV1().ConfigMaps("default").Get(ctx, s.getConfigMapName("prod"), metav1.GetOptions{})
		if err != nil {
			t.Fatal(err)
		}
		cm.Data[handle.NodegroupName] = "not-a-number"
		if _, err := s.client.CoreV1().ConfigMaps("default").Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
			t.Fatal(err)
		}

		if _, _, err := s.Load(ctx, handle); err == nil {
			t.Error("Load(...) on corrupted value: expected error, got nil")
		}
	})
}
