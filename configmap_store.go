package main

import (
	"context"
	"fmt"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/crossplane/function-sdk-go/logging"
)

// ConfigMapStore implements TriggerStore using Kubernetes ConfigMaps: one
// ConfigMap per cluster, one data key per node group.
type ConfigMapStore struct {
	client    kubernetes.Interface
	namespace string
	log       logging.Logger
}

// NewConfigMapStore creates a new ConfigMap trigger store using the
// in-cluster config.
func NewConfigMapStore(ctx context.Context, log logging.Logger, namespace string) (*ConfigMapStore, error) {
	if namespace == "" {
		namespace = "default"
	}

	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	// Verify namespace exists
	_, err = clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to verify namespace '%s': %w", namespace, err)
	}

	log.Info("Successfully initialized ConfigMap trigger store", "namespace", namespace)
	return newConfigMapStoreWithClient(clientset, namespace, log), nil
}

// newConfigMapStoreWithClient wires an existing clientset, used by tests with
// a fake clientset.
func newConfigMapStoreWithClient(client kubernetes.Interface, namespace string, log logging.Logger) *ConfigMapStore {
	return &ConfigMapStore{
		client:    client,
		namespace: namespace,
		log:       log,
	}
}

// getConfigMapName returns the ConfigMap name for a given cluster.
func (c *ConfigMapStore) getConfigMapName(clusterName string) string {
	return fmt.Sprintf("nodegroup-trigger-%s", clusterName)
}

// Load retrieves the recorded desired size for a node group from the
// cluster's ConfigMap.
func (c *ConfigMapStore) Load(ctx context.Context, handle ResourceHandle) (int32, bool, error) {
	configMapName := c.getConfigMapName(handle.ClusterName)

	configMap, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, configMapName, metav1.GetOptions{})
	if err != nil {
		if errors.IsNotFound(err) {
			c.log.Debug("ConfigMap not found, no trigger recorded", "configmap", configMapName)
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get ConfigMap: %w", err)
	}

	raw, exists := configMap.Data[handle.NodegroupName]
	if !exists {
		c.log.Debug("Node group not found in ConfigMap", "nodegroup", handle.NodegroupName)
		return 0, false, nil
	}

	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse recorded value '%s' for %s: %w", raw, handle.Key(), err)
	}

	c.log.Debug("Loaded trigger record from ConfigMap",
		"configmap", configMapName,
		"nodegroup", handle.NodegroupName,
		"desired-size", value)
	return int32(value), true, nil
}

// Save commits the recorded desired size for a node group to the cluster's
// ConfigMap, creating it on first use.
func (c *ConfigMapStore) Save(ctx context.Context, handle ResourceHandle, value int32) error {
	configMapName := c.getConfigMapName(handle.ClusterName)
	raw := strconv.FormatInt(int64(value), 10)

	configMap, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, configMapName, metav1.GetOptions{})
	if err != nil {
		if errors.IsNotFound(err) {
			configMap = &corev1.ConfigMap{
				ObjectMeta: metav1.ObjectMeta{
					Name:      configMapName,
					Namespace: c.namespace,
				},
				Data: map[string]string{
					handle.NodegroupName: raw,
				},
			}
			_, err = c.client.CoreV1().ConfigMaps(c.namespace).Create(ctx, configMap, metav1.CreateOptions{})
			if err != nil {
				return fmt.Errorf("failed to create ConfigMap: %w", err)
			}
			c.log.Debug("Created ConfigMap for cluster", "configmap", configMapName, "cluster", handle.ClusterName)
			return nil
		}
		return fmt.Errorf("failed to get ConfigMap: %w", err)
	}

	if configMap.Data == nil {
		configMap.Data = make(map[string]string)
	}
	configMap.Data[handle.NodegroupName] = raw

	_, err = c.client.CoreV1().ConfigMaps(c.namespace).Update(ctx, configMap, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update ConfigMap: %w", err)
	}

	c.log.Debug("Updated trigger record in ConfigMap",
		"configmap", configMapName,
		"nodegroup", handle.NodegroupName,
		"desired-size", value)
	return nil
}

// Forget removes the trigger record for a node group, deleting the ConfigMap
// once it holds no records.
func (c *ConfigMapStore) Forget(ctx context.Context, handle ResourceHandle) error {
	configMapName := c.getConfigMapName(handle.ClusterName)

	configMap, err := c.client.CoreV1().ConfigMaps(c.namespace).Get(ctx, configMapName, metav1.GetOptions{})
	if err != nil {
		if errors.IsNotFound(err) {
			c.log.Debug("ConfigMap not found, nothing to forget", "configmap", configMapName)
			return nil
		}
		return fmt.Errorf("failed to get ConfigMap: %w", err)
	}

	if configMap.Data != nil {
		delete(configMap.Data, handle.NodegroupName)
	}

	if len(configMap.Data) == 0 {
		err = c.client.CoreV1().ConfigMaps(c.namespace).Delete(ctx, configMapName, metav1.DeleteOptions{})
		if err != nil {
			return fmt.Errorf("failed to delete ConfigMap: %w", err)
		}
		c.log.Debug("Deleted empty ConfigMap", "configmap", configMapName)
		return nil
	}

	_, err = c.client.CoreV1().ConfigMaps(c.namespace).Update(ctx, configMap, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to update ConfigMap: %w", err)
	}

	c.log.Debug("Forgot trigger record in ConfigMap",
		"configmap", configMapName,
		"nodegroup", handle.NodegroupName)
	return nil
}
