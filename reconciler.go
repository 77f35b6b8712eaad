package main

import (
	"context"
	"sync"

	"github.com/crossplane/function-sdk-go/errors"
	"github.com/crossplane/function-sdk-go/logging"
)

// ErrConfigurationMissing is returned when the handle identifying the
// externally scaled resource is incomplete. No external call is attempted.
var ErrConfigurationMissing = errors.New("resource handle is incomplete")

// ResourceHandle identifies the externally scaled target. It is reference
// data supplied at invocation time and never mutated by a pass.
type ResourceHandle struct {
	ClusterName   string
	NodegroupName string
}

// Key returns the stable store key for the handle.
func (h ResourceHandle) Key() string {
	return h.ClusterName + "/" + h.NodegroupName
}

// Validate fails fast when the handle cannot address a node group.
func (h ResourceHandle) Validate() error {
	if h.ClusterName == "" {
		return errors.Wrap(ErrConfigurationMissing, "cluster name is required")
	}
	if h.NodegroupName == "" {
		return errors.Wrap(ErrConfigurationMissing, "node group name is required")
	}
	return nil
}

// Outcome describes what a reconciliation pass did.
type Outcome string

const (
	// OutcomeInSync means the recorded value already matched the desired one
	// and no external call was made.
	OutcomeInSync Outcome = "in-sync"
	// OutcomeUpdated means the external update ran and the new value was
	// committed to the trigger store.
	OutcomeUpdated Outcome = "updated"
	// OutcomeDryRun means an update was needed but only reported, not
	// executed. Nothing was committed.
	OutcomeDryRun Outcome = "dry-run"
)

// Result reports the outcome of a reconciliation pass.
type Result struct {
	Outcome Outcome
	Desired int32
	// Recorded is the value found in the trigger store before the pass.
	// HasRecord is false on a first-ever run.
	Recorded  int32
	HasRecord bool
}

// Reconciler is the trigger-gated updater: it pushes the desired size to the
// external scaling API only when it differs from the last successfully pushed
// value, and advances the record only after the push succeeded.
type Reconciler struct {
	store  TriggerStore
	action ExternalAction
	log    logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler creates a Reconciler over the given trigger store and external
// action.
func NewReconciler(store TriggerStore, action ExternalAction, log logging.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		action: action,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// handleLock serializes passes per handle. Two concurrent passes racing on the
// same node group could otherwise commit a record for a call that lost.
func (r *Reconciler) handleLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// Reconcile runs one synchronous pass: compare desired against the recorded
// trigger and push to the external API when they differ. The record is
// committed only after the external call reports success, so a failed pass is
// naturally retried by the next one.
func (r *Reconciler) Reconcile(ctx context.Context, handle ResourceHandle, desired int32, dryRun bool) (Result, error) {
	if err := handle.Validate(); err != nil {
		return Result{}, err
	}
	if desired < 0 {
		return Result{}, errors.Errorf("desired size must be non-negative, got %d", desired)
	}

	lock := r.handleLock(handle.Key())
	lock.Lock()
	defer lock.Unlock()

	recorded, hasRecord, err := r.store.Load(ctx, handle)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to load recorded trigger")
	}

	res := Result{Desired: desired, Recorded: recorded, HasRecord: hasRecord}

	if hasRecord && recorded == desired {
		r.log.Info("Desired size unchanged, nothing to do",
			"cluster", handle.ClusterName,
			"nodegroup", handle.NodegroupName,
			"desired-size", desired)
		res.Outcome = OutcomeInSync
		return res, nil
	}

	if dryRun {
		r.log.Info("Dry run: desired size would be pushed",
			"cluster", handle.ClusterName,
			"nodegroup", handle.NodegroupName,
			"desired-size", desired,
			"recorded", recorded,
			"has-record", hasRecord)
		res.Outcome = OutcomeDryRun
		return res, nil
	}

	r.log.Info("Pushing desired size",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", desired,
		"recorded", recorded,
		"has-record", hasRecord)

	if err := r.action.Update(ctx, handle, desired); err != nil {
		return Result{}, &ExternalActionFailedError{Handle: handle, Desired: desired, Err: err}
	}

	// The external call succeeded; only now may the record advance. If the
	// commit fails the record stays behind and the next pass re-pushes the
	// same value, which the external API treats as a no-op resize.
	if err := r.store.Save(ctx, handle, desired); err != nil {
		return Result{}, errors.Wrapf(err, "external update succeeded but committing the trigger record for %s failed", handle.Key())
	}

	r.log.Info("Desired size pushed and recorded",
		"cluster", handle.ClusterName,
		"nodegroup", handle.NodegroupName,
		"desired-size", desired)
	res.Outcome = OutcomeUpdated
	return res, nil
}
