package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/nomad/api"

	"github.com/muman613/nomad-helper/pkg/config"
	apperrors "github.com/muman613/nomad-helper/pkg/errors"
)

// TaskSelector picks the one task of an allocation whose log is printed.
// Implementations must be deterministic for a given allocation.
type TaskSelector interface {
	SelectTask(ctx context.Context, alloc *api.AllocationListStub) (string, error)
}

// TaskOrderer reports the declared task order of a job's task group.
type TaskOrderer interface {
	TaskOrder(ctx context.Context, jobID, group string) ([]string, error)
}

// NewSelector returns the selector for a config policy name.
func NewSelector(policy string, orderer TaskOrderer) (TaskSelector, error) {
	switch policy {
	case "", config.PolicyLexical:
		return LexicalSelector{}, nil
	case config.PolicyDeclared:
		return NewDeclaredSelector(orderer), nil
	default:
		return nil, apperrors.NewValidationError("task_policy", fmt.Sprintf("unknown policy %q", policy), policy)
	}
}

// sortedTaskNames returns the allocation's task names in lexical order, or
// a NotFoundError when it has none yet.
func sortedTaskNames(alloc *api.AllocationListStub) ([]string, error) {
	names := make([]string, 0, len(alloc.TaskStates))
	for name := range alloc.TaskStates {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, apperrors.NewNotFoundError("task state", alloc.ID)
	}
	sort.Strings(names)
	return names, nil
}

// LexicalSelector picks the lexicographically smallest task name.
type LexicalSelector struct{}

// SelectTask implements TaskSelector.
func (LexicalSelector) SelectTask(_ context.Context, alloc *api.AllocationListStub) (string, error) {
	names, err := sortedTaskNames(alloc)
	if err != nil {
		return "", err
	}
	return names[0], nil
}

// DeclaredSelector picks the first task, in job-spec order, of the
// allocation's task group. It falls back to lexical order when the job
// names none of the allocation's tasks. Specs are fetched once per
// (job, group) for the selector's lifetime.
type DeclaredSelector struct {
	orderer TaskOrderer
	orders  map[string][]string
}

// NewDeclaredSelector returns a selector reading task order from orderer.
func NewDeclaredSelector(orderer TaskOrderer) *DeclaredSelector {
	return &DeclaredSelector{
		orderer: orderer,
		orders:  make(map[string][]string),
	}
}

// SelectTask implements TaskSelector.
func (s *DeclaredSelector) SelectTask(ctx context.Context, alloc *api.AllocationListStub) (string, error) {
	names, err := sortedTaskNames(alloc)
	if err != nil {
		return "", err
	}

	key := alloc.JobID + "\x00" + alloc.TaskGroup
	order, ok := s.orders[key]
	if !ok {
		order, err = s.orderer.TaskOrder(ctx, alloc.JobID, alloc.TaskGroup)
		if err != nil {
			return "", err
		}
		s.orders[key] = order
	}

	for _, name := range order {
		if _, present := alloc.TaskStates[name]; present {
			return name, nil
		}
	}
	return names[0], nil
}
