// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"tasktracker/internal/service"
)

// Store operation names used by FakeStore.Count.
const (
	OpList   = "list"
	OpGet    = "get"
	OpInsert = "insert"
	OpPatch  = "patch"
	OpRemove = "remove"
)

// FakeStore is an in-memory implementation of service.Store for testing.
// It records how often each operation was called.
type FakeStore struct {
	mu     sync.Mutex
	tasks  map[string][]service.Task // collection -> tasks in insert order
	nextID int
	calls  map[string]int

	// LagReads makes the next n List calls after each Patch return the
	// list as it was before the patch.
	LagReads int
	stale    map[string][]service.Task
	staleN   map[string]int

	// Error injection for testing
	ListErr   error
	GetErr    error
	InsertErr error
	PatchErr  error
	RemoveErr error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		tasks:  make(map[string][]service.Task),
		calls:  make(map[string]int),
		stale:  make(map[string][]service.Task),
		staleN: make(map[string]int),
	}
}

// AddTask seeds a task without counting a call.
func (f *FakeStore) AddTask(collection string, t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[collection] = append(f.tasks[collection], t)
}

// Tasks returns the stored tasks of a collection.
func (f *FakeStore) Tasks(collection string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.tasks[collection])
}

// Count returns how many times op was called.
func (f *FakeStore) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// List implements service.Store.
func (f *FakeStore) List(ctx context.Context, collection string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpList]++
	if f.ListErr != nil {
		return nil, &service.StoreError{Op: OpList, Err: f.ListErr}
	}
	if f.staleN[collection] > 0 {
		f.staleN[collection]--
		return clone(f.stale[collection]), nil
	}
	return clone(f.tasks[collection]), nil
}

// Get implements service.Store.
func (f *FakeStore) Get(ctx context.Context, collection, taskID string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpGet]++
	if f.GetErr != nil {
		return service.Task{}, &service.StoreError{Op: OpGet, Err: f.GetErr}
	}
	i := f.index(collection, taskID)
	if i < 0 {
		return service.Task{}, &service.StoreError{Op: OpGet, Err: service.ErrNotFound}
	}
	return withDefaults(f.tasks[collection][i]), nil
}

// Insert implements service.Store. Ids are "t1", "t2", ...
func (f *FakeStore) Insert(ctx context.Context, collection string, fields service.Fields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpInsert]++
	if f.InsertErr != nil {
		return "", &service.StoreError{Op: OpInsert, Err: f.InsertErr}
	}
	f.nextID++
	t := service.Task{ID: fmt.Sprintf("t%d", f.nextID)}
	apply(&t, fields)
	f.tasks[collection] = append(f.tasks[collection], t)
	return t.ID, nil
}

// Patch implements service.Store.
func (f *FakeStore) Patch(ctx context.Context, collection, taskID string, fields service.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpPatch]++
	if f.PatchErr != nil {
		return &service.StoreError{Op: OpPatch, Err: f.PatchErr}
	}
	i := f.index(collection, taskID)
	if i < 0 {
		return &service.StoreError{Op: OpPatch, Err: service.ErrNotFound}
	}
	if f.LagReads > 0 {
		f.stale[collection] = clone(f.tasks[collection])
		f.staleN[collection] = f.LagReads
	}
	apply(&f.tasks[collection][i], fields)
	return nil
}

// Remove implements service.Store.
func (f *FakeStore) Remove(ctx context.Context, collection, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpRemove]++
	if f.RemoveErr != nil {
		return &service.StoreError{Op: OpRemove, Err: f.RemoveErr}
	}
	i := f.index(collection, taskID)
	if i < 0 {
		return &service.StoreError{Op: OpRemove, Err: service.ErrNotFound}
	}
	tasks := f.tasks[collection]
	f.tasks[collection] = append(tasks[:i:i], tasks[i+1:]...)
	return nil
}

func (f *FakeStore) index(collection, taskID string) int {
	for i, t := range f.tasks[collection] {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

func apply(t *service.Task, fields service.Fields) {
	if fields.Task != nil {
		t.Task = *fields.Task
	}
	if fields.Priority != nil {
		t.Priority = *fields.Priority
	}
	if fields.Status != nil {
		t.Status = *fields.Status
	}
}

// withDefaults fills in the pending status the way the real backend decodes it.
func withDefaults(t service.Task) service.Task {
	if t.Status == "" {
		t.Status = service.StatusPending
	}
	return t
}

func clone(tasks []service.Task) []service.Task {
	if tasks == nil {
		return nil
	}
	out := make([]service.Task, len(tasks))
	for i, t := range tasks {
		out[i] = withDefaults(t)
	}
	return out
}
