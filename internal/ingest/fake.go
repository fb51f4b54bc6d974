package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/enviro-monitor/internal/telemetry"
)

// FakeStore keeps rows in memory for tests.
type FakeStore struct {
	mu   sync.Mutex
	Rows []Row

	// InsertError and ListError, if set, are returned by the matching call.
	InsertError error
	ListError   error

	// Now stamps created_at; defaults to time.Now.
	Now func() time.Time
}

// Insert appends rec with a sequential id.
func (f *FakeStore) Insert(ctx context.Context, rec telemetry.Record) (Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InsertError != nil {
		return Row{}, f.InsertError
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	row := Row{ID: fmt.Sprintf("row-%d", len(f.Rows)+1), CreatedAt: now(), Record: rec}
	f.Rows = append(f.Rows, row)
	return row, nil
}

// List returns a copy of the stored rows.
func (f *FakeStore) List(ctx context.Context) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListError != nil {
		return nil, f.ListError
	}
	return append([]Row(nil), f.Rows...), nil
}

// FakeLatest is an in-memory LatestCache.
type FakeLatest struct {
	mu       sync.Mutex
	row      Row
	ok       bool
	PutError error
}

// Put stores row.
func (f *FakeLatest) Put(ctx context.Context, row Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PutError != nil {
		return f.PutError
	}
	f.row, f.ok = row, true
	return nil
}

// Latest returns the stored row.
func (f *FakeLatest) Latest(ctx context.Context) (Row, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.row, f.ok, nil
}
