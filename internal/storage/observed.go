package storage

import (
	"context"
	"time"
)

// CallObserver receives the outcome of every content store call.
type CallObserver interface {
	ObserveStoreCall(op string, err error, elapsed time.Duration)
}

type observedStore struct {
	next     ContentStore
	observer CallObserver
}

// WithObserver reports each call on store to observer. A nil observer returns store unchanged.
func WithObserver(store ContentStore, observer CallObserver) ContentStore {
	if observer == nil {
		return store
	}
	return &observedStore{next: store, observer: observer}
}

func (o *observedStore) ListDirectory(ctx context.Context, dir string) ([]Entry, error) {
	start := time.Now()
	entries, err := o.next.ListDirectory(ctx, dir)
	o.observer.ObserveStoreCall("list", err, time.Since(start))
	return entries, err
}

func (o *observedStore) GetObject(ctx context.Context, objectPath string) (*Object, error) {
	start := time.Now()
	object, err := o.next.GetObject(ctx, objectPath)
	o.observer.ObserveStoreCall("get", err, time.Since(start))
	return object, err
}

func (o *observedStore) PutObject(ctx context.Context, req PutRequest) (*PutResult, error) {
	start := time.Now()
	result, err := o.next.PutObject(ctx, req)
	o.observer.ObserveStoreCall("put", err, time.Since(start))
	return result, err
}
