package storage

import (
	"context"

	"threadspire/internal/observability"
)

type instrumented struct {
	Backend
	log *observability.StorageLogger
}

// Instrument logs writes and counts failures of b under the driver label.
func Instrument(b Backend, driver string) Backend {
	return &instrumented{Backend: b, log: observability.NewStorageLogger(driver)}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, found, err := i.Backend.Get(ctx, key)
	if err != nil {
		i.log.LogError(ctx, err, "get", key)
	}
	return v, found, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	if err := i.Backend.Set(ctx, key, value); err != nil {
		i.log.LogError(ctx, err, "set", key)
		return err
	}
	i.log.LogWrite(ctx, key, len(value))
	return nil
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	if err := i.Backend.Delete(ctx, key); err != nil {
		i.log.LogError(ctx, err, "delete", key)
		return err
	}
	i.log.LogDelete(ctx, key)
	return nil
}

func (i *instrumented) Ping(ctx context.Context) error {
	if err := i.Backend.Ping(ctx); err != nil {
		i.log.LogError(ctx, err, "ping", "")
		return err
	}
	return nil
}
