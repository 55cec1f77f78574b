// Package runtime drives the container runtime that hosts the server
// fleet: lifecycle actions plus cumulative counter snapshots for
// resource sampling.
package runtime

import (
	"context"
	"errors"

	"github.com/serverfarm/farmctl/models"
)

var (
	// ErrNotFound means the runtime has no container under that name.
	ErrNotFound = errors.New("container not found")
	// ErrUnavailable means the runtime itself cannot be reached;
	// lifecycle actions fail but HTTP read paths keep working.
	ErrUnavailable = errors.New("container runtime unavailable")
)

// Runtime is the container/process manager the control plane delegates
// to. Inspect returns one snapshot of the container's cumulative
// counters; lifecycle calls are single-attempt with no retry.
type Runtime interface {
	Inspect(ctx context.Context, name string) (models.ContainerStats, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
}
