// Package dispatch fans a single logical operation out to many server
// instances at once. Per-node failures are recovered into outcomes and
// never fail the batch; the batch itself only errors on bad caller
// input (empty target list, id outside the fleet).
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
)

var ErrNoTargets = errors.New("no target servers")

// Operation performs one call against one server and reports its
// outcome. Implementations must honor ctx and must not panic; the
// client package produces conforming operations.
type Operation func(ctx context.Context, id int) models.Outcome

type Dispatcher struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Dispatch runs op once per target, all targets concurrently, each call
// bounded by its own perCallTimeout. It returns after every call has
// finished (a full join, never a race) with exactly one outcome per
// target, in target order. Completion order does not leak into result
// order: each goroutine writes to its own preassigned slot.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []int, op Operation, perCallTimeout time.Duration) (models.BatchResult, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, id := range targets {
		if _, err := d.reg.AddressOf(id); err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
	}

	results := make(models.BatchResult, len(targets))
	var wg sync.WaitGroup
	for i, id := range targets {
		wg.Add(1)
		go func(slot, id int) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, perCallTimeout)
			defer cancel()
			results[slot] = models.NodeOutcome{ID: id, Outcome: op(callCtx, id)}
		}(i, id)
	}
	wg.Wait()

	return results, nil
}
