package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serverfarm/farmctl/models"
	"github.com/serverfarm/farmctl/registry"
)

// ErrInvalidAction means the requested verb is not start, stop or
// restart.
var ErrInvalidAction = errors.New("invalid action")

// Actions validates and forwards lifecycle actions to the runtime. The
// id range is checked against the registry before the runtime is ever
// touched; beyond existence the runtime is left to judge the requested
// transition itself.
type Actions struct {
	reg *registry.Registry
	rt  Runtime
}

func NewActions(reg *registry.Registry, rt Runtime) *Actions {
	return &Actions{reg: reg, rt: rt}
}

// Perform runs one lifecycle action against one server. Single attempt;
// a failure is reported to the caller as-is.
func (a *Actions) Perform(ctx context.Context, id int, verb string) (models.ActionAck, error) {
	name, err := a.reg.ContainerName(id)
	if err != nil {
		return models.ActionAck{}, err
	}

	switch verb {
	case models.ActionStart:
		err = a.rt.Start(ctx, name)
	case models.ActionStop:
		err = a.rt.Stop(ctx, name)
	case models.ActionRestart:
		err = a.rt.Restart(ctx, name)
	default:
		return models.ActionAck{}, fmt.Errorf("%w: %q", ErrInvalidAction, verb)
	}
	if err != nil {
		return models.ActionAck{}, err
	}

	return models.ActionAck{
		ServerID:  id,
		Action:    verb,
		Status:    "success",
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}
