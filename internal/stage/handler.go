package stage

import (
	"context"

	"phonogram/internal/registry"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *registry.Work) error
	Execute(context.Context, *registry.Work) error
	HealthCheck(context.Context) Health
}
