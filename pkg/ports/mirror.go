package ports

import (
	"context"

	"github.com/aretw0/vemulator/pkg/bus"
)

// ValueMirror copies field store changes to an external system.
type ValueMirror interface {
	Mirror(ctx context.Context, e bus.Event) error
}
