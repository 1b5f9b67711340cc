package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tsinventory/internal/tailscale"
	"tsinventory/pkg/logging"

	"github.com/google/uuid"
)

// DeviceLister returns every device of a tailnet. *tailscale.Client
// implements it.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]tailscale.Device, error)
}

type tailnetNamer interface {
	Tailnet() string
}

// Generate lists the devices, filters them by tag and builds the inventory.
// Any listing error aborts the run; there is no fallback to an earlier
// result. An empty result is logged as a warning and returned normally.
func Generate(ctx context.Context, lister DeviceLister, opts Options) (*Inventory, error) {
	runID := uuid.New().String()
	start := time.Now()

	var tailnet string
	if n, ok := lister.(tailnetNamer); ok {
		tailnet = n.Tailnet()
	}

	logger := logging.Logger("Inventory").With("run_id", runID, "tailnet", tailnet)
	logger.Debug("Starting inventory run", "tags", opts.Tags.Tags(), "group_prefix", opts.GroupPrefix)

	devices, err := lister.ListDevices(ctx)
	if err != nil {
		logger.Debug("Inventory run failed", "error", err)
		return nil, fmt.Errorf("failed to build inventory: %w", err)
	}

	matched := Filter(devices, opts.Tags)
	inv := Build(matched, opts)

	var warning *EmptyResultWarning
	if inv.Empty() && errors.As(inv.Warning(), &warning) {
		warning.Tailnet = tailnet
		warning.Devices = len(devices)
		logger.Warn(warning.Error(), "devices", len(devices))
	}

	logger.Info("Inventory built",
		"devices", len(devices),
		"matched", len(matched),
		"hosts", len(inv.hosts),
		"groups", len(inv.groups),
		"duration", time.Since(start).Round(time.Millisecond))

	return inv, nil
}
