package metrics

import (
	"context"
	"log/slog"
	"time"
)

// InventoryCounts is a snapshot of inventory sizes
type InventoryCounts struct {
	Pages       int
	Topics      int
	Sites       int
	ScoredPages int
}

// InventoryCounter is satisfied by the database
type InventoryCounter interface {
	InventoryCounts(ctx context.Context) (*InventoryCounts, error)
}

// StartInventoryCollector starts a background loop that periodically
// publishes inventory size gauges
func StartInventoryCollector(ctx context.Context, db InventoryCounter, interval time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect once immediately
	CollectInventory(ctx, db, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Inventory collector stopping")
			return
		case <-ticker.C:
			CollectInventory(ctx, db, logger)
		}
	}
}

// CollectInventory sets the inventory gauges from a single snapshot
func CollectInventory(ctx context.Context, db InventoryCounter, logger *slog.Logger) {
	counts, err := db.InventoryCounts(ctx)
	if err != nil {
		logger.Error("Failed to collect inventory counts", "error", err)
		return
	}

	InventoryPages.Set(float64(counts.Pages))
	InventoryTopics.Set(float64(counts.Topics))
	InventorySites.Set(float64(counts.Sites))
	InventoryScoredPages.Set(float64(counts.ScoredPages))
}
