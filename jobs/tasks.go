package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dukkan-pos/dukkan/internal/assist"
	"github.com/dukkan-pos/dukkan/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductImage generates a product image and attaches it.
	TaskProductImage = "inventory:image"
)

// uniqueWindow keeps a second request for the same product out of the queue
// while the first one is pending or running.
const uniqueWindow = 2 * time.Minute

// ProductImagePayload names the product to illustrate.
type ProductImagePayload struct {
	ProductID string `json:"productId"`
}

// NewProductImageTask constructs the asynq task for productID.
func NewProductImageTask(productID string) (*asynq.Task, error) {
	if productID == "" {
		return nil, errors.New("jobs: product id required")
	}
	body, err := json.Marshal(ProductImagePayload{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductImage, body,
		asynq.Queue(QueueDefault),
		asynq.Unique(uniqueWindow),
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
	), nil
}

// ImageAttacher generates and stores a product image.
type ImageAttacher interface {
	GenerateAndAttach(ctx context.Context, id string) (inventory.Product, error)
}

// Tracker times job runs.
type Tracker interface {
	End(err error) error
}

// ProductImageHandler returns the handler for TaskProductImage. Missing
// products and a disabled generator are not retried.
func ProductImageHandler(images ImageAttacher, metrics func(job string) Tracker, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var tracker Tracker
		if metrics != nil {
			tracker = metrics(TaskProductImage)
		}
		err := handleProductImage(ctx, images, t, logger)
		if tracker != nil {
			return tracker.End(err)
		}
		return err
	}
}

func handleProductImage(ctx context.Context, images ImageAttacher, t *asynq.Task, logger *slog.Logger) error {
	var payload ProductImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ProductID == "" {
		return fmt.Errorf("jobs: decode %s payload: %v: %w", TaskProductImage, err, asynq.SkipRetry)
	}
	product, err := images.GenerateAndAttach(ctx, payload.ProductID)
	switch {
	case err == nil:
		logger.Info("product image attached", slog.String("product_id", product.ID))
		return nil
	case inventory.IsNotFound(err), errors.Is(err, assist.ErrDisabled):
		logger.Warn("product image skipped", slog.String("product_id", payload.ProductID), slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		logger.Error("product image failed", slog.String("product_id", payload.ProductID), slog.Any("error", err))
		return err
	}
}
