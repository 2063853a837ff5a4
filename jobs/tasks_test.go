package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukkan-pos/dukkan/internal/assist"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/shared"
)

type fakeAttacher struct {
	calls []string
	err   error
}

func (f *fakeAttacher) GenerateAndAttach(_ context.Context, id string) (inventory.Product, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return inventory.Product{}, f.err
	}
	return inventory.Product{ID: id, Image: "data:image/png;base64,AAAA"}, nil
}

type countingTracker struct {
	ended []error
}

func (c *countingTracker) End(err error) error {
	c.ended = append(c.ended, err)
	return err
}

func TestNewProductImageTask(t *testing.T) {
	task, err := NewProductImageTask("p1")
	require.NoError(t, err)
	assert.Equal(t, TaskProductImage, task.Type())

	var payload ProductImagePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "p1", payload.ProductID)

	_, err = NewProductImageTask("")
	assert.Error(t, err)
}

func TestProductImageHandler(t *testing.T) {
	attacher := &fakeAttacher{}
	tracker := &countingTracker{}
	handler := ProductImageHandler(attacher, func(string) Tracker { return tracker }, nil)

	task, err := NewProductImageTask("p1")
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, []string{"p1"}, attacher.calls)
	assert.Len(t, tracker.ended, 1)
}

func TestProductImageHandlerSkipsRetryForPermanentErrors(t *testing.T) {
	cases := map[string]error{
		"missing product": inventory.ErrProductNotFound,
		"disabled":        &assist.GenerationError{Op: assist.OpImage, Err: assist.ErrDisabled},
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			handler := ProductImageHandler(&fakeAttacher{err: cause}, nil, nil)
			task, err := NewProductImageTask("p1")
			require.NoError(t, err)
			err = handler(context.Background(), task)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}

	handler := ProductImageHandler(&fakeAttacher{err: errors.New("upstream 503")}, nil, nil)
	task, err := NewProductImageTask("p1")
	require.NoError(t, err)
	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestProductImageHandlerRejectsBadPayload(t *testing.T) {
	attacher := &fakeAttacher{}
	handler := ProductImageHandler(attacher, nil, nil)
	err := handler(context.Background(), asynq.NewTask(TaskProductImage, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, attacher.calls)
}

func TestErrImageQueuedIsConflict(t *testing.T) {
	assert.ErrorIs(t, ErrImageQueued, shared.ErrConflict)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, rec.Body.String())
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}
