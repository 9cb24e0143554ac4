package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/models"
)

func TestApplyOperation(t *testing.T) {
	tests := []struct {
		method   string
		wantType models.OperationType
	}{
		{http.MethodPost, models.OperationCreate},
		{http.MethodPatch, models.OperationUpdate},
		{http.MethodDelete, models.OperationDelete},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			th := newTestHandler(t, "")
			th.sync.EXPECT().ApplyOperation(gomock.Any(), "user-1", "workouts", gomock.Any()).DoAndReturn(
				func(_ context.Context, _, _ string, op models.QueueOperation) error {
					assert.Equal(t, "op-42", op.ID)
					assert.Equal(t, tt.wantType, op.Type)
					assert.Equal(t, "workouts", op.Endpoint)
					assert.Equal(t, "w-1", op.Payload["id"])
					return nil
				})

			rec := th.do(tt.method, OpsPath+"/workouts", []byte(`{"id":"w-1"}`), authorized(headerIdempotency, "op-42"))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}
}

func TestApplyOperation_Errors(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		th := newTestHandler(t, "")

		rec := th.do(http.MethodPost, OpsPath+"/workouts", nil, authorized())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, models.ErrorCodeEmptyBody, decodeAPIError(t, rec).Code)
	})

	t.Run("not an object", func(t *testing.T) {
		th := newTestHandler(t, "")

		rec := th.do(http.MethodPost, OpsPath+"/workouts", []byte(`[1,2]`), authorized())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejected by the store", func(t *testing.T) {
		th := newTestHandler(t, "")
		th.sync.EXPECT().ApplyOperation(gomock.Any(), "user-1", "workouts", gomock.Any()).
			Return(service.ErrInvalidOperation)

		rec := th.do(http.MethodDelete, OpsPath+"/workouts", []byte(`{}`), authorized())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, models.ErrorCodeInvalidRequest, decodeAPIError(t, rec).Code)
	})

	t.Run("unauthorized", func(t *testing.T) {
		th := newTestHandler(t, "")

		rec := th.do(http.MethodPost, OpsPath+"/workouts", []byte(`{"id":"w"}`), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
