package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/mock"
	"github.com/MKhiriev/repcue-sync/internal/store"
)

func TestStoredConsent(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		err    error
		def    bool
		want   bool
	}{
		{name: "default granted", err: store.ErrStateNotFound, def: true, want: true},
		{name: "default denied", err: store.ErrStateNotFound, def: false, want: false},
		{name: "stored overrides default", stored: "false", def: true, want: false},
		{name: "stored granted", stored: "true", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			state := mock.NewMockSyncStateRepository(ctrl)
			state.EXPECT().Get(gomock.Any(), store.StateKeyConsent).Return(tt.stored, tt.err)

			c, err := NewStoredConsent(context.Background(), state, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.HasConsent())
		})
	}
}

func TestStoredConsent_Set(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := mock.NewMockSyncStateRepository(ctrl)
	state.EXPECT().Get(gomock.Any(), store.StateKeyConsent).Return("", store.ErrStateNotFound)
	state.EXPECT().Set(gomock.Any(), store.StateKeyConsent, "true").Return(nil)

	c, err := NewStoredConsent(context.Background(), state, false)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), true))
	assert.True(t, c.HasConsent())
}

func TestStoredConsent_Malformed(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := mock.NewMockSyncStateRepository(ctrl)
	state.EXPECT().Get(gomock.Any(), store.StateKeyConsent).Return("maybe", nil)

	_, err := NewStoredConsent(context.Background(), state, false)
	assert.Error(t, err)
}
