package http

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billify.site/pkg/billify/apperror"
)

func TestRecordFailure(t *testing.T) {
	err := errors.New("boom")
	f := &Failure{Value: err, Info: apperror.Normalize(err)}

	assert.False(t, RecordFailure(context.Background(), f))

	ctx, slot := WithFailureSlot(context.Background())

	assert.Nil(t, slot.Failure())
	assert.True(t, RecordFailure(ctx, f))

	require.NotNil(t, slot.Failure())
	assert.Equal(t, "INTERNAL_SERVER_ERROR", slot.Failure().Info.ErrorCode)
}
