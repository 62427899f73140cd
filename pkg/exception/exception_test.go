package exception

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	yerrors "github.com/yanun0323/errors"
)

func TestSentinelsSurviveWrap(t *testing.T) {
	sentinels := []error{
		ErrInvalidIdentity,
		ErrValidationRejected,
		ErrNegativeDamage,
		ErrBackendNotConfigured,
		ErrBackendUnavailable,
		ErrSchemaMissing,
		ErrInvalidTableName,
		ErrStatsNotFound,
		ErrFeedEmptyPath,
		ErrFeedNilHandler,
		ErrFeedClosed,
		ErrFeedBusy,
		ErrFeedPathNotSocket,
		ErrFeedMalformed,
	}
	for _, sentinel := range sentinels {
		wrapped := yerrors.Wrap(sentinel, "context").With("key", 1)
		assert.True(t, errors.Is(wrapped, sentinel), "wrapped %q", sentinel)

		wrapped = yerrors.Wrapf(sentinel, "context %d", 2)
		assert.True(t, errors.Is(wrapped, sentinel), "wrapf %q", sentinel)
	}
}
