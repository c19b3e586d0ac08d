package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mbalabaev/food-order-service/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func fastConfig() utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
	}
}

func TestRetry(t *testing.T) {
	t.Run("succeeds on a later attempt", func(t *testing.T) {
		calls := 0
		err := utils.Retry(fastConfig(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		transient := errors.New("transient")
		calls := 0
		err := utils.Retry(fastConfig(), func() error {
			calls++
			return transient
		})
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		permanent := errors.New("permanent")
		calls := 0
		err := utils.Retry(fastConfig(), func() error {
			calls++
			return permanent
		}, permanent)
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})
}
