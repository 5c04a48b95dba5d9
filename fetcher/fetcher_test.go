package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klipworks/kliping/models"
)

func TestCategorizeError_DeadlineExceeded(t *testing.T) {
	err := categorizeError(context.DeadlineExceeded, "navigation to target URL failed")
	assert.Equal(t, models.ErrCodeTimeout, err.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCategorizeError_Canceled(t *testing.T) {
	err := categorizeError(context.Canceled, "navigation to target URL failed")
	assert.Equal(t, models.ErrCodeTimeout, err.Code)
}

func TestCategorizeError_Default(t *testing.T) {
	raw := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := categorizeError(raw, "navigation to target URL failed")
	assert.Equal(t, models.ErrCodeNavigation, err.Code)
	assert.ErrorIs(t, err, raw)
}
