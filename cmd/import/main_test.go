package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/salesdash/internal/core"
)

func TestDescribe(t *testing.T) {
	t.Run("known failure gets the friendly message", func(t *testing.T) {
		got := describe(fmt.Errorf("%w: 3 rows read, none accepted", core.ErrNoValidData))
		assert.Contains(t, got, "(Code: FILE005)")
	})

	t.Run("unknown failure keeps the raw error", func(t *testing.T) {
		err := fmt.Errorf("open sales.csv: %w", os.ErrNotExist)
		assert.Equal(t, err.Error(), describe(err))
	})

	t.Run("raw error is not replaced by the generic message", func(t *testing.T) {
		got := describe(errors.New("disk quota exceeded on /data"))
		assert.NotContains(t, got, "ERR000")
	})
}
