package app

import (
	"context"
	"io"
	"testing"

	"github.com/Temutjin2k/fleet-ledger/config"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestNewApplicationRejectsUnknownMode(t *testing.T) {
	_, err := NewApplication(context.Background(), config.Config{Mode: "billing"}, logger.New(io.Discard, "test", logger.LevelError))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestRunWithoutService(t *testing.T) {
	assert.ErrorIs(t, (&App{}).Run(context.Background()), ErrServiceNotInitialized)
}
