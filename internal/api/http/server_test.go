package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mentorweb/mentorweb_backend/config"
)

func TestFiberConfigTimeouts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.TimeoutSeconds = 15

	fc := fiberConfig(cfg)

	assert.Equal(t, "mentorweb", fc.AppName)
	assert.Equal(t, 15*time.Second, fc.ReadTimeout)
	assert.Equal(t, 30*time.Second, fc.WriteTimeout)
}

func TestFiberConfigNoTimeout(t *testing.T) {
	fc := fiberConfig(&config.Config{})

	assert.Equal(t, "mentorweb", fc.AppName)
	assert.Zero(t, fc.ReadTimeout)
	assert.Zero(t, fc.WriteTimeout)
}
