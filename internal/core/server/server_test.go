package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"pixelpanic/internal/core/config"
	"pixelpanic/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew verifies that New creates a Server with the correct configuration.
func TestNew(t *testing.T) {
	cfg := &config.AppConfig{ServerPort: 8080}

	logger.Init("development", "debug")
	srv := New(cfg)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.App)
	assert.Equal(t, cfg, srv.cfg)
}

func TestHealthAndRequestID(t *testing.T) {
	srv := New(&config.AppConfig{ServerPort: 8080})

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestErrorHandler_FiberError(t *testing.T) {
	srv := New(&config.AppConfig{ServerPort: 8080})
	srv.App.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "short and stout", body["message"])
	assert.NotEmpty(t, body["ray_id"])
}

// TestServer_Run_Error verifies that Run returns an error when binding fails (e.g., privileged port).
func TestServer_Run_Error(t *testing.T) {
	cfg := &config.AppConfig{ServerPort: 1}
	logger.Init("development", "error")

	srv := New(cfg)

	errCh := make(chan error)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(1 * time.Second):
		srv.App.Shutdown()
		t.Log("Server unexpectedly started or timed out on Error test")
	}
}
