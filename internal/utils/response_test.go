package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed APIResponse
	require.NoError(t, json.Unmarshal(body, &parsed))

	return resp.StatusCode, parsed
}

func TestSendSuccess(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "quest retrieved", fiber.Map{"id": 1})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, parsed.Success)
	require.Equal(t, "quest retrieved", parsed.Message)
	require.NotNil(t, parsed.Data)
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", nil)
	})

	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "success", parsed.Message)
}

func TestSendSuccessWithStatus(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "submission accepted", nil)
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.True(t, parsed.Success)
}

func TestSendError(t *testing.T) {
	status, parsed := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusNotFound, "quest not found")
	})

	require.Equal(t, fiber.StatusNotFound, status)
	require.False(t, parsed.Success)
	require.Equal(t, "quest not found", parsed.Message)
	require.Nil(t, parsed.Data)
}
