package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/routes"
	"lms/backend/testutil"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.DB(t)
	cfg := testutil.Config()
	log := utils.NopLogger()

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	routes.SetupRoutes(app, db, cfg, log)
	return &testApp{app: app, db: db, cfg: cfg}
}

// call performs a request against the route table and decodes the JSON body.
func (a *testApp) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &result), string(raw))
	}
	return resp.StatusCode, result
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func fieldNames(t *testing.T, body map[string]interface{}) []string {
	t.Helper()
	details, ok := body["details"].([]interface{})
	require.True(t, ok, "response has no details: %v", body)
	names := make([]string, 0, len(details))
	for _, d := range details {
		names = append(names, d.(map[string]interface{})["field"].(string))
	}
	return names
}
