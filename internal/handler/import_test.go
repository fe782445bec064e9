package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopcrm/internal/catalog"
	"shopcrm/internal/model"
	"shopcrm/internal/notify"
	"shopcrm/internal/tenant"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct{}

func (stubNotifier) Send(ctx context.Context, recipient string, template notify.TemplateKey, data map[string]interface{}) error {
	return nil
}

func importContext(t *testing.T, body, contentType string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/import", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("tenant", &model.Tenant{ID: 1, PlanTier: tenant.TierPro})
	return c
}

func TestImportVehiclesJSONArray(t *testing.T) {
	h := NewVehicleHandler(catalog.NewMakesCache(nil, 0), stubNotifier{})

	body := `[{"vin":"ABC123","year":2019,"make":"Honda","model":"Accord"},{"year":2020,"make":"Toyota","model":"Camry"}]`
	c := importContext(t, body, echo.MIMEApplicationJSON)

	require.NoError(t, h.ImportVehicles(c))

	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Imported int `json:"imported"`
		Errors   []struct {
			Line int    `json:"line"`
			Err  string `json:"error"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// both rows invalid (short VIN, missing customer), but parsed as JSON:
	// per-row errors, not a body-level CSV parse failure
	assert.Zero(t, resp.Imported)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, 1, resp.Errors[0].Line)
	assert.Equal(t, 2, resp.Errors[1].Line)
}

func TestImportVehiclesCSVStillRejectsGarbage(t *testing.T) {
	h := NewVehicleHandler(catalog.NewMakesCache(nil, 0), stubNotifier{})

	c := importContext(t, "not,a\nvehicle due to missing header", "text/csv")
	require.NoError(t, h.ImportVehicles(c))

	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportVehiclesRequiresExportFeature(t *testing.T) {
	h := NewVehicleHandler(catalog.NewMakesCache(nil, 0), stubNotifier{})

	c := importContext(t, "[]", echo.MIMEApplicationJSON)
	c.Set("tenant", &model.Tenant{ID: 1, PlanTier: tenant.TierStarter})
	require.NoError(t, h.ImportVehicles(c))

	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
