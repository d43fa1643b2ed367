package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
	"github.com/Requiemgoi/integrity-os/internal/domain/usecase"
)

type fakeSensorUC struct {
	data     []entity.SensorReading
	insights []entity.Insight
	ingested []entity.SensorReading
	err      error

	gotHours int
	gotLimit int
}

func (u *fakeSensorUC) Data(_ context.Context, _ string, hours, limit int) ([]entity.SensorReading, error) {
	u.gotHours, u.gotLimit = hours, limit
	return u.data, u.err
}

func (u *fakeSensorUC) Latest(_ context.Context, _ string) ([]entity.SensorReading, error) {
	return u.data, u.err
}

func (u *fakeSensorUC) Insights(_ context.Context, _ string, hours, limit int) ([]entity.Insight, error) {
	u.gotHours, u.gotLimit = hours, limit
	return u.insights, u.err
}

func (u *fakeSensorUC) Ingest(_ context.Context, sensorType string, readings []entity.SensorReading) ([]entity.SensorReading, error) {
	if u.err != nil {
		return nil, u.err
	}
	for i := range readings {
		readings[i].SensorType = sensorType
	}
	u.ingested = append(u.ingested, readings...)
	return readings, nil
}

type fakeSimulator struct {
	readings []entity.SensorReading
	err      error
}

func (s *fakeSimulator) SimulateAndStore(_ context.Context, _ string) ([]entity.SensorReading, error) {
	return s.readings, s.err
}

type fakeAlertProcessor struct {
	alertsPerReading int
	calls            int
}

func (p *fakeAlertProcessor) ProcessReading(_ context.Context, _ entity.SensorReading) ([]entity.Alert, error) {
	p.calls++
	return make([]entity.Alert, p.alertsPerReading), nil
}

func newSensorRouter(uc *fakeSensorUC, sim *fakeSimulator, alerts *fakeAlertProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSensorHandler(uc, sim, alerts)

	r := gin.New()
	r.GET("/sensors/types", h.GetTypes)
	r.GET("/sensors/:sensor_type/data", h.GetData)
	r.GET("/sensors/:sensor_type/insights", h.GetInsights)
	r.POST("/sensors/:sensor_type/simulate", h.Simulate)
	r.POST("/sensors/:sensor_type/data", h.IngestData)
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetTypes(t *testing.T) {
	r := newSensorRouter(&fakeSensorUC{}, &fakeSimulator{}, &fakeAlertProcessor{})
	w := doRequest(r, http.MethodGet, "/sensors/types")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"raw_material", "production_line", "warehouse"}, body["sensor_types"])
}

func TestGetData_QueryDefaults(t *testing.T) {
	uc := &fakeSensorUC{data: []entity.SensorReading{{Parameter: "temperature", Value: 21}}}
	r := newSensorRouter(uc, &fakeSimulator{}, &fakeAlertProcessor{})

	w := doRequest(r, http.MethodGet, "/sensors/warehouse/data")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24, uc.gotHours)
	assert.Equal(t, 1000, uc.gotLimit)

	w = doRequest(r, http.MethodGet, "/sensors/warehouse/data?hours=6&limit=50")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6, uc.gotHours)
	assert.Equal(t, 50, uc.gotLimit)
}

func TestGetData_UnknownTypeIs400(t *testing.T) {
	uc := &fakeSensorUC{err: usecase.ErrUnknownSensorType}
	r := newSensorRouter(uc, &fakeSimulator{}, &fakeAlertProcessor{})

	w := doRequest(r, http.MethodGet, "/sensors/spaceship/data")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "неверный тип сенсора")
}

func TestGetInsights_Envelope(t *testing.T) {
	uc := &fakeSensorUC{insights: []entity.Insight{{Param: "humidity", Text: "Нет данных"}}}
	r := newSensorRouter(uc, &fakeSimulator{}, &fakeAlertProcessor{})

	w := doRequest(r, http.MethodGet, "/sensors/warehouse/insights")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Insights []entity.Insight `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Insights, 1)
	assert.Equal(t, "humidity", body.Insights[0].Param)
}

func TestIngestData_AcceptedPayloadShapes(t *testing.T) {
	payloads := map[string]string{
		"bare array":  `[{"sensor_id":"ext_001","parameter":"temperature","value":21.5}]`,
		"data":        `{"data":[{"sensor_id":"ext_001","parameter":"temperature","value":"21.5"}]}`,
		"sensor_data": `{"sensor_data":[{"sensor_id":"ext_001","parameter":"temperature","value":21.5}]}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			uc := &fakeSensorUC{}
			alerts := &fakeAlertProcessor{}
			r := newSensorRouter(uc, &fakeSimulator{}, alerts)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sensors/warehouse/data", strings.NewReader(payload))
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Len(t, uc.ingested, 1)
			assert.Equal(t, "ext_001", uc.ingested[0].SensorID)
			assert.Equal(t, "warehouse", uc.ingested[0].SensorType)
			assert.Equal(t, 21.5, uc.ingested[0].Value)
			assert.Equal(t, 1, alerts.calls)
		})
	}
}

func TestIngestData_BadPayloadIs400(t *testing.T) {
	r := newSensorRouter(&fakeSensorUC{}, &fakeSimulator{}, &fakeAlertProcessor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sensors/warehouse/data", strings.NewReader(`"not readings"`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "неверный формат данных")
}

func TestSimulate_ProcessesEveryReading(t *testing.T) {
	sim := &fakeSimulator{readings: make([]entity.SensorReading, 4)}
	alerts := &fakeAlertProcessor{alertsPerReading: 1}
	r := newSensorRouter(&fakeSensorUC{}, sim, alerts)

	w := doRequest(r, http.MethodPost, "/sensors/warehouse/simulate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, alerts.calls)

	var body struct {
		DataPoints      int `json:"data_points"`
		AlertsGenerated int `json:"alerts_generated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.DataPoints)
	assert.Equal(t, 4, body.AlertsGenerated)
}
