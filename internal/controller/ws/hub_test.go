package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type wsEvent struct {
	Type       string                 `json:"type"`
	SessionID  string                 `json:"session_id"`
	SensorType string                 `json:"sensor_type"`
	Message    string                 `json:"message"`
	Alert      *entity.Alert          `json:"alert"`
	Data       []entity.SensorReading `json:"data"`
}

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop().Sugar())
	r := gin.New()
	r.GET("/ws", hub.Handle)
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return hub, conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var event wsEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func subscribe(t *testing.T, conn *websocket.Conn, sensorType string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":      "subscribe",
		"sensor_type": sensorType,
	}))
	ack := readEvent(t, conn)
	require.Equal(t, "subscribed", ack.Type)
	require.Equal(t, sensorType, ack.SensorType)
}

func TestHub_SessionCreatedOnConnect(t *testing.T) {
	_, conn, done := dialTestHub(t)
	defer done()

	event := readEvent(t, conn)
	assert.Equal(t, "session_created", event.Type)
	assert.NotEmpty(t, event.SessionID)
}

func TestHub_AlertReachesEverySession(t *testing.T) {
	hub, conn, done := dialTestHub(t)
	defer done()

	readEvent(t, conn) // session_created
	subscribe(t, conn, entity.SensorTypeWarehouse)

	// alert from a different plant area still arrives
	hub.BroadcastAlert(entity.Alert{
		SensorType: entity.SensorTypeProductionLine,
		AlertType:  entity.AlertTypeThreshold,
		Message:    "Температура превышает максимальный порог",
	})

	event := readEvent(t, conn)
	require.Equal(t, "alert", event.Type)
	require.NotNil(t, event.Alert)
	assert.Equal(t, entity.SensorTypeProductionLine, event.Alert.SensorType)
}

func TestHub_SensorDataFollowsSubscription(t *testing.T) {
	hub, conn, done := dialTestHub(t)
	defer done()

	readEvent(t, conn) // session_created
	subscribe(t, conn, entity.SensorTypeWarehouse)

	// filtered out: not the subscribed type
	hub.BroadcastSensorData(entity.SensorTypeProductionLine, []entity.SensorReading{
		{SensorID: "pl_temp_001", Parameter: "temperature", Value: 75},
	})
	hub.BroadcastSensorData(entity.SensorTypeWarehouse, []entity.SensorReading{
		{SensorID: "wh_temp_001", Parameter: "temperature", Value: 18},
	})

	event := readEvent(t, conn)
	require.Equal(t, "sensor_data", event.Type)
	assert.Equal(t, entity.SensorTypeWarehouse, event.SensorType)
	require.Len(t, event.Data, 1)
	assert.Equal(t, "wh_temp_001", event.Data[0].SensorID)
}

func TestHub_UnsubscribedSessionGetsEverything(t *testing.T) {
	hub, conn, done := dialTestHub(t)
	defer done()

	readEvent(t, conn) // session_created

	// the hub needs the session registered before the broadcast; the
	// session_created read above guarantees that.
	hub.BroadcastSensorData(entity.SensorTypeRawMaterial, []entity.SensorReading{
		{SensorID: "rm_temp_001", Parameter: "temperature", Value: 20},
	})

	event := readEvent(t, conn)
	assert.Equal(t, "sensor_data", event.Type)
	assert.Equal(t, entity.SensorTypeRawMaterial, event.SensorType)
}

func TestHub_SubscribeUnknownTypeRejected(t *testing.T) {
	_, conn, done := dialTestHub(t)
	defer done()

	readEvent(t, conn) // session_created
	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":      "subscribe",
		"sensor_type": "spaceship",
	}))

	event := readEvent(t, conn)
	assert.Equal(t, "error", event.Type)
	assert.Equal(t, "неверный тип сенсора", event.Message)
}
