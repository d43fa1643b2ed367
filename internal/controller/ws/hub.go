package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

const writeTimeout = 10 * time.Second

// Client is a single dashboard connection. Writes are serialized through
// mu because gorilla/websocket allows only one concurrent writer.
type Client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex

	subMu sync.RWMutex
	subs  map[string]bool
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// wants reports whether the client should receive events for sensorType.
// A client that never subscribed receives everything.
func (c *Client) wants(sensorType string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	return c.subs[sensorType]
}

func (c *Client) subscribe(sensorType string) {
	c.subMu.Lock()
	c.subs[sensorType] = true
	c.subMu.Unlock()
}

func (c *Client) unsubscribe(sensorType string) {
	c.subMu.Lock()
	delete(c.subs, sensorType)
	c.subMu.Unlock()
}

type inboundMessage struct {
	Action     string `json:"action"`
	SensorType string `json:"sensor_type"`
}

// Hub tracks live websocket sessions and fans sensor and alert events out
// to them.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

// Handle upgrades the request and services the connection until the peer
// goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		subs: make(map[string]bool),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.log.Infow("websocket session opened", "session_id", client.id)

	if err := client.send(gin.H{
		"type":       "session_created",
		"session_id": client.id,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.drop(client)
		return
	}

	h.readLoop(client)
}

func (h *Hub) readLoop(client *Client) {
	defer h.drop(client)

	for {
		var msg inboundMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnw("websocket read error", "session_id", client.id, "error", err)
			}
			return
		}

		switch msg.Action {
		case "subscribe":
			if !entity.KnownSensorType(msg.SensorType) {
				client.send(gin.H{"type": "error", "message": "неверный тип сенсора"})
				continue
			}
			client.subscribe(msg.SensorType)
			client.send(gin.H{"type": "subscribed", "sensor_type": msg.SensorType})
		case "unsubscribe":
			client.unsubscribe(msg.SensorType)
			client.send(gin.H{"type": "unsubscribed", "sensor_type": msg.SensorType})
		case "ping":
			client.send(gin.H{"type": "pong"})
		default:
			client.send(gin.H{"type": "error", "message": "неизвестное действие"})
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	client.conn.Close()
	h.log.Infow("websocket session closed", "session_id", client.id)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// BroadcastSensorData pushes one tick of readings to every session
// subscribed to the sensor type.
func (h *Hub) BroadcastSensorData(sensorType string, readings []entity.SensorReading) {
	event := gin.H{
		"type":        "sensor_data",
		"sensor_type": sensorType,
		"data":        readings,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	for _, client := range h.snapshot() {
		if !client.wants(sensorType) {
			continue
		}
		if err := client.send(event); err != nil {
			h.drop(client)
		}
	}
}

// BroadcastAlert pushes an alert event to every session. Alerts ignore
// sensor-type subscriptions: an operator watching the warehouse still has
// to hear about a production-line incident.
func (h *Hub) BroadcastAlert(alert entity.Alert) {
	event := gin.H{
		"type":      "alert",
		"alert":     alert,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for _, client := range h.snapshot() {
		if err := client.send(event); err != nil {
			h.drop(client)
		}
	}
}

// HandleAlert feeds alerts consumed from the message bus into the hub.
func (h *Hub) HandleAlert(alert entity.Alert) {
	h.BroadcastAlert(alert)
}
