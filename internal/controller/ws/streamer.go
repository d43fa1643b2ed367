package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Requiemgoi/integrity-os/internal/domain/entity"
)

type simulator interface {
	SimulateAndStore(ctx context.Context, sensorType string) ([]entity.SensorReading, error)
}

type alertProcessor interface {
	ProcessReading(ctx context.Context, r entity.SensorReading) ([]entity.Alert, error)
}

type broadcaster interface {
	BroadcastSensorData(sensorType string, readings []entity.SensorReading)
}

// Streamer drives the live feed: on every tick it generates a round of
// readings per sensor type, runs alert checks and pushes the readings to
// connected sessions. Alerts reach the sessions through the message bus,
// not from here.
type Streamer struct {
	sim      simulator
	alerts   alertProcessor
	hub      broadcaster
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewStreamer(sim simulator, alerts alertProcessor, hub broadcaster, interval time.Duration, log *zap.SugaredLogger) *Streamer {
	return &Streamer{sim: sim, alerts: alerts, hub: hub, interval: interval, log: log}
}

func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("streamer shutting down")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Streamer) tick(ctx context.Context) {
	for _, sensorType := range entity.SensorTypes() {
		readings, err := s.sim.SimulateAndStore(ctx, sensorType)
		if err != nil {
			s.log.Errorw("simulation tick failed", "sensor_type", sensorType, "error", err)
			continue
		}

		for _, r := range readings {
			if _, err := s.alerts.ProcessReading(ctx, r); err != nil {
				s.log.Errorw("alert processing failed", "sensor_id", r.SensorID, "error", err)
			}
		}

		s.hub.BroadcastSensorData(sensorType, readings)
	}
}
