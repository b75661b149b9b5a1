// Package events publishes alert notifications to Kafka so external
// notifiers (SMS gateway, dashboard) can react without polling the API.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Alert is the JSON document emitted for every positive classification.
type Alert struct {
	ProcesoID        uint      `json:"proceso_id"`
	AlertaIA         int       `json:"alerta_ia"`
	TipoAlertaModelo string    `json:"tipo_alerta_modelo"`
	TipoEstado       string    `json:"tipo_estado"`
	MensajeLectura   string    `json:"mensaje_lectura"`
	Recomendacion    string    `json:"recomendacion"`
	DiaProceso       int       `json:"dia_proceso"`
	Temperatura      float64   `json:"temperatura_celsius"`
	Presion          float64   `json:"presion_biogas_kpa"`
	Gas              float64   `json:"mq4_ppm"`
	EmitidoEn        time.Time `json:"emitido_en"`
}

// Publisher writes alerts to a single topic. Publishing is best-effort:
// a broker outage is logged and otherwise ignored, the analyze request
// never fails because of it. A nil Publisher is valid and does nothing,
// which is how deployments without Kafka run.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher returns nil when no brokers are configured.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: 5 * time.Second,
	}
	return &Publisher{writer: w, log: log.With(slog.String("component", "alert_publisher"))}
}

// Publish emits one alert. Safe on a nil receiver.
func (p *Publisher) Publish(ctx context.Context, a Alert) {
	if p == nil {
		return
	}
	if a.EmitidoEn.IsZero() {
		a.EmitidoEn = time.Now().UTC()
	}
	payload, err := json.Marshal(a)
	if err != nil {
		p.log.Error("alert_marshal_failed", slog.Any("err", err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(a.TipoEstado),
		Value: payload,
		Time:  a.EmitidoEn,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("alert_publish_failed", slog.Any("err", err), slog.Int("proceso_id", int(a.ProcesoID)))
		return
	}
	p.log.Info("alert_published", slog.String("tipo", a.TipoEstado), slog.Int("dia", a.DiaProceso))
}

// Close releases the Kafka writer. Safe on a nil receiver.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
