// Package alert publishes SMS alert requests for external delivery. The
// advisory core only decides whether to alert; an external gateway service
// consumes the topic and talks to the SMS provider.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/agrowatch/pest-advisory-service/internal/config"
	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// Publisher produces SMS alert requests to the alert topic.
// It implements advisor.NotificationSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured alert topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// smsAlert is the message contract with the SMS gateway consumer.
type smsAlert struct {
	Phone       string    `json:"phone"`
	Crop        string    `json:"crop"`
	District    string    `json:"district"`
	Taluka      string    `json:"taluka"`
	Village     string    `json:"village"`
	Probability float64   `json:"probability"`
	Message     string    `json:"message"`
	AssessedAt  time.Time `json:"assessed_at"`
}

// Notify serializes and publishes one alert request.
func (p *Publisher) Notify(ctx context.Context, phone string, crop domain.Crop, loc domain.Location, assessment domain.RiskAssessment) error {
	msg, err := serializeAlert(phone, crop, loc, assessment)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals an alert into a Kafka message. The key is the
// village path so alerts for one village stay ordered on one partition.
func serializeAlert(phone string, crop domain.Crop, loc domain.Location, assessment domain.RiskAssessment) (kafkago.Message, error) {
	alert := smsAlert{
		Phone:       phone,
		Crop:        string(crop),
		District:    loc.District,
		Taluka:      loc.Taluka,
		Village:     loc.Village,
		Probability: assessment.Probability,
		Message:     assessment.Advisory.Headline,
		AssessedAt:  assessment.AssessedAt,
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sms alert: %w", err)
	}

	key := fmt.Sprintf("%s|%s|%s", loc.District, loc.Taluka, loc.Village)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "crop", Value: []byte(crop)},
			{Key: "verdict", Value: []byte(assessment.Verdict)},
			{Key: "assessed_at", Value: []byte(assessment.AssessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// LogSink records the alert decision without delivering anything. Used when
// Kafka publishing is disabled.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that only logs.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, phone string, crop domain.Crop, loc domain.Location, assessment domain.RiskAssessment) error {
	s.logger.Info("sms alert acknowledged (publishing disabled)",
		"phone", maskPhone(phone),
		"crop", crop,
		"village", loc.Village,
		"probability", assessment.Probability,
	)
	return nil
}

// maskPhone keeps only the trailing digits out of logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "******" + phone[len(phone)-4:]
}
