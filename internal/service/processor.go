package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/apperr"
	"github.com/aquaguard/water-quality-worker/internal/config"
	"github.com/aquaguard/water-quality-worker/internal/logging"
	"github.com/aquaguard/water-quality-worker/internal/mq"
	"github.com/aquaguard/water-quality-worker/internal/validator"
	"github.com/aquaguard/water-quality-worker/tools/timeparser"
	"go.uber.org/zap"
)

// IngestMessage represents the incoming message from RabbitMQ
type IngestMessage struct {
	RequestID  string    `json:"request_id"`
	DeviceID   string    `json:"device_id"`
	ReceivedAt time.Time `json:"received_at"`
	Payload    Payload   `json:"payload"`
}

// Payload carries the batch of measurements in a message
type Payload struct {
	Readings []ReadingData `json:"readings"`
}

// ReadingData is a single raw measurement as sent by the device.
// Measurement fields are pointers so absent values can take the
// documented defaults (ph 7.0, tds 0, turbidity 0).
type ReadingData struct {
	SensorID    string   `json:"sensor_id"`
	PhLevel     *float64 `json:"ph_level"`
	TdsLevel    *float64 `json:"tds_level"`
	Turbidity   *float64 `json:"turbidity"`
	Temperature *float64 `json:"temperature"`
	Timestamp   string   `json:"timestamp"`
}

const defaultPhLevel = 7.0

// ProcessorService decodes ingest messages and drives reading ingestion
type ProcessorService struct {
	readings  *ReadingService
	validator *validator.Validator
	publisher *mq.Publisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewProcessorService creates a new processor service
func NewProcessorService(
	readings *ReadingService,
	v *validator.Validator,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *ProcessorService {
	return &ProcessorService{
		readings:  readings,
		validator: v,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// ProcessMessage processes an incoming sensor reading message.
// Malformed individual readings are logged and skipped so one bad
// measurement cannot dead-letter a whole batch; store failures fail the
// message for redelivery.
func (s *ProcessorService) ProcessMessage(ctx context.Context, body []byte) error {
	var msg IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	reqLogger := logging.WithRequestID(s.logger, msg.RequestID)
	reqLogger.Info("processing message",
		zap.String("device_id", msg.DeviceID),
		zap.Int("reading_count", len(msg.Payload.Readings)),
	)

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	var accepted []mq.ReadingAcceptedEvent
	for _, data := range msg.Payload.Readings {
		event, err := s.processSingleReading(ctx, data, receivedAt, reqLogger)
		if err != nil {
			if apperr.IsValidation(err) {
				reqLogger.Warn("skipping invalid reading",
					zap.Error(err),
					zap.String("sensor_id", data.SensorID),
				)
				continue
			}
			reqLogger.Error("failed to process reading",
				zap.Error(err),
				zap.String("sensor_id", data.SensorID),
			)
			return fmt.Errorf("failed to process reading: %w", err)
		}
		accepted = append(accepted, *event)
	}

	for _, event := range accepted {
		if err := s.publisher.PublishReadingAccepted(ctx, event, s.cfg.RabbitMQ.EventRoutingKey); err != nil {
			// Log error but don't fail the entire message processing
			reqLogger.Error("failed to publish event",
				zap.Error(err),
				zap.String("sensor_id", event.SensorID),
				zap.String("reading_id", event.ReadingID),
			)
		}
	}

	reqLogger.Info("message processed successfully",
		zap.Int("readings_accepted", len(accepted)),
	)

	return nil
}

func (s *ProcessorService) processSingleReading(
	ctx context.Context,
	data ReadingData,
	receivedAt time.Time,
	logger *zap.Logger,
) (*mq.ReadingAcceptedEvent, error) {
	in := ReadingInput{
		SensorID:    data.SensorID,
		PhLevel:     defaultPhLevel,
		Temperature: data.Temperature,
	}
	if data.PhLevel != nil {
		in.PhLevel = *data.PhLevel
	}
	if data.TdsLevel != nil {
		in.TdsLevel = *data.TdsLevel
	}
	if data.Turbidity != nil {
		in.Turbidity = *data.Turbidity
	}

	if data.Timestamp != "" {
		readingTime, err := timeparser.ParseSensorTimestamp(data.Timestamp)
		if err != nil {
			logger.Warn("unparseable device timestamp, using receive time",
				zap.String("timestamp", data.Timestamp),
				zap.String("sensor_id", data.SensorID),
			)
		} else if result := s.validator.ValidateTimestamp(readingTime, receivedAt); !result.IsValid {
			logger.Warn("device timestamp rejected, using receive time",
				zap.String("reason", result.Reason),
				zap.String("sensor_id", data.SensorID),
			)
		} else {
			in.Timestamp = &readingTime
		}
	}

	reading, err := s.readings.Ingest(ctx, in)
	if err != nil {
		return nil, err
	}

	return &mq.ReadingAcceptedEvent{
		ReadingID:     reading.ID,
		SensorID:      reading.SensorID,
		PhLevel:       reading.PhLevel,
		TdsLevel:      reading.TdsLevel,
		Turbidity:     reading.Turbidity,
		QualityStatus: reading.QualityStatus,
		CreatedAt:     reading.CreatedAt.Format(time.RFC3339),
	}, nil
}
