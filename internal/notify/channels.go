package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/aquaguard/water-quality-worker/internal/config"
	"github.com/aquaguard/water-quality-worker/internal/db"
	"github.com/aquaguard/water-quality-worker/internal/mq"
	"go.uber.org/zap"
)

// SMSNotifier posts alerts to an SMS gateway. A missing API key or
// gateway URL disables delivery without failing dispatch.
type SMSNotifier struct {
	apiKey     string
	gatewayURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewSMSNotifier creates the SMS channel from configuration
func NewSMSNotifier(cfg config.NotifyConfig, logger *zap.Logger) *SMSNotifier {
	return &SMSNotifier{
		apiKey:     cfg.SMSAPIKey,
		gatewayURL: cfg.SMSGatewayURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

func (n *SMSNotifier) Name() string {
	return db.ChannelSMS
}

func (n *SMSNotifier) Notify(ctx context.Context, alert *db.Alert) error {
	if n.apiKey == "" || n.gatewayURL == "" {
		n.logger.Debug("sms channel not configured, skipping delivery")
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"message":   alert.Message,
		"severity":  alert.Severity,
		"sensor_id": alert.SensorID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	n.logger.Info("sms alert sent",
		zap.String("sensor_id", alert.SensorID),
		zap.String("alert_type", alert.AlertType),
	)
	return nil
}

// EmailNotifier sends alerts over SMTP. A missing host or recipient
// disables delivery without failing dispatch.
type EmailNotifier struct {
	host   string
	port   int
	from   string
	to     string
	logger *zap.Logger
}

// NewEmailNotifier creates the email channel from configuration
func NewEmailNotifier(cfg config.NotifyConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		from:   cfg.SMTPFrom,
		to:     cfg.AlertEmail,
		logger: logger,
	}
}

func (n *EmailNotifier) Name() string {
	return db.ChannelEmail
}

func (n *EmailNotifier) Notify(ctx context.Context, alert *db.Alert) error {
	if n.host == "" || n.to == "" {
		n.logger.Debug("email channel not configured, skipping delivery")
		return nil
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: [%s] Water quality alert: %s\r\n\r\n%s\r\n\r\nSensor: %s\r\nRaised at: %s\r\n",
		n.from, n.to, alert.Severity, alert.AlertType,
		alert.Message, alert.SensorID, alert.CreatedAt.Format(time.RFC3339),
	)

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := smtp.SendMail(addr, nil, n.from, []string{n.to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	n.logger.Info("email alert sent",
		zap.String("sensor_id", alert.SensorID),
		zap.String("alert_type", alert.AlertType),
	)
	return nil
}

// PushNotifier publishes alerts to the event exchange so subscribed
// dashboards receive them in real time.
type PushNotifier struct {
	publisher  *mq.Publisher
	routingKey string
	logger     *zap.Logger
}

// NewPushNotifier creates the push channel over the event publisher
func NewPushNotifier(publisher *mq.Publisher, routingKey string, logger *zap.Logger) *PushNotifier {
	return &PushNotifier{
		publisher:  publisher,
		routingKey: routingKey,
		logger:     logger,
	}
}

func (n *PushNotifier) Name() string {
	return db.ChannelPush
}

func (n *PushNotifier) Notify(ctx context.Context, alert *db.Alert) error {
	event := mq.AlertRaisedEvent{
		AlertID:   alert.ID,
		SensorID:  alert.SensorID,
		AlertType: alert.AlertType,
		Severity:  alert.Severity,
		Message:   alert.Message,
		ReadingID: alert.ReadingID,
		CreatedAt: alert.CreatedAt.Format(time.RFC3339),
	}
	return n.publisher.PublishAlertRaised(ctx, event, n.routingKey)
}
