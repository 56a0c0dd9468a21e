package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
)

const auditEventSource = "cdm.workspace"

// EventBridgeAuditLog publishes audit events to an EventBridge bus while
// delegating storage and reads to an inner audit log. A publish failure is
// logged but does not fail the append; the inner log stays authoritative.
type EventBridgeAuditLog struct {
	inner   ports.AuditLog
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewEventBridgeAuditLog wraps inner with EventBridge publication
func NewEventBridgeAuditLog(inner ports.AuditLog, client *eventbridge.Client, busName string, logger *zap.Logger) *EventBridgeAuditLog {
	return &EventBridgeAuditLog{inner: inner, client: client, busName: busName, logger: logger}
}

// Append stores the event and publishes it on the bus
func (l *EventBridgeAuditLog) Append(ctx context.Context, event ports.AuditEvent) error {
	if err := l.inner.Append(ctx, event); err != nil {
		return err
	}
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event %s: %w", event.ID, err)
	}
	_, err = l.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(l.busName),
			Source:       aws.String(auditEventSource),
			DetailType:   aws.String("workspace." + event.Action),
			Detail:       aws.String(string(detail)),
		}},
	})
	if err != nil {
		l.logger.Warn("eventbridge publish failed",
			zap.String("eventId", event.ID),
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
	return nil
}

// Events serves the stored audit events
func (l *EventBridgeAuditLog) Events(ctx context.Context) ([]ports.AuditEvent, error) {
	return l.inner.Events(ctx)
}
