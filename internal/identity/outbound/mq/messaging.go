package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/messaging"
	"github.com/shandysiswandi/mfacore/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishMFAStatusChanged keys the message by user so brokers that order
// per key deliver enable and disable in sequence.
func (m *Messaging) PublishMFAStatusChanged(ctx context.Context, change entity.StatusChange) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishMFAStatusChanged")
	defer span.End()

	body, err := json.Marshal(event.MFAStatusChangedMessage{
		UserID:     change.UserID,
		Method:     change.Method.String(),
		Enabled:    change.Enabled,
		OccurredAt: change.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.MFAStatusChangedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(change.UserID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
