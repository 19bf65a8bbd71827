package push

import (
	"context"
	"log/slog"
	"time"

	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/storage"
)

type loggedGateway struct {
	next    Gateway
	sink    storage.DeliveryLog
	timeout time.Duration
	log     *slog.Logger
}

// WithDeliveryLog records every send attempt. Failing to record is logged and never
// changes the result of the send. Each record outlives the caller's cancellation but
// is bounded by timeout.
func WithDeliveryLog(next Gateway, sink storage.DeliveryLog, timeout time.Duration, logger *slog.Logger) Gateway {
	if sink == nil {
		return next
	}
	return &loggedGateway{
		next:    next,
		sink:    sink,
		timeout: timeout,
		log:     logger.With("layer", "push", "component", "deliveryLog"),
	}
}

func (g *loggedGateway) Send(ctx context.Context, token string, data map[string]string, dataOnly, silent bool) (string, error) {
	id, err := g.next.Send(ctx, token, data, dataOnly, silent)

	rec := &model.DeliveryRecord{
		DeliveryID:     id,
		CustomerID:     data["customerId"],
		NotificationID: data["notificationId"],
		Channel:        data["channel"],
		Type:           data["type"],
		Status:         model.DeliverySuccess,
	}
	if err != nil {
		rec.Status = model.DeliveryFailure
		rec.Error = err.Error()
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()
	if recErr := g.sink.Record(recCtx, rec); recErr != nil {
		g.log.WarnContext(ctx, "Failed to record delivery attempt",
			slog.String("customer_id", rec.CustomerID),
			slog.Any("error", recErr),
		)
	}
	return id, err
}
