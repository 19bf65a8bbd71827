package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/metrics"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/storage"
)

// EndpointResolver finds the push token for a customer. It never fails: every outcome other
// than a usable token comes back as Found=false.
type EndpointResolver interface {
	Resolve(ctx context.Context, customerID int64) model.ResolvedEndpoint
}

type endpointResolver struct {
	store   storage.TokenStore
	timeout time.Duration
	logger  *slog.Logger
}

func NewEndpointResolver(store storage.TokenStore, timeout time.Duration, logger *slog.Logger) EndpointResolver {
	l := logger.With("layer", "service", "component", "endpointResolver")
	return &endpointResolver{store: store, timeout: timeout, logger: l}
}

func (r *endpointResolver) Resolve(ctx context.Context, customerID int64) model.ResolvedEndpoint {
	ep := r.lookup(ctx, customerID)
	metrics.EndpointResolutions.WithLabelValues(string(ep.Outcome)).Inc()
	return ep
}

func (r *endpointResolver) lookup(ctx context.Context, customerID int64) model.ResolvedEndpoint {
	ep := model.ResolvedEndpoint{CustomerID: customerID}

	// the store read is bounded on its own, independent of the dispatch deadline
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rec, err := r.store.FindEndpoint(lookupCtx, customerID)
	switch {
	case appErr.IsNotFound(err):
		ep.Outcome = model.OutcomeNotFound
		r.logger.InfoContext(ctx, "No push endpoint registered", slog.Int64("customer_id", customerID))
	case err != nil:
		ep.Outcome = model.OutcomeStoreError
		r.logger.ErrorContext(ctx, "Endpoint lookup failed, treating as no endpoint",
			slog.Int64("customer_id", customerID),
			slog.Any("error", err),
		)
	case rec == nil || rec.Token == nil || strings.TrimSpace(*rec.Token) == "":
		ep.Outcome = model.OutcomeBlankToken
		r.logger.WarnContext(ctx, "Push endpoint record has a blank token", slog.Int64("customer_id", customerID))
	default:
		ep.Token = strings.TrimSpace(*rec.Token)
		ep.Found = true
		ep.Outcome = model.OutcomeFound
		r.logger.DebugContext(ctx, "Push endpoint resolved", slog.Int64("customer_id", customerID))
	}
	return ep
}
