// Package processor handles incoming catalog-change messages. When a tenant's
// POS catalog changes upstream, the cached matchers for that tenant are stale
// and get invalidated; the next match builds fresh.
package processor

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/kafka"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/registry"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/tracing"
)

// Processor routes catalog-change messages to matcher invalidation
type Processor struct {
	logger   ectologger.Logger
	registry *registry.Registry
}

// NewProcessor creates a new message processor
func NewProcessor(logger ectologger.Logger, reg *registry.Registry) *Processor {
	return &Processor{
		logger:   logger,
		registry: reg,
	}
}

// ProcessMessage handles a single incoming message. Unknown message types are
// skipped and committed; a message without a tenant id is an error so it gets
// retried rather than dropped.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	if !msg.IsCatalogChanged() {
		log.Debug("Skipping unrecognized message")
		return nil
	}

	changed, err := msg.ParseCatalogChanged()
	if err != nil {
		log.WithError(err).Error("Failed to parse catalog.changed message")
		return nil
	}
	if changed.TenantID == "" {
		return fmt.Errorf("catalog.changed message without tenant_id")
	}

	p.registry.Invalidate(changed.TenantID)
	log.WithFields(map[string]any{"tenant_id": changed.TenantID}).Info("Invalidated matchers after upstream catalog change")
	return nil
}
