package collector

import (
	"context"

	"github.com/samvad-hq/locinfo/internal/logger"
	"github.com/samvad-hq/locinfo/pkg/publishers"
)

// Announcer publishes an event for every cache refresh and, for news refreshes,
// one event per headline not announced before. Failures are logged and never
// reach the collectors. A nil *Announcer does nothing.
type Announcer struct {
	pub     EventPublisher
	tracker HeadlineTracker
	log     logger.Logger
}

// NewAnnouncer returns nil when there is nowhere to publish.
func NewAnnouncer(pub EventPublisher, tracker HeadlineTracker, log logger.Logger) *Announcer {
	if pub == nil {
		return nil
	}
	return &Announcer{pub: pub, tracker: tracker, log: logger.Ensure(log)}
}

// Refreshed announces that key of collectorDomain was rewritten with doc.
func (a *Announcer) Refreshed(ctx context.Context, collectorDomain, key string, doc []byte) {
	if a == nil {
		return
	}
	a.publish(ctx, publishers.NewRefreshEvent(collectorDomain, key))

	if collectorDomain != DomainNews {
		return
	}
	articles, err := parseArticles(doc)
	if err != nil {
		a.log.WarnObj("cannot parse refreshed headlines", "announce", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	for _, article := range articles {
		if article.URL == "" {
			continue
		}
		if a.seen(article.ID) {
			continue
		}
		if a.publish(ctx, publishers.NewHeadlineEvent(collectorDomain, key, article)) {
			a.mark(article.ID)
		}
	}
}

func (a *Announcer) publish(ctx context.Context, evt publishers.Event) bool {
	delivered, err := a.pub.Publish(ctx, evt)
	if err != nil {
		a.log.ErrorObj("announcement not delivered everywhere", "announce", map[string]any{
			"event_id":  evt.ID,
			"kind":      evt.Kind,
			"key":       evt.Key,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	return delivered > 0
}

func (a *Announcer) seen(id string) bool {
	if a.tracker == nil {
		return false
	}
	seen, err := a.tracker.SeenHeadline(id)
	if err != nil {
		a.log.WarnObj("headline tracker lookup failed", "announce", map[string]any{
			"headline_id": id,
			"error":       err.Error(),
		})
		return false
	}
	return seen
}

func (a *Announcer) mark(id string) {
	if a.tracker == nil {
		return
	}
	if err := a.tracker.MarkHeadline(id); err != nil {
		a.log.WarnObj("headline tracker update failed", "announce", map[string]any{
			"headline_id": id,
			"error":       err.Error(),
		})
	}
}
