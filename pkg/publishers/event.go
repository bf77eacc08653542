package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/locinfo/internal/domain"
)

// Event kinds.
const (
	KindSnapshotRefreshed = "snapshot_refreshed"
	KindHeadline          = "headline"
)

// Event announces a cache refresh, or a single new headline from a news refresh.
type Event struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Domain      string          `json:"domain"`
	Key         string          `json:"key"`
	RefreshedAt time.Time       `json:"refreshed_at"`
	Headline    *domain.Article `json:"headline,omitempty"`
}

// NewRefreshEvent announces that the cache entry key of the collector domain was rewritten.
func NewRefreshEvent(collectorDomain, key string) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        KindSnapshotRefreshed,
		Domain:      collectorDomain,
		Key:         key,
		RefreshedAt: time.Now().UTC(),
	}
}

// NewHeadlineEvent announces one article found in the refreshed news entry key.
func NewHeadlineEvent(collectorDomain, key string, article domain.Article) Event {
	evt := NewRefreshEvent(collectorDomain, key)
	evt.Kind = KindHeadline
	evt.Headline = &article
	return evt
}

// attributes are the routing attributes sent alongside the JSON body.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_kind": e.Kind,
		"domain":     e.Domain,
	}
}
