package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/locinfo/internal/cache"
	"github.com/samvad-hq/locinfo/pkg/publishers"
)

func TestAnnouncerPublishesNewHeadlinesOnce(t *testing.T) {
	env := newTestEnv(t)
	pub := &recordingPublisher{}
	tracker := newMemTracker()
	env.deps.Announcer = NewAnnouncer(pub, tracker, nil)
	env.seed(t, countryKey, balticDoc, 0)
	n := newNews(t, env, newFakeSource().set("lv", latviaNewsDoc))

	if err := n.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	env.backdate(t, cache.Key(DomainNews, "latvia_lv"), 2*time.Hour)
	if err := n.Collect(context.Background()); err != nil {
		t.Fatalf("second Collect: %v", err)
	}

	kinds := pub.kinds()
	if kinds[publishers.KindSnapshotRefreshed] != 2 {
		t.Fatalf("expected 2 refresh events, got %v", kinds)
	}
	if kinds[publishers.KindHeadline] != 2 {
		t.Fatalf("headlines must be announced once, got %v", kinds)
	}
	for _, evt := range pub.events {
		if evt.Domain != DomainNews || evt.Key != "news/latvia_lv" || evt.ID == "" {
			t.Fatalf("unexpected event %#v", evt)
		}
	}
}

func TestAnnouncerFailureDoesNotAffectCaching(t *testing.T) {
	env := newTestEnv(t)
	pub := &recordingPublisher{err: errors.New("sink offline")}
	tracker := newMemTracker()
	env.deps.Announcer = NewAnnouncer(pub, tracker, nil)
	env.seed(t, countryKey, balticDoc, 0)
	n := newNews(t, env, newFakeSource().set("lv", latviaNewsDoc))

	if err := n.Collect(context.Background()); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !env.exists(cache.Key(DomainNews, "latvia_lv")) {
		t.Fatalf("snapshot must be cached even when announcing fails")
	}
	if len(tracker.seen) != 0 {
		t.Fatalf("undelivered headlines must not be marked")
	}
}

func TestNilAnnouncerIsInert(t *testing.T) {
	var a *Announcer
	a.Refreshed(context.Background(), DomainNews, "news/latvia_lv", []byte(latviaNewsDoc))
	if NewAnnouncer(nil, nil, nil) != nil {
		t.Fatalf("announcer without publisher must be nil")
	}
}
