package cache

import (
	"context"
	"log"
)

// ChannelJobsIngested is published by the ingestion pipeline after every
// bulk ingest or embedding-regeneration run.
const ChannelJobsIngested = "EVENT_JOBS_INGESTED"

// ListenIngestionEvents blocks on the ingestion event channel and clears the
// whole cache on every message. Any change to the posting pool can change
// any cached ranking, so there is no finer-grained invalidation.
// Returns when ctx is cancelled.
func (c *MatchCache) ListenIngestionEvents(ctx context.Context) {
	sub := c.rdb.Subscribe(ctx, ChannelJobsIngested)
	defer sub.Close()

	log.Printf("[cache] Listening for %s events", ChannelJobsIngested)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			deleted, err := c.InvalidateAll(ctx)
			if err != nil {
				log.Printf("[cache] Invalidation after %s failed: %v", msg.Channel, err)
				continue
			}
			log.Printf("[cache] Ingestion event received — invalidated %d cached ranking(s)", deleted)
		}
	}
}
