package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	WorkKeyPrefix       = "work:%d"
	CollectionKeyPrefix = "collection:%s"
	FeedKey             = "feed"
	SignatureKey        = "site:signature"
)

const (
	WorkTTL       = 30 * time.Minute
	CollectionTTL = 10 * time.Minute
	FeedTTL       = 2 * time.Minute
	SignatureTTL  = 10 * time.Minute
)

func WorkKey(workID uint) string {
	return fmt.Sprintf(WorkKeyPrefix, workID)
}

func CollectionKey(collectionID string) string {
	return fmt.Sprintf(CollectionKeyPrefix, collectionID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateWork drops the cached detail view plus the derived views that
// embed the work. Collection membership may have changed, so the collection
// key is dropped too when one is supplied.
func InvalidateWork(ctx context.Context, workID uint, collectionID *string) {
	Invalidate(ctx, WorkKey(workID))
	Invalidate(ctx, FeedKey)
	if collectionID != nil && *collectionID != "" {
		Invalidate(ctx, CollectionKey(*collectionID))
	}
}

func InvalidateSignature(ctx context.Context) {
	Invalidate(ctx, SignatureKey)
}
