package ports

import "context"

// Contract for caching a shop's stored records between requests.
type SnapshotCache interface {
	// Return cached records; ok is false on a cache miss.
	Get(ctx context.Context, shop string) (ShopRecords, bool, error)
	Put(ctx context.Context, shop string, records ShopRecords) error
}
