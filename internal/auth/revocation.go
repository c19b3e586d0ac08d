package auth

// Cache is the subset of pkg/cache the revocation store needs. Entries expire
// with the cache's TTL, which should cover the maximum token lifetime.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type cacheRevocations struct {
	cache Cache
}

// NewCacheRevocations builds a RevocationStore on a TTL cache. In a
// multi-instance deployment the cache is the shared tier (the interface fits
// a redis client as well as the in-process LRU used here).
func NewCacheRevocations(cache Cache) *cacheRevocations {
	return &cacheRevocations{cache: cache}
}

func (r *cacheRevocations) Revoke(tokenID string) {
	r.cache.Set(tokenID, []byte{1})
}

func (r *cacheRevocations) IsRevoked(tokenID string) bool {
	_, ok := r.cache.Get(tokenID)
	return ok
}
