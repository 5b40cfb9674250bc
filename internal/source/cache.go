package source

import (
	"encoding/json"
	"time"

	"github.com/coocood/freecache"

	"fundwatch/internal/models"
)

const resolveCacheKey = "source:resolve"

// Cache keeps the last successful tier result for a short TTL so read
// endpoints do not hammer the upstream indexer. Entries hold the fetched
// (pre-merge) records; ingested state is overlaid fresh on every read.
type Cache struct {
	cache *freecache.Cache
	ttl   int
}

func NewCache(maxMB int, ttl time.Duration) *Cache {
	if maxMB <= 0 {
		maxMB = 32
	}
	seconds := int(ttl.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	return &Cache{
		cache: freecache.NewCache(maxMB * 1024 * 1024),
		ttl:   seconds,
	}
}

func (c *Cache) GetCampaigns(key string) ([]models.Campaign, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	var items []models.Campaign
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Cache) SetCampaigns(key string, items []models.Campaign) {
	if c == nil || c.cache == nil || len(items) == 0 {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = c.cache.Set([]byte(key), raw, c.ttl)
}
