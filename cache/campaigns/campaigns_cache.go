package campaigns

import (
	"sync"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

type Cache struct {
	campaigns struct {
		byID      map[uint64]*model.Campaign
		defaultID uint64
		lock      *sync.RWMutex
	}
}

var cache *Cache

func init() {
	cache = &Cache{
		campaigns: struct {
			byID      map[uint64]*model.Campaign
			defaultID uint64
			lock      *sync.RWMutex
		}{byID: make(map[uint64]*model.Campaign), lock: &sync.RWMutex{}},
	}
}

// Set replaces the cached campaign set. Called by the refresh cron and once
// at startup.
func Set(campaigns []model.Campaign) {
	byID := make(map[uint64]*model.Campaign, len(campaigns))
	var defaultID uint64
	for i := range campaigns {
		campaign := campaigns[i]
		byID[campaign.ID] = &campaign
		if campaign.IsDefault {
			defaultID = campaign.ID
		}
	}
	cache.campaigns.lock.Lock()
	defer cache.campaigns.lock.Unlock()
	cache.campaigns.byID = byID
	cache.campaigns.defaultID = defaultID
}

// Get returns the cached campaign with the given id
func Get(id uint64) (*model.Campaign, bool) {
	cache.campaigns.lock.RLock()
	defer cache.campaigns.lock.RUnlock()
	campaign, ok := cache.campaigns.byID[id]
	return campaign, ok
}

// GetDefault returns the cached default campaign
func GetDefault() (*model.Campaign, bool) {
	cache.campaigns.lock.RLock()
	defer cache.campaigns.lock.RUnlock()
	campaign, ok := cache.campaigns.byID[cache.campaigns.defaultID]
	return campaign, ok
}
