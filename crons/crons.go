package crons

import (
	"github.com/robfig/cron"

	"gitlab.com/cloverpay-platform/affiliate_api/config"
	"gitlab.com/cloverpay-platform/affiliate_api/service"
)

var cronService *cron.Cron

// Start initiates the crons based on the given configuration file
func Start(crons config.Crons, srv *service.Service) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, srv)
		_ = cronService.AddFunc(schedule, callback)
		// the campaigns cache has to be warm before the first request
		if id == "update_campaigns_cache" {
			callback()
		}
	}
	cronService.Start()
}

// GetCronByID get a function to execute based on the id
func GetCronByID(id string, srv *service.Service) func() {
	switch id {
	case "update_campaigns_cache":
		return func() {
			CronUpdateCampaignsCache(srv)
		}
	case "expire_referrals":
		return func() {
			CronExpireReferrals(srv)
		}
	}
	return (func() {})
}

// Close godoc
func Close() {
	cronService.Stop()
}
