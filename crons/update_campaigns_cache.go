package crons

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/service"
)

// CronUpdateCampaignsCache godoc
func CronUpdateCampaignsCache(srv *service.Service) {
	if err := srv.RefreshCampaignsCache(); err != nil {
		log.Error().Err(err).Msg("Unable to update cached campaign list")
	}
}
