package crons

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/service"
)

// CronExpireReferrals sweeps one batch of stale unconverted referrals
func CronExpireReferrals(srv *service.Service) {
	expired, err := srv.ExpireStaleReferrals()
	if err != nil {
		log.Error().Err(err).Msg("Unable to expire stale referrals")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Str("cron", "expire_referrals").Msg("Expired stale referrals")
	}
}
