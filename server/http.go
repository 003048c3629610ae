package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/actions"
	"gitlab.com/cloverpay-platform/affiliate_api/logger"
)

func (srv *server) ListenToRequests() {
	log.Info().Str("worker", "http_listen_to_requests").Str("action", "start").Msg("HTTP Listen to requests - started")
	defer log.Info().Str("worker", "http_listen_to_requests").Str("action", "stop").Msg("HTTP Listen to requests - stopped")

	a := srv.actions

	r := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "X-Requested-With", "Content-Length", "Content-Type", "Accept", "X-Api-Key", "Authorization", "X-User-Id"}
	corsConfig.AllowMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "OPTIONS"}

	r.Use(cors.New(corsConfig))
	r.Use(gin.Recovery())
	r.Use(logger.SetLogger())

	r.GET("/ping", actions.Ping)

	// public tracking surface
	track := r.Group("/track")
	{
		track.GET("/click/:code", a.TrackClick)
		track.POST("/signup", a.AttributeSignup)
		track.GET("/discount", a.GetRefereeDiscount)
		track.GET("/recruitment/:code", a.TrackRecruitmentClick)
	}

	// affiliate accounts
	affiliates := r.Group("/affiliates")
	{
		affiliates.POST("", a.RegisterAffiliate)
		affiliates.GET("/:affiliate_id/stats", a.GetAffiliateStats)
		affiliates.GET("/:affiliate_id/commissions", a.GetAffiliateCommissions)
		affiliates.GET("/:affiliate_id/referrals", a.GetAffiliateReferrals)
	}

	// administrative surface
	admin := r.Group("/admin")
	{
		admin.PUT("/affiliates/:affiliate_id/approve", a.ApproveAffiliate)
		admin.PUT("/affiliates/:affiliate_id/reject", a.RejectAffiliate)
		admin.PUT("/affiliates/:affiliate_id/suspend", a.SuspendAffiliate)
		admin.POST("/referrals/expire", a.ExpireReferrals)
	}

	// payment processor events
	r.POST("/webhooks/stripe", a.StripeWebhook)

	srv.HTTP = &http.Server{
		Addr:    fmt.Sprintf(":%d", srv.config.Server.API.Port),
		Handler: r,
	}

	srv.HTTP.SetKeepAlivesEnabled(srv.config.Server.API.KeepAlive)

	port := srv.config.Server.API.Port
	if err := srv.HTTP.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			log.Error().Err(err).Str("section", "server").Str("action", "ListenToRequests").Msgf("Unable to listen %d port", port)
		}
	}
}
