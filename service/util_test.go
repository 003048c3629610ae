package service

import (
	"context"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/cloverpay-platform/affiliate_api/cache/campaigns"
	"gitlab.com/cloverpay-platform/affiliate_api/config"
	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

func setupDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatal().Msgf("can't create sqlmock: %s", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "postgres-mock",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatal().Msgf("can't open gorm connection: %s", err)
	}
	return gormDB, mock
}

func setupRepo() (*queries.Repo, sqlmock.Sqlmock) {
	db, mock := setupDB()
	return &queries.Repo{
		Conn:            db,
		ConnReader:      db,
		ConnReaderAdmin: db,
	}, mock
}

func setupService() (*Service, sqlmock.Sqlmock) {
	repo, mock := setupRepo()
	cfg := config.Config{
		Engine: config.EngineConfig{ExpireBatchSize: 1000},
	}
	return NewService(context.TODO(), cfg, repo, nil), mock
}

// seedCampaigns loads the in process campaign cache so the service never
// falls back to the reader connection for campaign lookups
func seedCampaigns(list ...model.Campaign) {
	campaigns.Set(list)
}

func testCampaign(id uint64) model.Campaign {
	return model.Campaign{
		ID:                 id,
		Name:               "standard",
		CommissionType:     model.CommissionType_Percentage,
		CommissionValue:    20,
		DurationMode:       model.CommissionDurationMode_Lifetime,
		CookieDurationDays: 30,
		PayoutTermDays:     30,
		Active:             true,
		IsDefault:          true,
	}
}

func affiliateColumns() []string {
	return []string{
		"id", "user_id", "campaign_id", "code", "status",
		"total_clicks", "total_signups", "total_conversions",
		"total_revenue_cents", "total_commissions_cents",
		"pending_commissions_cents", "paid_commissions_cents",
		"referred_by_affiliate_id", "total_recruits", "active_recruits",
	}
}

func affiliateRow(id uint64, userID string, status model.AffiliateStatus) *sqlmock.Rows {
	return sqlmock.NewRows(affiliateColumns()).
		AddRow(id, userID, 1, "AB12CD34", status, 0, 0, 0, 0, 0, 0, 0, nil, 0, 0)
}

func referralColumns() []string {
	return []string{
		"id", "token", "affiliate_id", "status", "user_id",
		"payment_customer_id", "clicked_at", "expires_at",
	}
}

func emptyRows(columns []string) *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

func future() time.Time {
	return time.Now().Add(24 * time.Hour)
}

func past() time.Time {
	return time.Now().Add(-24 * time.Hour)
}
