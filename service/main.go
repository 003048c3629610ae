package service

import (
	"context"

	"gitlab.com/cloverpay-platform/affiliate_api/cache/campaigns"
	"gitlab.com/cloverpay-platform/affiliate_api/config"
	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/net/kafka"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
)

// Service structure
type Service struct {
	ctx       context.Context
	cfg       config.Config
	repo      *queries.Repo
	analytics *kafka.Writer
}

// NewService constructor. The analytics writer may be nil, in which case
// event reporting is disabled.
func NewService(ctx context.Context, cfg config.Config, repo *queries.Repo, analytics *kafka.Writer) *Service {
	return &Service{
		ctx:       ctx,
		cfg:       cfg,
		repo:      repo,
		analytics: analytics,
	}
}

// GetRepo exposes the repo for the crons
func (service *Service) GetRepo() *queries.Repo {
	return service.repo
}

// campaignFor resolves the campaign of an affiliate, from the in process
// cache first and the reader connection as a fallback
func (service *Service) campaignFor(affiliate *model.Affiliate) (*model.Campaign, error) {
	if campaign, ok := campaigns.Get(affiliate.CampaignID); ok {
		return campaign, nil
	}
	return queries.GetCampaignByID(service.repo.ConnReader, affiliate.CampaignID)
}

// RefreshCampaignsCache reloads the campaign cache from the database
func (service *Service) RefreshCampaignsCache() error {
	all, err := queries.GetAllCampaigns(service.repo.ConnReader)
	if err != nil {
		return err
	}
	campaigns.Set(all)
	return nil
}
