package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/cloverpay-platform/affiliate_api/service"
)

// RegisterAffiliate creates a pending affiliate account for the
// authenticated user
func (actions *Actions) RegisterAffiliate(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Missing user identity")
		return
	}
	var request struct {
		CampaignID       *uint64 `json:"campaign_id"`
		Code             *string `json:"code"`
		RecruitmentToken *string `json:"recruitment_token"`
	}
	if err := c.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		abortWithError(c, http.StatusBadRequest, "Invalid registration payload")
		return
	}

	affiliate, err := actions.service.RegisterAffiliate(service.RegisterAffiliateRequest{
		UserID:           userID,
		CampaignID:       request.CampaignID,
		Code:             request.Code,
		RecruitmentToken: request.RecruitmentToken,
	})
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to register the affiliate")
		return
	}
	c.JSON(http.StatusOK, affiliate)
}

// GetAffiliateStats returns the dashboard counters for an affiliate
func (actions *Actions) GetAffiliateStats(c *gin.Context) {
	affiliateID, ok := getParamAsUint64(c, "affiliate_id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid affiliate id")
		return
	}
	stats, err := actions.service.GetAffiliateStats(affiliateID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to load affiliate stats")
		return
	}
	if stats == nil {
		abortWithError(c, http.StatusNotFound, "Affiliate not found")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAffiliateCommissions returns one page of the affiliate's commission history
func (actions *Actions) GetAffiliateCommissions(c *gin.Context) {
	affiliateID, ok := getParamAsUint64(c, "affiliate_id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid affiliate id")
		return
	}
	page, limit := getPagination(c)
	list, err := actions.service.GetAffiliateCommissions(affiliateID, page, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to load commissions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAffiliateReferrals returns one page of the affiliate's referral funnel
func (actions *Actions) GetAffiliateReferrals(c *gin.Context) {
	affiliateID, ok := getParamAsUint64(c, "affiliate_id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid affiliate id")
		return
	}
	page, limit := getPagination(c)
	list, err := actions.service.GetAffiliateReferrals(affiliateID, page, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to load referrals")
		return
	}
	c.JSON(http.StatusOK, list)
}

// ApproveAffiliate moves an affiliate into the approved state
func (actions *Actions) ApproveAffiliate(c *gin.Context) {
	actions.updateAffiliateStatus(c, actions.service.ApproveAffiliate)
}

// RejectAffiliate declines a pending application
func (actions *Actions) RejectAffiliate(c *gin.Context) {
	actions.updateAffiliateStatus(c, actions.service.RejectAffiliate)
}

// SuspendAffiliate blocks an approved affiliate
func (actions *Actions) SuspendAffiliate(c *gin.Context) {
	actions.updateAffiliateStatus(c, actions.service.SuspendAffiliate)
}

func (actions *Actions) updateAffiliateStatus(c *gin.Context, transition func(uint64) error) {
	affiliateID, ok := getParamAsUint64(c, "affiliate_id")
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid affiliate id")
		return
	}
	if err := transition(affiliateID); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
