package actions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
)

// TrackClick records a referral click for an affiliate code and returns the
// minted referral token. Unknown or inactive codes get an empty 200 so the
// public endpoint never leaks which codes exist.
func (actions *Actions) TrackClick(c *gin.Context) {
	code := c.Param("code")
	landingPage := c.Query("landing_page")
	var subID *string
	if value := c.Query("sub_id"); value != "" {
		subID = &value
	}

	referral, err := actions.service.TrackClick(code, landingPage, subID)
	if err != nil {
		monitor.ReferralClicks.WithLabelValues("error").Inc()
		abortWithError(c, http.StatusInternalServerError, "Unable to track the click")
		return
	}
	if referral == nil {
		c.JSON(http.StatusOK, gin.H{"tracked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracked":    true,
		"token":      referral.Token,
		"expires_at": referral.ExpiresAt,
	})
}

// AttributeSignup binds a signup to a referral, by token when the visitor
// still carries one, by affiliate code otherwise
func (actions *Actions) AttributeSignup(c *gin.Context) {
	var request struct {
		UserID        string `json:"user_id" binding:"required"`
		ReferralToken string `json:"referral_token"`
		AffiliateCode string `json:"affiliate_code"`
		LandingPage   string `json:"landing_page"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid signup payload")
		return
	}

	var err error
	var referral *model.Referral
	switch {
	case request.ReferralToken != "":
		referral, err = actions.service.AttributeSignup(request.ReferralToken, request.UserID)
	case request.AffiliateCode != "":
		referral, err = actions.service.AttributeSignupByCode(request.AffiliateCode, request.UserID, request.LandingPage)
	default:
		abortWithError(c, http.StatusBadRequest, "Either referral_token or affiliate_code is required")
		return
	}
	if err != nil {
		monitor.ReferralSignups.WithLabelValues("error").Inc()
		abortWithError(c, http.StatusInternalServerError, "Unable to attribute the signup")
		return
	}
	if referral == nil {
		c.JSON(http.StatusOK, gin.H{"attributed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attributed": true, "referral": referral})
}

// GetRefereeDiscount answers whether the caller is entitled to a referred
// customer discount
func (actions *Actions) GetRefereeDiscount(c *gin.Context) {
	var token, userID, code *string
	if value := c.Query("referral_token"); value != "" {
		token = &value
	}
	if value := c.Query("user_id"); value != "" {
		userID = &value
	}
	if value := c.Query("affiliate_code"); value != "" {
		code = &value
	}

	discount, err := actions.service.GetRefereeDiscount(token, userID, code)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to resolve the discount")
		return
	}
	if discount == nil {
		c.JSON(http.StatusOK, gin.H{"eligible": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": true, "discount": discount})
}

// TrackRecruitmentClick records a click on a sub affiliate recruitment link
func (actions *Actions) TrackRecruitmentClick(c *gin.Context) {
	referral, err := actions.service.TrackRecruitmentClick(c.Param("code"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to track the recruitment click")
		return
	}
	if referral == nil {
		c.JSON(http.StatusOK, gin.H{"tracked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracked":    true,
		"token":      referral.Token,
		"expires_at": referral.ExpiresAt,
	})
}

// ExpireReferrals sweeps one batch of stale referrals on demand
func (actions *Actions) ExpireReferrals(c *gin.Context) {
	expired, err := actions.service.ExpireStaleReferrals()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Unable to expire referrals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
