package service

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

func recruitingCampaign(maxRecruits int64) model.Campaign {
	campaign := testCampaign(1)
	campaign.RecruitmentEnabled = true
	campaign.SubAffiliateCommissionPercent = 10
	campaign.MaxSubAffiliatesPerAffiliate = maxRecruits
	return campaign
}

func lockedAffiliateRow(id uint64, totalRecruits int64) *sqlmock.Rows {
	return sqlmock.NewRows(affiliateColumns()).
		AddRow(id, "usr_owner", 1, "AB12CD34", model.AffiliateStatusApproved,
			0, 0, 0, 0, 0, 0, 0, nil, totalRecruits, 0)
}

func TestTrackRecruitmentClick(t *testing.T) {
	Convey("Given a click on a recruitment link", t, func() {
		srv, mock := setupService()

		Convey("A campaign without recruitment should decline silently", func() {
			seedCampaigns(testCampaign(1))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))

			referral, err := srv.TrackRecruitmentClick("RC12")
			So(err, ShouldBeNil)
			So(referral, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A recruiter at the cap should not admit more clicks", func() {
			seedCampaigns(recruitingCampaign(2))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates" WHERE id = $1 FOR UPDATE`)).
				WillReturnRows(lockedAffiliateRow(5, 2))
			mock.ExpectCommit()

			referral, err := srv.TrackRecruitmentClick("RC12")
			So(err, ShouldBeNil)
			So(referral, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A recruiter under the cap should mint a recruitment token", func() {
			seedCampaigns(recruitingCampaign(2))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates" WHERE id = $1 FOR UPDATE`)).
				WillReturnRows(lockedAffiliateRow(5, 1))
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "recruitment_referrals"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20))
			mock.ExpectCommit()

			referral, err := srv.TrackRecruitmentClick("RC12")
			So(err, ShouldBeNil)
			So(referral, ShouldNotBeNil)
			So(referral.AffiliateID, ShouldEqual, 5)
			So(referral.Status, ShouldEqual, model.RecruitmentStatusClicked)
			So(referral.Token, ShouldNotBeEmpty)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
