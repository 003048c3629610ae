package service

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

func recruitmentReferralColumns() []string {
	return []string{
		"id", "affiliate_id", "token", "status",
		"recruited_affiliate_id", "clicked_at", "expires_at",
	}
}

func TestRegisterAffiliate(t *testing.T) {
	Convey("Given an affiliate registration", t, func() {
		srv, mock := setupService()
		seedCampaigns(testCampaign(1))

		Convey("A missing user id should be rejected", func() {
			affiliate, err := srv.RegisterAffiliate(RegisterAffiliateRequest{})
			So(err, ShouldNotBeNil)
			So(affiliate, ShouldBeNil)
		})

		Convey("Registering the same user twice should return the existing affiliate", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_7", model.AffiliateStatusPending))

			affiliate, err := srv.RegisterAffiliate(RegisterAffiliateRequest{UserID: "usr_7"})
			So(err, ShouldBeNil)
			So(affiliate, ShouldNotBeNil)
			So(affiliate.ID, ShouldEqual, 5)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A new registration should create a pending affiliate on the default campaign", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(emptyRows(affiliateColumns()))
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "affiliates"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
			mock.ExpectCommit()

			affiliate, err := srv.RegisterAffiliate(RegisterAffiliateRequest{UserID: "usr_7"})
			So(err, ShouldBeNil)
			So(affiliate, ShouldNotBeNil)
			So(affiliate.Status, ShouldEqual, model.AffiliateStatusPending)
			So(affiliate.CampaignID, ShouldEqual, 1)
			So(affiliate.Code, ShouldNotBeEmpty)
			So(affiliate.UserID, ShouldEqual, "usr_7")
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A valid recruitment token should attribute the new affiliate to its recruiter", func() {
			seedCampaigns(recruitingCampaign(10))
			token := "rc_token_1"

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(emptyRows(affiliateColumns()))
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "affiliates"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "recruitment_referrals"`)).
				WillReturnRows(sqlmock.NewRows(recruitmentReferralColumns()).
					AddRow(20, 5, token, model.RecruitmentStatusClicked, nil, past(), future()))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates" WHERE id = $1 FOR UPDATE`)).
				WillReturnRows(lockedAffiliateRow(5, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "recruitment_referrals"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			affiliate, err := srv.RegisterAffiliate(RegisterAffiliateRequest{
				UserID:           "usr_7",
				RecruitmentToken: &token,
			})
			So(err, ShouldBeNil)
			So(affiliate, ShouldNotBeNil)
			So(affiliate.ReferredByAffiliateID, ShouldNotBeNil)
			So(*affiliate.ReferredByAffiliateID, ShouldEqual, 5)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("An expired recruitment token should leave the registration unattributed", func() {
			seedCampaigns(recruitingCampaign(10))
			token := "rc_token_1"

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(emptyRows(affiliateColumns()))
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "affiliates"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(6))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "recruitment_referrals"`)).
				WillReturnRows(sqlmock.NewRows(recruitmentReferralColumns()).
					AddRow(20, 5, token, model.RecruitmentStatusClicked, nil, past(), past()))
			mock.ExpectCommit()

			affiliate, err := srv.RegisterAffiliate(RegisterAffiliateRequest{
				UserID:           "usr_7",
				RecruitmentToken: &token,
			})
			So(err, ShouldBeNil)
			So(affiliate, ShouldNotBeNil)
			So(affiliate.ReferredByAffiliateID, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestAffiliateStatusManagement(t *testing.T) {
	Convey("Given the affiliate management surface", t, func() {
		srv, mock := setupService()
		seedCampaigns(testCampaign(1))

		Convey("Approving a pending affiliate should succeed", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_7", model.AffiliateStatusPending))
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			err := srv.ApproveAffiliate(5)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Approving a recruited affiliate should credit the recruiter", func() {
			recruited := sqlmock.NewRows(affiliateColumns()).
				AddRow(6, "usr_7", 1, "EF56GH78", model.AffiliateStatusPending,
					0, 0, 0, 0, 0, 0, 0, 5, 0, 0)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(recruited)
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "recruitment_referrals"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			err := srv.ApproveAffiliate(6)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Rejecting an approved affiliate should fail the transition guard", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_7", model.AffiliateStatusApproved))

			err := srv.RejectAffiliate(5)
			So(err, ShouldNotBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Reinstating a suspended affiliate should not recount recruits", func() {
			suspended := sqlmock.NewRows(affiliateColumns()).
				AddRow(6, "usr_7", 1, "EF56GH78", model.AffiliateStatusSuspended,
					0, 0, 0, 0, 0, 0, 0, 5, 0, 0)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(suspended)
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			err := srv.ApproveAffiliate(6)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestGetAffiliateStats(t *testing.T) {
	Convey("Given a stats request", t, func() {
		srv, mock := setupService()

		Convey("An unknown affiliate should return nothing", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(emptyRows(affiliateColumns()))

			stats, err := srv.GetAffiliateStats(404)
			So(err, ShouldBeNil)
			So(stats, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A known affiliate should return the dashboard counters", func() {
			rows := sqlmock.NewRows(affiliateColumns()).
				AddRow(5, "usr_7", 1, "AB12CD34", model.AffiliateStatusApproved,
					200, 40, 10, 100000, 20000, 15000, 5000, nil, 0, 0)
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(rows)

			stats, err := srv.GetAffiliateStats(5)
			So(err, ShouldBeNil)
			So(stats, ShouldNotBeNil)
			So(stats.TotalClicks, ShouldEqual, 200)
			So(stats.ConversionRate, ShouldEqual, 5.0)
			So(stats.PendingCommissionsCents, ShouldEqual, 15000)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
