package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/cloverpay-platform/affiliate_api/model"
)

func TestCreateSubCommission(t *testing.T) {
	Convey("Given a freshly created source commission", t, func() {
		srv, mock := setupService()
		now := time.Now()
		source := &model.Commission{
			ID:              100,
			AffiliateID:     6,
			CommissionCents: 2000,
		}

		Convey("An affiliate without a recruiter earns no cascade", func() {
			earner := &model.Affiliate{ID: 6}

			err := srv.createSubCommission(srv.repo.Conn, source, earner, now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A recruited affiliate pays the recruiter share", func() {
			seedCampaigns(recruitingCampaign(10))
			parentID := uint64(5)
			earner := &model.Affiliate{ID: 6, ReferredByAffiliateID: &parentID}

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sub_affiliate_commissions"`)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(50))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "affiliates"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := srv.createSubCommission(srv.repo.Conn, source, earner, now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A campaign without recruitment pays no cascade", func() {
			seedCampaigns(testCampaign(1))
			parentID := uint64(5)
			earner := &model.Affiliate{ID: 6, ReferredByAffiliateID: &parentID}

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))

			err := srv.createSubCommission(srv.repo.Conn, source, earner, now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A share rounding to zero creates no record", func() {
			seedCampaigns(recruitingCampaign(10))
			parentID := uint64(5)
			earner := &model.Affiliate{ID: 6, ReferredByAffiliateID: &parentID}
			tiny := &model.Commission{ID: 100, AffiliateID: 6, CommissionCents: 4}

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "affiliates"`)).
				WillReturnRows(affiliateRow(5, "usr_owner", model.AffiliateStatusApproved))

			err := srv.createSubCommission(srv.repo.Conn, tiny, earner, now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestReverseSubCommission(t *testing.T) {
	Convey("Given a reversed source commission", t, func() {
		srv, mock := setupService()
		now := time.Now()
		source := &model.Commission{ID: 100, AffiliateID: 6}
		subColumns := []string{
			"id", "parent_affiliate_id", "sub_affiliate_id",
			"source_commission_id", "amount_cents", "status",
		}

		Convey("No derived record means nothing to mirror", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sub_affiliate_commissions"`)).
				WillReturnRows(emptyRows(subColumns))

			err := srv.reverseSubCommission(srv.repo.Conn, source, "charge.refunded", now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("An already reversed derived record stays untouched", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sub_affiliate_commissions"`)).
				WillReturnRows(sqlmock.NewRows(subColumns).
					AddRow(50, 5, 6, 100, 200, model.CommissionStatusReversed))

			err := srv.reverseSubCommission(srv.repo.Conn, source, "charge.refunded", now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A pending derived record is reversed against the pending bucket", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sub_affiliate_commissions"`)).
				WillReturnRows(sqlmock.NewRows(subColumns).
					AddRow(50, 5, 6, 100, 200, model.CommissionStatusPending))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sub_affiliate_commissions"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`UPDATE "affiliates" SET .*pending_sub_commissions_cents`).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := srv.reverseSubCommission(srv.repo.Conn, source, "charge.refunded", now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A paid derived record is reversed against the paid bucket", func() {
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sub_affiliate_commissions"`)).
				WillReturnRows(sqlmock.NewRows(subColumns).
					AddRow(50, 5, 6, 100, 200, model.CommissionStatusPaid))
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sub_affiliate_commissions"`)).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`UPDATE "affiliates" SET .*paid_sub_commissions_cents`).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := srv.reverseSubCommission(srv.repo.Conn, source, "charge.refunded", now)
			So(err, ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
