package auditload_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/millcert/internal/adapters/http/api"
	service "github.com/okian/millcert/internal/app"
	"github.com/okian/millcert/internal/auditload"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	svc := service.New(
		service.WithTemplateDir("../../templates", false),
		service.WithWorkerCount(4),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(api.Deps{
		Submitter: svc,
		Scorer:    svc.Scorer(),
		Results:   svc,
		Templates: svc.Templates(),
		Stats:     svc,
	}).Routes())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(ctx)
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := startServer(t)
		cfg := &auditload.Config{
			BaseURL:     srv.URL,
			TemplateID:  "maize-flour-v1",
			Audits:      60,
			Mills:       12,
			Duplicates:  10,
			TopN:        20,
			Workers:     4,
			Timeout:     5 * time.Second,
			SettleLimit: 10 * time.Second,
			Seed:        7,
		}

		Convey("When a load run completes", func() {
			stats, err := auditload.Run(context.Background(), cfg)

			Convey("Then every audit is scored once and the leaderboard is consistent", func() {
				So(err, ShouldBeNil)
				So(stats.AuditsGenerated, ShouldEqual, 60)
				So(stats.AuditsAccepted, ShouldEqual, 60)
				So(stats.AuditsDuplicate, ShouldEqual, 10)
				So(stats.AuditsSubmitted, ShouldEqual, 70)
				So(stats.AuditsScored, ShouldEqual, 60)
				So(stats.MillsRanked, ShouldEqual, 12)
				So(stats.RankMismatches, ShouldEqual, 0)
				So(stats.LeaderboardErrors, ShouldEqual, 0)
			})

			Convey("And the summary reports the counts", func() {
				So(err, ShouldBeNil)
				summary := stats.Summary()
				So(summary, ShouldContainSubstring, "Audits submitted:   70")
				So(summary, ShouldContainSubstring, "duplicate:        10")
			})
		})

		Convey("When the template does not exist", func() {
			cfg.TemplateID = "rice-v9"
			_, err := auditload.Run(context.Background(), cfg)

			Convey("Then the run fails before submitting", func() {
				So(err, ShouldNotBeNil)
				So(strings.Contains(err.Error(), "template fetch failed"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		_, err := auditload.Run(context.Background(), &auditload.Config{BaseURL: "http://x", TemplateID: "t"})

		Convey("Then it is rejected", func() {
			So(errors.Is(err, auditload.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
