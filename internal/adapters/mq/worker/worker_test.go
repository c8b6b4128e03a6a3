package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/millcert/internal/adapters/mq/queue"
	worker "github.com/okian/millcert/internal/adapters/mq/worker"
	"github.com/okian/millcert/internal/domain/checklist"
	model "github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

type fakeTemplates map[string]checklist.Template

func (f fakeTemplates) Get(id string) (checklist.Template, bool) {
	t, ok := f[id]
	return t, ok
}

type mockSaver struct {
	mu      sync.Mutex
	records map[string]model.Record
	err     error
}

func newMockSaver() *mockSaver {
	return &mockSaver{records: make(map[string]model.Record)}
}

func (m *mockSaver) Save(_ context.Context, rec model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[rec.AuditID] = rec
	return nil
}

func (m *mockSaver) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func premixTemplate() checklist.Template {
	return checklist.Template{
		ID: "premix-v1",
		Sections: []checklist.Section{{
			ID:   "storage",
			Name: "Premix storage",
			Items: []checklist.Item{
				{ID: "s1", Question: "Is premix stored in a cool dry place?", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityCritical},
				{ID: "s2", Question: "Is the premix stock register up to date?", ResponseType: checklist.ResponseYesNo, Criticality: checklist.CriticalityMinor},
			},
		}},
	}
}

func sub(auditID, millID string, s1, s2 bool) model.Submission {
	return model.Submission{
		AuditID:    auditID,
		MillID:     millID,
		TemplateID: "premix-v1",
		Responses: []checklist.Response{
			{ItemID: "s1", Value: checklist.Bool(s1)},
			{ItemID: "s2", Value: checklist.Bool(s2)},
		},
	}
}

func TestWorkerProcess(t *testing.T) {
	convey.Convey("Given a worker with one template", t, func() {
		saver := newMockSaver()
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		w := worker.NewWorker(queue.NewInMemoryQueue(), fakeTemplates{"premix-v1": premixTemplate()},
			scoring.NewEngine(), saver, worker.WithClock(func() time.Time { return at }))
		ctx := context.Background()

		convey.Convey("When a compliant audit is processed", func() {
			rec, err := w.Process(ctx, sub("a1", "mill-1", true, true))

			convey.Convey("Then it is scored and saved", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Result.OverallPercentage, convey.ShouldEqual, 100)
				convey.So(rec.Result.Category, convey.ShouldEqual, scoring.CategoryExcellent)
				convey.So(rec.ScoredAt, convey.ShouldEqual, at)
				convey.So(saver.records["a1"].MillID, convey.ShouldEqual, "mill-1")
			})
		})

		convey.Convey("When the critical check fails", func() {
			rec, err := w.Process(ctx, sub("a2", "mill-1", false, true))

			convey.Convey("Then the audit is non-compliant with one red flag", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Result.Category, convey.ShouldEqual, scoring.CategoryNonCompliant)
				convey.So(rec.Result.RedFlags, convey.ShouldHaveLength, 1)
				convey.So(rec.Result.RedFlags[0].ItemID, convey.ShouldEqual, "s1")
			})
		})

		convey.Convey("When the template is unknown", func() {
			s := sub("a3", "mill-1", true, true)
			s.TemplateID = "gone"
			_, err := w.Process(ctx, s)

			convey.Convey("Then nothing is saved", func() {
				convey.So(errors.Is(err, worker.ErrTemplateMissing), convey.ShouldBeTrue)
				convey.So(saver.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store fails", func() {
			saver.err = errors.New("disk full")
			_, err := w.Process(ctx, sub("a4", "mill-1", true, true))

			convey.Convey("Then the error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "disk full")
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := w.Process(cctx, sub("a5", "mill-1", true, true))

			convey.Convey("Then scoring is abandoned", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool reading from a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(500))
		saver := newMockSaver()
		var mu sync.Mutex
		seen := 0
		pool := worker.NewPool(4, q, fakeTemplates{"premix-v1": premixTemplate()}, scoring.NewEngine(), saver,
			worker.WithOnScored(func(model.Record) {
				mu.Lock()
				seen++
				mu.Unlock()
			}))
		ctx := context.Background()
		pool.Start(ctx)
		pool.Start(ctx)

		convey.Convey("When submissions are queued and the queue is closed", func() {
			for i := 0; i < 200; i++ {
				convey.So(q.Enqueue(ctx, sub(fmt.Sprintf("a%d", i), fmt.Sprintf("mill-%d", i%20), i%2 == 0, true)), convey.ShouldBeNil)
			}
			bad := sub("bad", "mill-x", true, true)
			bad.TemplateID = "gone"
			convey.So(q.Enqueue(ctx, bad), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then every submission is drained before the workers stop", func() {
				convey.So(pool.Wait(ctx), convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(saver.len(), convey.ShouldEqual, 200)
				convey.So(pool.Processed(), convey.ShouldEqual, 200)
				convey.So(pool.Failed(), convey.ShouldEqual, 1)
				mu.Lock()
				convey.So(seen, convey.ShouldEqual, 200)
				mu.Unlock()
			})
		})

		convey.Reset(func() {
			_ = q.Close()
			_ = pool.Wait(ctx)
		})
	})
}
