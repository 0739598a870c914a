package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopstream.app/sync/internal/http/handler"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/store"
)

var _ = Describe("FailureHandler", func() {
	var (
		router *gin.Engine
		svc    *mockFailureService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockFailureService{}
		h := handler.NewFailureHandler(svc)

		router.GET("/failures", h.List)
		router.GET("/failures/summary", h.Summary)
		router.POST("/failures/:id/resolve", h.Resolve)
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("List", func() {
		It("returns unresolved failures", func() {
			svc.listFn = func(_ context.Context, limit int32) ([]model.FailureRecord, error) {
				Expect(limit).To(BeZero())
				return []model.FailureRecord{{
					ID:            42,
					EntityType:    model.EntityTypeOrder,
					EntityID:      "500001",
					EventType:     "track",
					ErrorMessage:  "ingestion api: status 503",
					ErrorCategory: model.ErrorCategoryTransient,
					CreatedAt:     time.Now().UTC(),
					RetryCount:    3,
				}}, nil
			}

			w := do(http.MethodGet, "/failures")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Failures []map[string]any `json:"failures"`
				Count    int              `json:"count"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Count).To(Equal(1))
			Expect(resp.Failures[0]["entity_id"]).To(Equal("500001"))
			Expect(resp.Failures[0]["error_category"]).To(Equal("transient"))
		})

		It("passes the limit query through", func() {
			var gotLimit int32
			svc.listFn = func(_ context.Context, limit int32) ([]model.FailureRecord, error) {
				gotLimit = limit
				return nil, nil
			}

			w := do(http.MethodGet, "/failures?limit=25")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotLimit).To(Equal(int32(25)))
		})

		It("rejects a non-numeric limit", func() {
			w := do(http.MethodGet, "/failures?limit=lots")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Summary", func() {
		It("returns counts by category and entity", func() {
			svc.summaryFn = func(_ context.Context) (model.FailureSummary, error) {
				return model.FailureSummary{
					TotalUnresolved: 7,
					ByCategory: map[model.ErrorCategory]int64{
						model.ErrorCategoryTransient:  5,
						model.ErrorCategoryValidation: 2,
					},
					ByEntity: map[model.EntityType]int64{
						model.EntityTypeCustomer: 3,
						model.EntityTypeOrder:    4,
					},
				}, nil
			}

			w := do(http.MethodGet, "/failures/summary")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["total_unresolved"]).To(BeEquivalentTo(7))
			byCategory := resp["by_category"].(map[string]any)
			Expect(byCategory["transient"]).To(BeEquivalentTo(5))
		})
	})

	Describe("Resolve", func() {
		It("resolves an existing record", func() {
			var gotID int64
			svc.resolveFn = func(_ context.Context, id int64) error {
				gotID = id
				return nil
			}

			w := do(http.MethodPost, "/failures/42/resolve")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotID).To(Equal(int64(42)))
		})

		It("returns 404 for an unknown record", func() {
			svc.resolveFn = func(_ context.Context, _ int64) error {
				return store.ErrNotFound
			}
			w := do(http.MethodPost, "/failures/42/resolve")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects a non-numeric id", func() {
			w := do(http.MethodPost, "/failures/abc/resolve")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
