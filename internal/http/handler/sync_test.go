package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"shopstream.app/sync/internal/http/handler"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/service"
)

var _ = Describe("SyncHandler", func() {
	var (
		router      *gin.Engine
		svc         *mockSyncService
		adminAPIKey string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockSyncService{}
		adminAPIKey = "test-admin-key"
		h := handler.NewSyncHandler(svc, adminAPIKey)

		admin := router.Group("/api/v1/sync")
		admin.Use(h.RequireAdminAPIKey())
		{
			admin.POST("/run", h.RunAll)
			admin.POST("/:entity/run", h.Run)
		}
	})

	doPost := func(path, apiKey string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if apiKey != "" {
			req.Header.Set("X-Admin-API-Key", apiKey)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Run", func() {
		Context("with valid admin API key", func() {
			It("returns 200 with the finished run", func() {
				svc.runSyncFn = func(_ context.Context, entityType model.EntityType) (model.SyncRun, error) {
					return model.SyncRun{
						ID:         7001,
						EntityType: entityType,
						Attempted:  120,
						Delivered:  118,
						Failed:     1,
						Invalid:    1,
						StartedAt:  time.Now().UTC(),
						FinishedAt: time.Now().UTC(),
					}, nil
				}

				w := doPost("/api/v1/sync/customer/run", adminAPIKey)
				Expect(w.Code).To(Equal(http.StatusOK))

				var resp map[string]any
				Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["entity_type"]).To(Equal("customer"))
				Expect(resp["attempted"]).To(BeEquivalentTo(120))
				Expect(resp["delivered"]).To(BeEquivalentTo(118))
			})

			It("returns 400 for an unknown entity type", func() {
				svc.runSyncFn = func(_ context.Context, _ model.EntityType) (model.SyncRun, error) {
					return model.SyncRun{}, service.ErrUnknownEntityType
				}
				w := doPost("/api/v1/sync/products/run", adminAPIKey)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
			})

			It("returns 409 when a run is already in progress", func() {
				svc.runSyncFn = func(_ context.Context, _ model.EntityType) (model.SyncRun, error) {
					return model.SyncRun{}, service.ErrRunInProgress
				}
				w := doPost("/api/v1/sync/customer/run", adminAPIKey)
				Expect(w.Code).To(Equal(http.StatusConflict))
			})

			It("returns 500 on a run failure", func() {
				svc.runSyncFn = func(_ context.Context, _ model.EntityType) (model.SyncRun, error) {
					return model.SyncRun{}, errors.New("store down")
				}
				w := doPost("/api/v1/sync/customer/run", adminAPIKey)
				Expect(w.Code).To(Equal(http.StatusInternalServerError))
			})
		})

		Context("authentication", func() {
			It("rejects a missing API key", func() {
				w := doPost("/api/v1/sync/customer/run", "")
				Expect(w.Code).To(Equal(http.StatusUnauthorized))
			})

			It("rejects a wrong API key", func() {
				w := doPost("/api/v1/sync/customer/run", "wrong")
				Expect(w.Code).To(Equal(http.StatusUnauthorized))
			})

			It("accepts the key as a bearer token", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/customer/run", nil)
				req.Header.Set("Authorization", "Bearer "+adminAPIKey)
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)
				Expect(w.Code).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("RunAll", func() {
		It("returns every run in order", func() {
			svc.runAllFn = func(_ context.Context) ([]model.SyncRun, error) {
				return []model.SyncRun{
					{EntityType: model.EntityTypeCustomer, Delivered: 10},
					{EntityType: model.EntityTypeOrder, Delivered: 4},
				}, nil
			}

			w := doPost("/api/v1/sync/run", adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Runs []map[string]any `json:"runs"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Runs).To(HaveLen(2))
			Expect(resp.Runs[0]["entity_type"]).To(Equal("customer"))
			Expect(resp.Runs[1]["entity_type"]).To(Equal("order"))
		})

		It("returns partial runs alongside a 500 when a later entity fails", func() {
			svc.runAllFn = func(_ context.Context) ([]model.SyncRun, error) {
				return []model.SyncRun{{EntityType: model.EntityTypeCustomer}}, errors.New("orders store down")
			}

			w := doPost("/api/v1/sync/run", adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))

			var resp struct {
				Runs []map[string]any `json:"runs"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Runs).To(HaveLen(1))
		})
	})
})
