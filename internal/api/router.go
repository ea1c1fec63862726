// Package api registers the HTTP routes over the pipeline core.
package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "articleforge/docs"
	"articleforge/internal/api/handler"
	"articleforge/pkg/router"
)

// RegisterRoutes wires all endpoints. More specific routes are
// registered first; the generic job route matches last.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/jobs", h.SubmitJob)
	r.GET("/api/v1/jobs", h.ListJobs)
	r.GET("/api/v1/jobs/*/markdown", h.GetJobMarkdown)
	r.GET("/api/v1/jobs/*/quality", h.GetJobQuality)
	r.POST("/api/v1/jobs/*/cancel", h.CancelJob)
	r.GET("/api/v1/jobs/*", h.GetJob)
	r.GET("/api/v1/badge", h.ClassifyBadge)
	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler(w, req)
	})
}
