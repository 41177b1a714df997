package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/qa-forum/frontend/internal/handler/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/handler/forum"
	"github.com/zhouzirui/qa-forum/frontend/internal/logger"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/qa-forum/frontend/internal/middleware"
	accountService "github.com/zhouzirui/qa-forum/frontend/internal/service/account"
	forumService "github.com/zhouzirui/qa-forum/frontend/internal/service/forum"
	"github.com/zhouzirui/qa-forum/frontend/pkg/utils"
)

// NewRouter wires HTTP routes to the synchronizer and account flows.
// m may be nil, in which case /metrics is not served.
func NewRouter(sync *forumService.Synchronizer, accounts *accountService.Service, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Component("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	forumHandler := forum.New(sync, accounts)
	accountHandler := account.New(accounts)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		forumHandler.RegisterRoutes(api)
		accountHandler.RegisterRoutes(api)
	})

	return r
}
