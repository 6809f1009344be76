// Package api exposes the household services as a JSON REST API.
package api

import (
	"net/http"
	"time"

	"github.com/billbatista/household-hub/appliance"
	"github.com/billbatista/household-hub/calendar"
	"github.com/billbatista/household-hub/eventlogger"
	"github.com/billbatista/household-hub/ledger"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/metrics"
	"github.com/billbatista/household-hub/middleware"
	"github.com/billbatista/household-hub/shopping"
	"github.com/billbatista/household-hub/store"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators the handlers call. Recorder, Metrics and Now
// are optional.
type Deps struct {
	Store      *store.Store
	Members    member.Repository
	Ledger     *ledger.Service
	Shopping   shopping.Repository
	Calendar   calendar.Repository
	Appliances appliance.Repository
	Activity   eventlogger.EventLogger
	Recorder   eventlogger.Recorder
	Metrics    *metrics.Metrics
	CORSOrigin string
	Now        func() time.Time
}

type handler struct {
	Deps
}

func NewRouter(deps Deps) http.Handler {
	if deps.Recorder == nil {
		deps.Recorder = eventlogger.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	h := &handler{Deps: deps}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.CORS(deps.CORSOrigin))
	router.Use(deps.Metrics.Middleware)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.listMembers)
			r.Post("/", h.createMember)
			r.Get("/{id}", h.getMember)
			r.Put("/{id}", h.updateMember)
			r.Delete("/{id}", h.deleteMember)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Get("/balance", h.balances)
			r.Get("/settlements", h.settlements)
			r.Post("/", h.addExpense)
			r.Delete("/{id}", h.deleteExpense)
		})

		r.Route("/shopping", func(r chi.Router) {
			r.Get("/", h.listShopping)
			r.Post("/", h.addShoppingItem)
			r.Put("/{id}/purchase", h.purchaseShoppingItem)
			r.Put("/{id}/unpurchase", h.unpurchaseShoppingItem)
			r.Delete("/purchased/clear", h.clearPurchased)
			r.Delete("/{id}", h.deleteShoppingItem)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.listEvents)
			r.Get("/upcoming", h.upcomingEvents)
			r.Post("/", h.addEvent)
			r.Put("/{id}", h.updateEvent)
			r.Delete("/{id}", h.deleteEvent)
		})

		r.Route("/appliances", func(r chi.Router) {
			r.Get("/", h.listAppliances)
			r.Put("/{id}/start", h.startAppliance)
			r.Put("/{id}/done", h.finishAppliance)
			r.Put("/{id}/reset", h.resetAppliance)
		})

		r.Get("/activity", h.activity)
	})

	return router
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.fail(w, r, "health check", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Household hub API is running",
	})
}
