package www

import (
	"context"
	"net/http"

	"partsdesk/engine"
	"partsdesk/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const principalKey ctxKey = 0

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	sessions *sessionStore
}

// NewRouter creates the chi router serving the role portals.
func NewRouter(eng *engine.Engine) http.Handler {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		// Login/logout (no auth)
		r.Post("/login", h.apiLogin)
		r.Post("/logout", h.apiLogout)

		// Any authenticated role
		r.Group(func(r chi.Router) {
			r.Use(h.requireRole())
			r.Get("/me", h.apiMe)
			r.Post("/me/password", h.apiChangePassword)
		})

		// Technician portal
		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(store.RoleTechnician, store.RoleAdmin))
			r.Post("/requests", h.apiRequestPart)
			r.Get("/requests", h.apiListMyRequests)
			r.Get("/my-allocations", h.apiListMyAllocations)
			r.Post("/allocations/{id}/consume", h.apiConsumeAllocation)
		})

		// Partner / supplier portal
		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(store.RolePartner, store.RoleSupplier))
			r.Get("/tasks", h.apiListTasks)
			r.Get("/tasks/{id}", h.apiGetTask)
			r.Post("/tasks/{id}/advance", h.apiAdvanceTask)
			r.Put("/tasks/{id}/tracking", h.apiUpdateTaskTracking)
		})

		// Admin portal
		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(store.RoleAdmin))

			// Orders
			r.Get("/orders", h.apiListOrders)
			r.Post("/orders", h.apiCreateOrder)
			r.Get("/orders/{id}", h.apiGetOrder)
			r.Get("/orders/{id}/history", h.apiOrderHistory)
			r.Post("/orders/{id}/approve", h.apiApproveOrder)
			r.Post("/orders/{id}/assign", h.apiAssignOrder)
			r.Post("/orders/{id}/assign-manual", h.apiAssignOrderManual)
			r.Post("/orders/{id}/receive", h.apiReceiveOrder)
			r.Post("/orders/{id}/cancel", h.apiCancelOrder)
			r.Post("/orders/{id}/remove", h.apiRemoveOrder)
			r.Put("/orders/{id}/notes", h.apiUpdateOrderNotes)
			r.Delete("/orders/{id}", h.apiDeleteOrder)

			// Fulfillment parties
			r.Get("/parties", h.apiListParties)
			r.Post("/parties", h.apiCreateParty)
			r.Put("/parties/{id}", h.apiUpdateParty)
			r.Delete("/parties/{id}", h.apiDeleteParty)

			// Warehouse
			r.Get("/stock", h.apiListStock)
			r.Get("/stock/{id}", h.apiGetStock)
			r.Get("/stock/{id}/activity", h.apiStockActivity)
			r.Get("/stock/{id}/allocations", h.apiStockAllocations)
			r.Post("/stock/{id}/allocate", h.apiAllocateStock)
			r.Post("/allocations/{id}/return", h.apiReturnAllocation)

			// Users
			r.Get("/users", h.apiListUsers)
			r.Post("/users", h.apiCreateUser)

			// Config
			r.Put("/config/routing", h.apiUpdateRouting)
			r.Put("/config/messaging", h.apiUpdateMessaging)
		})
	})

	return r
}

// requireRole authenticates the session and, when roles are given, restricts
// access to them. Admin is not implicitly allowed; list it where intended.
func (h *Handlers) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := h.sessions.getPrincipal(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			if len(roles) > 0 {
				allowed := false
				for _, role := range roles {
					if p.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					writeError(w, http.StatusForbidden, "insufficient role")
					return
				}
			}
			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handlers) principal(r *http.Request) principal {
	p, _ := r.Context().Value(principalKey).(principal)
	return p
}
