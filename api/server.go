/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RealIP:         Client address behind proxies
  3. RequestLogger:  zap request logging
  4. Recoverer:      Panic recovery (500 instead of crash)
  5. CORS:           Cross-origin requests for the browser client

ROUTE GROUPS:
  /api/health          Liveness, no session
  /api/calendar/*      Period calculator, no database
  /api/scenarios/*     Demo scenarios, no session, mounted only with Demo
  /api/admin/*         Reconciliation, session of a configured admin
  /api/*               Everything else, session required
  /invite              Invite redemption (redirects to /login without a session)

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Session and logging middleware
  - cmd/winning/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the dev servers of the browser client.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions selects the optional parts of the API.
type RouterOptions struct {
	AllowedOrigins []string
	// Demo mounts /api/scenarios. Loading a scenario wipes the database.
	Demo bool
	// Admins are the user ids allowed on /api/admin.
	Admins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.With(h.OptionalSession).Get("/invite", h.RedeemInvite)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Calendar routes (pure date math)
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/month/{ym}", h.CalendarMonth)
			r.Get("/week/{date}", h.CalendarWeek)
		})

		// Scenario routes
		if opts.Demo {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Get("/me", h.Me)

			// Circle routes
			r.Post("/circle", h.CreateCircle)
			r.Route("/circles", func(r chi.Router) {
				r.Get("/", h.ListCircles)
				r.Post("/", h.CreateCircle)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetCircle)
					r.Get("/members", h.ListMembers)
					r.Post("/invites", h.CreateInvite)
					r.Get("/goals", h.CircleGoals)
					r.Get("/habits", h.CircleHabits)
					r.Get("/daily", h.CircleDaily)
					r.Get("/weekly", h.CircleWeekly)
					r.Get("/calendar", h.CircleCalendar)
					r.Get("/routines", h.CircleRoutines)
					r.Get("/wins", h.CircleWins)
				})
			})

			// Goal routes
			r.Route("/goals", func(r chi.Router) {
				r.Get("/", h.ListGoals)
				r.Post("/", h.CreateGoal)
				r.Put("/{id}", h.UpdateGoal)
				r.Delete("/{id}", h.DeleteGoal)
				r.Post("/{id}/milestones", h.AddMilestone)
			})
			r.Route("/milestones", func(r chi.Router) {
				r.Put("/{id}/toggle", h.ToggleMilestone)
				r.Delete("/{id}", h.DeleteMilestone)
			})

			// Habit routes
			r.Route("/habits", func(r chi.Router) {
				r.Get("/", h.ListHabits)
				r.Post("/", h.CreateHabit)
				r.Put("/{id}", h.RenameHabit)
				r.Delete("/{id}", h.DeleteHabit)
				r.Put("/{id}/checks/{date}", h.SetHabitCheck)
				r.Get("/{id}/stats", h.HabitStats)
			})

			// Routine routes
			r.Route("/routines", func(r chi.Router) {
				r.Get("/", h.ListRoutines)
				r.Put("/{type}/steps", h.SaveRoutineSteps)
				r.Post("/{type}/steps/{stepID}/move", h.MoveRoutineStep)
				r.Put("/{type}/steps/{stepID}/today", h.ToggleRoutineStep)
			})

			// Planner routes
			r.Route("/planner", func(r chi.Router) {
				r.Route("/day/{date}", func(r chi.Router) {
					r.Get("/", h.GetDay)
					r.Put("/priority", h.SetPriority)
					r.Put("/notes", h.SaveDayNotes)
					r.Post("/todos", h.AddTodo)
				})
				r.Route("/week/{date}", func(r chi.Router) {
					r.Get("/", h.GetWeek)
					r.Put("/review", h.SaveWeekReview)
					r.Post("/tasks", h.AddWeekTask)
				})
				r.Route("/month/{ym}", func(r chi.Router) {
					r.Get("/", h.GetMonth)
					r.Put("/goals", h.SaveMonthGoals)
					r.Put("/review", h.SaveMonthReview)
					r.Post("/events", h.AddEvent)
				})
			})

			// Task routes (all kinds)
			r.Route("/tasks", func(r chi.Router) {
				r.Put("/{id}", h.UpdateTask)
				r.Put("/{id}/status", h.SetTaskStatus)
				r.Post("/{id}/toggle", h.ToggleTask)
				r.Delete("/{id}", h.DeleteTask)
			})

			// Win routes
			r.Route("/wins", func(r chi.Router) {
				r.Get("/", h.ListWins)
				r.Post("/", h.CreateWin)
				r.Delete("/{id}", h.DeleteWin)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(opts.Admins))
				r.Post("/reconcile", h.TriggerReconcile)
				r.Get("/reconciliation/status", h.ReconciliationStatus)
				r.Get("/reconciliation/runs", h.ListReconciliationRuns)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", nil)
	})

	return r
}
