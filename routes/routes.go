package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/loan-market/docs"
	"github.com/Dosada05/loan-market/handlers"
	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Team      *handlers.TeamHandler
	Player    *handlers.PlayerHandler
	Loan      *handlers.LoanHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	Logger         *logger.Logger
	Tokens         *middleware.TokenAuth
	AllowedOrigins []string
	// ImageDir, when set, is served under ImagePath.
	ImageDir  string
	ImagePath string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(opts.Logger.Middleware)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	auth := opts.Tokens.Authenticate

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	if opts.ImageDir != "" {
		serveImages(router, opts.ImagePath, opts.ImageDir)
	}

	router.With(opts.Tokens.AuthenticateWebSocket).Get("/ws", h.WebSocket.ServeWs)

	router.Route("/teams", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.With(opts.Tokens.OptionalAuthenticate).Get("/checkteam", h.Auth.CheckTeam)

		r.Get("/", h.Team.ListTeams)
		r.Get("/{id}", h.Team.GetTeamByID)
		r.With(auth).Patch("/edit/{id}", h.Team.UpdateTeam)
	})

	router.Route("/players", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/", h.Player.ListPlayers)
		r.Get("/{id}", h.Player.GetPlayerByID)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/register", h.Player.RegisterPlayer)
			r.Get("/teamplayers", h.Player.ListTeamPlayers)
			r.Patch("/edit/{id}", h.Player.EditPlayer)
			r.Delete("/delete/{id}", h.Player.DeletePlayer)

			r.Patch("/loan/{id}", h.Loan.RequestLoan)
			r.Patch("/loan/quit/{id}", h.Loan.QuitLoan)
			r.Patch("/concludeloan/{id}", h.Loan.ConcludeLoan)
			r.Patch("/concludeloan/decline/{id}", h.Loan.Decline)

			r.Get("/loan/players", h.Loan.ListRequested)
			r.Get("/loan/myplayers", h.Loan.ListIncomingRequests)
			r.Get("/concludedloans", h.Loan.ListLent)
			r.Get("/loan/newplayers", h.Loan.ListBorrowed)
			r.Get("/loan/overview", h.Loan.Overview)
		})
	})
}

// serveImages exposes files stored by the local disk uploader.
func serveImages(r chi.Router, path, dir string) {
	path = "/" + strings.Trim(path, "/")
	fs := http.StripPrefix(path, http.FileServer(http.Dir(dir)))

	r.Get(path+"/*", func(w http.ResponseWriter, req *http.Request) {
		// no directory listings
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}
