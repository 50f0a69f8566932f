package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"sharedlists/access"
	"sharedlists/config"
	"sharedlists/handlers/api"
	"sharedlists/handlers/api/lists"
	"sharedlists/handlers/api/shares"
	"sharedlists/handlers/api/tasks"
	"sharedlists/middleware"
	"sharedlists/stores"
)

func setupRouter(svc *access.Services, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", middleware.UserIDHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, api.MessageResponse{Message: "Todo API is running!"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWTSecret))

		r.Route("/lists", func(r chi.Router) {
			r.Post("/", lists.HandleCreate(svc.Lists))
			r.Get("/", lists.HandleListMine(svc.Lists))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", lists.HandleGet(svc.Lists))
				r.Put("/", lists.HandleUpdate(svc.Lists))
				r.Delete("/", lists.HandleDelete(svc.Lists))
			})
		})

		r.Route("/shares", func(r chi.Router) {
			r.Post("/", shares.HandleShare(svc.Shares))
			r.Put("/", shares.HandleUpdatePermission(svc.Shares))
			r.Delete("/", shares.HandleRevoke(svc.Shares))
			r.Get("/list/{listId}", shares.HandleList(svc.Shares))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", tasks.HandleCreate(svc.Tasks))
			r.Get("/list/{listId}", tasks.HandleList(svc.Tasks))
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", tasks.HandleUpdate(svc.Tasks))
				r.Delete("/", tasks.HandleDelete(svc.Tasks))
			})
		})
	})

	return r
}

// waitForShutdown blocks until a termination signal, then drains the server.
func waitForShutdown(srv *http.Server, closers ...io.Closer) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("Server did not shut down cleanly")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close resource")
		}
	}
}

// listenAddress prefers an explicit -listen flag, then the PORT variable.
func listenAddress(flagValue string, explicit bool, port string) string {
	if !explicit && port != "" {
		return ":" + port
	}
	return flagValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listen := flag.String("listen", ":3000", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.FromEnv()
	if len(cfg.JWTSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Caller identity is taken from the X-User-Id header.")
	}

	store, err := stores.GetStore(context.Background(), cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "listen" {
			explicit = true
		}
	})
	addr := listenAddress(*listen, explicit, cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           setupRouter(access.New(store), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", addr).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	var closers []io.Closer
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}
	waitForShutdown(srv, closers...)
}
