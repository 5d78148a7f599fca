package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barterly/internal/auth"
	"barterly/internal/domain/storage"
	"barterly/internal/domain/transactions"
	"barterly/internal/mailer"
	"barterly/internal/push"
	"barterly/internal/ratelimiter"
	"barterly/internal/roles"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   *ratelimiter.FixedWindowLimiter
	push          push.Sender
	references    *transactions.ReferenceGenerator
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	db          dbConfig
	auth        authConfig
	mail        mailConfig
	rateLimiter ratelimiter.Config
	refSalt     string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(app.RateLimiterMiddleware)

	// Request context timeout; handlers see cancellation through ctx.Done().
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		// Everything below requires a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", app.getMyProfileHandler)
				r.Put("/", app.updateUserHandler)
				r.Put("/password", app.updatePasswordHandler)
				r.Post("/profile-picture", app.uploadProfilePictureHandler)
				r.Post("/logout", app.logoutHandler)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Route("/users", func(r chi.Router) {
					r.Use(app.RequireCapability(roles.ManageUsers))
					r.Get("/", app.listUsersHandler)
					r.Get("/inactive", app.listInactiveUsersHandler)
					r.Delete("/{userID}", app.deleteUserHandler)
					r.Put("/{userID}/restore", app.restoreUserHandler)
					r.With(app.RequireCapability(roles.PurgeUsers)).
						Delete("/{userID}/permanent", app.permanentDeleteUserHandler)
				})
				r.Route("/sub-admins", func(r chi.Router) {
					r.Use(app.RequireCapability(roles.ManageSubAdmins))
					r.Post("/", app.createSubAdminHandler)
					r.Get("/", app.listSubAdminsHandler)
					r.Get("/inactive", app.listInactiveSubAdminsHandler)
					r.Delete("/{userID}", app.deleteUserHandler)
					r.Put("/{userID}/restore", app.restoreUserHandler)
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", app.listCategoriesHandler)
				r.Get("/{categoryID}", app.getCategoryHandler)
				r.Group(func(r chi.Router) {
					r.Use(app.RequireCapability(roles.ManageCategories))
					r.Post("/", app.createCategoryHandler)
					r.Put("/{categoryID}", app.updateCategoryHandler)
					r.Delete("/{categoryID}", app.deleteCategoryHandler)
				})
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", app.listItemsHandler)
				r.Post("/", app.createItemHandler)
				r.Get("/mine", app.listMyItemsHandler)
				r.Get("/with-offers", app.listItemsWithOffersHandler)
				r.Route("/{itemID}", func(r chi.Router) {
					r.Get("/", app.getItemHandler)
					r.Patch("/", app.updateItemHandler)
					r.Delete("/", app.deleteItemHandler)
					r.Post("/images", app.uploadItemImagesHandler)
					r.With(app.RequireCapability(roles.ModerateItems)).
						Put("/approval", app.approveItemHandler)
				})
			})

			r.Route("/offers", func(r chi.Router) {
				r.Get("/", app.listOffersHandler)
				r.Post("/", app.createOfferHandler)
				r.Route("/{offerID}", func(r chi.Router) {
					r.Get("/", app.getOfferHandler)
					r.Post("/respond", app.respondToOfferHandler)
					r.Delete("/", app.deleteOfferHandler)
				})
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", app.createTransactionHandler)
				r.Get("/", app.listTransactionsHandler)
				r.Route("/{transactionID}", func(r chi.Router) {
					r.Get("/", app.getTransactionHandler)
					r.Patch("/status", app.updateTransactionStatusHandler)
					r.Delete("/", app.deleteTransactionHandler)
				})
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Post("/", app.createReviewHandler)
				r.Get("/", app.listMyReviewsHandler)
				r.Get("/{reviewID}", app.getReviewHandler)
				r.Delete("/{reviewID}", app.deleteReviewHandler)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", app.createConversationHandler)
				r.Get("/", app.listConversationsHandler)
				r.Get("/{conversationID}", app.getConversationHandler)
				r.Delete("/{conversationID}", app.deleteConversationHandler)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", app.sendMessageHandler)
				r.Put("/{messageID}/read", app.markMessageReadHandler)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", app.listNotificationsHandler)
				r.Put("/{notificationID}/read", app.markNotificationReadHandler)
				r.With(app.RequireCapability(roles.SendNotifications)).
					Post("/", app.sendNotificationHandler)
			})

			r.Route("/push-tokens", func(r chi.Router) {
				r.Post("/", app.registerPushTokenHandler)
				r.Delete("/", app.removePushTokenHandler)
			})

			r.Route("/verifications", func(r chi.Router) {
				r.Post("/", app.submitVerificationHandler)
				r.Group(func(r chi.Router) {
					r.Use(app.RequireCapability(roles.HandleVerifications))
					r.Get("/pending", app.listPendingVerificationsHandler)
					r.Put("/{verificationID}", app.handleVerificationHandler)
				})
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
