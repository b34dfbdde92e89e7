package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/oauth"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/throttle"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}
	if err := model.SeedDefaultRoles(ctx, repo, cfg); err != nil {
		logrus.WithError(err).Warn("failed to seed default roles")
	}
	if err := service.NewUserService(repo, cfg).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.WithError(err).Warn("failed to create bootstrap administrator")
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.JWTExpiration, cfg.JWTRefreshExpiration)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise token manager")
		return
	}

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	mailer, closeMailer, err := newMailer(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise mail transport")
		return
	}
	defer closeMailer()
	defer mailer.Wait()

	var provider oauth.Provider
	if cfg.GoogleEnabled() {
		google, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})
		if err != nil {
			logrus.WithError(err).Error("failed to initialise google login")
			return
		}
		provider = google
	}

	httpHandler, err := api.NewHTTPHandler(cfg, api.Dependencies{
		Repo:    repo,
		Storage: store,
		Tokens:  tokens,
		Mailer:  mailer,
		Limiter: limiter,
		OAuth:   provider,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())
	httpHandler.RegisterRoutes(r)

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logrus.WithField("host", serverHost).Info("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}

// newLimiter uses Redis when REDIS_ADDR is set so throttling holds across
// instances, and an in-process window otherwise.
func newLimiter(ctx context.Context, cfg config.Config) (throttle.Limiter, func()) {
	if cfg.RedisAddr == "" {
		logrus.Info("code throttling uses in-memory windows")
		return throttle.NewMemoryLimiter(cfg.CodeThrottleMax, cfg.CodeThrottleWindow), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, throttling fails open until it recovers")
	}
	limiter := throttle.NewRedisLimiter(client, "throttle:code", cfg.CodeThrottleMax, cfg.CodeThrottleWindow)
	return limiter, func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis client")
		}
	}
}

// newMailer builds the dispatcher for MAIL_TRANSPORT. With amqp the process
// both publishes to and consumes from the queue. The returned func releases
// the transport once pending mail has been handed off.
func newMailer(ctx context.Context, cfg config.Config) (*mail.AsyncDispatcher, func(), error) {
	smtpConfig := mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.EmailFrom,
	}
	noop := func() {}

	switch cfg.MailTransport {
	case "smtp":
		sender, err := mail.NewSMTPSender(smtpConfig)
		if err != nil {
			return nil, nil, err
		}
		return mail.NewAsyncDispatcher(sender, 0), noop, nil
	case "amqp":
		publisher, err := mail.NewQueuePublisher(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			return nil, nil, err
		}
		var delivery mail.Sender = mail.LogSender{}
		if cfg.SMTPHost != "" {
			sender, err := mail.NewSMTPSender(smtpConfig)
			if err != nil {
				return nil, nil, err
			}
			delivery = sender
		}
		consumer := mail.NewConsumer(cfg.AMQPURL, cfg.MailQueue, delivery)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("mail consumer stopped")
			}
		}()
		closePublisher := func() {
			if err := publisher.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close mail publisher")
			}
		}
		return mail.NewAsyncDispatcher(publisher, 0), closePublisher, nil
	case "", "log":
		return mail.NewAsyncDispatcher(mail.LogSender{}, 0), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported mail transport: %s", cfg.MailTransport)
	}
}

// RequestIDMiddleware propagates or assigns a request id.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// CORSMiddleware allows browser clients on other origins.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware writes one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"size":       c.Writer.Size(),
			"client_ip":  c.ClientIP(),
		}).Info("http_request")
	}
}
