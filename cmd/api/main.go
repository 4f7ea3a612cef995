package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/franciscosanchezn/gin-recipe-api/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/media"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/router"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultTags are created on first start so recipes can be tagged right away.
var defaultTags = []string{"Breakfast", "Lunch", "Dinner"}

const tokenPurgeInterval = time.Hour

// @title Recipe API
// @version 1.0
// @description Recipe sharing backend: recipes, tags, ingredients, favorites, shopping cart and subscriptions.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Token" or "Bearer" followed by a space and the access token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Load configuration
	configuration := loadConfig()

	// Initialize logger
	setUpLogger(configuration)

	// Initialize database connection
	db := setupDatabase(configuration)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := services.NewClientService(db).EnsureClient(ctx, configuration.OAuthClientID, configuration.OAuthClientSecret, "Web frontend")
	checkPanicErr(err)

	go purgeExpiredTokens(ctx, db)

	// Initialize Gin router
	if configuration.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Deps{
		DB:    db,
		Media: media.NewStore(configuration.MediaRoot, configuration.MediaURL),
		Options: router.Options{
			PublicBaseURL:      configuration.PublicBaseURL,
			PageSize:           configuration.PageSize,
			SubscriptionsSize:  configuration.SubscriptionsSize,
			CORSAllowedOrigins: configuration.CORSAllowedOrigins,
			Auth: auth.Config{
				JWTSecret:    configuration.JWTSecret,
				ClientID:     configuration.OAuthClientID,
				ClientSecret: configuration.OAuthClientSecret,
				TokenTTL:     configuration.TokenTTL,
			},
		},
	})
	checkPanicErr(err)

	// Start the server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%v:%d", configuration.Host, configuration.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and the configured level
func setUpLogger(conf *config.Config) {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, using info", conf.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase connects, migrates and seeds the database
func setupDatabase(conf *config.Config) *gorm.DB {
	db, err := database.InitDatabase(conf.Database())
	checkPanicErr(err)
	checkPanicErr(database.Migrate(db))

	// Create only if is empty
	var count int64
	checkPanicErr(db.Model(&models.Tag{}).Count(&count).Error)
	if count == 0 {
		log.Info("Database is empty, seeding initial data")
		seedDatabase(db)
	} else {
		log.Info("Database already seeded with initial data")
	}
	return db
}

// seedDatabase creates the default tags
func seedDatabase(db *gorm.DB) {
	tags := services.NewTagService(db)
	for _, name := range defaultTags {
		if _, err := tags.CreateTag(context.Background(), name, ""); err != nil {
			log.WithError(err).WithField("tag", name).Warn("Failed to seed tag")
		}
	}
	log.Info("Database seeded successfully")
}

// purgeExpiredTokens drops expired token rows until ctx is done.
func purgeExpiredTokens(ctx context.Context, db *gorm.DB) {
	store := auth.NewGormTokenStore(db)
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				log.WithError(err).Warn("Token purge failed")
				continue
			}
			if n > 0 {
				log.WithField("purged", n).Info("Expired tokens purged")
			}
		}
	}
}
