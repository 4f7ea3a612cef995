// Package router assembles the gin engine: global middleware, every API
// route with its access policy, and the operational endpoints.
package router

import (
	"net/http"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/controllers"
	"github.com/franciscosanchezn/gin-recipe-api/internal/dto"
	"github.com/franciscosanchezn/gin-recipe-api/internal/media"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/permissions"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Options carries the settings the routes depend on.
type Options struct {
	PublicBaseURL      string
	PageSize           int
	SubscriptionsSize  int
	CORSAllowedOrigins []string
	Auth               auth.Config
}

// Deps are the collaborators shared by the controllers.
type Deps struct {
	DB      *gorm.DB
	Media   *media.Store
	Options Options
}

// New builds the engine with all routes registered.
func New(deps Deps) (*gin.Engine, error) {
	if err := registerValidations(); err != nil {
		return nil, err
	}

	db := deps.DB
	opts := deps.Options

	userService := services.NewUserService(db)
	recipeService := services.NewRecipeService(db)
	relationService := services.NewRelationService(db)
	oauthService := auth.NewOAuthService(db, userService, opts.Auth)

	authController := controllers.NewAuthController(userService, oauthService)
	userController := controllers.NewUserController(userService, relationService, deps.Media, opts.PageSize, opts.SubscriptionsSize)
	recipeController := controllers.NewRecipeController(
		recipeService,
		relationService,
		services.NewShoppingListService(db),
		deps.Media,
		opts.PublicBaseURL,
		opts.PageSize,
	)
	tagController := controllers.NewTagController(services.NewTagService(db))
	ingredientController := controllers.NewIngredientController(services.NewIngredientService(db))
	linkController := controllers.NewLinkController(recipeService, opts.PublicBaseURL)
	clientController := controllers.NewClientController(services.NewClientService(db))

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())
	router.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))

	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if deps.Media != nil {
		router.Static("/media", deps.Media.Root)
	}

	router.POST("/oauth/token", oauthService.HandleToken)
	router.GET("/s/:short_link/", linkController.Redirect)

	authenticated := middleware.RequirePolicy(permissions.AuthenticatedPolicy)
	staff := middleware.RequireStaff()

	api := router.Group("/api")
	api.Use(middleware.Authenticate(oauthService))
	{
		tokens := api.Group("/auth/token")
		{
			tokens.POST("/login/", authController.Login)
			tokens.POST("/logout/", authenticated, authController.Logout)
		}

		users := api.Group("/users")
		users.Use(middleware.RequirePolicy(permissions.UserPolicy))
		{
			users.GET("/", userController.ListUsers)
			users.POST("/", userController.Register)
			users.GET("/me/", userController.Me)
			users.DELETE("/me/", userController.DeleteMe)
			users.PUT("/me/avatar/", userController.SetAvatar)
			users.DELETE("/me/avatar/", userController.DeleteAvatar)
			users.POST("/set_password/", userController.SetPassword)
			users.GET("/subscriptions/", authenticated, userController.Subscriptions)
			users.GET("/:id/", userController.GetUser)
			users.POST("/:id/subscribe/", userController.Subscribe)
			users.DELETE("/:id/subscribe/", userController.Unsubscribe)
		}

		recipes := api.Group("/recipes")
		recipes.Use(middleware.RequirePolicy(permissions.RecipePolicy))
		{
			recipes.GET("/", recipeController.ListRecipes)
			recipes.POST("/", recipeController.CreateRecipe)
			recipes.GET("/download_shopping_cart/", authenticated, recipeController.DownloadShoppingCart)
			recipes.GET("/:id/", recipeController.GetRecipe)
			recipes.PUT("/:id/", recipeController.UpdateRecipe)
			recipes.PATCH("/:id/", recipeController.UpdateRecipe)
			recipes.DELETE("/:id/", recipeController.DeleteRecipe)
			recipes.GET("/:id/get-link/", recipeController.GetLink)
			recipes.POST("/:id/favorite/", recipeController.AddFavorite)
			recipes.DELETE("/:id/favorite/", recipeController.RemoveFavorite)
			recipes.POST("/:id/shopping_cart/", recipeController.AddToShoppingCart)
			recipes.DELETE("/:id/shopping_cart/", recipeController.RemoveFromShoppingCart)
		}

		tags := api.Group("/tags")
		{
			tags.GET("/", tagController.ListTags)
			tags.POST("/", staff, tagController.CreateTag)
			tags.GET("/:id/", tagController.GetTag)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("/", ingredientController.ListIngredients)
			ingredients.POST("/", staff, ingredientController.CreateIngredient)
			ingredients.GET("/:id/", ingredientController.GetIngredient)
		}

		clients := api.Group("/clients", staff)
		{
			clients.GET("/", clientController.ListClients)
			clients.POST("/", clientController.CreateClient)
			clients.DELETE("/:id/", clientController.DeleteClient)
		}
	}

	log.WithField("routes", len(router.Routes())).Info("Router initialized")
	return router, nil
}

// registerValidations installs the custom binding tags on gin's validator.
func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	dto.UseJSONFieldNames(v)
	return dto.RegisterValidations(v)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-recipe-api",
	})
}
