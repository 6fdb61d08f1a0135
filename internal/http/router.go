package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ramtsps/Art-Academy-Website/internal/config"
	"github.com/ramtsps/Art-Academy-Website/internal/http/handler"
	httpmiddleware "github.com/ramtsps/Art-Academy-Website/internal/http/middleware"
	"github.com/ramtsps/Art-Academy-Website/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, catalogHandler *handler.CatalogHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google", authHandler.GoogleLogin)
			auth.POST("/facebook", authHandler.FacebookLogin)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", authMiddleware.RequireToken, authHandler.Me)
		}

		products := api.Group("/products")
		{
			products.GET("", catalogHandler.Products)
			products.GET("/art-classes", catalogHandler.ArtClasses)
			products.GET("/small-gifts", catalogHandler.SmallGifts)
			products.GET("/art-supplies", catalogHandler.ArtSupplies)
			products.GET("/return-gifts", catalogHandler.ReturnGifts)
		}
	}

	return r
}
