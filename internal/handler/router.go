package handler

import (
	"corebank/internal/config"
	"corebank/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter wires the middleware and routes.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)

	authed := AuthMiddleware(h.authService)
	adminOnly := AuthMiddleware(h.authService, model.RoleAdmin)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Login)
		}

		users := api.Group("/users")
		{
			users.POST("", h.RegisterUser)
			users.GET("", adminOnly, h.ListUsers)
			users.GET("/me", authed, h.GetCurrentUser)
			users.GET("/:id", adminOnly, h.GetUserByID)
			users.PATCH("/:id", authed, h.UpdateUser)
			users.DELETE("/:id", adminOnly, h.DeleteUser)
		}

		accountTypes := api.Group("/account-types")
		{
			accountTypes.POST("", adminOnly, h.CreateAccountType)
			accountTypes.GET("", authed, h.ListAccountTypes)
		}

		accounts := api.Group("/accounts", authed)
		{
			accounts.POST("", h.CreateAccount)
			accounts.GET("", h.ListAccounts)
			accounts.GET("/:id", h.GetAccount)
			accounts.DELETE("/:id", h.DeleteAccount)
			accounts.GET("/:id/transactions", h.ListAccountTransactions)
		}

		transactions := api.Group("/transactions")
		{
			transactions.POST("", authed, h.CreateTransaction)
			transactions.GET("", adminOnly, h.ListTransactions)
			transactions.GET("/:no", adminOnly, h.GetTransaction)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
