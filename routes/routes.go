package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell-api/cache"
	"inkwell-api/config"
	"inkwell-api/controllers"
	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/repositories"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cacheClient *cache.Cache, cfg *config.Config) {
	// Controllers
	authController := controllers.NewAuthController(db, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)
	categoryController := controllers.NewCategoryController(db)
	tagController := controllers.NewTagController(db)
	commentController := controllers.NewCommentController(repositories.NewCommentRepository(db))
	mediaController := controllers.NewMediaController(db, &cfg.Upload)
	analyticsController := controllers.NewAnalyticsController(db, cacheClient)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	v1.GET("/posts", postController.GetPosts)
	v1.GET("/posts/:id", postController.GetPost)
	v1.GET("/posts/:id/comments",
		middleware.OptionalAuthMiddleware(db, cfg.Auth.JWTSecret),
		commentController.GetComments)

	v1.GET("/categories", categoryController.GetCategories)
	v1.GET("/categories/:id", categoryController.GetCategory)
	v1.GET("/tags", tagController.GetTags)
	v1.GET("/tags/:id", tagController.GetTag)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(db, cfg.Auth.JWTSecret))
	{
		protected.GET("/auth/me", authController.Me)

		// User routes
		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireRoles(models.RoleAdmin), userController.GetUsers)
			users.GET("/:id", userController.GetUser)
			users.PUT("/:id", userController.UpdateUser)
			users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userController.DeleteUser)
		}

		// Post routes
		posts := protected.Group("/posts")
		{
			posts.POST("", postController.CreatePost)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
			posts.POST("/:id/comments", commentController.AddComment)
		}

		// Taxonomy routes
		taxonomy := protected.Group("/")
		taxonomy.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
		{
			taxonomy.POST("/categories", categoryController.CreateCategory)
			taxonomy.PUT("/categories/:id", categoryController.UpdateCategory)
			taxonomy.DELETE("/categories/:id", categoryController.DeleteCategory)
			taxonomy.POST("/tags", tagController.CreateTag)
			taxonomy.PUT("/tags/:id", tagController.UpdateTag)
			taxonomy.DELETE("/tags/:id", tagController.DeleteTag)
		}

		// Comment routes
		comments := protected.Group("/comments")
		{
			comments.GET("/:id", commentController.GetComment)
			comments.PUT("/:id", commentController.UpdateComment)
			comments.DELETE("/:id", commentController.DeleteComment)
			comments.POST("/:id/like", commentController.LikeComment)
			comments.POST("/:id/report", commentController.ReportComment)
		}

		// Media routes
		media := protected.Group("/media")
		{
			media.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEditor, models.RoleAuthor), mediaController.UploadMedia)
			media.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleEditor), mediaController.GetAllMedia)
			media.GET("/:id", mediaController.GetMedia)
			media.DELETE("/:id", mediaController.DeleteMedia)
		}

		// Analytics routes
		analytics := protected.Group("/analytics")
		{
			analytics.GET("/posts/:id", analyticsController.GetPostAnalytics)
			analytics.GET("/engagement",
				middleware.RequireRoles(models.RoleAdmin, models.RoleEditor),
				analyticsController.GetEngagement)
		}
	}
}
