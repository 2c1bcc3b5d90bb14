// Package routesはroutingを行います。
package routes

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/books"
	"todo-app/backend/internal/config"
	"todo-app/backend/internal/handlers"
	"todo-app/backend/internal/metrics"
	"todo-app/backend/internal/models"
	"todo-app/backend/internal/repositories"
	"todo-app/backend/internal/services"
)

// App は組み立て済みのルーターと、ジョブから使うサービスです。
type App struct {
	Router       *gin.Engine
	Users        *services.UserService
	Metrics      *metrics.Metrics
	LoginLimiter *RateLimiter
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
// mailer が nil の場合は設定からSMTPMailerを作ります。
func SetupRouter(cfg *config.Config, db *sqlx.DB, logger logrus.FieldLogger, mailer services.Mailer) (*App, error) {
	if mailer == nil {
		mailer = services.NewSMTPMailer(cfg.SMTP, logger)
	}
	m := metrics.New()

	r := gin.New()
	// ログイン制限は ClientIP 単位なので、信頼するプロキシ以外の X-Forwarded-For は使わない
	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(m.Middleware())

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// リポジトリ
	todoRepo := repositories.NewTodoRepository(db)
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewResetTokenRepository(db)

	seed, err := books.LoadSeed()
	if err != nil {
		return nil, err
	}
	bookStore, err := books.NewStore(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build book catalog: %w", err)
	}

	// サービス
	todoService := services.NewTodoService(todoRepo)
	userService := services.NewUserService(userRepo, resetRepo, mailer, cfg.FrontendURL, logger)
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	bookService := services.NewBookService(bookStore)

	// ハンドラー
	todoHandler := handlers.NewTodoHandler(todoService, logger)
	adminHandler := handlers.NewAdminHandler(todoService, logger)
	userHandler := handlers.NewUserHandler(userService, jwtService, m, logger)
	bookHandler := handlers.NewBookHandler(bookService, logger)
	healthHandler := handlers.NewHealthHandler(db, logger)

	loginLimiter := NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, logger)

	// ルーティング
	r.GET("/healthcheck", healthHandler.Healthcheck)
	r.GET("/healthcheck/db", healthHandler.DBCheck)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("", userHandler.RegisterHandler)
		authGroup.POST("/token", loginLimiter.Middleware(), userHandler.LoginHandler)
		authGroup.POST("/forgot-password", userHandler.ForgotPasswordHandler)
		authGroup.POST("/reset-password/:token", userHandler.ResetPasswordHandler)
	}

	authorized := r.Group("/")
	authorized.Use(AuthMiddleware(jwtService))
	{
		authorized.GET("/todos", todoHandler.GetTodosHandler)
		authorized.GET("/todos/:id", todoHandler.GetTodoByIDHandler)
		authorized.POST("/todos", todoHandler.CreateTodoHandler)
		authorized.PUT("/todos/:id", todoHandler.UpdateTodoHandler)
		authorized.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)

		authorized.GET("/user", userHandler.GetUserHandler)
		authorized.PUT("/user/password", userHandler.ChangePasswordHandler)
		authorized.PUT("/user/phone_number/:phone_number", userHandler.ChangePhoneNumberHandler)
	}

	admin := authorized.Group("/admin")
	admin.Use(RequireRole(models.RoleAdmin))
	{
		admin.GET("/todo", adminHandler.ListAllTodosHandler)
		admin.DELETE("/todo/:id", adminHandler.DeleteTodoHandler)
	}

	bookGroup := r.Group("/books")
	{
		bookGroup.GET("", bookHandler.ListBooksHandler)
		bookGroup.GET("/:id", bookHandler.GetBookHandler)
		bookGroup.POST("", bookHandler.CreateBookHandler)
		bookGroup.PUT("/:id", bookHandler.UpdateBookHandler)
		bookGroup.DELETE("/:id", bookHandler.DeleteBookHandler)
	}

	return &App{
		Router:       r,
		Users:        userService,
		Metrics:      m,
		LoginLimiter: loginLimiter,
	}, nil
}
