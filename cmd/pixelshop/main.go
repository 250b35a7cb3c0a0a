package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelShop/app/controllers"
	"github.com/ManuelReschke/PixelShop/app/repository"
	"github.com/ManuelReschke/PixelShop/internal/pkg/account"
	"github.com/ManuelReschke/PixelShop/internal/pkg/apidocs"
	"github.com/ManuelReschke/PixelShop/internal/pkg/auth"
	"github.com/ManuelReschke/PixelShop/internal/pkg/cache"
	"github.com/ManuelReschke/PixelShop/internal/pkg/catalog"
	"github.com/ManuelReschke/PixelShop/internal/pkg/cleanup"
	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
	"github.com/ManuelReschke/PixelShop/internal/pkg/database"
	"github.com/ManuelReschke/PixelShop/internal/pkg/env"
	"github.com/ManuelReschke/PixelShop/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/PixelShop/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/PixelShop/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelShop/internal/pkg/mail"
	"github.com/ManuelReschke/PixelShop/internal/pkg/media"
	"github.com/ManuelReschke/PixelShop/internal/pkg/oauth"
	"github.com/ManuelReschke/PixelShop/internal/pkg/otp"
	"github.com/ManuelReschke/PixelShop/internal/pkg/response"
	"github.com/ManuelReschke/PixelShop/internal/pkg/router"
	"github.com/ManuelReschke/PixelShop/internal/pkg/storage"
	"github.com/ManuelReschke/PixelShop/internal/pkg/token"
)

// Application holds the HTTP app and the background workers it owns.
type Application struct {
	App       *fiber.App
	Queue     *jobqueue.Queue
	Scheduler *cleanup.Scheduler
	Cache     *redis.Client
	Config    *config.Config
}

func main() {
	a, err := NewApplication()
	if err != nil {
		log.Fatal(err)
	}

	a.Queue.Start()
	if a.Config.Cleanup.Enabled {
		a.Scheduler.Start()
	}

	go func() {
		addr := fmt.Sprintf("%s:%s", a.Config.AppHost, a.Config.AppPort)
		if err := a.App.Listen(addr); err != nil {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := a.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	a.Scheduler.Stop()
	a.Queue.Stop()
	if err := a.Cache.Close(); err != nil {
		log.Printf("Cache close: %v", err)
	}
}

// findBasePath locates the project root from the binary's working directory.
func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			return path
		}
	}
	return "./"
}

func NewApplication() (*Application, error) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	db, err := database.SetupDatabase(cfg.DB, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	client := cache.SetupCache(cfg.Cache)
	tx := repository.NewTransactor(db)

	// queue + background jobs
	queue := jobqueue.NewQueue(client, cfg.Queue.Workers)
	files, err := storage.New(ctx, cfg.Storage, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	storage.RegisterDeleteHandler(queue, files)
	dispatcher := mail.NewQueueDispatcher(queue, mail.NewSMTPSender(cfg.Mail))

	// services
	tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	otpService := otp.NewService(otp.NewRedisStore(client), dispatcher, cfg.OTP.TTL, cfg.OTP.Length)
	authService := auth.NewService(tx, otpService, tokens, mail.NewWelcomeNotifier(dispatcher))
	uploader := media.NewUploader(files, imageprocessor.New(imageprocessor.MaxWorkers), queue)
	sprites := catalog.NewSpriteService(tx, uploader)
	packs := catalog.NewAssetPackService(tx, uploader)
	categories := catalog.NewCategoryService(tx, cache.NewStore(client))
	accounts := account.NewService(tx, uploader)

	hostname, _ := os.Hostname()
	locker := cache.NewLocker(client, fmt.Sprintf("%s:%d", hostname, os.Getpid()))
	scheduler := cleanup.NewScheduler(cfg.Cleanup, tx, locker, sprites, packs)

	// controllers
	cookies := controllers.CookieConfig{
		Secure:     cfg.CookieSecure,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}
	var captcha controllers.CaptchaVerifier
	if cfg.HCaptcha.Enabled() {
		captcha = hcaptcha.NewVerifier(cfg.HCaptcha.Secret)
	}
	handlers := router.Handlers{
		Auth:       controllers.NewAuthController(authService, captcha, cookies, cfg.OTP.TTL),
		OAuth:      controllers.NewOAuthController(authService, cookies, cfg.FrontendURL, oauth.Setup(cfg)),
		Sprites:    controllers.NewSpriteController(sprites),
		AssetPacks: controllers.NewAssetPackController(packs),
		Categories: controllers.NewCategoryController(categories),
		Users:      controllers.NewUserController(accounts),
		Admin:      controllers.NewAdminController(scheduler, cfg.Cleanup.RetentionDays),
	}

	basePath := findBasePath()

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    20 << 20, // 20 MiB
		ErrorHandler: response.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))

	// fiber metrics
	if cfg.Metrics.Password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				cfg.Metrics.User: cfg.Metrics.Password,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	docPath := basePath + "public/docs/v1/openapi.yml"
	doc, err := apidocs.Load(ctx, docPath)
	if err != nil {
		return nil, err
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: docPath,
		Path:     "v1",
	}))

	// ROUTER
	deps := router.Deps{
		Handlers:       handlers,
		Tokens:         tokens,
		Tx:             tx,
		LimiterStorage: cache.NewFiberStorage(cfg.Cache, cache.LimiterDB),
	}
	if cfg.Storage.Driver == "local" {
		deps.UploadsDir = cfg.Storage.LocalPath
	}
	router.InstallRouter(app, deps)

	for _, route := range apidocs.Undocumented(doc, app.GetRoutes(true), "/api/v1") {
		log.Printf("Warning: route %s is missing from %s", route, docPath)
	}

	return &Application{
		App:       app,
		Queue:     queue,
		Scheduler: scheduler,
		Cache:     client,
		Config:    cfg,
	}, nil
}
