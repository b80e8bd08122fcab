package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-booking/internal/blobstore"
	"github.com/iliyamo/event-booking/internal/config"
	"github.com/iliyamo/event-booking/internal/database"
	"github.com/iliyamo/event-booking/internal/handler"
	"github.com/iliyamo/event-booking/internal/middleware"
	"github.com/iliyamo/event-booking/internal/queue"
	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/router"
	"github.com/iliyamo/event-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	blobs, err := blobstore.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("blob store init failed: %v", err)
	}

	organizers := repository.NewOrganizerRepo(db)
	attendees := repository.NewAttendeeRepo(db)
	locations := repository.NewLocationRepo(db)
	events := repository.NewEventRepo(db)
	reservations := repository.NewReservationRepo(db)

	store := repository.NewAdmissionStore(db, events, attendees, reservations)
	admission := service.NewAdmissionService(store, queue.NewAMQPPublisher(), cfg.SignupURL)

	// The consumer reconnects on its own; losing the broker never takes the
	// API down.
	go func() {
		if err := queue.StartInvitationConsumer(); err != nil {
			log.Printf("invitation consumer stopped: %v", err)
		}
	}()

	// Redis is optional: a nil client turns the limiter into a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, organizers, attendees),
		Browse:      handler.NewBrowseHandler(organizers, locations, events),
		Location:    handler.NewLocationHandler(locations),
		Event:       handler.NewEventHandler(events, locations, blobs),
		Reservation: handler.NewReservationHandler(admission, blobs),
	}, cfg.JWTSecret, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
