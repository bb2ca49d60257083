package main

import (
	itineraryrepo "tripflow/internal/itinerary/repository"
	"tripflow/internal/trips/handler"
	"tripflow/internal/trips/repository"
	"tripflow/internal/trips/service"
	"tripflow/internal/trips/validator"
	"tripflow/pkg/app"
	"tripflow/pkg/config"
)

const ServiceName = "trips"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Trips service")
	tripService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTripHandler(tripService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.TripService {
	tripValidator := validator.NewTripValidator(cfg.Log)
	tripRepo := repository.NewMongoTripRepository(cfg)
	scheduleRepo := itineraryrepo.NewMongoScheduleRepository(cfg)

	tripService := service.NewTripService(
		tripRepo,
		scheduleRepo,
		tripValidator,
		cfg,
	)

	cfg.Log.Info("Trips service initialized", "database", cfg.MongoDatabaseName)
	return tripService
}
