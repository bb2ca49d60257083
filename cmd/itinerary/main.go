package main

import (
	"tripflow/internal/itinerary/events"
	itineraryhandler "tripflow/internal/itinerary/handler"
	itineraryrepo "tripflow/internal/itinerary/repository"
	itineraryservice "tripflow/internal/itinerary/service"
	itineraryvalidator "tripflow/internal/itinerary/validator"
	listshandler "tripflow/internal/lists/handler"
	listsrepo "tripflow/internal/lists/repository"
	listsservice "tripflow/internal/lists/service"
	tripsrepo "tripflow/internal/trips/repository"
	"tripflow/pkg/app"
	"tripflow/pkg/config"
	"tripflow/pkg/kafka"
	kafka_config "tripflow/pkg/kafka/config"
	kafkamw "tripflow/pkg/kafka/middleware"
)

const ServiceName = "itinerary"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Itinerary service")

	publisher := initPublisher(cfg)
	itineraryService, listService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		itineraryhandler.NewScheduleHandler(itineraryService, cfg.Log),
		listshandler.NewListHandler(listService, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		itineraryService.Close()
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, schedule events will not be published")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, events.TopicScheduleSaved, events.TopicScheduleDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamw.ProducerLogging(cfg.Log))

	cfg.Log.Info("Kafka producer initialized",
		"topic", events.TopicScheduleSaved,
		"brokers", kafkaCfg.Brokers,
	)
	return events.NewKafkaPublisher(producer, cfg.Log)
}

func initServices(cfg *config.Config, publisher events.Publisher) (itineraryservice.ItineraryService, listsservice.ListService) {
	scheduleValidator := itineraryvalidator.NewScheduleValidator(cfg.Log)
	scheduleRepo := itineraryrepo.NewMongoScheduleRepository(cfg)
	tripRepo := tripsrepo.NewMongoTripRepository(cfg)
	listRepo := listsrepo.NewMongoListRepository(cfg)

	itineraryService := itineraryservice.NewItineraryService(
		scheduleRepo,
		tripRepo,
		listRepo,
		scheduleValidator,
		publisher,
		cfg,
	)
	listService := listsservice.NewListService(listRepo, tripRepo, cfg)

	cfg.Log.Info("Itinerary service initialized", "database", cfg.MongoDatabaseName)
	return itineraryService, listService
}
