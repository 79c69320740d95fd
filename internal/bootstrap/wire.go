package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/repository/memory"
	"github.com/Domenick1991/flightbooking/internal/seats"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const kafkaCheckTimeout = 5 * time.Second

// Resources are the connections shared by the services. Cache and Producer
// are nil when Redis or Kafka are not configured.
type Resources struct {
	Store    repository.Store
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	closers  []func()
}

func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Resources, error) {
	r := &Resources{}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		r.Store = memory.NewStore(cfg.Booking.TxTimeout)
	default:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse database config: %w", err)
		}
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		r.closers = append(r.closers, pool.Close)
		if err := repository.Migrate(ctx, pool); err != nil {
			r.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		r.Store = repository.NewPGStore(pool, cfg.Booking.TxTimeout)
	}

	if cfg.Redis.Enabled() {
		r.Cache = cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL)
		if err := r.Cache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, cache calls will fail until it recovers")
		}
		r.closers = append(r.closers, func() { _ = r.Cache.Close() })
	}

	if cfg.Kafka.Enabled() {
		r.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log.WithField("component", "kafka-producer"))
		checkCtx, cancel := context.WithTimeout(ctx, kafkaCheckTimeout)
		if err := r.Producer.CheckConnection(checkCtx); err != nil {
			log.WithError(err).Warn("kafka unreachable, events will be dropped until it recovers")
		}
		cancel()
		r.closers = append(r.closers, func() { _ = r.Producer.Close() })
	}
	return r, nil
}

func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func (r *Resources) Services(cfg *config.Config) (api.Services, error) {
	allocator, err := seats.NewAllocator(*cfg.Booking.SeatMap)
	if err != nil {
		return api.Services{}, err
	}

	var (
		flightCache flights.FlightCache
		flightOpts  []flights.FlightServiceOption
		bookingOpts []booking.BookingServiceOption
	)
	if r.Cache != nil {
		flightCache = r.Cache
		bookingOpts = append(bookingOpts, booking.WithSeatLocks(r.Cache, cfg.Booking.SeatHoldTTL))
	}
	if r.Producer != nil {
		flightOpts = append(flightOpts, flights.WithProducer(r.Producer, cfg.Kafka.FlightTopic))
		bookingOpts = append(bookingOpts,
			booking.WithProducer(r.Producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	return api.Services{
		Users:    users.NewUserService(r.Store, cfg.Auth.BcryptCost),
		Flights:  flights.NewFlightService(r.Store, flightCache, flightOpts...),
		Bookings: booking.NewBookingService(r.Store, allocator, bookingOpts...),
		Health:   r.Store,
	}, nil
}
