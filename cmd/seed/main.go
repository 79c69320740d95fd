package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/fixture"
	"github.com/Domenick1991/flightbooking/internal/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "populate the flight booking database with sample data",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 5, Usage: "number of regular users besides the admin"},
			&cli.IntFlag{Name: "days", Value: 30, Usage: "scheduling horizon in days"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), DefaultText: "current time", Usage: "random seed"},
			&cli.BoolFlag{Name: "reset", Usage: "delete existing users and flights first"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	res, err := bootstrap.Open(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	services, err := res.Services(cfg)
	if err != nil {
		return err
	}

	sum, err := fixture.Populate(c.Context, fixture.Services{
		Users:    services.Users,
		Flights:  services.Flights,
		Bookings: services.Bookings,
	}, fixture.Options{
		Users: c.Int("users"),
		Days:  c.Int("days"),
		Seed:  c.Int64("seed"),
		Reset: c.Bool("reset"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "users: %d\nflights: %d\nbookings: %d\ntickets: %d\nskipped: %d\n",
		sum.Users, sum.Flights, sum.Bookings, sum.Tickets, sum.Skipped)
	fmt.Fprintf(c.App.Writer, "admin: %s / %s\n", fixture.AdminEmail, fixture.AdminPassword)
	return nil
}
