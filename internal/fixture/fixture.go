// Package fixture fills an empty system with sample users, flights and
// bookings through the public services, so every row obeys the same rules as
// live traffic.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/shopspring/decimal"
)

const (
	AdminEmail    = "admin@flightsystem.com"
	AdminPassword = "admin123"
	UserPassword  = "password123"

	firstFlightNumber = 1000
	flightsPerBatch   = 5
	batchEveryDays    = 3
)

var (
	airports = []string{"JFK", "LAX", "ORD", "DFW", "ATL", "SFO", "MIA", "SEA", "BOS", "LAS"}

	sampleUsers = [][2]string{
		{"John", "Doe"}, {"Jane", "Smith"}, {"Mike", "Johnson"}, {"Sarah", "Williams"}, {"David", "Brown"},
	}

	passengerFirst = []string{"Alice", "Bob", "Charlie", "Diana", "Edward", "Fiona", "George", "Hannah"}
	passengerLast  = []string{"Anderson", "Baker", "Clark", "Davis", "Evans", "Fisher", "Garcia", "Harris"}

	// paid is three times as likely as the others.
	bookingOutcomes = []domain.BookingStatus{
		domain.BookingStatusBooked,
		domain.BookingStatusPaid, domain.BookingStatusPaid, domain.BookingStatusPaid,
		domain.BookingStatusCancelled,
	}
)

type Services struct {
	Users    users.UserUseCase
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
}

type Options struct {
	// Users is the number of regular users besides the admin.
	Users int
	// Days is the scheduling horizon; a batch of flights departs every third day.
	Days  int
	Seed  int64
	Now   time.Time
	Reset bool
}

type Summary struct {
	Users    int
	Flights  int
	Bookings int
	Tickets  int
	Skipped  int
}

type builder struct {
	svc Services
	rnd *rand.Rand
	now time.Time
	sum Summary
}

func Populate(ctx context.Context, svc Services, opts Options) (Summary, error) {
	if opts.Users < 0 || opts.Days < 1 {
		return Summary{}, fmt.Errorf("%w: users must be >= 0 and days >= 1", domain.ErrInvalidInput)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	b := &builder{svc: svc, rnd: rand.New(rand.NewSource(opts.Seed)), now: opts.Now}

	if opts.Reset {
		if err := b.reset(ctx); err != nil {
			return b.sum, fmt.Errorf("reset: %w", err)
		}
	}
	regular, err := b.users(ctx, opts.Users)
	if err != nil {
		return b.sum, fmt.Errorf("users: %w", err)
	}
	schedule, err := b.flights(ctx, opts.Days)
	if err != nil {
		return b.sum, fmt.Errorf("flights: %w", err)
	}
	if err := b.bookings(ctx, regular, schedule); err != nil {
		return b.sum, fmt.Errorf("bookings: %w", err)
	}
	return b.sum, nil
}

func (b *builder) reset(ctx context.Context) error {
	existing, err := b.svc.Users.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range existing {
		if err := b.svc.Users.DeleteUser(ctx, u.ID); err != nil {
			return err
		}
	}
	scheduled, err := b.svc.Flights.ListFlights(ctx, repository.FlightFilter{})
	if err != nil {
		return err
	}
	for _, f := range scheduled {
		if err := b.svc.Flights.DeleteFlight(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) users(ctx context.Context, n int) ([]*domain.User, error) {
	if _, err := b.svc.Users.CreateUser(ctx, users.CreateUserInput{
		FirstName: "Admin", LastName: "User", Email: AdminEmail, Password: AdminPassword, Role: domain.RoleAdmin,
	}); err != nil {
		return nil, err
	}
	b.sum.Users++

	regular := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := fmt.Sprintf("User%d", i+1), "Sample"
		if i < len(sampleUsers) {
			first, last = sampleUsers[i][0], sampleUsers[i][1]
		}
		u, err := b.svc.Users.CreateUser(ctx, users.CreateUserInput{
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@example.com", first, last),
			Password:  UserPassword,
		})
		if err != nil {
			return nil, err
		}
		regular = append(regular, u)
		b.sum.Users++
	}
	return regular, nil
}

func (b *builder) flights(ctx context.Context, days int) ([]*domain.Flight, error) {
	today := b.now.Truncate(24 * time.Hour)
	number := firstFlightNumber

	var out []*domain.Flight
	for day := 0; day < days; day += batchEveryDays {
		for i := 0; i < flightsPerBatch; i++ {
			origin := airports[b.rnd.Intn(len(airports))]
			destination := origin
			for destination == origin {
				destination = airports[b.rnd.Intn(len(airports))]
			}
			departure := today.AddDate(0, 0, day).
				Add(time.Duration(6+b.rnd.Intn(17)) * time.Hour).
				Add(time.Duration(15*b.rnd.Intn(4)) * time.Minute)
			hours := 2 + b.rnd.Intn(5)
			price := decimal.NewFromFloat(100 + float64(hours*50) + b.rnd.Float64()*200).Round(2)

			f, err := b.svc.Flights.CreateFlight(ctx, flights.CreateFlightInput{
				Code:          fmt.Sprintf("FL%d", number),
				Origin:        origin,
				Destination:   destination,
				DepartureTime: departure,
				ArrivalTime:   departure.Add(time.Duration(hours) * time.Hour),
				BasePrice:     price,
			})
			if err != nil {
				return nil, err
			}
			number++
			b.sum.Flights++

			if f, err = b.advance(ctx, f, b.targetStatus(day)); err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// targetStatus picks a plausible status for a flight departing day days from
// now: today's flights may be under way, next week's are open for sale, and
// later ones are a mix.
func (b *builder) targetStatus(day int) domain.FlightStatus {
	var choices []domain.FlightStatus
	switch {
	case day == 0:
		choices = []domain.FlightStatus{domain.FlightStatusActive, domain.FlightStatusStarted, domain.FlightStatusEnRoute}
	case day < 7:
		return domain.FlightStatusActive
	default:
		choices = []domain.FlightStatus{domain.FlightStatusActive, domain.FlightStatusInactive, domain.FlightStatusDelayed}
	}
	return choices[b.rnd.Intn(len(choices))]
}

// advance walks a new active flight to target through legal transitions.
func (b *builder) advance(ctx context.Context, f *domain.Flight, target domain.FlightStatus) (*domain.Flight, error) {
	var path []domain.FlightStatus
	switch target {
	case domain.FlightStatusActive:
	case domain.FlightStatusEnRoute:
		path = []domain.FlightStatus{domain.FlightStatusStarted, domain.FlightStatusEnRoute}
	default:
		path = []domain.FlightStatus{target}
	}
	for _, status := range path {
		var err error
		if f, err = b.svc.Flights.UpdateFlightStatus(ctx, f.ID, status); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (b *builder) bookings(ctx context.Context, regular []*domain.User, schedule []*domain.Flight) error {
	var open []*domain.Flight
	for _, f := range schedule {
		if flights.IsBookable(*f, b.now) {
			open = append(open, f)
		}
	}
	if len(open) == 0 {
		return nil
	}

	for _, u := range regular {
		count := 1 + b.rnd.Intn(4)
		for i := 0; i < count; i++ {
			flight := open[b.rnd.Intn(len(open))]
			created, err := b.svc.Bookings.CreateBooking(ctx, booking.CreateBookingInput{
				UserID:     u.ID,
				FlightID:   flight.ID,
				Passengers: b.passengers(1 + b.rnd.Intn(4)),
			})
			if errors.Is(err, domain.ErrSeatUnavailable) {
				b.sum.Skipped++
				continue
			}
			if err != nil {
				return err
			}
			b.sum.Bookings++
			b.sum.Tickets += len(created.Tickets)

			if err := b.settle(ctx, created); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) passengers(n int) []booking.PassengerInput {
	out := make([]booking.PassengerInput, n)
	for i := range out {
		out[i] = booking.PassengerInput{
			Name:           passengerFirst[b.rnd.Intn(len(passengerFirst))] + " " + passengerLast[b.rnd.Intn(len(passengerLast))],
			PassportNumber: fmt.Sprintf("P%08d", 10000000+b.rnd.Intn(90000000)),
			SeatClass:      b.seatClass(),
		}
	}
	return out
}

// seatClass draws economy, business and first at 70/20/10.
func (b *builder) seatClass() domain.SeatClass {
	switch n := b.rnd.Intn(100); {
	case n < 70:
		return domain.SeatClassEconomy
	case n < 90:
		return domain.SeatClassBusiness
	default:
		return domain.SeatClassFirst
	}
}

func (b *builder) settle(ctx context.Context, created *domain.Booking) error {
	target := bookingOutcomes[b.rnd.Intn(len(bookingOutcomes))]
	if target == domain.BookingStatusBooked {
		return nil
	}
	_, err := b.svc.Bookings.UpdateBookingStatus(ctx, created.ID, target)
	return err
}
