// Package seats validates and assigns seat numbers. Seat numbers are a row
// (1-based) followed by a seat letter, e.g. "12A". Each seat class owns a
// contiguous band of rows.
package seats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type Band struct {
	FirstRow int `yaml:"first_row"`
	LastRow  int `yaml:"last_row"`
}

func (b Band) contains(row int) bool {
	return row >= b.FirstRow && row <= b.LastRow
}

type Map struct {
	Rows    int                       `yaml:"rows"`
	Letters string                    `yaml:"letters"`
	Bands   map[domain.SeatClass]Band `yaml:"bands"`
}

func DefaultMap() Map {
	return Map{
		Rows:    40,
		Letters: "ABCDEF",
		Bands: map[domain.SeatClass]Band{
			domain.SeatClassFirst:    {FirstRow: 1, LastRow: 2},
			domain.SeatClassBusiness: {FirstRow: 3, LastRow: 7},
			domain.SeatClassEconomy:  {FirstRow: 8, LastRow: 40},
		},
	}
}

// Validate checks that every class has a band inside the map and that bands
// do not overlap.
func (m Map) Validate() error {
	if m.Rows < 1 || m.Rows > 99 {
		return fmt.Errorf("seat map: rows must be within 1..99, got %d", m.Rows)
	}
	if m.Letters == "" {
		return fmt.Errorf("seat map: no seat letters")
	}
	for _, r := range m.Letters {
		if r < 'A' || r > 'Z' || strings.Count(m.Letters, string(r)) > 1 {
			return fmt.Errorf("seat map: letters must be distinct upper-case A-Z, got %q", m.Letters)
		}
	}
	owner := make(map[int]domain.SeatClass, m.Rows)
	for _, class := range domain.SeatClasses {
		band, ok := m.Bands[class]
		if !ok {
			return fmt.Errorf("seat map: no rows for class %s", class)
		}
		if band.FirstRow < 1 || band.LastRow > m.Rows || band.FirstRow > band.LastRow {
			return fmt.Errorf("seat map: class %s rows %d-%d outside 1-%d", class, band.FirstRow, band.LastRow, m.Rows)
		}
		for row := band.FirstRow; row <= band.LastRow; row++ {
			if other, taken := owner[row]; taken {
				return fmt.Errorf("seat map: row %d assigned to both %s and %s", row, other, class)
			}
			owner[row] = class
		}
	}
	return nil
}

// Parse splits a seat number into row and letter. The letter is upper-cased.
func Parse(seat string) (int, byte, error) {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	if len(seat) < 2 || len(seat) > 3 {
		return 0, 0, fmt.Errorf("%w: malformed seat number %q", domain.ErrInvalidInput, seat)
	}
	letter := seat[len(seat)-1]
	if letter < 'A' || letter > 'Z' {
		return 0, 0, fmt.Errorf("%w: malformed seat number %q", domain.ErrInvalidInput, seat)
	}
	digits := seat[:len(seat)-1]
	if digits[0] == '0' || strings.Trim(digits, "0123456789") != "" {
		return 0, 0, fmt.Errorf("%w: malformed seat number %q", domain.ErrInvalidInput, seat)
	}
	row, _ := strconv.Atoi(digits)
	return row, letter, nil
}

func Format(row int, letter byte) string {
	return strconv.Itoa(row) + string(letter)
}

// Allocator makes seat decisions against a set of taken seats supplied by
// the caller. It keeps no state of its own.
type Allocator struct {
	seatMap Map
}

func NewAllocator(m Map) (*Allocator, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{seatMap: m}, nil
}

func (a *Allocator) Map() Map {
	return a.seatMap
}

// Check validates a requested seat for the class and returns its normalized
// form. Seats outside the class band or already in taken are unavailable.
func (a *Allocator) Check(seat string, class domain.SeatClass, taken map[string]struct{}) (string, error) {
	band, ok := a.seatMap.Bands[class]
	if !ok {
		return "", fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidInput, class)
	}
	row, letter, err := Parse(seat)
	if err != nil {
		return "", err
	}
	normalized := Format(row, letter)
	if row > a.seatMap.Rows || strings.IndexByte(a.seatMap.Letters, letter) < 0 {
		return "", fmt.Errorf("%w: seat %s does not exist", domain.ErrSeatUnavailable, normalized)
	}
	if !band.contains(row) {
		return "", fmt.Errorf("%w: seat %s is not in %s class (rows %d-%d)",
			domain.ErrSeatUnavailable, normalized, class, band.FirstRow, band.LastRow)
	}
	if _, held := taken[normalized]; held {
		return "", fmt.Errorf("%w: seat %s is already taken", domain.ErrSeatUnavailable, normalized)
	}
	return normalized, nil
}

// Assign returns the first free seat of the class band, front row first.
func (a *Allocator) Assign(class domain.SeatClass, taken map[string]struct{}) (string, error) {
	band, ok := a.seatMap.Bands[class]
	if !ok {
		return "", fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidInput, class)
	}
	for row := band.FirstRow; row <= band.LastRow; row++ {
		for i := 0; i < len(a.seatMap.Letters); i++ {
			seat := Format(row, a.seatMap.Letters[i])
			if _, held := taken[seat]; !held {
				return seat, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no free %s seats left", domain.ErrSeatUnavailable, class)
}

// Capacity is the number of seats in the class band.
func (a *Allocator) Capacity(class domain.SeatClass) int {
	band, ok := a.seatMap.Bands[class]
	if !ok {
		return 0
	}
	return (band.LastRow - band.FirstRow + 1) * len(a.seatMap.Letters)
}
