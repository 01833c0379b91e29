package game

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedDuration is returned for a countdown value that is not a
// non-negative whole number of seconds.
var ErrMalformedDuration = errors.New("game: malformed duration")

// DurationSource supplies the countdown length as typed by the player. It is
// read each time a round is armed.
type DurationSource interface {
	Value() string
}

// StaticDuration is a DurationSource with a fixed value.
type StaticDuration string

func (d StaticDuration) Value() string { return string(d) }

// DurationFunc adapts a function to DurationSource.
type DurationFunc func() string

func (f DurationFunc) Value() string { return f() }

const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration converts a seconds field into a duration. Malformed input
// yields a zero duration together with ErrMalformedDuration, so callers can
// still run a zero-length countdown.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrMalformedDuration, n)
	}
	if int64(n) > maxSeconds {
		return 0, fmt.Errorf("%w: %d is too long", ErrMalformedDuration, n)
	}
	return time.Duration(n) * time.Second, nil
}
