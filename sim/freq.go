package sim

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the number of ticks between two consecutive cycles.
func (f Freq) Period() VTimeInTick {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}

	return VTimeInTick(float64(TicksPerSecond) / float64(f))
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInTick) uint64 {
	return uint64(time / f.Period())
}

// ThisTick returns the time of the cycle boundary at or after now.
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) ThisTick(now VTimeInTick) VTimeInTick {
	period := f.Period()
	count := (now + period - 1) / period

	return count * period
}

// NextTick returns the time of the cycle boundary strictly after now.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) NextTick(now VTimeInTick) VTimeInTick {
	period := f.Period()
	count := now / period

	return (count + 1) * period
}

// NCyclesLater returns the time after N cycles. The result is always aligned
// to a cycle boundary.
func (f Freq) NCyclesLater(n int, now VTimeInTick) VTimeInTick {
	if n < 0 {
		log.Panicf("cannot go %d cycles back in time", n)
	}

	return f.ThisTick(now + VTimeInTick(n)*f.Period())
}

// ParseFreq parses frequencies such as "1GHz", "800 MHz", or "100".
func ParseFreq(s string) (Freq, error) {
	str := strings.TrimSpace(s)
	units := []struct {
		suffix string
		unit   Freq
	}{
		{"GHz", GHz},
		{"MHz", MHz},
		{"KHz", KHz},
		{"kHz", KHz},
		{"Hz", Hz},
	}

	unit := Hz
	for _, u := range units {
		if strings.HasSuffix(str, u.suffix) {
			unit = u.unit
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))

			break
		}
	}

	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}

	if v <= 0 {
		return 0, fmt.Errorf("invalid frequency %q: must be positive", s)
	}

	return Freq(v) * unit, nil
}
