package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sarchlab/accelsim/sim"
)

// EnvPrefix is the prefix of all the variables that the configuration reads.
const EnvPrefix = "ACCELSIM_"

// DefaultEnvFile is read by Load when no file is given. It may be missing.
const DefaultEnvFile = ".env"

type binding struct {
	key   string
	apply func(c *Config, value string) error
}

func addrBinding(key string, field func(c *Config) *uint64) binding {
	return binding{key, func(c *Config, v string) error {
		n, err := ParseSize(v)
		if err != nil {
			return err
		}

		*field(c) = n

		return nil
	}}
}

func tickBinding(key string, field func(c *Config) *sim.VTimeInTick) binding {
	return binding{key, func(c *Config, v string) error {
		t, err := ParseTicks(v)
		if err != nil {
			return err
		}

		*field(c) = t

		return nil
	}}
}

var bindings = []binding{
	addrBinding("NPU_PIO_ADDR", func(c *Config) *uint64 { return &c.NPU.PioAddr }),
	addrBinding("NPU_PIO_SIZE", func(c *Config) *uint64 { return &c.NPU.PioSize }),
	tickBinding("NPU_PIO_LATENCY",
		func(c *Config) *sim.VTimeInTick { return &c.NPU.PioLatency }),
	addrBinding("NPU_SCRATCHPAD_BASE",
		func(c *Config) *uint64 { return &c.NPU.ScratchpadBase }),
	addrBinding("NPU_SCRATCHPAD_SIZE",
		func(c *Config) *uint64 { return &c.NPU.ScratchpadSize }),
	tickBinding("NPU_COMPUTE_TICKS",
		func(c *Config) *sim.VTimeInTick { return &c.NPU.ComputeTicks }),
	addrBinding("NPU_STATUS_OFFSET",
		func(c *Config) *uint64 { return &c.NPU.StatusOffset }),
	addrBinding("DMA_PIO_ADDR", func(c *Config) *uint64 { return &c.DMA.PioAddr }),
	addrBinding("DMA_PIO_SIZE", func(c *Config) *uint64 { return &c.DMA.PioSize }),
	tickBinding("DMA_PIO_LATENCY",
		func(c *Config) *sim.VTimeInTick { return &c.DMA.PioLatency }),
	{"DMA_MAX_TRANSFER_SIZE", func(c *Config, v string) error {
		n, err := ParseSize(v)
		if err != nil {
			return err
		}

		if n > uint64(^uint32(0)) {
			return errors.Errorf("%d does not fit in 32 bits", n)
		}

		c.DMA.MaxTransferSize = uint32(n)

		return nil
	}},
	addrBinding("MEM_BASE", func(c *Config) *uint64 { return &c.Memory.Base }),
	addrBinding("MEM_CAPACITY",
		func(c *Config) *uint64 { return &c.Memory.Capacity }),
	{"MEM_LATENCY", func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "invalid cycle count %q", v)
		}

		c.Memory.Latency = n

		return nil
	}},
	{"MEM_FREQ", func(c *Config, v string) error {
		f, err := sim.ParseFreq(v)
		if err != nil {
			return errors.WithStack(err)
		}

		c.Memory.Freq = f

		return nil
	}},
	tickBinding("DRIVER_POLL_INTERVAL",
		func(c *Config) *sim.VTimeInTick { return &c.Driver.PollInterval }),
	tickBinding("DRIVER_TIMEOUT",
		func(c *Config) *sim.VTimeInTick { return &c.Driver.Timeout }),
}

// Load builds a configuration from the defaults, the dotenv files, and the
// environment, in increasing order of priority. When no file is given,
// DefaultEnvFile is read if it exists.
func Load(files ...string) (Config, error) {
	vars := make(map[string]string)

	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			files = []string{DefaultEnvFile}
		}
	}

	if len(files) > 0 {
		fileVars, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, errors.Wrap(err, "reading env files")
		}

		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, found := strings.Cut(kv, "=")
		if found && strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}

	return FromVars(vars)
}

// FromVars applies ACCELSIM_* variables on top of the default configuration
// and validates the result.
func FromVars(vars map[string]string) (Config, error) {
	c := Default()

	for _, b := range bindings {
		v, ok := vars[EnvPrefix+b.key]
		if !ok {
			continue
		}

		if err := b.apply(&c, v); err != nil {
			return Config{}, errors.Wrapf(err, "%s%s", EnvPrefix, b.key)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// ParseSize parses decimal or 0x-prefixed hexadecimal integers, optionally
// followed by a KB, MB, or GB suffix.
func ParseSize(s string) (uint64, error) {
	str := strings.TrimSpace(s)
	unit := uint64(1)

	for _, u := range []struct {
		suffix string
		scale  uint64
	}{
		{"KB", 1 << 10},
		{"MB", 1 << 20},
		{"GB", 1 << 30},
	} {
		if strings.HasSuffix(str, u.suffix) {
			unit = u.scale
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))

			break
		}
	}

	n, err := strconv.ParseUint(str, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}

	if unit > 1 && n > ^uint64(0)/unit {
		return 0, errors.Errorf("size %q overflows", s)
	}

	return n * unit, nil
}

// ParseTicks parses a Go duration such as "50ns" into ticks. A bare integer is
// taken as a number of ticks.
func ParseTicks(s string) (sim.VTimeInTick, error) {
	str := strings.TrimSpace(s)

	if n, err := strconv.ParseUint(str, 0, 64); err == nil {
		return sim.VTimeInTick(n), nil
	}

	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}

	if d < 0 {
		return 0, errors.Errorf("negative duration %q", s)
	}

	return sim.VTimeInTick(d.Nanoseconds()) * 1000, nil
}
