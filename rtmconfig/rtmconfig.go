// Package rtmconfig reads the handful of process-wide environment
// variables spec §6 names. It is deliberately minimal: stdlib
// os.Getenv/strconv, no flag or TOML framework, because §1 places
// configuration/env parsing itself out of the library's core scope. The
// driver binary in cmd/stmbench carries the real CLI dependency (cobra +
// pflag); this package only ever reads the library's own env knobs, the
// same bare getenv style original_source's policy files use.
package rtmconfig

import (
	"os"
	"strconv"

	"github.com/gshashidhar125/rstm/rtmerrors"
)

// Config is the resolved process-wide configuration.
type Config struct {
	// Algorithm is the initial algorithm name (STM_ALGORITHM), default
	// "NOrec" per spec §6.
	Algorithm string

	// LNQXReadEarlySeal / LNQXWriteEarlySeal / LNQXAbortEarlySeal are the
	// CohortsLNQX early-seal thresholds; -1 disables each, matching the
	// original's READ_EARLYSEAL/WRITE_EARLYSEAL/ABORT_EARLYSEAL globals.
	LNQXReadEarlySeal  int
	LNQXWriteEarlySeal int
	LNQXAbortEarlySeal int

	// Stats reports whether STM_STATS=1 is set. cmd/stmbench prints its
	// shutdown per-thread stats table whether or not it is set.
	Stats bool
}

// Load reads the environment, applying spec §6's defaults.
func Load() (*Config, error) {
	c := &Config{
		Algorithm:          getenv("STM_ALGORITHM", "NOrec"),
		LNQXReadEarlySeal:  -1,
		LNQXWriteEarlySeal: -1,
		LNQXAbortEarlySeal: -1,
	}

	var err error
	if c.LNQXReadEarlySeal, err = getenvInt("STM_LNQX_READ_EARLYSEAL", c.LNQXReadEarlySeal); err != nil {
		return nil, rtmerrors.Config(err, "STM_LNQX_READ_EARLYSEAL")
	}
	if c.LNQXWriteEarlySeal, err = getenvInt("STM_LNQX_WRITE_EARLYSEAL", c.LNQXWriteEarlySeal); err != nil {
		return nil, rtmerrors.Config(err, "STM_LNQX_WRITE_EARLYSEAL")
	}
	if c.LNQXAbortEarlySeal, err = getenvInt("STM_LNQX_ABORT_EARLYSEAL", c.LNQXAbortEarlySeal); err != nil {
		return nil, rtmerrors.Config(err, "STM_LNQX_ABORT_EARLYSEAL")
	}

	c.Stats = getenv("STM_STATS", "0") == "1"

	return c, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
