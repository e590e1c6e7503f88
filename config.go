package strpack

import (
	"encoding/json"
	"math"
	"time"
)

// Keys recognized by SetConfig.
const (
	ConfigMaxThreadCount = "maxThreadCount"
	ConfigThreadTTL      = "threadTTL"
)

// GetConfig returns the current configuration.
func (c *Codec) GetConfig() Config {
	return configOf(c.pool.Config())
}

// SetConfig updates the configuration from a partial map.
//
// Recognized keys are ConfigMaxThreadCount (integer >= 1) and
// ConfigThreadTTL (integer >= 0, in milliseconds). Values may be any Go
// integer, an integral float or a json.Number. Unknown keys, values of the
// wrong type and values failing validation are ignored, leaving the prior
// setting in effect.
//
// Workers above a lowered thread count stay until they idle out. A new TTL
// applies from the next idle check.
func (c *Codec) SetConfig(partial map[string]any) {
	cfg := c.GetConfig()
	changed := false

	if n, ok := integerOf(partial[ConfigMaxThreadCount]); ok && n >= 1 && n <= math.MaxInt32 {
		cfg.MaxThreadCount = int(n)
		changed = true
	}
	if ms, ok := integerOf(partial[ConfigThreadTTL]); ok && ms >= 0 && ms <= math.MaxInt64/int64(time.Millisecond) {
		cfg.ThreadTTL = time.Duration(ms) * time.Millisecond
		changed = true
	}

	if !changed {
		return
	}
	if err := c.pool.SetConfig(cfg.pool()); err != nil {
		c.logger.Debug("configuration rejected", "error", err)
	}
}

// integerOf converts the numeric forms accepted by SetConfig.
func integerOf(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintOf(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintOf(n)
	case float32:
		return floatOf(float64(n))
	case float64:
		return floatOf(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return floatOf(f)
		}
	}

	return 0, false
}

func uintOf(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}

	return int64(u), true
}

func floatOf(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}

	return int64(f), true
}
