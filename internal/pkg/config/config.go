package config

import (
	"io"
	"time"
)

// Config is a read-only view over the service configuration.
//
// Missing keys yield zero values; callers validate what they require.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte

	// GetArray reads a list given as a sequence or a comma separated string,
	// trimming blanks and dropping empty items.
	GetArray(key string) []string
}
