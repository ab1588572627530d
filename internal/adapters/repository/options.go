package repository

import (
	"time"

	"github.com/okian/witarcade/pkg/logger"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *TreapStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// MongoOption applies a configuration option to the MongoStore.
type MongoOption func(*MongoStore)

// WithTimeout bounds each MongoDB round trip.
func WithTimeout(d time.Duration) MongoOption {
	return func(s *MongoStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMongoLogger sets the store logger.
func WithMongoLogger(l logger.Logger) MongoOption {
	return func(s *MongoStore) {
		if l != nil {
			s.log = l
		}
	}
}
