package loader

import (
	"go.uber.org/zap"

	"github.com/BUka228/musical-soul/common"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger is an option builder that sets the structured logger used by
// the Loader. Defaults to a no-op logger.
//
// Parameters:
//   - logger: the logger instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCatalogue is an option builder that pre-populates the cache with a
// catalogue.
//
// Parameters:
//   - key: the cache key for the catalogue
//   - records: the records to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the catalogue option to a loader
func WithCatalogue(key string, records []common.TrackRecord) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = records
	}
}
