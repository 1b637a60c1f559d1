package clbmap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/km3net/km3db-go/pkg/streamds"
)

// compassCacheSize bounds the process-wide compass UPI memoization.
const compassCacheSize = 4096

// CompassResolver resolves the compass module (AHRS or LSM303) mounted on
// a CLB by joining against the integration stream. Results are memoized
// per CLB UPI; the cache is safe for concurrent callers.
type CompassResolver struct {
	sds    StreamGetter
	logger *slog.Logger
	cache  *lru.Cache[string, string]
}

// NewCompassResolver builds a resolver over the given catalog.
func NewCompassResolver(sds StreamGetter, opts ...Option) (*CompassResolver, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[string, string](compassCacheSize)
	if err != nil {
		return nil, fmt.Errorf("clbmap: compass cache: %w", err)
	}
	return &CompassResolver{sds: sds, logger: o.logger, cache: cache}, nil
}

// CompassUPI returns the compass UPI for a CLB UPI. When several compass
// modules are listed the first one wins, with a warning.
func (r *CompassResolver) CompassUPI(ctx context.Context, clbUPI string) (string, error) {
	if upi, ok := r.cache.Get(clbUPI); ok {
		return upi, nil
	}

	records, err := r.sds.GetRecords(ctx, "integration", streamds.Sel("container_upi", clbUPI))
	if err != nil {
		return "", fmt.Errorf("clbmap: fetch integration stream: %w", err)
	}

	var compassUPIs []string
	for _, rec := range records {
		upi, ok := rec.Get("content_upi")
		if !ok {
			continue
		}
		if strings.Contains(upi, "AHRS") || strings.Contains(upi, "LSM303") {
			compassUPIs = append(compassUPIs, upi)
		}
	}

	if len(compassUPIs) == 0 {
		return "", fmt.Errorf("clbmap: no compass UPI found for CLB UPI %q", clbUPI)
	}
	if len(compassUPIs) > 1 {
		r.logger.Warn("multiple compass UPIs found, using the first entry",
			"clb_upi", clbUPI, "matches", len(compassUPIs))
	}

	r.cache.Add(clbUPI, compassUPIs[0])
	return compassUPIs[0], nil
}
