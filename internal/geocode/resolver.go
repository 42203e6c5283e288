package geocode

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Resolver looks up coordinates for a list of addresses in small paced
// batches. It is pure with respect to its caller: no persistence, and a
// single attempt per address — a failed or empty lookup yields nil for that
// entry without aborting the rest. Retry policy belongs to the fetch layer,
// not here.
type Resolver struct {
	geocoder   Geocoder
	batchSize  int
	batchDelay time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewResolver creates a batch resolver. batchSize lookups run back to back,
// then the resolver sleeps batchDelay before the next batch to stay under
// the provider's rate ceiling.
func NewResolver(geocoder Geocoder, batchSize int, batchDelay time.Duration, clock clockwork.Clock, logger *slog.Logger) *Resolver {
	return &Resolver{
		geocoder:   geocoder,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		clock:      clock,
		logger:     logger,
	}
}

// ResolveAll returns a coordinate slice parallel to addresses. Empty
// address strings are gaps: they are skipped without a lookup and yield nil.
func (r *Resolver) ResolveAll(ctx context.Context, addresses []string) []*domain.Coord {
	coords := make([]*domain.Coord, len(addresses))

	looked := 0
	for i, addr := range addresses {
		if ctx.Err() != nil {
			return coords
		}
		if strings.TrimSpace(addr) == "" {
			continue
		}

		if looked > 0 && looked%r.batchSize == 0 {
			r.pause(ctx)
		}
		looked++

		coord, err := r.geocoder.Resolve(ctx, NormalizeAddress(addr))
		if err != nil {
			r.logger.Warn("geocoding failed", "address", addr, "error", err)
			continue
		}
		coords[i] = coord
	}
	return coords
}

func (r *Resolver) pause(ctx context.Context) {
	if r.batchDelay <= 0 {
		return
	}
	timer := r.clock.NewTimer(r.batchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.Chan():
	}
}

var (
	parentheticalRe = regexp.MustCompile(`[(（][^)）]*[)）]`)
	// floorSuffixRe matches trailing unit designators that confuse address
	// search: "3층", "지하1층", "102호", "B1".
	floorSuffixRe = regexp.MustCompile(`^(지하\s*\d*층?|\d+층|\d+호|B\d+)$`)
)

// NormalizeAddress strips decorations that lower match rates against the
// geocoder: parenthetical annotations, anything after a comma, and trailing
// floor or unit suffixes.
func NormalizeAddress(address string) string {
	s := parentheticalRe.ReplaceAllString(address, " ")
	if i := strings.IndexAny(s, ",，"); i >= 0 {
		s = s[:i]
	}

	fields := strings.Fields(s)
	for len(fields) > 0 && floorSuffixRe.MatchString(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
