package geocode

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/ride-booking/internal/models"
)

// Source is the lookup the resolver delegates to.
type Source interface {
	Autocomplete(ctx context.Context, text string, limit int) ([]models.GeoPoint, error)
}

// Suggestions is one settled lookup result, tagged with the query that
// produced it.
type Suggestions struct {
	Query  string
	Points []models.GeoPoint
}

// Resolver serializes a stream of keystroke updates into at most one
// in-flight lookup. Rules: the query must settle for the debounce window
// before a call goes out, queries under MinChars yield an empty result
// without a remote call, a newer query cancels and supersedes an older
// in-flight one, and selecting a candidate suppresses lookups until the
// text is edited again.
type Resolver struct {
	// Tunables; set before the first Update.
	Debounce time.Duration
	MinChars int
	Limit    int

	src    Source
	logger *slog.Logger
	out    chan Suggestions

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	clean  bool
}

func NewResolver(src Source, logger *slog.Logger) *Resolver {
	return &Resolver{
		Debounce: 300 * time.Millisecond,
		MinChars: 3,
		Limit:    5,
		src:      src,
		logger:   logger,
		out:      make(chan Suggestions, 1),
	}
}

// Suggestions delivers settled results, latest wins. A slow consumer only
// ever sees the freshest result; intermediate ones are dropped.
func (r *Resolver) Suggestions() <-chan Suggestions {
	return r.out
}

// Update registers an edit to the query text. Editing always clears the
// post-selection clean flag.
func (r *Resolver) Update(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clean = false
	r.gen++
	r.abortLocked()

	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < r.MinChars {
		r.publishLocked(Suggestions{Query: text})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.lookup(ctx, r.gen, text)
}

// Select records that the user picked a candidate: any in-flight lookup
// is abandoned and no further lookup fires until the next edit.
func (r *Resolver) Select(models.GeoPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clean = true
	r.gen++
	r.abortLocked()
}

// Close cancels any in-flight lookup.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.abortLocked()
}

func (r *Resolver) lookup(ctx context.Context, gen uint64, text string) {
	timer := time.NewTimer(r.Debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	points, err := r.src.Autocomplete(ctx, text, r.Limit)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("geocode lookup failed", "query", text, "error", err)
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A newer query or a selection happened while we were in flight;
	// this result is stale and must never be applied.
	if gen != r.gen || r.clean {
		return
	}
	r.publishLocked(Suggestions{Query: text, Points: points})
}

func (r *Resolver) publishLocked(s Suggestions) {
	select {
	case r.out <- s:
	default:
		select {
		case <-r.out:
		default:
		}
		select {
		case r.out <- s:
		default:
		}
	}
}

func (r *Resolver) abortLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
