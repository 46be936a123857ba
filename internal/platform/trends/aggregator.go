package trends

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/httpx"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// Aggregator polls every source concurrently and merges the results into one ranked pool.
type Aggregator struct {
	log     *logger.Logger
	sources []Source
	timeout time.Duration
	retry   retrypolicy.RetryPolicy[[]Candidate]
}

func NewAggregator(log *logger.Logger, callTimeout time.Duration, sources ...Source) *Aggregator {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Aggregator{
		log:     log.With("component", "TrendAggregator"),
		sources: sources,
		timeout: callTimeout,
		retry: retrypolicy.NewBuilder[[]Candidate]().
			HandleIf(func(_ []Candidate, err error) bool { return httpx.IsRetryableError(err) }).
			WithBackoff(time.Second, 4*time.Second).
			WithMaxRetries(1).
			WithJitterFactor(0.2).
			ReturnLastFailure().
			Build(),
	}
}

// Fetch returns the deduplicated pool, highest score first. A failing source is logged and
// contributes nothing; it never fails the whole fetch.
func (a *Aggregator) Fetch(ctx context.Context) []Candidate {
	results := make([][]Candidate, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Candidate, 0, 64)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return Rank(Dedupe(ScaleScores(merged)))
}

func (a *Aggregator) fetchOne(ctx context.Context, src Source) []Candidate {
	start := time.Now()
	out, err := failsafe.With[[]Candidate](a.retry, timeout.New[[]Candidate](a.timeout)).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[[]Candidate]) ([]Candidate, error) {
			return src.Fetch(exec.Context())
		})
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.Current().ObserveExternalCall("trends", src.Name(), status, time.Since(start))
	if err != nil {
		a.log.Warn("trend source failed; skipping", "source", src.Name(), "error", err)
		return nil
	}
	observability.Current().SetTrendCandidates(src.Name(), len(out))
	for i := range out {
		if out[i].Source == "" {
			out[i].Source = src.Name()
		}
	}
	return out
}

// Sources lists the configured source names.
func (a *Aggregator) Sources() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}
