package userinit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tunegate/internal/backend"
	"tunegate/internal/session"
)

// Endpoint keys. The errors map and the metrics are keyed by these, so they
// are wire-stable.
const (
	KeyAuth            = "auth"
	KeyMembership      = "membership"
	KeyCredits         = "credits"
	KeyDownloadPoints  = "downloadPoints"
	KeyDownloadHistory = "downloadHistory"
	KeyFavorite        = "favorite"
	KeyPlaylist        = "playlist"
)

// Backend paths behind each key.
const (
	pathIsLogged      = "/auth/isLogged"
	pathMembership    = "/user/membership"
	pathCredits       = "/user/credits"
	pathDownloadPoint = "/user/downloadPoint"
	pathDownloadList  = "/download/list"
	pathFavoriteID    = "/favoriteId"
)

// baseCallCount is the number of independent calls in one aggregation pass.
// The dependent playlist call is sequenced after the join and not counted.
const baseCallCount = 6

// Observer receives aggregation outcomes for metrics.
type Observer interface {
	AggregationCompleted(success, partial bool, duration time.Duration)
}

// Service fans out the user-init calls, classifies every outcome, and merges
// the results into one profile envelope tolerating partial failure.
type Service struct {
	client   backend.Caller
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the aggregation service on top of a backend caller.
func New(client backend.Caller, opts ...Option) *Service {
	s := &Service{
		client: client,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// fanoutResults holds one settled result per base call. Each goroutine writes
// only its own field, so no locking is needed; merge happens after the join.
type fanoutResults struct {
	auth            backend.Result
	membership      backend.Result
	credits         backend.Result
	downloadPoints  backend.Result
	downloadHistory backend.Result
	favorite        backend.Result
}

// Init runs one aggregation pass for a validated session. All six base calls
// are issued concurrently and always run to completion: a critical-path
// failure flips the Success flag but never cancels in-flight siblings, so
// the response carries maximal information either way.
func (s *Service) Init(ctx context.Context, sess *session.Session) *Response {
	start := s.now()
	bearer := ""
	if sess != nil && sess.User != nil {
		bearer = sess.User.SSID
	}

	var results fanoutResults
	var g errgroup.Group
	g.Go(func() error {
		results.auth = s.client.Get(ctx, KeyAuth, pathIsLogged, bearer)
		return nil
	})
	g.Go(func() error {
		results.membership = s.client.Get(ctx, KeyMembership, pathMembership, bearer)
		return nil
	})
	g.Go(func() error {
		results.credits = s.client.Get(ctx, KeyCredits, pathCredits, bearer)
		return nil
	})
	g.Go(func() error {
		results.downloadPoints = s.client.Get(ctx, KeyDownloadPoints, pathDownloadPoint, bearer)
		return nil
	})
	g.Go(func() error {
		results.downloadHistory = s.client.Get(ctx, KeyDownloadHistory, pathDownloadList, bearer)
		return nil
	})
	g.Go(func() error {
		results.favorite = s.client.Get(ctx, KeyFavorite, pathFavoriteID, bearer)
		return nil
	})
	// The goroutines settle failures into their results and never error, so
	// the join is unconditional.
	_ = g.Wait()

	// Dependent call: only once the favorite id is known.
	var playlist *backend.Result
	if id, ok := favoriteID(results.favorite); ok {
		res := s.client.Get(ctx, KeyPlaylist, fmt.Sprintf("/playlist/%s/musics", id), bearer)
		playlist = &res
	}

	resp := s.merge(results, playlist)

	if s.observer != nil {
		s.observer.AggregationCompleted(resp.Success, resp.Meta.HasPartialFailures, time.Since(start))
	}
	s.logger.InfoContext(ctx, "user init aggregated",
		"success", resp.Success,
		"partial_failures", resp.Meta.HasPartialFailures,
		"successful", resp.Meta.ServiceStats.Successful,
		"failed", resp.Meta.ServiceStats.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

func (s *Service) merge(results fanoutResults, playlist *backend.Result) *Response {
	base := []backend.Result{
		results.auth,
		results.membership,
		results.credits,
		results.downloadPoints,
		results.downloadHistory,
		results.favorite,
	}

	errs := make(map[string]*backend.CallError)
	summary := make(map[string]int)
	successful := 0
	for _, res := range base {
		if res.OK {
			successful++
			continue
		}
		errs[res.Key] = res.Err
		summary[string(res.Err.Class)]++
	}
	if playlist != nil && !playlist.OK {
		errs[playlist.Key] = playlist.Err
		summary[string(playlist.Err.Class)]++
	}

	profile := Profile{
		IsNewbie:        mergeAuth(results.auth),
		Membership:      mergeMembership(results.membership),
		Credits:         mergeCredits(results.credits),
		DownloadPoints:  mergeDownloadPoints(results.downloadPoints),
		DownloadHistory: mergeDownloadHistory(results.downloadHistory),
	}
	if id, ok := favoriteID(results.favorite); ok {
		profile.Favorite = mergeFavorite(id, playlist)
	}

	resp := &Response{
		// The isLogged endpoint is the single critical call: its failure
		// alone invalidates the aggregate.
		Success: results.auth.OK,
		Data:    &Data{User: profile},
		Meta: Meta{
			Timestamp:          s.now().UTC().Format(time.RFC3339),
			ServiceStats:       newServiceStats(baseCallCount, successful),
			HasPartialFailures: len(errs) > 0,
		},
	}
	if len(errs) > 0 {
		resp.Errors = errs
		resp.Meta.ErrorSummary = summary
	}
	return resp
}
