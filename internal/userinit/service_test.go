package userinit

import (
	"context"
	"net/http"
	"time"

	"tunegate/internal/backend"
)

func (s *ServiceSuite) TestAllCallsSucceed() {
	s.expectBase(nil)
	s.expectPlaylist(okResult(KeyPlaylist, `{"musicIds": ["fav-1", "fav-2", "fav-3"]}`))

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.False(resp.Meta.HasPartialFailures)
	s.Empty(resp.Errors)
	s.Equal(6, resp.Meta.ServiceStats.Total)
	s.Equal(6, resp.Meta.ServiceStats.Successful)
	s.Equal(0, resp.Meta.ServiceStats.Failed)
	s.Equal("100.0%", resp.Meta.ServiceStats.SuccessRate)

	user := resp.Data.User
	s.Require().NotNil(user.IsNewbie)
	s.False(*user.IsNewbie)
	s.Require().NotNil(user.Membership)
	s.Equal("premium", user.Membership.Tier)
	s.Require().NotNil(user.Credits)
	s.Equal(42, user.Credits.Balance)
	s.Equal(7, user.DownloadPoints)
	s.Equal([]string{"track-1", "track-2"}, user.DownloadHistory)
	s.Require().NotNil(user.Favorite)
	s.Equal("pl-001", user.Favorite.ID)
	s.Equal([]string{"fav-1", "fav-2", "fav-3"}, user.Favorite.MusicIDs)
}

func (s *ServiceSuite) TestCriticalFailureFlipsSuccessOnly() {
	s.expectBase(map[string]backend.Result{
		KeyAuth: failResult(KeyAuth, backend.ClassAuthentication, http.StatusUnauthorized),
	})
	s.expectPlaylist(okResult(KeyPlaylist, `{"musicIds": []}`))

	resp := s.service.Init(context.Background(), s.session())

	// The aggregate fails logically, but every other call's data survives.
	s.False(resp.Success)
	s.True(resp.Meta.HasPartialFailures)
	s.Require().Contains(resp.Errors, KeyAuth)
	s.Equal(backend.ClassAuthentication, resp.Errors[KeyAuth].Class)
	s.Equal("83.3%", resp.Meta.ServiceStats.SuccessRate)

	user := resp.Data.User
	s.Nil(user.IsNewbie)
	s.NotNil(user.Membership)
	s.NotNil(user.Credits)
}

func (s *ServiceSuite) TestNonCriticalFailuresKeepSuccess() {
	s.expectBase(map[string]backend.Result{
		KeyMembership:      failResult(KeyMembership, backend.ClassServerError, http.StatusInternalServerError),
		KeyDownloadHistory: failResult(KeyDownloadHistory, backend.ClassTimeout, 0),
	})
	s.expectPlaylist(okResult(KeyPlaylist, `{"musicIds": []}`))

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.True(resp.Meta.HasPartialFailures)
	s.Len(resp.Errors, 2)
	s.Equal(4, resp.Meta.ServiceStats.Successful)
	s.Equal(2, resp.Meta.ServiceStats.Failed)
	s.Equal("66.7%", resp.Meta.ServiceStats.SuccessRate)
	s.Equal(1, resp.Meta.ErrorSummary["server_error"])
	s.Equal(1, resp.Meta.ErrorSummary["timeout"])

	user := resp.Data.User
	s.Nil(user.Membership, "outright failure falls back to null")
	s.Equal([]string{}, user.DownloadHistory, "outright failure falls back to empty")
	s.NotNil(user.Credits)
}

func (s *ServiceSuite) TestDegradedPayloadsGetDefaultShapes() {
	s.expectBase(map[string]backend.Result{
		KeyMembership: okResult(KeyMembership, `{"tier": null}`),
		KeyCredits:    okResult(KeyCredits, `{"balance": null}`),
	})
	s.expectPlaylist(okResult(KeyPlaylist, `{"musicIds": []}`))

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.False(resp.Meta.HasPartialFailures, "degraded data is not a call failure")

	user := resp.Data.User
	s.Require().NotNil(user.Membership)
	s.Equal("free", user.Membership.Tier)
	s.Require().NotNil(user.Credits)
	s.Equal(0, user.Credits.Balance)
}

func (s *ServiceSuite) TestNoFavoriteSkipsPlaylistCall() {
	s.expectBase(map[string]backend.Result{
		KeyFavorite: okResult(KeyFavorite, `{"id": null}`),
	})
	// No playlist expectation: the dependent call must not happen.

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.Nil(resp.Data.User.Favorite)
}

func (s *ServiceSuite) TestFailedFavoriteSkipsPlaylistCall() {
	s.expectBase(map[string]backend.Result{
		KeyFavorite: failResult(KeyFavorite, backend.ClassNetwork, 0),
	})

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.Nil(resp.Data.User.Favorite)
	s.Contains(resp.Errors, KeyFavorite)
}

func (s *ServiceSuite) TestPlaylistFailureKeepsFavoriteWithEmptyTracks() {
	s.expectBase(nil)
	s.expectPlaylist(failResult(KeyPlaylist, backend.ClassServerError, http.StatusServiceUnavailable))

	resp := s.service.Init(context.Background(), s.session())

	s.True(resp.Success)
	s.True(resp.Meta.HasPartialFailures)
	s.Contains(resp.Errors, KeyPlaylist)

	// The base stats do not count the dependent call.
	s.Equal(6, resp.Meta.ServiceStats.Total)
	s.Equal(6, resp.Meta.ServiceStats.Successful)

	fav := resp.Data.User.Favorite
	s.Require().NotNil(fav)
	s.Equal("pl-001", fav.ID)
	s.Equal([]string{}, fav.MusicIDs)
}

func (s *ServiceSuite) TestEveryCallFailing() {
	overrides := map[string]backend.Result{}
	for _, key := range []string{KeyAuth, KeyMembership, KeyCredits, KeyDownloadPoints, KeyDownloadHistory, KeyFavorite} {
		overrides[key] = failResult(key, backend.ClassNetwork, 0)
	}
	s.expectBase(overrides)

	resp := s.service.Init(context.Background(), s.session())

	s.False(resp.Success)
	s.Len(resp.Errors, 6)
	s.Equal("0.0%", resp.Meta.ServiceStats.SuccessRate)
	s.Equal(6, resp.Meta.ErrorSummary["network"])

	// Still a fully shaped response body.
	user := resp.Data.User
	s.Nil(user.IsNewbie)
	s.Nil(user.Membership)
	s.Nil(user.Credits)
	s.Equal(0, user.DownloadPoints)
	s.Equal([]string{}, user.DownloadHistory)
	s.Nil(user.Favorite)
}

func (s *ServiceSuite) TestObserverReceivesOutcome() {
	var gotSuccess, gotPartial bool
	s.service = New(s.mockCaller, WithObserver(aggObserverFunc(func(success, partial bool) {
		gotSuccess, gotPartial = success, partial
	})))

	s.expectBase(map[string]backend.Result{
		KeyCredits: failResult(KeyCredits, backend.ClassTimeout, 0),
	})
	s.expectPlaylist(okResult(KeyPlaylist, `{"musicIds": []}`))

	s.service.Init(context.Background(), s.session())

	s.True(gotSuccess)
	s.True(gotPartial)
}

type aggObserverFunc func(success, partial bool)

func (f aggObserverFunc) AggregationCompleted(success, partial bool, _ time.Duration) {
	f(success, partial)
}
