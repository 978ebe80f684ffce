// Package userinit aggregates the per-user state scattered across the
// backend microservices into the single profile the storefront boots from.
package userinit

import (
	"fmt"

	"tunegate/internal/backend"
)

// Membership is the user's subscription tier.
type Membership struct {
	Tier      string `json:"tier"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Credits is the user's license credit balance.
type Credits struct {
	Balance int `json:"balance"`
}

// Favorite is the user's favorite playlist with its resolved track IDs.
type Favorite struct {
	ID       string   `json:"id"`
	MusicIDs []string `json:"musicIds"`
}

// Profile is the merged user-init result. The object is always fully shaped:
// every field carries either real data or its documented fallback, regardless
// of partial failure.
type Profile struct {
	IsNewbie        *bool       `json:"isNewbie"`
	Membership      *Membership `json:"membership"`
	Credits         *Credits    `json:"credits"`
	DownloadPoints  int         `json:"downloadPoints"`
	DownloadHistory []string    `json:"downloadHistory"`
	Favorite        *Favorite   `json:"favorite"`
}

// Wire shapes of the individual backend payloads.

type loggedPayload struct {
	IsLogged *bool `json:"isLogged"`
	IsNewbie *bool `json:"isNewbie"`
}

type membershipPayload struct {
	Tier      *string `json:"tier"`
	ExpiresAt string  `json:"expiresAt"`
}

type creditsPayload struct {
	Balance *int `json:"balance"`
}

type downloadPointPayload struct {
	Point *int `json:"point"`
}

type musicListPayload struct {
	MusicIDs []string `json:"musicIds"`
}

type favoriteIDPayload struct {
	ID *string `json:"id"`
}

// Fallback rule (fixing the open question): a call that reached the backend
// and decoded but came back incomplete is "degraded data" and falls back to a
// default-shaped value; an outright call failure falls back to null/empty.

// mergeAuth extracts the newbie flag from the critical isLogged call.
// The flag stays nil on any failure.
func mergeAuth(res backend.Result) *bool {
	if !res.OK {
		return nil
	}
	var payload loggedPayload
	if err := res.Decode(&payload); err != nil {
		return nil
	}
	return payload.IsNewbie
}

func mergeMembership(res backend.Result) *Membership {
	if !res.OK {
		return nil
	}
	var payload membershipPayload
	if err := res.Decode(&payload); err != nil || payload.Tier == nil || *payload.Tier == "" {
		// Degraded data from a reachable backend: assume the free tier.
		return &Membership{Tier: "free"}
	}
	return &Membership{Tier: *payload.Tier, ExpiresAt: payload.ExpiresAt}
}

func mergeCredits(res backend.Result) *Credits {
	if !res.OK {
		return nil
	}
	var payload creditsPayload
	if err := res.Decode(&payload); err != nil || payload.Balance == nil {
		return &Credits{Balance: 0}
	}
	return &Credits{Balance: *payload.Balance}
}

func mergeDownloadPoints(res backend.Result) int {
	if !res.OK {
		return 0
	}
	var payload downloadPointPayload
	if err := res.Decode(&payload); err != nil || payload.Point == nil {
		return 0
	}
	return *payload.Point
}

func mergeDownloadHistory(res backend.Result) []string {
	if !res.OK {
		return []string{}
	}
	var payload musicListPayload
	if err := res.Decode(&payload); err != nil || payload.MusicIDs == nil {
		return []string{}
	}
	return payload.MusicIDs
}

// favoriteID extracts the playlist id from the favoriteId call. An OK call
// with a null id means the user simply has no favorite.
func favoriteID(res backend.Result) (string, bool) {
	if !res.OK {
		return "", false
	}
	var payload favoriteIDPayload
	if err := res.Decode(&payload); err != nil || payload.ID == nil || *payload.ID == "" {
		return "", false
	}
	return *payload.ID, true
}

// mergeFavorite builds the favorite block from the favoriteId result and the
// dependent playlist call. A failed playlist call empties MusicIDs but keeps
// the id, so the favorite itself is not lost.
func mergeFavorite(id string, playlist *backend.Result) *Favorite {
	fav := &Favorite{ID: id, MusicIDs: []string{}}
	if playlist == nil || !playlist.OK {
		return fav
	}
	var payload musicListPayload
	if err := playlist.Decode(&payload); err == nil && payload.MusicIDs != nil {
		fav.MusicIDs = payload.MusicIDs
	}
	return fav
}

// ServiceStats summarizes the six base calls of one aggregation pass.
type ServiceStats struct {
	Total       int    `json:"total"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"successRate"`
}

func newServiceStats(total, successful int) ServiceStats {
	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total) * 100
	}
	return ServiceStats{
		Total:       total,
		Successful:  successful,
		Failed:      total - successful,
		SuccessRate: fmt.Sprintf("%.1f%%", rate),
	}
}

// Meta is the envelope metadata of an aggregation response.
type Meta struct {
	Timestamp          string         `json:"timestamp"`
	ServiceStats       ServiceStats   `json:"serviceStats"`
	HasPartialFailures bool           `json:"hasPartialFailures"`
	ErrorSummary       map[string]int `json:"errorSummary,omitempty"`
}

// Data wraps the merged profile.
type Data struct {
	User Profile `json:"user"`
}

// Response is the aggregate user-init envelope. Success reflects the critical
// endpoint only; the HTTP transport status stays 200 even when Success is
// false so partial data still reaches the client.
type Response struct {
	Success bool                          `json:"success"`
	Data    *Data                         `json:"data,omitempty"`
	Errors  map[string]*backend.CallError `json:"errors,omitempty"`
	Meta    Meta                          `json:"meta"`
}
