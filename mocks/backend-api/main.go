// Mock account/catalog backend for local development and e2e tests. Serves
// the endpoints the gateway aggregates, keyed by the bearer SSID. "Magic"
// SSID prefixes inject failures so tests can exercise partial-failure paths.
package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8081"
	defaultLatencyMs = "50"
)

// Magic SSID prefixes controlling per-endpoint behavior.
//
//	FAIL-AUTH-...        isLogged answers 401
//	FAIL-MEMBER-...      membership answers 500
//	SLOW-...             every endpoint sleeps 10s (forces client timeouts)
//	GARBAGE-...          every endpoint answers 200 with invalid JSON
//	DEGRADED-...         membership and credits answer 200 with null fields
//	NOFAV-...            favoriteId answers with a null id
//	FAIL-PLAYLIST-...    playlist musics answers 503
const (
	prefixFailAuth     = "FAIL-AUTH-"
	prefixFailMember   = "FAIL-MEMBER-"
	prefixSlow         = "SLOW-"
	prefixGarbage      = "GARBAGE-"
	prefixDegraded     = "DEGRADED-"
	prefixNoFavorite   = "NOFAV-"
	prefixFailPlaylist = "FAIL-PLAYLIST-"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/auth/isLogged", handleIsLogged)
	http.HandleFunc("/user/membership", handleMembership)
	http.HandleFunc("/user/credits", handleCredits)
	http.HandleFunc("/user/downloadPoint", handleDownloadPoint)
	http.HandleFunc("/download/list", handleDownloadList)
	http.HandleFunc("/favoriteId", handleFavoriteID)
	http.HandleFunc("/playlist/", handlePlaylistMusics)
	http.HandleFunc("/auth/verify", handleVerify)
	http.HandleFunc("/auth/register", handleRegister)

	log.Printf("🎵 Mock backend API starting on port %s", port)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "backend-api",
		"version": "1.0.0",
	})
}

func handleIsLogged(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(ssid, prefixFailAuth) {
		sendError(w, "Session not found", http.StatusUnauthorized)
		return
	}
	// Users whose SSID hashes even are newbies; deterministic per SSID.
	sendJSON(w, http.StatusOK, map[string]any{
		"isLogged": true,
		"isNewbie": hashByte(ssid)%2 == 0,
	})
}

func handleMembership(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(ssid, prefixFailMember) {
		sendError(w, "Membership service error", http.StatusInternalServerError)
		return
	}
	if strings.HasPrefix(ssid, prefixDegraded) {
		sendJSON(w, http.StatusOK, map[string]any{"tier": nil})
		return
	}
	tiers := []string{"free", "standard", "premium"}
	tier := tiers[hashByte(ssid)%len(tiers)]
	resp := map[string]any{"tier": tier}
	if tier != "free" {
		resp["expiresAt"] = time.Now().AddDate(0, 1, 0).UTC().Format(time.RFC3339)
	}
	sendJSON(w, http.StatusOK, resp)
}

func handleCredits(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(ssid, prefixDegraded) {
		sendJSON(w, http.StatusOK, map[string]any{"balance": nil})
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"balance": hashByte(ssid) % 100})
}

func handleDownloadPoint(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"point": hashByte(ssid) % 50})
}

func handleDownloadList(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"musicIds": trackIDs(ssid, 3),
	})
}

func handleFavoriteID(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(ssid, prefixNoFavorite) {
		sendJSON(w, http.StatusOK, map[string]any{"id": nil})
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"id": fmt.Sprintf("pl-%03d", hashByte(ssid)),
	})
}

func handlePlaylistMusics(w http.ResponseWriter, r *http.Request) {
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	if strings.HasPrefix(ssid, prefixFailPlaylist) {
		sendError(w, "Playlist service unavailable", http.StatusServiceUnavailable)
		return
	}
	// Path: /playlist/{id}/musics
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "musics" {
		sendError(w, "Playlist not found", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{
		"musicIds": trackIDs(parts[1], 5),
	})
}

func handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ssid, ok := authenticate(w, r)
	if !ok {
		return
	}
	log.Printf("✅ Newbie confirmed for SSID %s", ssid)
	sendJSON(w, http.StatusOK, map[string]any{"success": true, "isNewbie": false})
}

func handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		sendError(w, "email is required", http.StatusBadRequest)
		return
	}
	log.Printf("✅ Registered %s (%s)", req.Email, req.Name)
	sendJSON(w, http.StatusCreated, map[string]any{
		"userId": fmt.Sprintf("user-%03d", hashByte(req.Email)),
	})
}

// authenticate checks the bearer SSID and applies the global magic prefixes.
// Returns false when the response has already been written.
func authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("📥 %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		sendError(w, "Missing bearer token", http.StatusUnauthorized)
		return "", false
	}
	ssid := strings.TrimPrefix(auth, "Bearer ")

	if strings.HasPrefix(ssid, prefixSlow) {
		time.Sleep(10 * time.Second)
	}
	if strings.HasPrefix(ssid, prefixGarbage) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "{not json")
		return "", false
	}
	return ssid, true
}

// trackIDs generates deterministic pseudo-random track IDs from a seed.
func trackIDs(seed string, n int) []string {
	hash := sha256.Sum256([]byte(seed))
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("track-%05d", int(hash[i])*100+i))
	}
	return ids
}

func hashByte(s string) int {
	hash := sha256.Sum256([]byte(s))
	return int(hash[0])
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, code int) {
	sendJSON(w, code, errorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key, fallback string) int {
	v := getEnv(key, fallback)
	n, err := strconv.Atoi(v)
	if err != nil {
		n, _ = strconv.Atoi(fallback)
	}
	return n
}
