//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/mathpop/mathpop/pkg/http/ws"
)

type guestInfo struct {
	ID          string
	DisplayName string
	AccessToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseHTTPURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

func baseWSURL() string {
	return envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/game")
}

func createGuest(t *testing.T, baseURL, displayName string) guestInfo {
	t.Helper()

	payload := map[string]string{
		"display_name": fmt.Sprintf("%s-%d", displayName, time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/players/guest", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}

	var out struct {
		PlayerID    string `json:"player_id"`
		DisplayName string `json:"display_name"`
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode guest response failed: %v", err)
	}

	if out.AccessToken == "" {
		t.Fatalf("empty access token in guest response")
	}
	if out.ExpiresIn <= 0 {
		t.Fatalf("non-positive token lifetime: %d", out.ExpiresIn)
	}

	return guestInfo{
		ID:          out.PlayerID,
		DisplayName: out.DisplayName,
		AccessToken: out.AccessToken,
	}
}

func dialGameWS(t *testing.T, wsBase, token string) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(wsBase)
	if err != nil {
		t.Fatalf("invalid WS url: %v", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	msg := wsmsg.Message{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		msg.Payload = raw
	}

	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitForMessage reads until a message of the wanted type arrives, skipping
// everything else (ticks in particular).
func waitForMessage(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(timeout))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message failed: %v", err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", msgType)
	return wsmsg.Message{}
}

func waitForGameState(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsmsg.GameStatePayload {
	t.Helper()

	msg := waitForMessage(t, conn, wsmsg.TypeGameState, timeout)
	var state wsmsg.GameStatePayload
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("decode game_state payload: %v", err)
	}
	return state
}

func waitForErrorCode(t *testing.T, conn *websocket.Conn, code string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			continue
		}
		if msg.Type != wsmsg.TypeError {
			continue
		}
		var payload wsmsg.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decode error payload failed: %v", err)
		}
		if payload.Code == code {
			return
		}
	}
	t.Fatalf("timeout waiting for error %s", code)
}

func readWelcome(t *testing.T, conn *websocket.Conn) wsmsg.WelcomePayload {
	t.Helper()

	msg := waitForMessage(t, conn, wsmsg.TypeWelcome, 5*time.Second)
	var welcome wsmsg.WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatalf("decode welcome payload: %v", err)
	}
	return welcome
}

// completeTour clicks through the onboarding tour so taps are accepted. A
// no-op for players who already finished it.
func completeTour(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	for i := 0; i < 10; i++ {
		sendMessage(t, conn, wsmsg.TypeTourNext, nil)
		msg := waitForMessage(t, conn, wsmsg.TypeTourState, 5*time.Second)
		var state wsmsg.TourStatePayload
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode tour_state payload: %v", err)
		}
		if state.Completed {
			return
		}
	}
	t.Fatal("tour did not complete")
}
