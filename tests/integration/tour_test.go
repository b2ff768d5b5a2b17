//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"testing"
	"time"

	wsmsg "github.com/mathpop/mathpop/pkg/http/ws"
)

func TestTourFirstConnect(t *testing.T) {
	guest := createGuest(t, baseHTTPURL(), "Tourist")
	conn := dialGameWS(t, baseWSURL(), guest.AccessToken)

	welcome := readWelcome(t, conn)
	if welcome.Tour == nil {
		t.Fatal("first connect must carry the tour")
	}
	if !welcome.Tour.Active || welcome.Tour.Completed {
		t.Fatalf("tour should be active on first connect: %+v", welcome.Tour)
	}
	if welcome.Tour.StepIndex != 0 || welcome.Tour.StepKey == "" {
		t.Fatalf("tour should open on its first step: %+v", welcome.Tour)
	}
	if welcome.Tour.TotalSteps <= 0 {
		t.Fatal("tour with no steps")
	}

	// Taps are suppressed until the tour is done.
	sendMessage(t, conn, wsmsg.TypeTapBubble, wsmsg.TapBubblePayload{EquationID: "anything"})
	waitForErrorCode(t, conn, "tour_active", 5*time.Second)

	completeTour(t, conn)
	conn.Close()

	// Completion is persisted: a reconnect carries no tour.
	conn2 := dialGameWS(t, baseWSURL(), guest.AccessToken)
	defer conn2.Close()

	welcome2 := readWelcome(t, conn2)
	if welcome2.Tour != nil {
		t.Fatalf("tour reappeared after completion: %+v", welcome2.Tour)
	}
}

func TestTourAdvancesStepByStep(t *testing.T) {
	guest := createGuest(t, baseHTTPURL(), "Stepper")
	conn := dialGameWS(t, baseWSURL(), guest.AccessToken)
	defer conn.Close()

	welcome := readWelcome(t, conn)
	if welcome.Tour == nil {
		t.Fatal("first connect must carry the tour")
	}

	total := welcome.Tour.TotalSteps
	lastIndex := welcome.Tour.StepIndex
	for i := 0; i < total; i++ {
		sendMessage(t, conn, wsmsg.TypeTourNext, nil)
		msg := waitForMessage(t, conn, wsmsg.TypeTourState, 5*time.Second)
		var state wsmsg.TourStatePayload
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode tour_state payload: %v", err)
		}
		if state.Completed {
			if i != total-1 {
				t.Fatalf("tour completed early at advance %d of %d", i+1, total)
			}
			return
		}
		if state.StepIndex <= lastIndex {
			t.Fatalf("tour did not move forward: %d -> %d", lastIndex, state.StepIndex)
		}
		lastIndex = state.StepIndex
	}
	t.Fatal("tour never completed")
}

func TestTourReset(t *testing.T) {
	guest := createGuest(t, baseHTTPURL(), "Again")
	conn := dialGameWS(t, baseWSURL(), guest.AccessToken)

	readWelcome(t, conn)
	completeTour(t, conn)

	sendMessage(t, conn, wsmsg.TypeTourReset, nil)
	msg := waitForMessage(t, conn, wsmsg.TypeTourState, 5*time.Second)
	var state wsmsg.TourStatePayload
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		t.Fatalf("decode tour_state payload: %v", err)
	}
	if !state.Active || state.StepIndex != 0 {
		t.Fatalf("reset tour should restart from the top: %+v", state)
	}
	conn.Close()

	// The reset is persisted for the next connect too.
	conn2 := dialGameWS(t, baseWSURL(), guest.AccessToken)
	defer conn2.Close()

	welcome := readWelcome(t, conn2)
	if welcome.Tour == nil || !welcome.Tour.Active {
		t.Fatal("tour reset did not survive reconnect")
	}
}
