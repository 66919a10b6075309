package signaling

import (
	"encoding/json"
	"testing"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

const offerData = `{"type":"offer","sdp":"v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\n"}`

// pairedHub returns a hub with x and y already sharing room ABC123, both
// send buffers drained.
func pairedHub(t *testing.T) (*Hub, *Client, *Client) {
	t.Helper()
	h := newTestHub(t)
	x := addTestClient(h, "x")
	y := addTestClient(h, "y")
	h.handleEnvelope(x, envelope(protocol.EventCreateRoom, "ABC123", ""))
	h.handleEnvelope(y, envelope(protocol.EventJoinRoom, "ABC123", ""))
	drain(x)
	drain(y)
	return h, x, y
}

func TestOfferForwarding(t *testing.T) {
	h, x, y := pairedHub(t)

	h.handleEnvelope(x, envelope(protocol.EventOffer, "ABC123", offerData))

	env := expectEvent(t, y, protocol.EventOffer)
	var sig protocol.Signal
	if err := json.Unmarshal(env.Data, &sig); err != nil {
		t.Fatalf("decode signal: %v", err)
	}
	if sig.From != "x" || sig.Room != "ABC123" {
		t.Fatalf("signal envelope: %+v", sig)
	}
	if sig.Description == nil || sig.Description.SDP == "" {
		t.Fatal("forwarded offer lost its description")
	}
	// Strict 1:1: the sender hears nothing.
	expectSilence(t, x)
}

func TestOfferRoomInferred(t *testing.T) {
	h, x, y := pairedHub(t)

	h.handleEnvelope(x, envelope(protocol.EventOffer, "", offerData))
	expectEvent(t, y, protocol.EventOffer)
}

func TestOfferLegacyPositional(t *testing.T) {
	h, x, y := pairedHub(t)

	env := &protocol.Envelope{
		Event: protocol.EventOffer,
		Args: []json.RawMessage{
			json.RawMessage(`"ABC123"`),
			json.RawMessage(offerData),
		},
	}
	h.handleEnvelope(x, env)
	expectEvent(t, y, protocol.EventOffer)
}

func TestOfferMissingSessionType(t *testing.T) {
	h, x, y := pairedHub(t)

	h.handleEnvelope(x, envelope(protocol.EventOffer, "ABC123", `{"sdp":"v=0"}`))
	expectErrorCode(t, x, protocol.EventOfferError, "invalidPayload")
	expectSilence(t, y)

	h.handleEnvelope(x, envelope(protocol.EventOffer, "ABC123", `{"type":"offer","sdp":""}`))
	expectErrorCode(t, x, protocol.EventOfferError, "invalidPayload")
	expectSilence(t, y)
}

func TestAnswerForwarding(t *testing.T) {
	h, x, y := pairedHub(t)

	h.handleEnvelope(y, envelope(protocol.EventAnswer, "ABC123", `{"type":"answer","sdp":"v=0"}`))
	expectEvent(t, x, protocol.EventAnswer)
	expectSilence(t, y)
}

func TestICECandidate(t *testing.T) {
	h, x, y := pairedHub(t)

	t.Run("forwarded", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventICECandidate, "ABC123",
			`{"candidate":"candidate:1 1 udp 2130706431 10.0.0.1 54321 typ host","sdpMid":"0","sdpMLineIndex":0}`))
		env := expectEvent(t, y, protocol.EventICECandidate)
		var sig protocol.Signal
		json.Unmarshal(env.Data, &sig)
		if sig.Candidate == nil || sig.Candidate.Candidate == "" {
			t.Fatal("forwarded candidate lost its body")
		}
	})

	t.Run("missing sdpMid", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventICECandidate, "ABC123",
			`{"candidate":"candidate:1 1 udp 1 10.0.0.1 1 typ host"}`))
		expectErrorCode(t, x, protocol.EventICECandidateError, "invalidPayload")
		expectSilence(t, y)
	})

	t.Run("empty candidate", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventICECandidate, "ABC123",
			`{"candidate":"","sdpMid":"0"}`))
		expectErrorCode(t, x, protocol.EventICECandidateError, "invalidPayload")
		expectSilence(t, y)
	})
}

func TestRelayFromNonMember(t *testing.T) {
	h, x, y := pairedHub(t)
	intruder := addTestClient(h, "intruder")

	h.handleEnvelope(intruder, envelope(protocol.EventOffer, "ABC123", offerData))
	expectErrorCode(t, intruder, protocol.EventOfferError, "notAuthorized")
	expectSilence(t, x)
	expectSilence(t, y)

	h.handleEnvelope(intruder, envelope(protocol.EventUpdateScore, "ABC123", `{"score":9}`))
	expectErrorCode(t, intruder, protocol.EventScoreUpdateError, "notAuthorized")
	h.registry.Update("ABC123", func(r *Room) error {
		if _, ok := r.Scores["intruder"]; ok {
			t.Fatal("non-member wrote a score")
		}
		return nil
	})
}

func TestRelayRoomUnresolved(t *testing.T) {
	h := newTestHub(t)
	lone := addTestClient(h, "lone")

	h.handleEnvelope(lone, envelope(protocol.EventOffer, "", offerData))
	expectErrorCode(t, lone, protocol.EventOfferError, "roomUnresolved")
}

func TestUpdateScoreValidation(t *testing.T) {
	h, x, y := pairedHub(t)

	for name, data := range map[string]string{
		"missing":    `{}`,
		"non-number": `{"score":"five"}`,
		"null":       `{"score":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			h.handleEnvelope(x, envelope(protocol.EventUpdateScore, "ABC123", data))
			expectErrorCode(t, x, protocol.EventScoreUpdateError, "invalidPayload")
			expectSilence(t, y)
		})
	}

	t.Run("zero is a real score", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventUpdateScore, "ABC123", `{"score":0}`))
		expectEvent(t, y, protocol.EventOpponentScoreUpdate)
	})
}

func TestSettingsHostGating(t *testing.T) {
	h, x, y := pairedHub(t)
	settings := `{"gameMode":"classic","targetScore":50,"roundTimeSeconds":60}`

	t.Run("non-host rejected", func(t *testing.T) {
		h.handleEnvelope(y, envelope(protocol.EventUpdateSettings, "ABC123", settings))
		expectErrorCode(t, y, protocol.EventRoomError, "notAuthorized")
		expectSilence(t, x)
	})

	t.Run("partial payload rejected", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventUpdateSettings, "ABC123", `{"gameMode":"classic"}`))
		expectErrorCode(t, x, protocol.EventRoomError, "invalidPayload")
		expectSilence(t, y)
	})

	t.Run("host settings broadcast", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventUpdateSettings, "ABC123", settings))
		var got protocol.SettingsUpdated
		json.Unmarshal(expectEvent(t, x, protocol.EventSettingsUpdated).Data, &got)
		expectEvent(t, y, protocol.EventSettingsUpdated)
		if got.Settings.TargetScore != 50 {
			t.Fatalf("settings: %+v", got.Settings)
		}

		// With configuration complete, both members hear the start phase
		// has begun.
		var starting protocol.GameStarting
		json.Unmarshal(expectEvent(t, x, protocol.EventGameStarting).Data, &starting)
		expectEvent(t, y, protocol.EventGameStarting)
		if starting.Room != "ABC123" {
			t.Fatalf("gameStarting: %+v", starting)
		}
	})
}

func TestStartGame(t *testing.T) {
	h, x, y := pairedHub(t)
	settings := `{"gameMode":"classic","targetScore":50,"roundTimeSeconds":60}`

	t.Run("without settings", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventStartGame, "ABC123", ""))
		expectErrorCode(t, x, protocol.EventRoomError, "notAuthorized")
	})

	h.handleEnvelope(x, envelope(protocol.EventUpdateSettings, "ABC123", settings))
	drain(x)
	drain(y)

	t.Run("non-host rejected", func(t *testing.T) {
		h.handleEnvelope(y, envelope(protocol.EventStartGame, "ABC123", ""))
		expectErrorCode(t, y, protocol.EventRoomError, "notAuthorized")
	})

	t.Run("host starts", func(t *testing.T) {
		h.handleEnvelope(x, envelope(protocol.EventStartGame, "ABC123", ""))
		expectEvent(t, x, protocol.EventGameStarted)
		expectEvent(t, y, protocol.EventGameStarted)
		h.registry.Update("ABC123", func(r *Room) error {
			if r.Status != StatusPlaying {
				t.Fatalf("status = %v, want playing", r.Status)
			}
			return nil
		})
	})
}
