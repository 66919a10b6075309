package protocol

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestValidSessionDescription(t *testing.T) {
	good := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	if !ValidSessionDescription(&good) {
		t.Error("complete description rejected")
	}

	bad := []*webrtc.SessionDescription{
		nil,
		{SDP: "v=0"},                // no type
		{Type: webrtc.SDPTypeOffer}, // no body
	}
	for i, desc := range bad {
		if ValidSessionDescription(desc) {
			t.Errorf("case %d: incomplete description accepted", i)
		}
	}

	// An unrecognized type string decodes to the unknown type.
	var decoded webrtc.SessionDescription
	if err := json.Unmarshal([]byte(`{"type":"bogus","sdp":"v=0"}`), &decoded); err == nil {
		if ValidSessionDescription(&decoded) {
			t.Error("bogus type string accepted")
		}
	}
}

func TestValidICECandidate(t *testing.T) {
	mid := "0"
	empty := ""

	if !ValidICECandidate(&webrtc.ICECandidateInit{Candidate: "candidate:1", SDPMid: &mid}) {
		t.Error("complete candidate rejected")
	}
	bad := []*webrtc.ICECandidateInit{
		nil,
		{Candidate: "candidate:1"},               // no mid
		{Candidate: "", SDPMid: &mid},            // empty candidate
		{Candidate: "candidate:1", SDPMid: &empty},
	}
	for i, cand := range bad {
		if ValidICECandidate(cand) {
			t.Errorf("case %d: incomplete candidate accepted", i)
		}
	}
}

func TestScorePayloadValid(t *testing.T) {
	val := func(f float64) *float64 { return &f }

	if (&ScorePayload{}).Valid() {
		t.Error("missing score accepted")
	}
	if (&ScorePayload{Score: val(math.NaN())}).Valid() {
		t.Error("NaN accepted")
	}
	if (&ScorePayload{Score: val(math.Inf(1))}).Valid() {
		t.Error("Inf accepted")
	}
	if !(&ScorePayload{Score: val(0)}).Valid() {
		t.Error("zero rejected")
	}
}

func TestGameSettingsValid(t *testing.T) {
	full := GameSettings{GameMode: "classic", TargetScore: 50, RoundTimeSeconds: 60}
	if !full.Valid() {
		t.Error("complete settings rejected")
	}
	partial := []GameSettings{
		{TargetScore: 50, RoundTimeSeconds: 60},
		{GameMode: "classic", RoundTimeSeconds: 60},
		{GameMode: "classic", TargetScore: 50},
		{GameMode: "classic", TargetScore: -1, RoundTimeSeconds: 60},
	}
	for i, s := range partial {
		if s.Valid() {
			t.Errorf("case %d: partial settings accepted", i)
		}
	}
}
