package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeMessage_AllActions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ping", `{"action":"ping"}`, ActionPing},
		{"signIn", `{"action":"signIn"}`, ActionSignIn},
		{"signOut", `{"action":"signOut"}`, ActionSignOut},
		{"getAuthState", `{"action":"getAuthState"}`, ActionGetAuthState},
		{"processText", `{"action":"processText","url":"https://x","articleText":"body"}`, ActionProcessText},
		{"processMediaItem", `{"action":"processMediaItem","mediaUrl":"https://x/a.png","mediaKind":"image","itemId":"item-1"}`, ActionProcessMediaItem},
		{"getResultForTab", `{"action":"getResultForTab","tabId":42}`, ActionGetResultForTab},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeMessage failed: %v", err)
			}
			if msg.Action() != tt.want {
				t.Errorf("Action() = %q, want %q", msg.Action(), tt.want)
			}
		})
	}
}

func TestDecodeMessage_PayloadFields(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"action":"processText","url":"https://example.com/a","articleText":"some text"}`))
	if err != nil {
		t.Fatal(err)
	}
	pt, ok := msg.(ProcessText)
	if !ok {
		t.Fatalf("expected ProcessText, got %T", msg)
	}
	if pt.URL != "https://example.com/a" || pt.ArticleText != "some text" {
		t.Errorf("unexpected payload: %+v", pt)
	}

	msg, err = DecodeMessage([]byte(`{"action":"processMediaItem","mediaUrl":"https://x/v.mp4","mediaKind":"video","itemId":"el-9"}`))
	if err != nil {
		t.Fatal(err)
	}
	pm := msg.(ProcessMediaItem)
	if pm.MediaKind != MediaVideo || pm.ItemID != "el-9" {
		t.Errorf("unexpected payload: %+v", pm)
	}
}

func TestDecodeMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"unknown action", `{"action":"selfDestruct"}`, "unknown action"},
		{"missing action", `{"url":"https://x"}`, "no action"},
		{"not json", `ping`, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEncodeMessage_RoundTrip(t *testing.T) {
	orig := ProcessMediaItem{MediaURL: "https://x/a.png", MediaKind: MediaImage, ItemID: "item-3"}
	data, err := EncodeMessage(orig)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.(ProcessMediaItem) != orig {
		t.Errorf("round trip mismatch: %+v != %+v", back, orig)
	}
}

func TestEncodeEvent_CarriesTypeTag(t *testing.T) {
	data, err := EncodeEvent(AnalysisError{TabID: 7, ItemID: "el-1", Error: "boom"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != EventAnalysisError {
		t.Errorf("type tag = %v, want %s", decoded["type"], EventAnalysisError)
	}
	if decoded["tabId"] != float64(7) {
		t.Errorf("tabId = %v, want 7", decoded["tabId"])
	}
}

func TestMediaKind_Valid(t *testing.T) {
	for _, k := range []MediaKind{MediaImage, MediaVideo, MediaAudio} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if MediaKind("gif").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
