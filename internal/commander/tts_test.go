// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package commander

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPD33/drift/internal/config"
)

// scriptedTTS is a synthesizer stub whose responses are driven per request.
type scriptedTTS struct {
	server   *httptest.Server
	fail     atomic.Bool
	requests atomic.Int32
	inputs   chan string
}

func newScriptedTTS(t *testing.T) *scriptedTTS {
	t.Helper()
	s := &scriptedTTS{inputs: make(chan string, 16)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.inputs <- req.Input
		if s.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("RIFF-fake-wav"))
	}))
	t.Cleanup(s.server.Close)
	return s
}

// testEngine wires a scripted synthesizer and captures played audio instead
// of driving aplay.
func testEngine(t *testing.T, tts *scriptedTTS, fallbackCommand string) (*ttsEngine, *[]string) {
	t.Helper()
	endpoint := ""
	if tts != nil {
		endpoint = tts.server.URL
	}
	cfg := config.CommanderConfig{
		Endpoint:        endpoint,
		Voice:           "Vivian",
		FallbackCommand: fallbackCommand,
		CooldownSec:     5,
		MaxQueue:        3,
	}
	played := &[]string{}
	engine := newTTSEngine(cfg)
	engine.play = func(audio []byte, filter string, interrupt *atomic.Bool) error {
		*played = append(*played, string(audio))
		return nil
	}
	return engine, played
}

func TestStartupProbeSelectsHTTP(t *testing.T) {
	tts := newScriptedTTS(t)
	engine, _ := testEngine(t, tts, "")

	assert.Equal(t, gobreaker.StateClosed, engine.breaker.State())
	assert.Equal(t, "test", <-tts.inputs)
}

func TestStartupProbeFailureDemotes(t *testing.T) {
	tts := newScriptedTTS(t)
	tts.fail.Store(true)
	engine, _ := testEngine(t, tts, "true")

	assert.Equal(t, gobreaker.StateOpen, engine.breaker.State())
}

func TestSpeakPlaysHTTPAudio(t *testing.T) {
	tts := newScriptedTTS(t)
	engine, played := testEngine(t, tts, "")

	var interrupt atomic.Bool
	engine.speak("hello world", "", &interrupt)

	require.Len(t, *played, 1)
	assert.Equal(t, "RIFF-fake-wav", (*played)[0])
	<-tts.inputs // probe
	assert.Equal(t, "hello world", <-tts.inputs)
}

// One POST failure fails the utterance over to the fallback and demotes the
// engine for subsequent utterances.
func TestHTTPFailureFailsOverAndDemotes(t *testing.T) {
	tts := newScriptedTTS(t)
	engine, played := testEngine(t, tts, "true")

	tts.fail.Store(true)
	var interrupt atomic.Bool
	engine.speak("first", "", &interrupt)

	assert.Empty(t, *played)
	assert.Equal(t, gobreaker.StateOpen, engine.breaker.State())

	// The next utterance goes straight to the fallback: the request count
	// stays at probe + failed synthesis.
	before := tts.requests.Load()
	engine.speak("second", "", &interrupt)
	assert.Equal(t, before, tts.requests.Load())
}

func TestNoEnginesDropsSilently(t *testing.T) {
	engine, played := testEngine(t, nil, "")

	var interrupt atomic.Bool
	engine.speak("into the void", "", &interrupt)
	assert.Empty(t, *played)
}

func TestFallbackCommandSubstitutesText(t *testing.T) {
	engine, _ := testEngine(t, nil, "echo {text} > /dev/null")
	require.NoError(t, engine.speakFallback("hello"))
}

func TestFallbackWithoutConfigErrors(t *testing.T) {
	engine, _ := testEngine(t, nil, "")
	assert.Error(t, engine.speakFallback("hello"))
}

func TestSynthesizeSendsInstruct(t *testing.T) {
	tts := newScriptedTTS(t)
	engine, _ := testEngine(t, tts, "")
	<-tts.inputs // probe

	audio, err := engine.synthesize("say it", "cheerful")
	require.NoError(t, err)
	assert.Equal(t, "RIFF-fake-wav", string(audio))
	assert.Equal(t, "say it", <-tts.inputs)
}

func TestRecheckIsRateLimited(t *testing.T) {
	tts := newScriptedTTS(t)
	tts.fail.Store(true)
	engine, _ := testEngine(t, tts, "true")
	require.Equal(t, gobreaker.StateOpen, engine.breaker.State())

	// Inside the retry interval nothing is probed.
	before := tts.requests.Load()
	engine.maybeRecheck()
	assert.Equal(t, before, tts.requests.Load())
}
