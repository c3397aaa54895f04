// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package commander

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sys/unix"

	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/logging"
)

const (
	synthesisTimeout = 30 * time.Second
	probeTimeout     = 5 * time.Second

	// httpRetryInterval is how long the breaker stays open before the HTTP
	// synthesizer is re-probed.
	httpRetryInterval = 60 * time.Second
)

// ttsEngine speaks text through the HTTP synthesizer when it is healthy,
// failing over to the configured local fallback. The HTTP path runs behind
// a circuit breaker: one failure demotes to the fallback, and a recovery
// probe runs each time the breaker's open interval elapses.
type ttsEngine struct {
	cfg config.CommanderConfig

	breaker     *gobreaker.CircuitBreaker[[]byte]
	synthClient *http.Client
	probeClient *http.Client
	lastProbe   time.Time

	// play is swapped by tests.
	play func(audio []byte, filter string, interrupt *atomic.Bool) error
}

func newTTSEngine(cfg config.CommanderConfig) *ttsEngine {
	e := &ttsEngine{
		cfg:         cfg,
		synthClient: &http.Client{Timeout: synthesisTimeout},
		probeClient: &http.Client{Timeout: probeTimeout},
		play:        playAudio,
	}
	e.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "http-tts",
		MaxRequests: 1,
		Timeout:     httpRetryInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("tts engine state change")
		},
	})

	// Startup probe decides the initial engine: a failed probe opens the
	// breaker and the fallback takes over.
	if e.hasHTTP() {
		e.lastProbe = time.Now()
		if _, err := e.breaker.Execute(func() ([]byte, error) { return nil, e.probe() }); err != nil {
			logging.Warn().Err(err).Msg("http tts unavailable, using fallback")
		} else {
			logging.Info().Str("endpoint", cfg.Endpoint).Msg("using http tts")
		}
	}
	if !e.hasHTTP() && !e.hasFallback() {
		logging.Warn().Msg("no tts engine available, utterances will be dropped")
	}
	return e
}

func (e *ttsEngine) hasHTTP() bool {
	return e.cfg.Endpoint != ""
}

func (e *ttsEngine) hasFallback() bool {
	return e.cfg.FallbackEngine != "" || e.cfg.FallbackCommand != ""
}

// maybeRecheck re-probes the HTTP synthesizer while demoted. The probe runs
// at most once per retry interval; a success closes the breaker and the
// next utterance goes back to HTTP.
func (e *ttsEngine) maybeRecheck() {
	if !e.hasHTTP() || e.breaker.State() == gobreaker.StateClosed {
		return
	}
	if time.Since(e.lastProbe) < httpRetryInterval {
		return
	}
	e.lastProbe = time.Now()
	if _, err := e.breaker.Execute(func() ([]byte, error) { return nil, e.probe() }); err == nil {
		logging.Info().Msg("http tts recovered")
	}
}

// speak synthesizes and plays one utterance. HTTP failures fail over to the
// fallback for this utterance and leave the breaker open for later ones.
func (e *ttsEngine) speak(text, instruct string, interrupt *atomic.Bool) {
	e.maybeRecheck()

	if e.hasHTTP() && e.breaker.State() != gobreaker.StateOpen {
		audio, err := e.breaker.Execute(func() ([]byte, error) {
			return e.synthesize(text, instruct)
		})
		if err == nil {
			if err := e.play(audio, e.cfg.AudioFilter, interrupt); err != nil {
				logging.Warn().Err(err).Msg("audio playback failed")
			}
			return
		}
		logging.Warn().Err(err).Msg("http tts failed, trying fallback")
	}

	if e.hasFallback() {
		if err := e.speakFallback(text); err != nil {
			logging.Warn().Err(err).Msg("fallback tts failed")
		}
		return
	}
	// No engine left: drop silently.
}

// synthesisRequest is the HTTP synthesizer's request body.
type synthesisRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
	Instruct       string `json:"instruct,omitempty"`
}

func (e *ttsEngine) speechURL() string {
	return strings.TrimRight(e.cfg.Endpoint, "/") + "/v1/audio/speech"
}

// probe sends a short keep-alive synthesis request.
func (e *ttsEngine) probe() error {
	body, err := json.Marshal(synthesisRequest{
		Model:          "qwen3-tts",
		Voice:          e.cfg.Voice,
		Input:          "test",
		ResponseFormat: "wav",
	})
	if err != nil {
		return err
	}
	resp, err := e.probeClient.Post(e.speechURL(), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts probe returned status %d", resp.StatusCode)
	}
	return nil
}

// synthesize POSTs the utterance and returns the audio bytes.
func (e *ttsEngine) synthesize(text, instruct string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Model:          "qwen3-tts",
		Voice:          e.cfg.Voice,
		Input:          text,
		ResponseFormat: "wav",
		Instruct:       instruct,
	})
	if err != nil {
		return nil, err
	}
	resp, err := e.synthClient.Post(e.speechURL(), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// speakFallback renders through the local fallback pipeline.
func (e *ttsEngine) speakFallback(text string) error {
	var cmd string
	switch {
	case e.cfg.FallbackCommand != "":
		cmd = strings.ReplaceAll(e.cfg.FallbackCommand, "{text}", text)
	case e.cfg.FallbackEngine == "piper":
		voice := e.cfg.FallbackVoice
		if voice == "" {
			voice = "en_US-lessac-medium"
		}
		pipeline := fmt.Sprintf("echo %s | piper --model %s --output-raw", shellEscape(text), shellEscape(voice))
		if e.cfg.AudioFilter != "" {
			pipeline += " | " + e.cfg.AudioFilter
		}
		cmd = pipeline + " | aplay -r 22050 -f S16_LE"
	case e.cfg.FallbackEngine == "espeak" || e.cfg.FallbackEngine == "espeak-ng":
		cmd = fmt.Sprintf("echo %s | espeak-ng", shellEscape(text))
	default:
		return errors.New("no fallback engine configured")
	}

	return runDetached(cmd, nil)
}

// playAudio pipes synthesized audio through the optional filter into aplay.
// The child runs in its own session so foreground SIGINT does not kill it;
// the interrupt flag abandons playback mid-stream for critical events.
func playAudio(audio []byte, filter string, interrupt *atomic.Bool) error {
	cmd := "aplay -r 22050 -f S16_LE"
	if filter != "" {
		cmd = filter + " | " + cmd
	}
	return runDetached(cmd, func(child *exec.Cmd) error {
		stdin, err := child.StdinPipe()
		if err != nil {
			return err
		}
		go func() {
			_, _ = stdin.Write(audio)
			stdin.Close()
		}()
		return waitInterruptible(child, interrupt)
	})
}

// runDetached runs a shell pipeline in a fresh session. With a nil driver
// it just starts and waits; a driver takes over stdin wiring and waiting.
func runDetached(shellCmd string, driver func(*exec.Cmd) error) error {
	child := exec.Command("sh", "-c", shellCmd)
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if driver != nil {
		if err := driver(child); err != nil {
			return err
		}
		return nil
	}

	if err := child.Start(); err != nil {
		return err
	}
	if err := child.Wait(); err != nil {
		return fmt.Errorf("tts pipeline: %w", err)
	}
	return nil
}

// waitInterruptible starts the child and waits, killing its whole session
// when the interrupt flag rises.
func waitInterruptible(child *exec.Cmd, interrupt *atomic.Bool) error {
	if err := child.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	for {
		select {
		case err := <-done:
			return err
		case <-time.After(100 * time.Millisecond):
			if interrupt != nil && interrupt.Load() {
				_ = unix.Kill(-child.Process.Pid, unix.SIGKILL)
				<-done
				return nil
			}
		}
	}
}

// shellEscape single-quotes s for sh, escaping embedded single quotes.
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
