// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package commander implements the voice announcer: it subscribes to the
// daemon's event stream, batches floods with per-(project, type) cooldowns
// and speaks a fixed set of event types through an HTTP synthesizer with
// local fallback.
package commander

import (
	"bufio"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/0xPD33/drift/internal/config"
	"github.com/0xPD33/drift/internal/event"
	"github.com/0xPD33/drift/internal/logging"
	"github.com/0xPD33/drift/internal/paths"
	"github.com/0xPD33/drift/internal/pidfile"
	"github.com/0xPD33/drift/internal/shutdown"
)

// speechMessage is one utterance queued for the speech worker.
type speechMessage struct {
	text     string
	instruct string
}

// Run starts the announcer and blocks until SIGTERM or SIGINT.
func Run() error {
	flag := shutdown.Install()

	globalCfg, err := config.LoadGlobal()
	if err != nil {
		logging.Warn().Err(err).Msg("global config unreadable, using defaults")
		globalCfg = &config.GlobalConfig{}
		globalCfg.Commander.CooldownSec = 5
		globalCfg.Commander.MaxQueue = 3
	}
	cfg := globalCfg.Commander

	if err := pidfile.Write(paths.CommanderPidPath()); err != nil {
		return err
	}
	defer pidfile.Remove(paths.CommanderPidPath())

	logging.Info().Msg("commander started")

	// The speech worker is the only thread that talks to the TTS engines.
	// The bounded queue drops utterances under flood instead of lagging
	// further and further behind real time.
	speechCh := make(chan speechMessage, cfg.MaxQueue)
	var interrupt atomic.Bool
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		speechWorker(speechCh, &interrupt, cfg, flag)
	}()

	runReadLoop(flag, cfg, speechCh, &interrupt)

	close(speechCh)
	<-workerDone
	logging.Info().Msg("commander shutting down")
	return nil
}

// runReadLoop connects to the subscribe socket and consumes events until
// shutdown, reconnecting on socket loss.
func runReadLoop(flag *shutdown.Flag, cfg config.CommanderConfig, speechCh chan<- speechMessage, interrupt *atomic.Bool) {
	cooldown := newCooldownTracker(time.Duration(cfg.CooldownSec) * time.Second)
	sockPath := paths.SubscribeSocketPath()

	for !flag.Requested() {
		conn, err := net.DialTimeout("unix", sockPath, time.Second)
		if err != nil {
			logging.Warn().Err(err).Msg("cannot connect to subscribe socket, retrying")
			sleepFlag(flag, 2*time.Second)
			continue
		}
		readEvents(flag, cfg, conn, cooldown, speechCh, interrupt)
		conn.Close()
		if !flag.Requested() {
			sleepFlag(flag, time.Second)
		}
	}
}

// readEvents consumes one subscribe connection until it drops or shutdown.
func readEvents(flag *shutdown.Flag, cfg config.CommanderConfig, conn net.Conn, cooldown *cooldownTracker, speechCh chan<- speechMessage, interrupt *atomic.Bool) {
	reader := bufio.NewReader(conn)

	for !flag.Requested() {
		// Expired windows flush as batch lines even with no traffic.
		for _, b := range cooldown.flushExpired() {
			enqueue(speechCh, speechMessage{text: renderBatch(b), instruct: cfg.Instruct})
		}

		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			logging.Warn().Err(err).Msg("subscribe socket lost, reconnecting")
			return
		}

		// Muted: read and discard everything.
		if muted() {
			continue
		}

		ev, err := event.Decode(line)
		if err != nil {
			logging.Warn().Err(err).Msg("unparseable event line")
			continue
		}
		if !isSpeakable(ev.Type) {
			continue
		}

		action, count := cooldown.check(ev.Project, ev.Type)
		switch action {
		case actionSuppress:
			continue
		case actionBatch:
			enqueue(speechCh, speechMessage{
				text:     renderBatch(batch{project: ev.Project, eventType: ev.Type, count: count}),
				instruct: cfg.Instruct,
			})
		}

		instruct := cfg.Instruct
		if specific, ok := cfg.EventInstructs[ev.Type]; ok {
			instruct = specific
		}

		// Critical events abandon whatever is playing before they queue.
		if isCritical(ev) {
			interrupt.Store(true)
		}
		enqueue(speechCh, speechMessage{text: renderSpeech(ev), instruct: instruct})
	}
}

// enqueue drops the message when the queue is full.
func enqueue(speechCh chan<- speechMessage, msg speechMessage) {
	select {
	case speechCh <- msg:
	default:
		logging.Warn().Msg("speech queue full, dropping utterance")
	}
}

func muted() bool {
	_, err := os.Stat(paths.CommanderMutedPath())
	return err == nil
}

// speechWorker owns the TTS engines and drains the utterance queue.
func speechWorker(speechCh <-chan speechMessage, interrupt *atomic.Bool, cfg config.CommanderConfig, flag *shutdown.Flag) {
	engine := newTTSEngine(cfg)

	for {
		select {
		case msg, ok := <-speechCh:
			if !ok {
				return
			}
			interrupt.Store(false)
			engine.speak(msg.text, msg.instruct, interrupt)
		case <-time.After(500 * time.Millisecond):
			if flag.Requested() {
				return
			}
			engine.maybeRecheck()
		}
	}
}

// SayText speaks one string through the configured engine, for the CLI's
// one-shot say path.
func SayText(text string) error {
	globalCfg, err := config.LoadGlobal()
	if err != nil {
		return err
	}
	engine := newTTSEngine(globalCfg.Commander)
	var interrupt atomic.Bool
	engine.speak(text, globalCfg.Commander.Instruct, &interrupt)
	return nil
}

func sleepFlag(flag *shutdown.Flag, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) && !flag.Requested() {
		time.Sleep(100 * time.Millisecond)
	}
}
