package device

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

// DefaultWordsPerMinute is the speaking cadence at rate 1.0
const DefaultWordsPerMinute = 175

// engineConfig describes how to drive a text-to-speech command
type engineConfig struct {
	rateFlag  string // words per minute
	voiceFlag string
	stdinArgs []string // read the text from stdin
}

var engines = map[string]engineConfig{
	"espeak-ng": {rateFlag: "-s ", voiceFlag: "-v ", stdinArgs: []string{"--stdin"}},
	"espeak":    {rateFlag: "-s ", voiceFlag: "-v ", stdinArgs: []string{"--stdin"}},
	"say":       {rateFlag: "-r ", voiceFlag: "-v ", stdinArgs: []string{"-f", "-"}},
}

var candidateEngines = map[string][]string{
	"darwin": {"say", "espeak-ng"},
	"linux":  {"espeak-ng", "espeak"},
}

// Speaker reads page text aloud through a speech engine and estimates word
// boundaries from the speaking cadence.
type Speaker struct {
	command string
	voice   string
	wpm     int
	logger  *slog.Logger

	lookPath   func(string) (string, error)
	newCommand commandFunc
	active     slot
	mu         sync.Mutex // guards voice
}

// NewSpeaker creates a speaker. An empty command picks the platform engine.
func NewSpeaker(command, voice string, wpm int, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return &Speaker{
		command:    command,
		voice:      voice,
		wpm:        wpm,
		logger:     logger,
		lookPath:   exec.LookPath,
		newCommand: exec.CommandContext,
	}
}

// SetVoice changes the voice used from the next page on
func (s *Speaker) SetVoice(voice string) {
	s.mu.Lock()
	s.voice = voice
	s.mu.Unlock()
}

func (s *Speaker) currentVoice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// wordsPerMinute scales the base cadence by rate
func (s *Speaker) wordsPerMinute(rate domain.Rate) int {
	return int(float64(s.wpm)*float64(rate) + 0.5)
}

func (s *Speaker) resolve(rate domain.Rate) (string, []string, error) {
	command := s.command
	if command == "" {
		candidates, ok := candidateEngines[runtime.GOOS]
		if !ok {
			candidates = candidateEngines["linux"]
		}
		for _, name := range candidates {
			if _, err := s.lookPath(name); err == nil {
				command = name
				break
			}
		}
		if command == "" {
			return "", nil, fmt.Errorf("%w: no speech engine found (tried %s)",
				domain.ErrPlaybackFailed, strings.Join(candidates, ", "))
		}
	}

	base := strings.TrimSuffix(filepath.Base(command), filepath.Ext(command))
	engine, ok := engines[base]
	if !ok {
		engine = engines["espeak-ng"]
	}

	args := flagArgs(engine.rateFlag, strconv.Itoa(s.wordsPerMinute(rate)))
	if voice := s.currentVoice(); voice != "" {
		args = append(args, flagArgs(engine.voiceFlag, voice)...)
	}
	return command, append(args, engine.stdinArgs...), nil
}

// Start implements playback.Renderer for text pages
func (s *Speaker) Start(ctx context.Context, req playback.RenderRequest) error {
	if req.Media.Kind != domain.MediaKindText {
		return fmt.Errorf("%w: page %d has no text", domain.ErrPlaybackFailed, req.Media.Page)
	}
	if err := s.Stop(); err != nil {
		s.logger.Warn("failed to stop previous speech", "error", err)
	}

	words := req.Media.Words()
	from := min(max(req.FromWord, 0), len(words))
	if from == len(words) {
		// Nothing left to say; finish asynchronously like a process would.
		if req.OnDone != nil {
			go req.OnDone(nil)
		}
		return nil
	}

	command, args, err := s.resolve(req.Rate)
	if err != nil {
		return err
	}

	cmd := s.newCommand(ctx, command, args...)
	cmd.Stdin = strings.NewReader(strings.Join(words[from:], " "))

	s.logger.Debug("speaking page", "command", command, "page", req.Media.Page, "fromWord", from, "words", len(words))
	proc, err := startProcess(cmd, req.OnDone)
	if err != nil {
		return err
	}
	s.active.swap(proc)

	if req.OnBoundary != nil {
		interval := time.Minute / time.Duration(max(s.wordsPerMinute(req.Rate), 1))
		go trackWords(proc, from, len(words), interval, req.OnBoundary)
	}
	return nil
}

// trackWords emits estimated word boundaries until the process ends or is stopped
func trackWords(p *process, from, total int, interval time.Duration, onBoundary func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for word := from; word < total; word++ {
		if p.stopped.Load() {
			return
		}
		onBoundary(word)
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}
	}
}

// Stop silences the engine, if speaking
func (s *Speaker) Stop() error {
	return s.active.stop()
}
