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

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

// playerConfig describes how to drive a known audio player headless
type playerConfig struct {
	rateFlag string   // e.g. "--speed="
	args     []string // flags that keep the player quiet and make it exit at the end
}

// players registry - one entry per known command
var players = map[string]playerConfig{
	"mpv": {
		rateFlag: "--speed=",
		args:     []string{"--no-video", "--really-quiet", "--no-terminal"},
	},
	"cvlc": {
		rateFlag: "--rate=",
		args:     []string{"--intf", "dummy", "--play-and-exit", "--quiet"},
	},
	"vlc": {
		rateFlag: "--rate=",
		args:     []string{"--intf", "dummy", "--play-and-exit", "--quiet"},
	},
	"ffplay": {
		rateFlag: "-af atempo=",
		args:     []string{"-nodisp", "-autoexit", "-loglevel", "quiet"},
	},
	"mplayer": {
		rateFlag: "-speed ",
		args:     []string{"-really-quiet", "-novideo"},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"mpv", "ffplay", "vlc"},
	"linux":   {"mpv", "cvlc", "ffplay", "mplayer"},
	"windows": {"mpv", "vlc", "ffplay"},
}

// AudioPlayer plays page audio URLs through an external player process
type AudioPlayer struct {
	command  string
	args     []string
	rateFlag string
	logger   *slog.Logger

	lookPath   func(string) (string, error)
	newCommand commandFunc
	active     slot
}

// NewAudioPlayer creates a player. An empty command picks the first known
// player found in PATH; an empty rateFlag is looked up from the registry.
func NewAudioPlayer(command string, args []string, rateFlag string, logger *slog.Logger) *AudioPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioPlayer{
		command:    command,
		args:       args,
		rateFlag:   rateFlag,
		logger:     logger,
		lookPath:   exec.LookPath,
		newCommand: exec.CommandContext,
	}
}

// resolve picks the command and its arguments for one URL
func (p *AudioPlayer) resolve(url string, rate domain.Rate) (string, []string, error) {
	command := p.command
	if command == "" {
		candidates, ok := candidatePlayers[runtime.GOOS]
		if !ok {
			candidates = candidatePlayers["linux"]
		}
		for _, name := range candidates {
			if _, err := p.lookPath(name); err == nil {
				command = name
				break
			}
			p.logger.Debug("player not in PATH", "player", name)
		}
		if command == "" {
			return "", nil, fmt.Errorf("%w: no audio player found (tried %s)",
				domain.ErrPlaybackFailed, strings.Join(candidates, ", "))
		}
	}

	base := strings.ToLower(filepath.Base(command))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	known, isKnown := players[base]

	var args []string
	if isKnown {
		args = append(args, known.args...)
	}
	args = append(args, p.args...)

	flag := p.rateFlag
	if flag == "" && isKnown {
		flag = known.rateFlag
	}
	if rate != domain.DefaultRate {
		if flag == "" {
			p.logger.Warn("cannot set playback rate - unknown player, configure rate_flag in config",
				"command", command, "rate", float64(rate))
		}
		args = append(args, flagArgs(flag, strconv.FormatFloat(float64(rate), 'f', -1, 64))...)
	}

	return command, append(args, url), nil
}

// Start implements playback.Renderer for audio pages
func (p *AudioPlayer) Start(ctx context.Context, req playback.RenderRequest) error {
	if req.Media.Kind != domain.MediaKindAudio {
		return fmt.Errorf("%w: page %d has no audio", domain.ErrPlaybackFailed, req.Media.Page)
	}
	if err := p.Stop(); err != nil {
		p.logger.Warn("failed to stop previous player", "error", err)
	}

	command, args, err := p.resolve(req.Media.URL, req.Rate)
	if err != nil {
		return err
	}

	p.logger.Info("launching player", "command", command, "args", args)
	proc, err := startProcess(p.newCommand(ctx, command, args...), req.OnDone)
	if err != nil {
		return err
	}
	p.active.swap(proc)
	return nil
}

// Stop kills the running player, if any
func (p *AudioPlayer) Stop() error {
	return p.active.stop()
}
