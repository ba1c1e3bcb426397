package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// commandFunc builds the process for a player or speech engine
type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// process is one running player or speech engine
type process struct {
	cmd     *exec.Cmd
	stopped atomic.Bool
	done    chan struct{}
}

// start launches cmd and reports its exit through onExit unless stopped first
func startProcess(cmd *exec.Cmd, onExit func(error)) (*process, error) {
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", domain.ErrPlaybackFailed, cmd.Path, err)
	}
	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		close(p.done)
		if p.stopped.Load() {
			return
		}
		if err != nil {
			err = fmt.Errorf("%w: %s exited: %w", domain.ErrPlaybackFailed, cmd.Path, err)
		}
		if onExit != nil {
			onExit(err)
		}
	}()
	return p, nil
}

// stop kills the process without waiting for it to be reaped
func (p *process) stop() error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// slot holds the active process of a device
type slot struct {
	mu      sync.Mutex
	current *process
}

func (s *slot) swap(p *process) *process {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = p
	return prev
}

func (s *slot) stop() error {
	if prev := s.swap(nil); prev != nil {
		return prev.stop()
	}
	return nil
}

// flagArgs renders a flag and value the way the program expects:
// "--speed=" glues the value, "-s " passes it as a separate argument,
// "-af atempo=" splits the flag and glues the value to its tail.
func flagArgs(flag, value string) []string {
	switch {
	case flag == "":
		return nil
	case strings.HasSuffix(flag, " "):
		return []string{strings.TrimSuffix(flag, " "), value}
	case strings.Contains(flag, " "):
		parts := strings.SplitN(flag, " ", 2)
		return []string{parts[0], parts[1] + value}
	default:
		return []string{flag + value}
	}
}
