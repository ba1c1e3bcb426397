package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

// Mux routes each page to the renderer for its media kind
type Mux struct {
	audio  playback.Renderer
	speech playback.Renderer
}

// NewMux combines an audio renderer and a speech renderer
func NewMux(audio, speech playback.Renderer) *Mux {
	return &Mux{audio: audio, speech: speech}
}

// Start implements playback.Renderer
func (m *Mux) Start(ctx context.Context, req playback.RenderRequest) error {
	switch req.Media.Kind {
	case domain.MediaKindAudio:
		return m.audio.Start(ctx, req)
	case domain.MediaKindText:
		return m.speech.Start(ctx, req)
	default:
		return fmt.Errorf("%w: page %d is not loaded", domain.ErrPlaybackFailed, req.Media.Page)
	}
}

// Stop implements playback.Renderer
func (m *Mux) Stop() error {
	return errors.Join(m.audio.Stop(), m.speech.Stop())
}
