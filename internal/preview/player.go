package preview

import (
	"bytes"
	"sync"

	"github.com/ebitengine/oto/v3"
)

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// oto allows a single context per process, so every clip shares one rate.
func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   PlaybackRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// Player plays one clip at a time.
type Player struct {
	mu      sync.Mutex
	current *oto.Player
}

// Play stops any clip in progress and starts clip, which must come from
// [Clip].
func (p *Player) Play(clip []byte) error {
	ctx, err := initOto()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.current = ctx.NewPlayer(bytes.NewReader(clip))
	p.current.Play()
	return nil
}

// Playing reports whether a clip is still sounding.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.IsPlaying()
}

// Stop silences the current clip.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current != nil {
		p.current.Pause()
		p.current.Close()
		p.current = nil
	}
}
