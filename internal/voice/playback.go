package voice

import (
	"errors"
	"sync"
)

// ErrLoadingBusy rejects a play request while another synthesis fetch is in
// flight. Requests are rejected, not queued.
var ErrLoadingBusy = errors.New("voice: another audio response is still loading")

// PlayAction tells the owner what side effect a Play call requires.
type PlayAction int

const (
	// ActionStopped means the request toggled the current audio off.
	ActionStopped PlayAction = iota
	// ActionLoad means the owner should fetch/synthesize audio for the id,
	// then call Ready (or Failed) with it.
	ActionLoad
)

// Playback serializes audio output: at most one id playing and at most one
// id loading at any time. Cycle per id: idle → loading → playing → idle.
type Playback struct {
	mu        sync.Mutex
	playingID string
	loadingID string
}

// NewPlayback creates an idle playback slot.
func NewPlayback() *Playback {
	return &Playback{}
}

// Play requests audio for id. Playing the already-playing id toggles it off.
// A different id stops the current one first, then transitions to loading.
func (p *Playback) Play(id string) (PlayAction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loadingID != "" {
		return 0, ErrLoadingBusy
	}
	if p.playingID == id {
		p.playingID = ""
		return ActionStopped, nil
	}
	// Stop-before-start keeps the single audio channel exclusive.
	p.playingID = ""
	p.loadingID = id
	return ActionLoad, nil
}

// Ready marks the loading id as now audible.
func (p *Playback) Ready(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loadingID != id {
		return
	}
	p.loadingID = ""
	p.playingID = id
}

// Failed abandons a load that could not be fetched.
func (p *Playback) Failed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loadingID == id {
		p.loadingID = ""
	}
}

// Completed handles natural end of playback.
func (p *Playback) Completed(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playingID == id {
		p.playingID = ""
	}
}

// Stop silences whatever is playing, regardless of id.
func (p *Playback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playingID = ""
}

// PlayingID returns the audible id, empty when idle.
func (p *Playback) PlayingID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playingID
}

// LoadingID returns the in-flight fetch id, empty when none.
func (p *Playback) LoadingID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadingID
}
