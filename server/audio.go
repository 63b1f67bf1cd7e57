package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog"
)

const (
	defaultSampleRate = 44100
	panRange          = 1500.0 // emitter X at which a cue is fully left or right
	maxRenderSeconds  = 600.0
)

// WaveType selects an oscillator shape
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// cueSpec describes how one sound name is synthesized
type cueSpec struct {
	wave     WaveType
	freq     float64
	overtone float64 // second partial, 0 = none
	duration time.Duration
	attack   time.Duration
	release  time.Duration
	gain     float64
}

var cueSpecs = map[string]cueSpec{
	SoundShoot:      {wave: WaveSquare, freq: 660, duration: 120 * time.Millisecond, attack: 5 * time.Millisecond, release: 80 * time.Millisecond, gain: 0.35},
	SoundHit:        {wave: WaveNoise, duration: 250 * time.Millisecond, attack: 2 * time.Millisecond, release: 200 * time.Millisecond, gain: 0.5},
	SoundSeaFlower:  {wave: WaveSine, freq: 880, overtone: 1760, duration: 400 * time.Millisecond, attack: 10 * time.Millisecond, release: 300 * time.Millisecond, gain: 0.4},
	SoundUrchin:     {wave: WaveSaw, freq: 220, duration: 180 * time.Millisecond, attack: 5 * time.Millisecond, release: 120 * time.Millisecond, gain: 0.4},
	SoundBackground: {wave: WaveSine, freq: 55, overtone: 82.5, attack: 500 * time.Millisecond, gain: 0.15},
}

// Cue is one sound placed on the match timeline
type Cue struct {
	Name string
	At   float64 // seconds from the start of the recording
	Pan  float64 // -1 left .. 1 right
	Loop bool
}

// SoundBoard implements AudioSink by recording cues against a clock that the
// runner advances, then rendering the timeline to a WAV file on Flush. It
// never opens a sound device. Methods are safe on a nil receiver.
type SoundBoard struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	volume float64
	output string
	clock  float64
	cues   []Cue
	log    zerolog.Logger
}

// NewSoundBoard returns a board rendering to cfg.Output (empty = record only)
func NewSoundBoard(cfg AudioConfig) *SoundBoard {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = defaultSampleRate
	}
	return &SoundBoard{
		rate:   beep.SampleRate(rate),
		volume: cfg.Volume,
		output: cfg.Output,
		log:    componentLogger("audio"),
	}
}

// PlaySound stamps a cue at the current clock
func (b *SoundBoard) PlaySound(name string, loop bool, emitter Vec3) {
	if b == nil {
		return
	}
	if _, ok := cueSpecs[name]; !ok {
		b.log.Debug().Str("sound", name).Msg("unknown cue")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clock >= maxRenderSeconds {
		return
	}
	b.cues = append(b.cues, Cue{
		Name: name,
		At:   b.clock,
		Pan:  Clamp(emitter.X/panRange, -1, 1),
		Loop: loop,
	})
}

// Advance moves the clock forward by dt seconds
func (b *SoundBoard) Advance(dt float64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.clock += dt
	b.mu.Unlock()
}

// Cues returns a copy of the recorded timeline
func (b *SoundBoard) Cues() []Cue {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Cue(nil), b.cues...)
}

// Length returns the recorded duration in seconds
func (b *SoundBoard) Length() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return math.Min(b.clock, maxRenderSeconds)
}

// Streamer builds the mixed timeline. Looping cues run to the end.
func (b *SoundBoard) Streamer() beep.Streamer {
	b.mu.Lock()
	defer b.mu.Unlock()

	length := math.Min(b.clock, maxRenderSeconds)
	total := b.rate.N(seconds(length))
	rng := rand.New(rand.NewSource(int64(len(b.cues))))

	parts := []beep.Streamer{beep.Silence(total)}
	for _, c := range b.cues {
		spec := cueSpecs[c.Name]
		start := b.rate.N(seconds(c.At))
		dur := spec.duration
		if c.Loop || dur == 0 {
			dur = seconds(length - c.At)
		}
		if dur <= 0 {
			continue
		}
		cue := &effects.Pan{Streamer: synthCue(spec, dur, b.rate, rng), Pan: c.Pan}
		parts = append(parts, beep.Seq(beep.Silence(start), cue))
	}
	return beep.Take(total, newVolume(beep.Mix(parts...), b.volume))
}

// Flush renders the timeline to the configured WAV file
func (b *SoundBoard) Flush() error {
	if b == nil || b.output == "" {
		return nil
	}
	f, err := os.Create(b.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", b.output, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: b.rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, b.Streamer(), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	b.log.Info().Str("file", b.output).Int("cues", len(b.Cues())).Msg("audio rendered")
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func synthCue(spec cueSpec, dur time.Duration, rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	release := spec.release
	if release > dur {
		release = dur
	}
	var s beep.Streamer = NewEnvelope(newOscillator(spec.freq, dur, spec.wave, rate, rng), dur, spec.attack, release, rate)
	if spec.overtone > 0 {
		over := NewEnvelope(newOscillator(spec.overtone, dur, WaveSine, rate, rng), dur, spec.attack, release/2, rate)
		s = beep.Mix(newGain(s, 0.7), newGain(over, 0.3))
	}
	return newGain(s, spec.gain)
}

// oscillator generates a raw wave for a fixed number of samples
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

func newOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rng,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and release to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

// NewEnvelope shapes s with an attack ramp and a release fade ending at duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer:       s,
		attackSamples:  rate.N(attack),
		releaseSamples: rate.N(release),
		totalSamples:   rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	releaseStart := e.totalSamples - e.releaseSamples
	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}
		vol := 1.0
		if e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		if e.releaseSamples > 0 && e.position >= releaseStart {
			vol = math.Min(vol, float64(e.totalSamples-e.position)/float64(e.releaseSamples))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newGain scales s linearly; zero gain is silent
func newGain(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}

// newVolume applies a master volume in log2 steps (0 = unity)
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	return &effects.Volume{Streamer: s, Base: 2, Volume: vol}
}
