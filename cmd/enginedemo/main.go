// Command enginedemo drives a SoundEngine against a real audio device,
// the way github.com/doismellburning/samoyed's cmd/direwolf wires its
// decode pipeline to portaudio: a pflag-parsed CLI, a yaml patch file, a
// charmbracelet/log logger, and a portaudio callback pumping the engine's
// Process loop straight into the output stream.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/wavecore/synth/internal/log"
	"github.com/wavecore/synth/pkg/engine"
	"github.com/wavecore/synth/pkg/midi"
	"github.com/wavecore/synth/pkg/oversample"
	"github.com/wavecore/synth/pkg/preset"
)

var logger = log.New("enginedemo")

func main() {
	var (
		sampleRate = pflag.Float64("sample-rate", 48000, "host sample rate in Hz")
		blockSize  = pflag.Int("block-size", 256, "host callback block size in frames")
		factor     = pflag.Int("oversample", 2, "internal oversampling factor (1, 2, 4, or 8)")
		patchPath  = pflag.String("patch", "", "path to a yaml patch/note-sequence file (default: built-in C major arpeggio)")
		presetPath = pflag.String("preset", "", "path to a binary parameter preset to load before playback")
		duration   = pflag.Duration("duration", 4*time.Second, "how long to run before exiting")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	osFactor, err := parseOversampleFactor(*factor)
	if err != nil {
		logger.Error("invalid --oversample", "err", err)
		os.Exit(1)
	}

	p, err := loadPatch(*patchPath)
	if err != nil {
		logger.Error("failed to load patch", "path", *patchPath, "err", err)
		os.Exit(1)
	}

	eng := engine.New(*sampleRate, *blockSize, osFactor)

	if *presetPath != "" {
		if err := loadPresetFile(eng, *presetPath); err != nil {
			logger.Error("failed to load preset", "path", *presetPath, "err", err)
			os.Exit(1)
		}
		logger.Info("loaded preset", "path", *presetPath)
	}

	if len(p.EffectOrder) > 0 {
		if err := eng.SetEffectsOrder(p.EffectOrder); err != nil {
			logger.Error("invalid effect_order in patch", "err", err)
			os.Exit(1)
		}
	}
	for _, m := range p.Modulations {
		if _, err := eng.ConnectModulation(m[0], m[1]); err != nil {
			logger.Error("failed to connect modulation", "src", m[0], "dst", m[1], "err", err)
		}
	}

	schedule := buildSchedule(p.Notes, *sampleRate)
	logger.Info("starting engine", "sample_rate", *sampleRate, "block_size", *blockSize, "oversample", osFactor, "notes", len(schedule))

	if err := runPortAudio(eng, schedule, *sampleRate, *blockSize, *duration); err != nil {
		logger.Error("portaudio run failed", "err", err)
		os.Exit(1)
	}
}

// loadPresetFile applies a pkg/preset binary parameter file to eng's
// catalog before playback starts.
func loadPresetFile(eng *engine.SoundEngine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return preset.NewManager(eng.Catalog()).Load(f)
}

func parseOversampleFactor(n int) (oversample.Factor, error) {
	switch n {
	case 1:
		return oversample.Factor1, nil
	case 2:
		return oversample.Factor2, nil
	case 4:
		return oversample.Factor4, nil
	case 8:
		return oversample.Factor8, nil
	default:
		return 0, fmt.Errorf("oversample factor must be 1, 2, 4, or 8, got %d", n)
	}
}

// scheduledEvent is a noteEvent converted to absolute sample offsets from
// the start of playback, the unit SoundEngine.EnqueueEvent expects.
type scheduledEvent struct {
	atSample int64
	ev       midi.Event
}

func buildSchedule(notes []noteEvent, sampleRate float64) []scheduledEvent {
	var out []scheduledEvent
	for _, n := range notes {
		onSample := int64(n.StartSec * sampleRate)
		offSample := int64((n.StartSec + n.DurSec) * sampleRate)
		vel := uint8(n.Velocity * 127)
		out = append(out,
			scheduledEvent{atSample: onSample, ev: midi.NoteOnEvent{
				BaseEvent:  midi.BaseEvent{EventChannel: n.Channel},
				NoteNumber: n.Note,
				Velocity:   vel,
			}},
			scheduledEvent{atSample: offSample, ev: midi.NoteOffEvent{
				BaseEvent:  midi.BaseEvent{EventChannel: n.Channel},
				NoteNumber: n.Note,
				Velocity:   0,
			}},
		)
	}
	return out
}

// runPortAudio opens the default output device and pumps eng.Process into
// it one host block at a time, dispatching any scheduled note events whose
// sample offset falls within the block being produced.
func runPortAudio(eng *engine.SoundEngine, schedule []scheduledEvent, sampleRate float64, blockSize int, duration time.Duration) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	outL := make([]float32, blockSize)
	outR := make([]float32, blockSize)
	var samplesPlayed int64

	callback := func(out []float32) {
		n := len(out) / 2
		if n > blockSize {
			n = blockSize
		}

		blockStart := samplesPlayed
		blockEnd := blockStart + int64(n)
		for len(schedule) > 0 && schedule[0].atSample < blockEnd {
			ev := schedule[0]
			schedule = schedule[1:]
			offset := int(ev.atSample - blockStart)
			if offset < 0 {
				offset = 0
			}
			eng.EnqueueEvent(withOffset(ev.ev, offset))
		}

		eng.Process(n, outL[:n], outR[:n])
		for i := 0; i < n; i++ {
			out[2*i] = outL[i]
			out[2*i+1] = outR[i]
		}
		samplesPlayed += int64(n)
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, blockSize, callback)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	time.Sleep(duration)
	return nil
}

// withOffset rewrites a scheduled event's sample offset to its
// block-relative position just before it's enqueued, since the schedule
// itself tracks absolute playback-start-relative offsets.
func withOffset(ev midi.Event, offset int) midi.Event {
	switch e := ev.(type) {
	case midi.NoteOnEvent:
		e.Offset = int32(offset)
		return e
	case midi.NoteOffEvent:
		e.Offset = int32(offset)
		return e
	default:
		return ev
	}
}
