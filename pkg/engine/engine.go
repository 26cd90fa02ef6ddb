// Package engine assembles the SoundEngine: the polyphonic voice
// scheduler, the modulation-routing bank, the effects chain, and the
// oversampled block-processing pipeline behind spec.md §6's external
// interface, grounded on the teacher's top-level plugin wiring
// generalized from "one VST3 Component" to a host-agnostic audio engine.
package engine

import (
	"math"

	"github.com/wavecore/synth/pkg/dsp/analysis"
	"github.com/wavecore/synth/pkg/dsp/envelope"
	dsplfo "github.com/wavecore/synth/pkg/dsp/modulation"
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/midi"
	"github.com/wavecore/synth/pkg/modulation"
	"github.com/wavecore/synth/pkg/oversample"
	"github.com/wavecore/synth/pkg/param"
	"github.com/wavecore/synth/pkg/poly"
	"github.com/wavecore/synth/pkg/tuning"
	"github.com/wavecore/synth/pkg/voice"
)

// maxAggregates bounds polyphony at VoicesPerAggregate * maxAggregates,
// per spec.md §4.3's AggregateVoice packing.
const maxAggregates = 8

// lfoSourceCount and randomSourceCount size the fixed lfo_1..N and
// random_1..N modulation source lists spec.md §6 names.
const (
	lfoSourceCount    = 8
	randomSourceCount = 4
)

// SoundEngine is the top-level audio-thread entry point: spec.md §2's
// "host calls SoundEngine.process(n)" pull contract, implemented with
// the block order spec.md §2 names: ramp control-rate parameters,
// prepare voice triggers, process voices, mix down, upsample, run
// effects, downsample, encode stereo, apply master gain, clamp, meter.
type SoundEngine struct {
	sampleRate float64
	blockSize  int
	tuningTbl  tuning.Table

	handler  *voice.Handler
	voices   []*voiceGraph
	bank     *modulation.Bank
	resolver *engineResolver
	catalog  *param.Catalog
	effects  *EffectsChain
	oversamp *oversample.Processor
	peak     *analysis.PeakMeter

	events *midi.EventQueue

	lastState map[*voice.Voice]voice.State

	// glides/glideNotes back spec.md §4.7's PortamentoSlope leaf: one
	// Portamento per voice, lazily created, gliding MidiNote reassignments
	// under Mono/Legato allocation (see driveVoiceLifecycles).
	glides          map[*voice.Voice]*envelope.Portamento
	glideNotes      map[*voice.Voice]uint8
	portamentoTime  float64
	portamentoForce bool
	portamentoScale bool

	lfoSources    [lfoSourceCount]*lfoSourceNode
	randomSources [randomSourceCount]*randomSourceNode
	scalars       map[string]*scalarSource

	modAmountSmoothers [modulation.SlotCount]*param.Smoother
	modAmountOutputs   [modulation.SlotCount]*graph.Output

	masterGain *param.Value
	masterSmoo *param.Smoother

	mixBuffer *graph.Output

	internalL []float64
	internalR []float64
}

// New builds a SoundEngine ready to process audio at sampleRate with the
// given host block size and oversample factor.
func New(sampleRate float64, hostBlockSize int, factor oversample.Factor) *SoundEngine {
	e := &SoundEngine{
		sampleRate: sampleRate,
		blockSize:  hostBlockSize,
		events:     midi.NewEventQueue(),
		scalars:    make(map[string]*scalarSource),
		lastState:  make(map[*voice.Voice]voice.State),
		glides:     make(map[*voice.Voice]*envelope.Portamento),
		glideNotes: make(map[*voice.Voice]uint8),
	}

	e.oversamp = oversample.New(sampleRate, factor)
	internalBlock := e.oversamp.InternalBlockSize(hostBlockSize)
	internalRate := sampleRate * float64(factor)

	e.resolver = newEngineResolver()
	e.catalog = param.NewCatalog()

	index := 0
	factory := func() voice.SubGraph {
		vg := newVoiceGraph(index, internalRate, internalBlock)
		e.voices = append(e.voices, vg)
		e.resolver.registerVoiceGraph(vg.Module)
		for _, v := range vg.Controls() {
			_ = e.catalog.Add(v)
		}
		index++
		return vg
	}
	e.handler = voice.NewHandler(maxAggregates, factory)

	e.bank = modulation.NewBank(internalBlock, e.resolver)
	e.wireModulationAmounts(internalBlock)

	e.effects = NewEffectsChain(internalRate, internalBlock)

	e.peak = analysis.NewPeakMeter(sampleRate)

	e.masterGain = param.NewValue("master_gain", param.Linear{Min: 0, Max: 1.5}, 0.8)
	_ = e.catalog.Add(e.masterGain)
	e.masterSmoo = param.NewSmoother(e.masterGain, param.ControlRate, sampleRate/float64(hostBlockSize))

	e.buildSources(internalRate, internalBlock)

	e.mixBuffer = graph.NewOutput("voice_mix", internalBlock)

	e.internalL = make([]float64, internalBlock)
	e.internalR = make([]float64, internalBlock)

	return e
}

// wireModulationAmounts registers one "modulation_N_amount" parameter per
// bank slot (spec.md §6's parameter namespace) and connects its smoothed
// value into that slot's Connection.AmountInput, regardless of whether
// the slot is currently occupied — free slots simply produce a
// modulation value nobody reads, mirroring Connection's own
// harmless-when-unconnected design.
func (e *SoundEngine) wireModulationAmounts(blockSize int) {
	slots := e.bank.Slots()
	for i, slot := range slots {
		name := "modulation_" + itoa(i+1) + "_amount"
		v := param.NewValue(name, param.Linear{Min: -1, Max: 1}, 1.0)
		_ = e.catalog.Add(v)
		e.modAmountSmoothers[i] = param.NewSmoother(v, param.ControlRate, e.sampleRate/float64(blockSize))
		out := graph.NewOutput(name, blockSize)
		e.modAmountOutputs[i] = out
		slot.AmountInput().Connect(out)
	}
}

func (e *SoundEngine) buildSources(internalRate float64, internalBlock int) {
	for i := 0; i < lfoSourceCount; i++ {
		name := lfoName(i)
		n := newLFOSourceNode(name, internalRate, dsplfo.WaveformSine, internalBlock)
		e.lfoSources[i] = n
		e.resolver.registerSource(name, n.Output(name), true)
	}
	for i := 0; i < randomSourceCount; i++ {
		name := randomName(i)
		n := newRandomSourceNode(name, internalRate, dsplfo.RandomPerlin, internalBlock)
		e.randomSources[i] = n
		e.resolver.registerSource(name, n.Output(name), true)
	}

	unipolar := []string{"velocity", "aftertouch", "mod_wheel", "note", "note_in_octave", "slide", "lift"}
	for _, name := range unipolar {
		s := newScalarSource(name, internalBlock)
		e.scalars[name] = s
		e.resolver.registerSource(name, s.Output(), false)
	}
	bipolar := []string{"pitch_wheel", "stereo"}
	for _, name := range bipolar {
		s := newScalarSource(name, internalBlock)
		e.scalars[name] = s
		e.resolver.registerSource(name, s.Output(), true)
	}
	for i := 1; i <= 4; i++ {
		name := "macro_control_" + itoa(i)
		s := newScalarSource(name, internalBlock)
		e.scalars[name] = s
		e.resolver.registerSource(name, s.Output(), false)
	}

	e.scalars["stereo"].SetLanes(poly.Float{-1, 1, -1, 1})
}

func lfoName(i int) string    { return "lfo_" + itoa(i+1) }
func randomName(i int) string { return "random_" + itoa(i+1) }

// Controls returns every registered parameter keyed by name, spec.md
// §6's controls() accessor.
func (e *SoundEngine) Controls() map[string]*param.Value {
	out := make(map[string]*param.Value, e.catalog.Count())
	for _, v := range e.catalog.All() {
		out[v.Name] = v
	}
	return out
}

// Catalog returns the engine's full parameter catalog, for a preset
// save/load collaborator (see pkg/preset) to walk by name rather than
// rebuild from Controls()'s map copy.
func (e *SoundEngine) Catalog() *param.Catalog {
	return e.catalog
}

// SetSampleRate reconfigures the oversampler and every sample-rate-aware
// smoother. Must only be called between blocks.
func (e *SoundEngine) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.oversamp.HardReset(sampleRate, e.oversamp.Factor())
	e.masterSmoo.SetStepRate(sampleRate / float64(e.blockSize))
	for _, s := range e.modAmountSmoothers {
		s.SetStepRate(sampleRate / float64(e.blockSize))
	}
}

// SetTuning installs a new note-to-frequency mapping.
func (e *SoundEngine) SetTuning(t tuning.Table) { e.tuningTbl = t }

// SetBPM is accepted for tempo-synced leaf processors to read in a
// future revision; spec.md §4.7 scopes leaf DSP internals out by I/O
// contract only, so no current leaf consumes it.
func (e *SoundEngine) SetBPM(bpm float64) {}

// NoteOn implements spec.md §6's note_on.
func (e *SoundEngine) NoteOn(note uint8, velocity float64, sampleOffset int, channel uint8) {
	e.handler.NoteOn(note, velocity, sampleOffset, channel)
	e.scalars["velocity"].Set(float32(velocity))
	e.scalars["note"].Set(float32(note) / 127.0)
	e.scalars["note_in_octave"].Set(float32(int(note)%12) / 12.0)
}

// NoteOff implements spec.md §6's note_off.
func (e *SoundEngine) NoteOff(note uint8, lift float64, sampleOffset int, channel uint8) {
	e.handler.NoteOff(note, lift, sampleOffset, channel)
	e.scalars["lift"].Set(float32(lift))
}

// AllSoundsOff implements spec.md §6's all_sounds_off. Per spec.md §8's
// reverb-flush scenario, a hard cut must also drain the effects chain's
// own memory (delay lines, the reverb FDN) — otherwise a still-ringing
// tail would keep producing audible output long after every voice has
// gone silent.
func (e *SoundEngine) AllSoundsOff() {
	e.handler.AllSoundsOff()
	e.effects.Reset()
}

// AllNotesOff implements spec.md §6's all_notes_off(channel?).
func (e *SoundEngine) AllNotesOff(sampleOffset int, channel int, hasChannel bool) {
	e.handler.AllNotesOff(sampleOffset, channel, hasChannel)
}

// SetAftertouch implements spec.md §6's set_aftertouch(note,v,s,ch).
func (e *SoundEngine) SetAftertouch(note uint8, value float64, sampleOffset int, channel uint8) {
	e.scalars["aftertouch"].Set(float32(value))
}

// SetChannelAftertouch implements spec.md §6's set_channel_aftertouch.
func (e *SoundEngine) SetChannelAftertouch(value float64, sampleOffset int, channel uint8) {
	e.scalars["aftertouch"].Set(float32(value))
}

// SetPitchWheel implements spec.md §6's set_pitch_wheel(v,ch). value is
// expected normalized in [-1, 1].
func (e *SoundEngine) SetPitchWheel(value float64, channel uint8) {
	e.scalars["pitch_wheel"].Set(float32(value))
}

// SetModWheel implements spec.md §6's set_mod_wheel(v,ch).
func (e *SoundEngine) SetModWheel(value float64, channel uint8) {
	e.scalars["mod_wheel"].Set(float32(value))
}

// SustainOn/SustainOff implement spec.md §6's sustain pedal controller.
func (e *SoundEngine) SustainOn(channel uint8) { e.handler.SustainOn(channel) }

func (e *SoundEngine) SustainOff(channel uint8, sampleOffset int) {
	e.handler.SustainOff(channel, sampleOffset)
}

// SostenutoOn/SostenutoOff implement spec.md §6's sostenuto controller,
// setting the per-Voice Sostenuto flag directly since the teacher-derived
// voice.Handler does not distinguish it from sustain in its state
// machine (spec.md §3 only carries the flag, read by NoteOff/SustainOff).
func (e *SoundEngine) SostenutoOn(channel uint8) {
	for _, agg := range e.handler.Aggregates() {
		for _, v := range agg.Voices() {
			if v.IsActive() && v.Channel == channel {
				v.Sostenuto = true
			}
		}
	}
}

func (e *SoundEngine) SostenutoOff(channel uint8) {
	for _, agg := range e.handler.Aggregates() {
		for _, v := range agg.Voices() {
			if v.Channel == channel {
				v.Sostenuto = false
			}
		}
	}
}

// SetPolyphony implements spec.md §6's set_polyphony(n), bounding how many
// simultaneous voices the handler may allocate before it has to steal.
func (e *SoundEngine) SetPolyphony(n int) { e.handler.SetPolyphony(n) }

// SetVoiceOverride implements spec.md §6's set_voice_overflow_policy,
// choosing whether an overflowing NoteOn kills the stolen voice outright
// or lets it ring through its release tail while stealing its slot.
func (e *SoundEngine) SetVoiceOverride(o voice.StealOverride) { e.handler.SetOverride(o) }

// SetVoicePriority implements spec.md §6's set_voice_steal_priority,
// choosing which held voice a steal targets first.
func (e *SoundEngine) SetVoicePriority(p voice.Priority) { e.handler.SetPriority(p) }

// SetAllocationMode implements spec.md §6's set_voice_mode, switching
// between poly/mono/legato/unison note allocation.
func (e *SoundEngine) SetAllocationMode(m voice.AllocationMode) { e.handler.SetMode(m) }

// SetPortamentoTime implements spec.md §4.7's PortamentoSlope leaf,
// setting the nominal glide duration in seconds used when a Mono/Legato
// note reassigns a held voice's pitch.
func (e *SoundEngine) SetPortamentoTime(seconds float64) { e.portamentoTime = seconds }

// SetPortamentoForce sets whether every note glides (true) or only notes
// played while another is already held do (false, the default).
func (e *SoundEngine) SetPortamentoForce(force bool) { e.portamentoForce = force }

// SetPortamentoScale sets whether the glide time scales with the size of
// the interval being crossed.
func (e *SoundEngine) SetPortamentoScale(scale bool) { e.portamentoScale = scale }

// ConnectModulation implements spec.md §6's connect_modulation, returning
// the occupied slot index.
func (e *SoundEngine) ConnectModulation(sourceName, destName string) (int, error) {
	return e.bank.Connect(sourceName, destName)
}

// DisconnectModulation implements spec.md §6's disconnect_modulation.
func (e *SoundEngine) DisconnectModulation(sourceName, destName string) error {
	idx := e.bank.FindSlot(sourceName, destName)
	if idx < 0 {
		return nil
	}
	return e.bank.Disconnect(idx)
}

// ClearModulations implements spec.md §6's clear_modulations.
func (e *SoundEngine) ClearModulations() { e.bank.ClearModulations() }

// GetStatusOutput looks up a registered voice status output by name,
// spec.md §6's get_status_output, searching every voice graph since
// status outputs are declared per-voiceGraph (spec.md §4.3/§4.7).
func (e *SoundEngine) GetStatusOutput(name string) (poly.Float, bool) {
	for _, vg := range e.voices {
		if s, ok := vg.GetStatusOutput(name); ok {
			return s.Value(), true
		}
	}
	return poly.Float{}, false
}

// SetEffectsOrder implements SPEC_FULL.md §11's effects-chain reordering
// supplement.
func (e *SoundEngine) SetEffectsOrder(names []string) error {
	return e.effects.SetOrder(names)
}

// EffectsOrder reports the effects chain's current processing order.
func (e *SoundEngine) EffectsOrder() []string { return e.effects.Order() }

// Process implements spec.md §6's process(n): produces n stereo samples
// into outL/outR (host-rate, must each have length >= n).
func (e *SoundEngine) Process(n int, outL, outR []float32) {
	e.processModulationChanges()

	events := e.events.DrainEventsInRange(0, int32(n))
	e.dispatchEvents(events)

	e.handler.PrepareTriggers(n)
	e.driveVoiceLifecycles()

	internalN := e.oversamp.InternalBlockSize(n)

	e.runModulationSources(internalN)
	e.runModulationConnections(internalN)

	for _, agg := range e.handler.Aggregates() {
		agg.Process(internalN)
	}

	e.handler.MonitorVoiceKillers(func(agg *voice.AggregateVoice, lane int) float64 {
		vg := agg.Graph().(*voiceGraph)
		// lane here is the Voice's aggregate slot index (0 or 1), not a
		// poly lane; translate to the first of its two poly lanes, {0,1}
		// or {2,3}, which share one envelope amplitude per voice.laneMaskFor.
		return vg.killerLevel(lane * 2)
	})

	e.mixVoices(internalN)
	e.effects.Input().Connect(e.mixBuffer)
	e.effects.Process(internalN)

	e.downsampleStereo(internalN, n)
	e.applyMasterGain(n, outL, outR)
	e.meterBlock(n, outL, outR)
}

// ProcessWithInput implements spec.md §6's process_with_input(inbuf, n):
// identical to Process, but external audio (upsampled to the internal
// rate) is summed into the voice mix before the effects chain runs, the
// entry point a host uses to run the engine's effects chain over
// external audio alongside the synthesized voices (e.g. sidechaining a
// live input through the compressor stage).
func (e *SoundEngine) ProcessWithInput(inL, inR []float32, n int, outL, outR []float32) {
	e.processModulationChanges()

	events := e.events.DrainEventsInRange(0, int32(n))
	e.dispatchEvents(events)

	e.handler.PrepareTriggers(n)
	e.driveVoiceLifecycles()

	internalN := e.oversamp.InternalBlockSize(n)

	e.runModulationSources(internalN)
	e.runModulationConnections(internalN)

	for _, agg := range e.handler.Aggregates() {
		agg.Process(internalN)
	}

	e.handler.MonitorVoiceKillers(func(agg *voice.AggregateVoice, lane int) float64 {
		vg := agg.Graph().(*voiceGraph)
		// lane here is the Voice's aggregate slot index (0 or 1), not a
		// poly lane; translate to the first of its two poly lanes, {0,1}
		// or {2,3}, which share one envelope amplitude per voice.laneMaskFor.
		return vg.killerLevel(lane * 2)
	})

	e.mixVoices(internalN)
	e.sumExternalInput(inL, inR, n, internalN)
	e.effects.Input().Connect(e.mixBuffer)
	e.effects.Process(internalN)

	e.downsampleStereo(internalN, n)
	e.applyMasterGain(n, outL, outR)
	e.meterBlock(n, outL, outR)
}

// processModulationChanges drains the Bank's reroute queue, implementing
// SPEC_FULL.md §7 item 3: cross-thread connect/disconnect requests are
// only ever applied at the top of a block.
func (e *SoundEngine) processModulationChanges() {
	e.bank.DrainReroutes()
}

// dispatchEvents applies every MIDI-level event queued for this block.
// MIDI wire decoding is out of scope (spec.md §1); this only consumes
// the already-decoded midi.Event values a host collaborator enqueues,
// fanning each one out to the corresponding SoundEngine method.
func (e *SoundEngine) dispatchEvents(events []midi.Event) {
	for _, ev := range events {
		offset := int(ev.SampleOffset())
		switch v := ev.(type) {
		case midi.NoteOnEvent:
			if v.Velocity == 0 {
				e.NoteOff(v.NoteNumber, 0, offset, v.EventChannel)
				continue
			}
			e.NoteOn(v.NoteNumber, float64(v.Velocity)/127.0, offset, v.EventChannel)
		case midi.NoteOffEvent:
			e.NoteOff(v.NoteNumber, float64(v.Velocity)/127.0, offset, v.EventChannel)
		case midi.PitchBendEvent:
			e.SetPitchWheel(v.NormalizedValue(), v.EventChannel)
		case midi.PolyPressureEvent:
			e.SetAftertouch(v.NoteNumber, float64(v.Pressure)/127.0, offset, v.EventChannel)
		case midi.ChannelPressureEvent:
			e.SetChannelAftertouch(float64(v.Pressure)/127.0, offset, v.EventChannel)
		case midi.ControlChangeEvent:
			e.dispatchControlChange(v, offset)
		}
	}
}

// dispatchControlChange applies the named CC numbers spec.md §6's
// external interface calls out explicitly; every other controller number
// is accepted and ignored (no Non-goal requires rejecting it).
func (e *SoundEngine) dispatchControlChange(v midi.ControlChangeEvent, offset int) {
	switch v.Controller {
	case midi.CCModWheel:
		e.SetModWheel(float64(v.Value)/127.0, v.EventChannel)
	case midi.CCSustain:
		if v.Value >= 64 {
			e.SustainOn(v.EventChannel)
		} else {
			e.SustainOff(v.EventChannel, offset)
		}
	case midi.CCSostenuto:
		if v.Value >= 64 {
			e.SostenutoOn(v.EventChannel)
		} else {
			e.SostenutoOff(v.EventChannel)
		}
	case midi.CCAllSoundOff:
		e.AllSoundsOff()
	case midi.CCAllNotesOff:
		e.AllNotesOff(offset, int(v.EventChannel), true)
	}
}

// driveVoiceLifecycles diffs each Voice's key-state since the previous
// block and fires the corresponding envelope Trigger/Release on both
// poly lanes its LaneMask covers (spec.md §4.3's per-voice trigger
// propagation, generalized from "one lane" to "the voice's stereo lane
// pair" per the AggregateVoice packing documented in pkg/voice.laneMaskFor).
// It also writes each active voice's tuned frequency into its
// AggregateVoice's shared oscillator input.
func (e *SoundEngine) driveVoiceLifecycles() {
	for _, agg := range e.handler.Aggregates() {
		vg := agg.Graph().(*voiceGraph)
		var freqs poly.Float

		for _, v := range agg.Voices() {
			state := v.State()
			prev := e.lastState[v]

			if state != prev {
				switch state {
				case voice.Held:
					if prev != voice.Sustained {
						forEachLane(v.LaneMask, vg.trigger)
					}
				case voice.Sustained:
					// A note_on immediately followed by a sustained
					// note_off within the same block (spec.md §8
					// scenario 4) never passes through Held, so this
					// case also needs the attack trigger.
					if prev != voice.Held {
						forEachLane(v.LaneMask, vg.trigger)
					}
				case voice.Released, voice.Dead:
					if prev == voice.Held || prev == voice.Sustained {
						forEachLane(v.LaneMask, vg.release)
					}
				}
			}
			e.lastState[v] = state

			if v.IsActive() {
				freqHz := e.voiceFrequency(v)
				for lane := 0; lane < poly.Lanes; lane++ {
					if v.LaneMask[lane] {
						freqs[lane] = float32(freqHz)
					}
				}
			}
		}

		vg.setFrequencies(freqs)
	}
}

// voiceFrequency returns the Hz a voice's oscillators should run at this
// block: the tuned frequency of its MidiNote directly in Poly/Unison mode,
// or a Portamento-glided note value in Mono/Legato mode, per spec.md
// §4.7's PortamentoSlope leaf and handler.noteOnMono's in-place pitch
// reassignment (which never retriggers the envelope, leaving pitch
// continuity entirely up to this glide).
func (e *SoundEngine) voiceFrequency(v *voice.Voice) float64 {
	mode := e.handler.Mode()
	if mode != voice.ModeMono && mode != voice.ModeLegato {
		delete(e.glides, v)
		delete(e.glideNotes, v)
		return e.tuningTbl.NoteFrequency(v.MidiNote)
	}

	g, ok := e.glides[v]
	if !ok {
		g = envelope.NewPortamento(e.sampleRate)
		g.Seed(float64(v.MidiNote))
		e.glides[v] = g
		e.glideNotes[v] = v.MidiNote
	}
	g.SetTime(e.portamentoTime)
	g.SetForce(e.portamentoForce)
	g.SetScale(e.portamentoScale)

	if e.glideNotes[v] != v.MidiNote {
		g.Start(float64(v.MidiNote), e.handler.HeldNoteCount())
		e.glideNotes[v] = v.MidiNote
	}

	note := g.Process(e.blockSize)
	return e.tuningTbl.NoteFrequency(uint8(math.Round(note)))
}

func forEachLane(mask poly.Mask, f func(lane int)) {
	for lane := 0; lane < poly.Lanes; lane++ {
		if mask[lane] {
			f(lane)
		}
	}
}

// runModulationSources produces this block's values for every registered
// modulation source: LFOs/random generators advance their own state,
// scalar sources were already written by the note/controller setters,
// and the per-slot modulation_N_amount smoothers ramp toward their
// target.
func (e *SoundEngine) runModulationSources(numSamples int) {
	for _, n := range e.lfoSources {
		n.Process(numSamples)
	}
	for _, n := range e.randomSources {
		n.Process(numSamples)
	}
	for i, smoo := range e.modAmountSmoothers {
		v := poly.Splat(float32(smoo.NextPlain()))
		buf := e.modAmountOutputs[i].Buffer()
		for s := 0; s < numSamples; s++ {
			buf[s] = v
		}
	}
}

// runModulationConnections runs every bank slot's Connection.Process,
// producing this block's scaled modulation output for any connected
// slot (free slots are unconnected Inputs and simply read as zero).
func (e *SoundEngine) runModulationConnections(numSamples int) {
	slots := e.bank.Slots()
	for _, slot := range slots {
		slot.Process(numSamples)
	}
}

// mixVoices sums every voiceGraph's output into the shared voice-mix
// buffer, spec.md §2 step 3 ("accumulates voice outputs").
func (e *SoundEngine) mixVoices(numSamples int) {
	buf := e.mixBuffer.Buffer()
	for i := 0; i < numSamples; i++ {
		buf[i] = poly.Zero()
	}
	for _, vg := range e.voices {
		src := vg.Out.Buffer()
		for i := 0; i < numSamples; i++ {
			buf[i] = buf[i].Add(src[i])
		}
	}
}

// sumExternalInput upsamples a host-rate stereo buffer and adds it into
// the voice-mix buffer in place, backing ProcessWithInput.
func (e *SoundEngine) sumExternalInput(inL, inR []float32, hostN, internalN int) {
	hostInL := make([]float64, hostN)
	hostInR := make([]float64, hostN)
	for i := 0; i < hostN; i++ {
		hostInL[i] = float64(inL[i])
		hostInR[i] = float64(inR[i])
	}
	upL := make([]float64, internalN)
	upR := make([]float64, internalN)
	e.oversamp.Upsample(hostInL, upL)
	e.oversamp.Upsample(hostInR, upR)

	buf := e.mixBuffer.Buffer()
	for i := 0; i < internalN; i++ {
		l := float32(upL[i])
		r := float32(upR[i])
		buf[i] = buf[i].Add(poly.Float{l, r, l, r})
	}
}

// downsampleStereo copies the effects chain's duplicated-pair stereo
// output into the internal-rate internalL/internalR buffers; the
// reduction to host rate happens in applyMasterGain.
func (e *SoundEngine) downsampleStereo(internalN, hostN int) {
	out := e.effects.Out.Buffer()
	for i := 0; i < internalN; i++ {
		v := out[i]
		e.internalL[i] = float64(v[0])
		e.internalR[i] = float64(v[1])
	}
	_ = hostN
}

// applyMasterGain downsamples the internal-rate stereo signal to host
// rate, applies the smoothed master gain, and clamps to [-1, 1] per
// spec.md §7's infallible-audio-path contract.
func (e *SoundEngine) applyMasterGain(n int, outL, outR []float32) {
	hostL := make([]float64, n)
	hostR := make([]float64, n)
	e.oversamp.Downsample(e.internalL, hostL)
	e.oversamp.Downsample(e.internalR, hostR)

	gain := float32(e.masterSmoo.NextPlain())
	for i := 0; i < n; i++ {
		l := float32(hostL[i]) * gain
		r := float32(hostR[i]) * gain
		outL[i] = clampSample(l)
		outR[i] = clampSample(r)
	}
}

func clampSample(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// meterBlock feeds the finished host-rate output into the peak meter,
// the spec.md §2 step 7 "peak meter" stage.
func (e *SoundEngine) meterBlock(n int, outL, outR []float32) {
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		l := outL[i]
		r := outR[i]
		peak := l
		if r > peak {
			peak = r
		}
		if -r > peak {
			peak = -r
		}
		if -l > peak {
			peak = -l
		}
		samples[i] = float64(peak)
	}
	e.peak.Process(samples)
}

// PeakDB reports the current peak meter reading in dBFS.
func (e *SoundEngine) PeakDB() float64 { return e.peak.GetPeakDB() }

// EnqueueEvent queues a decoded MIDI-level event for the next block
// covering its sample offset, the entry point a host collaborator
// (outside this package's scope, per spec.md §1) feeds after decoding
// raw MIDI bytes.
func (e *SoundEngine) EnqueueEvent(ev midi.Event) { e.events.Add(ev) }
