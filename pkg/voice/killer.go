package voice

// VoiceKillerThreshold is the amplitude below which a Released voice is
// considered silent and reclaimed, grounded on
// original_source/src/synthesis/framework/voice_handler.cpp's
// voice_killer_ reference output (monitored to detect when a Released
// voice has decayed past a silence threshold). -60dB full scale.
const VoiceKillerThreshold = 0.001

// KillerSource reports the current instantaneous amplitude of whatever
// envelope or output the engine nominates as a voice's "voice killer"
// reference — typically the amplitude envelope driving that voice's
// final gain stage. The engine supplies one per AggregateVoice lane.
type KillerSource func(agg *AggregateVoice, lane int) float64

// MonitorVoiceKillers samples killerSource once per block for every
// Released voice and queues a VoiceDecay trigger (fired at offset 0 of
// the following block) once its amplitude has fallen below
// VoiceKillerThreshold, per spec.md §4.3's "Released -> envelope reaches
// silence (voice_killer) -> Dead" transition.
func (h *Handler) MonitorVoiceKillers(killerSource KillerSource) {
	for _, agg := range h.aggregates {
		for _, v := range agg.voices {
			if v.state != Released {
				continue
			}
			if v.Pending.Event != VoiceIdle {
				continue // a trigger (e.g. a retrigger) is already pending
			}
			if killerSource(agg, v.Lane) < VoiceKillerThreshold {
				v.trigger(VoiceDecay, 0)
			}
		}
	}
}
