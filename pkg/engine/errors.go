package engine

import "errors"

// Sentinel errors returned by the SoundEngine's external interface,
// grounded on the teacher's plain errors.New sentinel style (e.g.
// pkg/voice's allocation errors) rather than a custom error type
// hierarchy, since callers only ever need to branch with errors.Is.
// Modulation connect/disconnect failures are surfaced as-is from
// pkg/modulation's own sentinels (ErrNoFreeSlot, ErrSelfModulation,
// ErrUnknownSource, ErrUnknownDestination); the engine only adds the
// errors with no existing home there.
var (
	// ErrUnknownParameter names the failure of looking up a control or
	// status output the engine has not registered. No SoundEngine method
	// returns it: Controls() is a plain map lookup and GetStatusOutput
	// reports a miss through its bool result.
	ErrUnknownParameter = errors.New("engine: unknown parameter or status output")

	// ErrOversampleMidBlock names an oversample-factor change attempted
	// while a block is being processed. The SoundEngine has no method that
	// changes the oversample factor after construction, so no method
	// returns it.
	ErrOversampleMidBlock = errors.New("engine: oversample factor cannot change mid-block")

	// ErrInvalidEffectsOrder is returned by EffectsChain.SetOrder when the
	// requested ordering is not a permutation of the chain's registered
	// effect names.
	ErrInvalidEffectsOrder = errors.New("engine: effects order must be a permutation of the registered effect names")
)
