package modulation

import (
	"fmt"
	"sync"

	"github.com/wavecore/synth/pkg/graph"
)

// SlotCount is the fixed number of modulation routing slots, K = 64 per
// spec.md §3/§4.4.
const SlotCount = 64

// ErrNoFreeSlot is returned when every slot is occupied.
var ErrNoFreeSlot = fmt.Errorf("modulation: no free slot")

// ErrSelfModulation is returned when a connect request would have a slot
// target the destination it is already modulating via its own amount
// control, the self-loop guard spec.md §4.4/§7 names.
var ErrSelfModulation = fmt.Errorf("modulation: self-modulation loop rejected")

// ErrUnknownSource and ErrUnknownDestination are returned when Connect
// is given a name the caller's Resolver does not recognize.
var (
	ErrUnknownSource      = fmt.Errorf("modulation: unknown source")
	ErrUnknownDestination = fmt.Errorf("modulation: unknown destination")
)

// Resolver looks up a modulation source's Output and a destination's
// summing-node Input by name, and reports whether a named source is
// naturally bipolar (LFOs) vs unipolar (envelopes) for the default Bipolar
// flag spec.md §4.4 step 2 describes. The engine package supplies the
// concrete implementation backed by its SynthModule tree.
type Resolver interface {
	ResolveSource(name string) (*graph.Output, bool)
	ResolveDestination(name string) (*graph.Input, bool)
	SourceIsBipolar(name string) bool
	// SetModulationSwitch flips the destination's modulation-enabled
	// switch, so its summing node becomes (or stops being) live.
	SetModulationSwitch(destName string, on bool)
}

// Bank owns the fixed 64-slot array of Connections and the reroute queue
// that lets the control thread request connect/disconnect without
// touching router topology directly, per spec.md §5's "Modulation
// reroute queue" channel.
type Bank struct {
	slots     [SlotCount]*Connection
	blockSize int
	resolver  Resolver

	queueMu sync.Mutex
	queue   []rerouteRequest
}

type rerouteRequest struct {
	connect  bool
	source   string
	dest     string
	resultCh chan RerouteResult
}

// RerouteResult reports the outcome of a queued connect/disconnect
// request once DrainReroutes has processed it.
type RerouteResult struct {
	Slot int
	Err  error
}

// NewBank creates a Bank with all 64 slots pre-allocated (but free), sized
// for blockSize-sample audio-rate Connection buffers.
func NewBank(blockSize int, resolver Resolver) *Bank {
	b := &Bank{blockSize: blockSize, resolver: resolver}
	for i := range b.slots {
		b.slots[i] = NewConnection(blockSize)
	}
	return b
}

// Slots returns the live Connection array, for the Router to add as
// children (free slots are harmless idle Processors: amount input
// unconnected reads zero, so scaled output is all zero).
func (b *Bank) Slots() [SlotCount]*Connection {
	return b.slots
}

// Connect implements spec.md §4.4's connection protocol synchronously:
// allocate a free slot, record names, mark bipolar per the source's
// default, wire the slot's source input and the destination's summing
// input, and flip the destination's modulation switch on. Call only from
// the audio thread or under the audio lock, per spec.md §5 — cross-thread
// callers should use Enqueue instead.
func (b *Bank) Connect(sourceName, destName string) (int, error) {
	if sourceName == destName {
		return -1, ErrSelfModulation
	}

	srcOutput, ok := b.resolver.ResolveSource(sourceName)
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}
	destInput, ok := b.resolver.ResolveDestination(destName)
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownDestination, destName)
	}

	// Self-loop guard: a slot may not target the destination it is
	// already modulating via its own amount control (spec.md §4.4).
	for _, s := range b.slots {
		if !s.IsFree() && s.DestName == destName && s.SourceName == sourceName {
			return -1, ErrSelfModulation
		}
	}

	idx := b.findFreeSlot()
	if idx < 0 {
		return -1, ErrNoFreeSlot
	}

	slot := b.slots[idx]
	slot.SourceName = sourceName
	slot.DestName = destName
	slot.Bipolar = b.resolver.SourceIsBipolar(sourceName)
	slot.SourceInput().Connect(srcOutput)
	destInput.Connect(slot.Scaled())
	b.resolver.SetModulationSwitch(destName, true)

	return idx, nil
}

// Disconnect reverses Connect for the given slot index: clears the
// recorded names, disconnects the wiring, and — if no other slot still
// targets the same destination — flips its modulation switch back off.
func (b *Bank) Disconnect(idx int) error {
	if idx < 0 || idx >= SlotCount {
		return fmt.Errorf("modulation: slot index %d out of range", idx)
	}
	slot := b.slots[idx]
	if slot.IsFree() {
		return nil
	}

	destName := slot.DestName
	slot.SourceName = ""
	slot.DestName = ""
	slot.SourceInput().Connect(nil)
	slot.Reset()

	stillConnected := false
	for i, s := range b.slots {
		if i == idx {
			continue
		}
		if s.DestName == destName {
			stillConnected = true
			break
		}
	}
	if !stillConnected {
		b.resolver.SetModulationSwitch(destName, false)
	}
	return nil
}

// ClearModulations disconnects every occupied slot.
func (b *Bank) ClearModulations() {
	for i, s := range b.slots {
		if !s.IsFree() {
			_ = b.Disconnect(i)
		}
	}
}

// FindSlot returns the slot index connecting sourceName to destName, or
// -1 if no such connection exists (used by scenario 6's self-loop test
// and by disconnect-by-name callers).
func (b *Bank) FindSlot(sourceName, destName string) int {
	for i, s := range b.slots {
		if s.SourceName == sourceName && s.DestName == destName {
			return i
		}
	}
	return -1
}

func (b *Bank) findFreeSlot() int {
	for i, s := range b.slots {
		if s.IsFree() {
			return i
		}
	}
	return -1
}

// Enqueue batches a connect or disconnect request from a non-audio
// thread, per spec.md §5's MPSC modulation reroute queue. resultCh, if
// non-nil, receives the outcome once DrainReroutes processes it.
func (b *Bank) Enqueue(connect bool, sourceName, destName string, resultCh chan RerouteResult) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	b.queue = append(b.queue, rerouteRequest{
		connect:  connect,
		source:   sourceName,
		dest:     destName,
		resultCh: resultCh,
	})
}

// DrainReroutes applies every queued connect/disconnect request. Must be
// called from the audio thread at the top of a block (spec.md §5's
// process_modulation_changes), since applying a change mutates router
// topology.
func (b *Bank) DrainReroutes() {
	b.queueMu.Lock()
	pending := b.queue
	b.queue = nil
	b.queueMu.Unlock()

	for _, req := range pending {
		var res RerouteResult
		if req.connect {
			idx, err := b.Connect(req.source, req.dest)
			res = RerouteResult{Slot: idx, Err: err}
		} else {
			idx := b.FindSlot(req.source, req.dest)
			err := b.Disconnect(idx)
			res = RerouteResult{Slot: idx, Err: err}
		}
		if req.resultCh != nil {
			req.resultCh <- res
		}
	}
}
