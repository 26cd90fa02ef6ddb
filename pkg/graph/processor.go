// Package graph implements the processor signal graph: the Processor
// contract every DSP node satisfies and the ProcessorRouter that schedules a
// directed acyclic (modulo Feedback) graph of them once per block.
//
// This generalizes the teacher's pkg/framework/dsp.Chain, which only ever
// models a strict linear pipeline, to an arbitrary graph with multiple
// inputs/outputs per node and cycle-breaking via Feedback nodes, per the
// Processor/ProcessorRouter contract.
package graph

import "github.com/wavecore/synth/pkg/poly"

var zeroFloat = poly.Zero()

// Buffer is a fixed-size block of packed samples owned by exactly one
// Output. Its length is the engine's current block size; it is never
// reallocated mid-block.
type Buffer []poly.Float

// NewBuffer allocates a Buffer of the given block size, zeroed.
func NewBuffer(blockSize int) Buffer {
	return make(Buffer, blockSize)
}

// Clear zeroes every sample in the buffer.
func (b Buffer) Clear() {
	for i := range b {
		b[i] = poly.Zero()
	}
}

// Output is a named, owned Buffer a Processor writes into. Other
// Processors read it through an Input that points at it.
type Output struct {
	Name   string
	buffer Buffer
}

// NewOutput creates an Output with its own Buffer of blockSize samples.
func NewOutput(name string, blockSize int) *Output {
	return &Output{Name: name, buffer: NewBuffer(blockSize)}
}

// Buffer returns the underlying Buffer for direct read/write by the owning
// Processor.
func (o *Output) Buffer() Buffer { return o.buffer }

// Resize replaces the Output's Buffer with one sized for a new block size.
// Only ever called between blocks, never mid-Process, per the router's
// block-boundary-only resize invariant.
func (o *Output) Resize(blockSize int) {
	o.buffer = NewBuffer(blockSize)
}

// Input is a read-only reference to another Processor's Output. An Input
// with a nil source reads as silence.
type Input struct {
	Name   string
	source *Output
}

// NewInput creates an unconnected Input.
func NewInput(name string) *Input {
	return &Input{Name: name}
}

// Connect points the Input at an Output, the source of its samples for
// every subsequent block until reconnected.
func (in *Input) Connect(source *Output) {
	in.source = source
}

// Source returns the connected Output, or nil if unconnected.
func (in *Input) Source() *Output {
	return in.source
}

// Buffer returns the connected Output's Buffer, or nil if the Input has no
// source — callers must treat a nil Buffer as all-zero samples.
func (in *Input) Buffer() Buffer {
	if in.source == nil {
		return nil
	}
	return in.source.buffer
}

// At returns the packed sample at index i from the connected source, or the
// zero value if the Input is unconnected.
func (in *Input) At(i int) poly.Float {
	buf := in.Buffer()
	if buf == nil || i >= len(buf) {
		return poly.Zero()
	}
	return buf[i]
}

// Processor is the leaf unit of work in the graph: given its current
// Inputs (already produced by the Processors it depends on), fill its own
// Outputs for the block. Implementations must be allocation-free in
// Process and must not block.
type Processor interface {
	// Process runs one block's worth of work, reading Inputs and writing
	// Outputs. numSamples is the number of packed samples to produce this
	// block (<= the capacity of each Output's Buffer).
	Process(numSamples int)

	// Inputs returns the Processor's input slots, for the Router's
	// dependency analysis.
	Inputs() []*Input

	// Outputs returns the Processor's output slots.
	Outputs() []*Output

	// Reset clears internal state (filter memories, envelope stage, phase
	// accumulators) back to initial conditions.
	Reset()

	// Enabled reports whether the Router should schedule this Processor
	// this block. A disabled Processor is skipped entirely; its Outputs
	// retain their last-written contents.
	Enabled() bool
}

// Base provides the Inputs/Outputs/Enabled bookkeeping that most concrete
// Processors embed, mirroring the way the teacher's namedProcessor wraps
// common bookkeeping around the process function.
type Base struct {
	inputs  []*Input
	outputs []*Output
	enabled bool
}

// NewBase constructs a Base with the given input and output slots,
// enabled by default.
func NewBase(inputs []*Input, outputs []*Output) Base {
	return Base{inputs: inputs, outputs: outputs, enabled: true}
}

// Inputs implements Processor.
func (b *Base) Inputs() []*Input { return b.inputs }

// Outputs implements Processor.
func (b *Base) Outputs() []*Output { return b.outputs }

// Enabled implements Processor.
func (b *Base) Enabled() bool { return b.enabled }

// SetEnabled toggles whether the Router schedules this Processor.
func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }

// Output looks up one of the Base's outputs by name, or nil if absent.
func (b *Base) Output(name string) *Output {
	for _, o := range b.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Input looks up one of the Base's inputs by name, or nil if absent.
func (b *Base) Input(name string) *Input {
	for _, in := range b.inputs {
		if in.Name == name {
			return in
		}
	}
	return nil
}
