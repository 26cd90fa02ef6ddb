package graph

// Feedback breaks a cycle in the processor graph by delaying its input by
// exactly one block: whatever it reads this block was written by its
// source during the *previous* block. This lets the Router schedule a
// graph that would otherwise have a dependency cycle (e.g. an effect whose
// wet output feeds back into its own input through a modulation path), at
// the cost of one block of latency on that single connection, per
// spec.md §4.2's "Feedback nodes [...] resolve dependency cycles with a
// one-block delay."
type Feedback struct {
	Base

	in  *Input
	out *Output

	pending Buffer
}

// NewFeedback creates a Feedback node reading from in and exposing a
// matching delayed Output, sized for blockSize samples.
func NewFeedback(blockSize int) *Feedback {
	in := NewInput("in")
	out := NewOutput("out", blockSize)
	fb := &Feedback{
		in:      in,
		out:     out,
		pending: NewBuffer(blockSize),
	}
	fb.Base = NewBase([]*Input{in}, []*Output{out})
	return fb
}

// Input returns the Feedback node's single input slot.
func (f *Feedback) Input() *Input { return f.in }

// Output returns the Feedback node's single, one-block-delayed output slot.
func (f *Feedback) Output() *Output { return f.out }

// Process copies the value latched at the end of the previous block into
// this block's output. The Router always schedules Feedback nodes first
// (dependenciesSatisfied always returns true for them), so downstream
// consumers see last block's value throughout this block.
func (f *Feedback) Process(numSamples int) {
	out := f.out.buffer
	for i := 0; i < numSamples && i < len(out) && i < len(f.pending); i++ {
		out[i] = f.pending[i]
	}
}

// latch captures this block's input for release as next block's output.
// Called by the Router once after every child has run.
func (f *Feedback) latch(numSamples int) {
	buf := f.in.Buffer()
	if cap(f.pending) < numSamples {
		f.pending = NewBuffer(numSamples)
	}
	f.pending = f.pending[:numSamples]
	for i := 0; i < numSamples; i++ {
		if buf == nil || i >= len(buf) {
			f.pending[i] = zeroFloat
		} else {
			f.pending[i] = buf[i]
		}
	}
}

// Reset clears the pending one-block delay line.
func (f *Feedback) Reset() {
	for i := range f.pending {
		f.pending[i] = zeroFloat
	}
}
