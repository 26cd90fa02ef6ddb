package graph

import (
	"fmt"

	"github.com/wavecore/synth/internal/assert"
)

// Router owns a set of child Processors and runs them in dependency order
// once per block, resolving the order whenever the graph's connections
// change rather than on every block. This is the generalization of the
// teacher's Chain (which only ever iterates a fixed slice in append order)
// to an arbitrary graph: the Router computes that order instead of trusting
// the caller to have added processors pre-sorted.
type Router struct {
	Base

	children []Processor
	order    []Processor
	dirty    bool

	feedbacks []*Feedback
}

// NewRouter creates an empty Router with the given block-size outputs.
// A Router is itself a Processor so routers can be nested, mirroring the
// original engine's SynthModule-embeds-ProcessorRouter relationship.
func NewRouter(inputs []*Input, outputs []*Output) *Router {
	return &Router{
		Base:  NewBase(inputs, outputs),
		dirty: true,
	}
}

// AddProcessor adds a child Processor to the graph and marks the
// schedule dirty so the next Process call recomputes ordering.
func (r *Router) AddProcessor(p Processor) {
	r.children = append(r.children, p)
	if fb, ok := p.(*Feedback); ok {
		r.feedbacks = append(r.feedbacks, fb)
	}
	r.dirty = true
}

// RemoveProcessor removes a child Processor. Per spec.md's invariant,
// callers must only do this between blocks, never from inside Process.
func (r *Router) RemoveProcessor(p Processor) {
	for i, c := range r.children {
		if c == p {
			r.children = append(r.children[:i], r.children[i+1:]...)
			r.dirty = true
			return
		}
	}
}

// Children returns the Router's direct child Processors.
func (r *Router) Children() []Processor {
	return r.children
}

// ErrCyclicGraph is returned by reorder when the graph has a dependency
// cycle not broken by a Feedback node.
var ErrCyclicGraph = fmt.Errorf("graph: cyclic dependency not resolved by a feedback node")

// reorder computes a topological order over r.children using Kahn's
// algorithm: repeatedly schedule any child whose inputs are all already
// satisfied by children scheduled so far (or by sources outside the
// router entirely). Feedback nodes always have zero unresolved
// dependencies for this purpose — see Feedback's doc comment — which is
// how a cycle through a Feedback node gets broken into two non-cyclic
// halves.
func (r *Router) reorder() error {
	scheduled := make(map[Processor]bool, len(r.children))
	producedBy := make(map[*Output]Processor, len(r.children)*2)
	for _, c := range r.children {
		for _, out := range c.Outputs() {
			producedBy[out] = c
		}
	}

	remaining := append([]Processor(nil), r.children...)
	order := make([]Processor, 0, len(r.children))

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0:0]

		for _, c := range remaining {
			if r.dependenciesSatisfied(c, producedBy, scheduled) {
				order = append(order, c)
				scheduled[c] = true
				progressed = true
			} else {
				next = append(next, c)
			}
		}

		if !progressed {
			return ErrCyclicGraph
		}
		remaining = next
	}

	r.order = order
	r.dirty = false
	return nil
}

// dependenciesSatisfied reports whether every Input of p is either
// unconnected, sourced from a Processor outside this router, or sourced
// from a Processor already scheduled. Feedback nodes are treated as
// perpetually satisfied: they read last-block's value, so they never
// need to wait on this block's producer.
func (r *Router) dependenciesSatisfied(p Processor, producedBy map[*Output]Processor, scheduled map[Processor]bool) bool {
	if _, isFeedback := p.(*Feedback); isFeedback {
		return true
	}
	for _, in := range p.Inputs() {
		src := in.Source()
		if src == nil {
			continue
		}
		producer, isChild := producedBy[src]
		if !isChild || producer == p {
			continue
		}
		if !scheduled[producer] {
			return false
		}
	}
	return true
}

// Process runs every enabled child in dependency order, then latches
// every Feedback node's next-block value from the samples just produced.
// Implements Processor.
func (r *Router) Process(numSamples int) {
	if r.dirty {
		if err := r.reorder(); err != nil {
			// A cyclic graph not broken by Feedback is a wiring bug, not a
			// runtime condition; per spec.md's infallible-audio-path
			// design this silently no-ops the block rather than panicking
			// the audio thread.
			return
		}
	}

	for _, c := range r.order {
		if c.Enabled() {
			c.Process(numSamples)
			if assert.Enabled {
				for _, out := range c.Outputs() {
					assert.FiniteBuffer(out.Name, out.Buffer()[:numSamples])
				}
			}
		}
	}

	for _, fb := range r.feedbacks {
		fb.latch(numSamples)
	}
}

// Reset resets every child Processor.
func (r *Router) Reset() {
	for _, c := range r.children {
		c.Reset()
	}
	for _, fb := range r.feedbacks {
		fb.Reset()
	}
}

// MarkDirty forces the next Process call to recompute scheduling order,
// for callers that mutate connections without going through
// AddProcessor/RemoveProcessor.
func (r *Router) MarkDirty() {
	r.dirty = true
}
