package synthmodule

import (
	"github.com/wavecore/synth/pkg/graph"
	"github.com/wavecore/synth/pkg/param"
	"github.com/wavecore/synth/pkg/poly"
)

// summingControl is the Processor behind a mono or poly mod control: each
// sample it advances the parameter's Smoother and adds whatever arrived
// on its "modulation" Input (the sum of every connected
// modulation.Connection's scaled output for that destination), producing
// the single signal every downstream DSP processor actually reads.
//
// Grounded on vital's modulation summing behavior at a mod destination
// (Processor::process() of a control's owning mono/poly sum node in
// synth_module.cpp), expressed here as an explicit graph.Processor rather
// than special-cased Input arithmetic.
type summingControl struct {
	graph.Base
	smoother *param.Smoother
}

func newSummingControl(name string, v *param.Value, blockSize int) *summingControl {
	s := &summingControl{
		smoother: param.NewSmoother(v, param.AudioRate, 44100),
	}
	s.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("modulation")},
		[]*graph.Output{graph.NewOutput(name, blockSize)},
	)
	return s
}

// Process implements graph.Processor.
func (s *summingControl) Process(numSamples int) {
	mod := s.Input("modulation")
	out := s.Output(s.Outputs()[0].Name).Buffer()
	for i := 0; i < numSamples; i++ {
		base := poly.Splat(float32(s.smoother.NextPlain()))
		out[i] = base.Add(mod.At(i))
	}
}

// Reset implements graph.Processor.
func (s *summingControl) Reset() {
	s.smoother.Reset()
}

// modSumNode is a bare modulation-summing node with no parameter of its
// own: the poly-destination half of a poly mod control, whose connected
// modulation.Connections are summed here and then added on top of the
// mono destination's smoothed base value by an adderNode, rather than
// re-adding the base value a second time.
type modSumNode struct {
	graph.Base
}

func newModSumNode(name string, blockSize int) *modSumNode {
	n := &modSumNode{}
	n.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("modulation")},
		[]*graph.Output{graph.NewOutput(name, blockSize)},
	)
	return n
}

func (n *modSumNode) Process(numSamples int) {
	mod := n.Input("modulation")
	out := n.Output(n.Outputs()[0].Name).Buffer()
	for i := 0; i < numSamples; i++ {
		out[i] = mod.At(i)
	}
}

func (n *modSumNode) Reset() {}

// adderNode sums two packed signals sample-by-sample, used to combine a
// mono mod control's output with its poly destination's independent
// modulation sum into the single value downstream processors read.
type adderNode struct {
	graph.Base
}

func newAdderNode(name string, blockSize int) *adderNode {
	n := &adderNode{}
	n.Base = graph.NewBase(
		[]*graph.Input{graph.NewInput("a"), graph.NewInput("b")},
		[]*graph.Output{graph.NewOutput(name, blockSize)},
	)
	return n
}

func (n *adderNode) Process(numSamples int) {
	a := n.Input("a")
	b := n.Input("b")
	out := n.Output(n.Outputs()[0].Name).Buffer()
	for i := 0; i < numSamples; i++ {
		out[i] = a.At(i).Add(b.At(i))
	}
}

func (n *adderNode) Reset() {}
