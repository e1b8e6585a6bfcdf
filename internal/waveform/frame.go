package waveform

// Frame is everything the animation needs for one tick.
type Frame struct {
	Step        int      `json:"step"`
	Phase       int      `json:"phase"`
	Pressure    Waveform `json:"pressure"`
	Flow        Waveform `json:"flow"`
	Volume      Waveform `json:"volume"`
	Capnography Waveform `json:"capnography"`
	Metrics     Metrics  `json:"metrics"`
}

// Curves returns the four waveforms in Kinds order.
func (f Frame) Curves() []Waveform {
	return []Waveform{f.Pressure, f.Flow, f.Volume, f.Capnography}
}

// Frame computes all four curves and the metrics for r; r.Kind is ignored.
func (g *Generator) Frame(r Request) Frame {
	return Frame{
		Step:        r.BreathStep,
		Phase:       r.Phase,
		Pressure:    g.Generate(r.WithKind(Pressure)),
		Flow:        g.Generate(r.WithKind(Flow)),
		Volume:      g.Generate(r.WithKind(Volume)),
		Capnography: g.Generate(r.WithKind(Capnography)),
		Metrics:     ComputeMetrics(r),
	}
}
