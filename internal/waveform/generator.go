package waveform

import (
	"math"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Waveform is one breath cycle of a single curve. Values[i] is the sample
// at index i; the cycle restarts after Length samples.
type Waveform struct {
	Kind   Kind      `json:"kind"`
	Values []float64 `json:"values"`
}

// Sample is an (index, value) pair.
type Sample struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

func (w Waveform) Samples() []Sample {
	out := make([]Sample, len(w.Values))
	for i, v := range w.Values {
		out[i] = Sample{Index: i, Value: v}
	}
	return out
}

// At returns the sample at i, wrapping in both directions.
func (w Waveform) At(i int) float64 {
	if len(w.Values) == 0 {
		return 0
	}
	return w.Values[wrap(i, len(w.Values))]
}

func (w Waveform) Max() float64 {
	m := math.Inf(-1)
	for _, v := range w.Values {
		m = math.Max(m, v)
	}
	return m
}

func (w Waveform) Min() float64 {
	m := math.Inf(1)
	for _, v := range w.Values {
		m = math.Min(m, v)
	}
	return m
}

// Generate computes one breath of r.Kind. It is pure: the same request
// always yields the same samples, and bad numeric input degrades to finite
// output instead of failing. Unknown kinds yield a flat zero line.
func Generate(r Request) Waveform {
	c := newCycle(r)
	var raw []float64
	switch r.Kind {
	case Pressure:
		raw = pressureCycle(c, r.Settings)
	case Flow:
		raw = flowCycle(c, r)
	case Volume:
		raw = volumeCycle(c, r)
	case Capnography:
		etco2 := r.EtCO2Max
		if etco2 == 0 {
			etco2 = DefaultEtCO2
		}
		raw = capnographyCycle(c, etco2)
	default:
		raw = make([]float64, Length)
	}
	return Waveform{Kind: r.Kind, Values: finite(shift(raw, r.Phase))}
}

// shift rotates the cycle so out[i] = raw[(i+phase) mod n].
func shift(raw []float64, phase int) []float64 {
	n := len(raw)
	out := make([]float64, n)
	for i := range out {
		out[i] = raw[wrap(i+phase, n)]
	}
	return out
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func finite(vs []float64) []float64 {
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vs[i] = 0
		}
	}
	return vs
}

// DefaultCacheSize bounds the memoization cache of a Generator.
const DefaultCacheSize = 512

// Generator memoizes Generate by request. The cache is only an
// optimization; a nil *Generator computes every call from scratch.
type Generator struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Generator{cache: lru.New(size)}
}

func (g *Generator) Generate(r Request) Waveform {
	if g == nil {
		return Generate(r)
	}
	g.mu.Lock()
	if v, ok := g.cache.Get(r); ok {
		g.mu.Unlock()
		return clone(v.(Waveform))
	}
	g.mu.Unlock()

	w := Generate(r)

	g.mu.Lock()
	g.cache.Add(r, clone(w))
	g.mu.Unlock()
	return w
}

// Len reports how many requests are cached.
func (g *Generator) Len() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cache.Len()
}

func clone(w Waveform) Waveform {
	w.Values = append([]float64(nil), w.Values...)
	return w
}
