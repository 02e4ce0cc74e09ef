// Package series extracts signal-to-noise figures from the chart data the
// legacy calculator produces.
//
// A graph calculation returns groups of typed series; the cumulative
// final-S/N curve is the one exposure-time decisions are made from. This
// package finds that curve and reads either its peak value or the value at
// a requested wavelength, interpolating linearly between samples and
// reporting out-of-domain requests explicitly instead of clamping.
package series

import (
	"fmt"
	"math"
	"sort"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// Kind discriminates extraction outcomes.
type Kind int

// Extraction outcome kinds.
const (
	// Success carries an S/N value.
	Success Kind = iota
	// BelowRange reports a requested wavelength below the first sample.
	BelowRange
	// AboveRange reports a requested wavelength above the last sample.
	AboveRange
	// NoData reports a chart without a usable series of the wanted type.
	NoData
	// Error reports a value that is not a non-negative finite number.
	Error
)

// Result is the tagged outcome of an extraction. Value is meaningful for
// Success, Wavelength (nm) for BelowRange and AboveRange, Message for Error.
type Result struct {
	Kind       Kind
	Value      float64
	Wavelength float64
	Message    string
}

// Err converts a non-success Result into the matching domain error.
// Success yields nil.
func (r Result) Err() error {
	switch r.Kind {
	case Success:
		return nil
	case BelowRange:
		return &itc.CalculationError{Message: fmt.Sprintf("wavelength %g nm is below the calculated range", r.Wavelength)}
	case AboveRange:
		return &itc.CalculationError{Message: fmt.Sprintf("wavelength %g nm is above the calculated range", r.Wavelength)}
	case NoData:
		return &itc.CalculationError{Message: "no signal-to-noise data available"}
	default:
		return &itc.CalculationError{Message: r.Message}
	}
}

type sample struct {
	wavelength float64
	value      float64
}

// Peak returns the greatest value of the first series of the given type.
func Peak(groups []itc.GraphGroup, dt itc.SeriesDataType) Result {
	samples, ok := collect(groups, dt)
	if !ok {
		return Result{Kind: NoData}
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.value > best.value {
			best = s
		}
	}
	return checked(best.value)
}

// At returns the value of the first series of the given type at wavelength
// nm, linearly interpolated between the two bracketing samples. Wavelengths
// outside the sampled domain yield BelowRange or AboveRange; there is no
// clamping.
func At(groups []itc.GraphGroup, dt itc.SeriesDataType, nm float64) Result {
	samples, ok := collect(groups, dt)
	if !ok {
		return Result{Kind: NoData}
	}

	if nm < samples[0].wavelength {
		return Result{Kind: BelowRange, Wavelength: nm}
	}
	if nm > samples[len(samples)-1].wavelength {
		return Result{Kind: AboveRange, Wavelength: nm}
	}

	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].wavelength >= nm
	})
	if samples[i].wavelength == nm {
		return checked(samples[i].value)
	}

	lo, hi := samples[i-1], samples[i]
	v := (lo.value*(hi.wavelength-nm) + hi.value*(nm-lo.wavelength)) /
		(hi.wavelength - lo.wavelength)
	return checked(v)
}

// collect gathers the samples of the first series of the given type,
// sorted by wavelength ascending. The sort is stable so samples at equal
// wavelengths keep the order the calculator emitted them in.
func collect(groups []itc.GraphGroup, dt itc.SeriesDataType) ([]sample, bool) {
	for _, g := range groups {
		for _, s := range g.Series {
			if s.DataType != dt {
				continue
			}
			n := min(len(s.XValues), len(s.YValues))
			if n == 0 {
				return nil, false
			}
			samples := make([]sample, n)
			for i := 0; i < n; i++ {
				samples[i] = sample{wavelength: s.XValues[i], value: s.YValues[i]}
			}
			sort.SliceStable(samples, func(a, b int) bool {
				return samples[a].wavelength < samples[b].wavelength
			})
			return samples, true
		}
	}
	return nil, false
}

func checked(v float64) Result {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Result{Kind: Error, Message: fmt.Sprintf("signal-to-noise %v is not a non-negative number", v)}
	}
	return Result{Kind: Success, Value: v}
}
