package service

import (
	"math"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// trimGraphResult rounds graph output to the requested significant
// figures: XAxis governs series wavelengths, YAxis governs series values
// and the S/N summaries, CCD governs the per-detector attributes. A zero
// field leaves its values untouched.
func trimGraphResult(g itc.GraphResult, sf itc.SignificantFigures) itc.GraphResult {
	if sf.IsZero() {
		return g
	}

	if sf.CCD > 0 {
		ccds := make([]itc.CcdResult, len(g.Ccds))
		for i, ccd := range g.Ccds {
			ccd.SingleSNRatio = roundSignificant(ccd.SingleSNRatio, sf.CCD)
			ccd.TotalSNRatio = roundSignificant(ccd.TotalSNRatio, sf.CCD)
			ccd.PeakPixelFlux = roundSignificant(ccd.PeakPixelFlux, sf.CCD)
			ccd.WellDepth = roundSignificant(ccd.WellDepth, sf.CCD)
			ccd.AmpGain = roundSignificant(ccd.AmpGain, sf.CCD)
			ccds[i] = ccd
		}
		g.Ccds = ccds
	}

	if sf.XAxis > 0 || sf.YAxis > 0 {
		groups := make([]itc.GraphGroup, len(g.Groups))
		for i, group := range g.Groups {
			out := itc.GraphGroup{Series: make([]itc.Series, len(group.Series))}
			for j, ser := range group.Series {
				ser.XValues = roundSlice(ser.XValues, sf.XAxis)
				ser.YValues = roundSlice(ser.YValues, sf.YAxis)
				out.Series[j] = ser
			}
			groups[i] = out
		}
		g.Groups = groups
	}

	if sf.YAxis > 0 {
		g.PeakFinalSN = roundSignificant(g.PeakFinalSN, sf.YAxis)
		g.PeakSingleSN = roundSignificant(g.PeakSingleSN, sf.YAxis)
		if g.AtWavelength != nil {
			at := *g.AtWavelength
			at.Final = roundSignificant(at.Final, sf.YAxis)
			at.Single = roundSignificant(at.Single, sf.YAxis)
			g.AtWavelength = &at
		}
	}

	return g
}

func roundSlice(values []float64, digits int) []float64 {
	if digits <= 0 || len(values) == 0 {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = roundSignificant(v, digits)
	}
	return out
}

// roundSignificant rounds v to n significant digits. Zero, NaN and
// infinities pass through unchanged.
func roundSignificant(v float64, n int) float64 {
	if n <= 0 || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	magnitude := math.Ceil(math.Log10(math.Abs(v)))
	scale := math.Pow(10, float64(n)-magnitude)
	return math.Round(v*scale) / scale
}
