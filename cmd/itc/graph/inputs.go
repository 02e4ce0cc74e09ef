package graph

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// Input object bindings. Nullable schema fields are pointers; enum values
// arrive as their string names.

type WavelengthInput struct {
	Picometers  *int32
	Angstroms   *float64
	Nanometers  *float64
	Micrometers *float64
}

type RadialVelocityInput struct {
	CentimetersPerSecond *float64
	MetersPerSecond      *float64
	KilometersPerSecond  *float64
}

type DurationInput struct {
	Milliseconds *float64
	Seconds      *float64
	Minutes      *float64
	Hours        *float64
}

type AngleInput struct {
	Milliarcseconds *float64
	Arcseconds      *float64
}

type SedInput struct {
	StellarLibrary *string
	BlackBodyTempK *float64
	PowerLawIndex  *float64
}

type BandBrightnessInput struct {
	Band  string
	Value float64
	Units string
}

type BandNormalizedInput struct {
	Sed          SedInput
	Brightnesses []BandBrightnessInput
}

type EmissionLineInput struct {
	Wavelength WavelengthInput
	LineWidth  float64
	LineFlux   float64
	Continuum  float64
}

type SpectralDefinitionInput struct {
	BandNormalized *BandNormalizedInput
	EmissionLine   *EmissionLineInput
}

type GaussianInput struct {
	Fwhm               AngleInput
	SpectralDefinition SpectralDefinitionInput
}

type SourceProfileInput struct {
	Point    *SpectralDefinitionInput
	Uniform  *SpectralDefinitionInput
	Gaussian *GaussianInput
}

type AirMassRangeInput struct {
	Min float64
	Max float64
}

type HourAngleRangeInput struct {
	MinHours float64
	MaxHours float64
}

type ElevationRangeInput struct {
	AirMass   *AirMassRangeInput
	HourAngle *HourAngleRangeInput
}

type ConstraintsInput struct {
	ImageQuality    string
	CloudExtinction string
	SkyBackground   string
	WaterVapor      string
	ElevationRange  ElevationRangeInput
}

type GmosFpuInput struct {
	Builtin         *string
	CustomSlitWidth *float64
}

type GmosSpectroscopyInput struct {
	Grating           string
	Fpu               GmosFpuInput
	Filter            *string
	CentralWavelength WavelengthInput
}

type GmosImagingInput struct {
	Filter string
}

type InstrumentModeInput struct {
	GmosNSpectroscopy *GmosSpectroscopyInput
	GmosSSpectroscopy *GmosSpectroscopyInput
	GmosNImaging      *GmosImagingInput
	GmosSImaging      *GmosImagingInput
}

type SignificantFiguresInput struct {
	XAxis *int32
	YAxis *int32
	Ccd   *int32
}

type SpectroscopyTimeInput struct {
	SignalToNoise  float64
	AtWavelength   *WavelengthInput
	SourceProfile  SourceProfileInput
	Band           string
	RadialVelocity RadialVelocityInput
	Constraints    ConstraintsInput
	Mode           InstrumentModeInput
}

type ImagingTimeInput struct {
	SignalToNoise  float64
	SourceProfile  SourceProfileInput
	Band           string
	RadialVelocity RadialVelocityInput
	Constraints    ConstraintsInput
	Mode           InstrumentModeInput
}

type SpectroscopyGraphInput struct {
	ExposureTime       DurationInput
	Exposures          int32
	AtWavelength       *WavelengthInput
	SourceProfile      SourceProfileInput
	Band               string
	RadialVelocity     RadialVelocityInput
	Constraints        ConstraintsInput
	Mode               InstrumentModeInput
	SignificantFigures *SignificantFiguresInput
}

// problems collects validation failures so a response can report every
// input error at once instead of the first one found.
type problems struct {
	list []string
}

func (p *problems) addf(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return errors.New("invalid input: " + strings.Join(p.list, "; "))
}

func (in WavelengthInput) coerce(field string, p *problems) itc.Wavelength {
	set := 0
	var (
		w   itc.Wavelength
		err error
	)
	if in.Picometers != nil {
		set++
		w, err = itc.WavelengthFromPicometers(int64(*in.Picometers))
	}
	if in.Angstroms != nil {
		set++
		w, err = itc.WavelengthFromAngstroms(*in.Angstroms)
	}
	if in.Nanometers != nil {
		set++
		w, err = itc.WavelengthFromNanometers(*in.Nanometers)
	}
	if in.Micrometers != nil {
		set++
		w, err = itc.WavelengthFromMicrometers(*in.Micrometers)
	}
	if set != 1 {
		p.addf("%s: exactly one wavelength unit must be given, got %d", field, set)
		return itc.Wavelength{}
	}
	if err != nil {
		p.addf("%s: %v", field, err)
		return itc.Wavelength{}
	}
	return w
}

func (in RadialVelocityInput) coerce(p *problems) itc.RadialVelocity {
	set := 0
	ms := 0.0
	if in.CentimetersPerSecond != nil {
		set++
		ms = *in.CentimetersPerSecond / 100
	}
	if in.MetersPerSecond != nil {
		set++
		ms = *in.MetersPerSecond
	}
	if in.KilometersPerSecond != nil {
		set++
		ms = *in.KilometersPerSecond * 1000
	}
	if set != 1 {
		p.addf("radialVelocity: exactly one unit must be given, got %d", set)
		return itc.RadialVelocity{}
	}
	if ms <= -itc.SpeedOfLight || ms >= itc.SpeedOfLight {
		p.addf("radialVelocity: %g m/s is not slower than light", ms)
		return itc.RadialVelocity{}
	}
	return itc.RadialVelocity{MetersPerSecond: ms}
}

func (in DurationInput) coerce(p *problems) time.Duration {
	set := 0
	var d time.Duration
	if in.Milliseconds != nil {
		set++
		d = time.Duration(*in.Milliseconds * float64(time.Millisecond))
	}
	if in.Seconds != nil {
		set++
		d = time.Duration(*in.Seconds * float64(time.Second))
	}
	if in.Minutes != nil {
		set++
		d = time.Duration(*in.Minutes * float64(time.Minute))
	}
	if in.Hours != nil {
		set++
		d = time.Duration(*in.Hours * float64(time.Hour))
	}
	if set != 1 {
		p.addf("exposureTime: exactly one unit must be given, got %d", set)
		return 0
	}
	if d <= 0 {
		p.addf("exposureTime: must be positive")
		return 0
	}
	return d
}

func (in AngleInput) coerceArcsec(field string, p *problems) float64 {
	set := 0
	v := 0.0
	if in.Milliarcseconds != nil {
		set++
		v = *in.Milliarcseconds / 1000
	}
	if in.Arcseconds != nil {
		set++
		v = *in.Arcseconds
	}
	if set != 1 {
		p.addf("%s: exactly one angle unit must be given, got %d", field, set)
		return 0
	}
	if v <= 0 {
		p.addf("%s: must be positive", field)
		return 0
	}
	return v
}

func (in SourceProfileInput) coerce(band string, p *problems) itc.SourceProfile {
	set := 0
	var (
		geometry itc.SourceGeometry
		fwhm     float64
		spectral *SpectralDefinitionInput
	)
	if in.Point != nil {
		set++
		geometry = itc.GeometryPoint
		spectral = in.Point
	}
	if in.Uniform != nil {
		set++
		geometry = itc.GeometryUniform
		spectral = in.Uniform
	}
	if in.Gaussian != nil {
		set++
		geometry = itc.GeometryGaussian
		fwhm = in.Gaussian.Fwhm.coerceArcsec("sourceProfile.gaussian.fwhm", p)
		spectral = &in.Gaussian.SpectralDefinition
	}
	if set != 1 {
		p.addf("sourceProfile: exactly one geometry must be given, got %d", set)
		return itc.SourceProfile{}
	}

	out := itc.SourceProfile{Geometry: geometry, FWHMArcsec: fwhm}
	spectral.fill(&out, band, p)
	return out
}

func (in *SpectralDefinitionInput) fill(out *itc.SourceProfile, band string, p *problems) {
	switch {
	case in.BandNormalized != nil && in.EmissionLine != nil:
		p.addf("spectralDefinition: bandNormalized and emissionLine are mutually exclusive")
	case in.BandNormalized != nil:
		out.Distribution = in.BandNormalized.Sed.coerce(p)
		out.Brightness = in.BandNormalized.brightnessIn(band, p)
	case in.EmissionLine != nil:
		el := in.EmissionLine
		wl := el.Wavelength.coerce("emissionLine.wavelength", p)
		if el.LineWidth <= 0 {
			p.addf("emissionLine.lineWidth: must be positive")
		}
		out.EmissionLine = &itc.EmissionLine{
			Wavelength:    wl,
			WidthKmPerSec: el.LineWidth,
			LineFlux:      el.LineFlux,
			Continuum:     el.Continuum,
		}
	default:
		p.addf("spectralDefinition: one of bandNormalized or emissionLine must be given")
	}
}

func (in SedInput) coerce(p *problems) *itc.SpectralDistribution {
	set := 0
	out := &itc.SpectralDistribution{}
	if in.StellarLibrary != nil {
		set++
		out.Kind = itc.SEDStellarLibrary
		out.Template = *in.StellarLibrary
	}
	if in.BlackBodyTempK != nil {
		set++
		out.Kind = itc.SEDBlackBody
		out.TemperatureK = *in.BlackBodyTempK
		if out.TemperatureK <= 0 {
			p.addf("sed.blackBodyTempK: must be positive")
		}
	}
	if in.PowerLawIndex != nil {
		set++
		out.Kind = itc.SEDPowerLaw
		out.Index = *in.PowerLawIndex
	}
	if set != 1 {
		p.addf("sed: exactly one variant must be given, got %d", set)
		return nil
	}
	return out
}

// brightnessIn selects the brightness entry matching the requested band.
func (in *BandNormalizedInput) brightnessIn(band string, p *problems) *itc.Brightness {
	for _, b := range in.Brightnesses {
		if b.Band == band {
			return &itc.Brightness{
				Band:  itc.Band(b.Band),
				Value: b.Value,
				Unit:  itc.BrightnessUnit(b.Units),
			}
		}
	}
	p.addf("brightnesses: no entry for requested band %s", band)
	return nil
}

func (in ConstraintsInput) coerce(p *problems) itc.ObservingConditions {
	out := itc.ObservingConditions{
		ImageQuality:    itc.ImageQuality(in.ImageQuality),
		CloudExtinction: itc.CloudExtinction(in.CloudExtinction),
		SkyBackground:   itc.SkyBackground(in.SkyBackground),
		WaterVapor:      itc.WaterVapor(in.WaterVapor),
	}

	er := in.ElevationRange
	switch {
	case er.AirMass != nil && er.HourAngle != nil:
		p.addf("elevationRange: airMass and hourAngle are mutually exclusive")
	case er.AirMass != nil:
		if er.AirMass.Max < er.AirMass.Min {
			p.addf("elevationRange.airMass: max %g < min %g", er.AirMass.Max, er.AirMass.Min)
			return out
		}
		am, err := itc.BucketAirMass(er.AirMass.Max)
		if err != nil {
			p.addf("elevationRange.airMass: %v", err)
			return out
		}
		out.AirMass = am
	case er.HourAngle != nil:
		if er.HourAngle.MaxHours < er.HourAngle.MinHours {
			p.addf("elevationRange.hourAngle: maxHours %g < minHours %g", er.HourAngle.MaxHours, er.HourAngle.MinHours)
			return out
		}
		// An hour-angle constraint does not pin an air mass; the legacy
		// calculator wants one, so use the middle bucket.
		out.AirMass = 1.5
	default:
		p.addf("elevationRange: one of airMass or hourAngle must be given")
	}
	return out
}

func (in InstrumentModeInput) coerce(p *problems) itc.ObservingMode {
	set := 0
	var out itc.ObservingMode
	if in.GmosNSpectroscopy != nil {
		set++
		out.Spectroscopy = in.GmosNSpectroscopy.coerce(itc.SiteNorth, p)
	}
	if in.GmosSSpectroscopy != nil {
		set++
		out.Spectroscopy = in.GmosSSpectroscopy.coerce(itc.SiteSouth, p)
	}
	if in.GmosNImaging != nil {
		set++
		out.Imaging = &itc.ImagingMode{Site: itc.SiteNorth, Filter: itc.GmosFilter(in.GmosNImaging.Filter)}
	}
	if in.GmosSImaging != nil {
		set++
		out.Imaging = &itc.ImagingMode{Site: itc.SiteSouth, Filter: itc.GmosFilter(in.GmosSImaging.Filter)}
	}
	if set != 1 {
		p.addf("mode: exactly one instrument mode must be given, got %d", set)
		return itc.ObservingMode{}
	}
	return out
}

func (in *GmosSpectroscopyInput) coerce(site itc.Site, p *problems) *itc.SpectroscopyMode {
	out := &itc.SpectroscopyMode{
		Site:              site,
		Grating:           itc.GmosGrating(in.Grating),
		CentralWavelength: in.CentralWavelength.coerce("mode.centralWavelength", p),
	}
	if in.Filter != nil {
		out.Filter = itc.GmosFilter(*in.Filter)
	}

	fpu := in.Fpu
	switch {
	case fpu.Builtin != nil && fpu.CustomSlitWidth != nil:
		p.addf("mode.fpu: builtin and customSlitWidth are mutually exclusive")
	case fpu.Builtin != nil:
		out.FocalPlane = itc.FocalPlane{BuiltIn: itc.GmosFpu(*fpu.Builtin)}
	case fpu.CustomSlitWidth != nil:
		if *fpu.CustomSlitWidth <= 0 {
			p.addf("mode.fpu.customSlitWidth: must be positive")
		}
		out.FocalPlane = itc.FocalPlane{CustomSlitWidth: *fpu.CustomSlitWidth}
	default:
		p.addf("mode.fpu: one of builtin or customSlitWidth must be given")
	}
	return out
}

func (in SignificantFiguresInput) coerce(p *problems) itc.SignificantFigures {
	out := itc.SignificantFigures{}
	assign := func(field string, v *int32, dst *int) {
		if v == nil {
			return
		}
		if *v <= 0 {
			p.addf("significantFigures.%s: must be positive", field)
			return
		}
		*dst = int(*v)
	}
	assign("xAxis", in.XAxis, &out.XAxis)
	assign("yAxis", in.YAxis, &out.YAxis)
	assign("ccd", in.Ccd, &out.CCD)
	return out
}

// target assembles the shared target-related fields of the three inputs.
func target(profile SourceProfileInput, band string, rv RadialVelocityInput, p *problems) itc.TargetProfile {
	return itc.TargetProfile{
		Source:         profile.coerce(band, p),
		RadialVelocity: rv.coerce(p),
	}
}

func (in SpectroscopyTimeInput) coerce() (itc.CalculationRequest, error) {
	p := &problems{}
	if in.SignalToNoise <= 0 {
		p.addf("signalToNoise: must be positive")
	}

	req := itc.CalculationRequest{
		Target:     target(in.SourceProfile, in.Band, in.RadialVelocity, p),
		Mode:       in.Mode.coerce(p),
		Conditions: in.Constraints.coerce(p),
		Goal:       itc.CalculationGoal{SignalToNoise: in.SignalToNoise},
	}
	if in.AtWavelength != nil {
		req.Goal.SignalToNoiseAt = in.AtWavelength.coerce("atWavelength", p)
	}
	if req.Mode.Spectroscopy == nil && len(p.list) == 0 {
		p.addf("mode: spectroscopyIntegrationTime requires a spectroscopy mode")
	}
	return req, p.err()
}

func (in ImagingTimeInput) coerce() (itc.CalculationRequest, error) {
	p := &problems{}
	if in.SignalToNoise <= 0 {
		p.addf("signalToNoise: must be positive")
	}

	req := itc.CalculationRequest{
		Target:     target(in.SourceProfile, in.Band, in.RadialVelocity, p),
		Mode:       in.Mode.coerce(p),
		Conditions: in.Constraints.coerce(p),
		Goal:       itc.CalculationGoal{SignalToNoise: in.SignalToNoise},
	}
	if req.Mode.Imaging == nil && len(p.list) == 0 {
		p.addf("mode: imagingIntegrationTime requires an imaging mode")
	}
	return req, p.err()
}

func (in SpectroscopyGraphInput) coerce() (itc.CalculationRequest, error) {
	p := &problems{}
	if in.Exposures <= 0 {
		p.addf("exposures: must be positive")
	}

	req := itc.CalculationRequest{
		Target:     target(in.SourceProfile, in.Band, in.RadialVelocity, p),
		Mode:       in.Mode.coerce(p),
		Conditions: in.Constraints.coerce(p),
		Goal: itc.CalculationGoal{
			ExposureTime: in.ExposureTime.coerce(p),
			Exposures:    int(in.Exposures),
		},
	}
	if in.AtWavelength != nil {
		req.Goal.SignalToNoiseAt = in.AtWavelength.coerce("atWavelength", p)
	}
	if in.SignificantFigures != nil {
		req.Figures = in.SignificantFigures.coerce(p)
	}
	if req.Mode.Spectroscopy == nil && len(p.list) == 0 {
		p.addf("mode: optimizedSpectroscopyGraph requires a spectroscopy mode")
	}
	return req, p.err()
}
