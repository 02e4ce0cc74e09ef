package itc

import "fmt"

// Band is a photometric band used to normalize a spectral energy
// distribution to an observed brightness.
type Band string

// Photometric bands supported by the brightness input.
const (
	BandSloanU Band = "SLOAN_U"
	BandSloanG Band = "SLOAN_G"
	BandSloanR Band = "SLOAN_R"
	BandSloanI Band = "SLOAN_I"
	BandSloanZ Band = "SLOAN_Z"
	BandU      Band = "U"
	BandB      Band = "B"
	BandV      Band = "V"
	BandR      Band = "R"
	BandI      Band = "I"
	BandY      Band = "Y"
	BandJ      Band = "J"
	BandH      Band = "H"
	BandK      Band = "K"
	BandL      Band = "L"
	BandM      Band = "M"
	BandN      Band = "N"
	BandQ      Band = "Q"
	BandAp     Band = "AP"
	BandGaia   Band = "GAIA"
)

// BrightnessUnit is the unit system of a brightness value.
type BrightnessUnit string

// Brightness unit systems.
const (
	UnitVegaMagnitude   BrightnessUnit = "VEGA_MAGNITUDE"
	UnitABMagnitude     BrightnessUnit = "AB_MAGNITUDE"
	UnitJansky          BrightnessUnit = "JANSKY"
	UnitWattsPerMeter2  BrightnessUnit = "W_PER_M_SQUARED_PER_UM"
	UnitErgsWavelength  BrightnessUnit = "ERG_PER_S_PER_CM_SQUARED_PER_A"
	UnitErgsFrequency   BrightnessUnit = "ERG_PER_S_PER_CM_SQUARED_PER_HZ"
)

// Brightness is a magnitude (or flux density) in a band.
type Brightness struct {
	Band  Band
	Value float64
	Unit  BrightnessUnit
}

// SourceGeometry discriminates the spatial shape of a target.
type SourceGeometry string

// Spatial source shapes.
const (
	GeometryPoint    SourceGeometry = "POINT"
	GeometryUniform  SourceGeometry = "UNIFORM"
	GeometryGaussian SourceGeometry = "GAUSSIAN"
)

// SEDKind discriminates the spectral energy distribution variants.
type SEDKind string

// Spectral energy distribution variants.
const (
	SEDStellarLibrary SEDKind = "STELLAR_LIBRARY"
	SEDBlackBody      SEDKind = "BLACK_BODY"
	SEDPowerLaw       SEDKind = "POWER_LAW"
)

// SpectralDistribution describes the spectral shape of a band-normalized
// source. Exactly one of the variant fields is meaningful, selected by Kind:
// Template for STELLAR_LIBRARY, TemperatureK for BLACK_BODY and Index for
// POWER_LAW.
type SpectralDistribution struct {
	Kind         SEDKind
	Template     string
	TemperatureK float64
	Index        float64
}

func (s SpectralDistribution) String() string {
	switch s.Kind {
	case SEDStellarLibrary:
		return fmt.Sprintf("library(%s)", s.Template)
	case SEDBlackBody:
		return fmt.Sprintf("blackbody(%gK)", s.TemperatureK)
	case SEDPowerLaw:
		return fmt.Sprintf("powerlaw(%g)", s.Index)
	default:
		return string(s.Kind)
	}
}

// EmissionLine describes a single emission line source: a line at a rest
// wavelength with a width and flux on top of an optional continuum.
type EmissionLine struct {
	Wavelength    Wavelength
	WidthKmPerSec float64
	LineFlux      float64
	Continuum     float64
}

// SourceProfile is the full description of the astronomical target's shape
// and spectrum.
//
// Geometry selects the spatial variant; FWHMArcsec is meaningful only for
// GAUSSIAN sources. Exactly one of Distribution or EmissionLine is set:
// a band-normalized source carries Distribution plus Brightness, an
// emission-line source carries EmissionLine.
type SourceProfile struct {
	Geometry   SourceGeometry
	FWHMArcsec float64

	Distribution *SpectralDistribution
	Brightness   *Brightness
	EmissionLine *EmissionLine
}

// TargetProfile couples a source description with its radial velocity.
type TargetProfile struct {
	Source         SourceProfile
	RadialVelocity RadialVelocity
}

// Redshift returns the target redshift derived from its radial velocity.
func (t TargetProfile) Redshift() float64 {
	return t.RadialVelocity.Redshift()
}
