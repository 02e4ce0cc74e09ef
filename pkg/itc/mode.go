package itc

import "fmt"

// Site identifies the observatory site an instrument lives at.
type Site string

// Gemini sites.
const (
	SiteNorth Site = "GN"
	SiteSouth Site = "GS"
)

// GmosGrating is a GMOS dispersive element. The set covers both the North
// (G530x) and South (G532x) barcodes.
type GmosGrating string

// GMOS North gratings.
const (
	GratingB1200G5301 GmosGrating = "B1200_G5301"
	GratingR831G5302  GmosGrating = "R831_G5302"
	GratingB600G5303  GmosGrating = "B600_G5303"
	GratingB600G5307  GmosGrating = "B600_G5307"
	GratingR600G5304  GmosGrating = "R600_G5304"
	GratingR400G5305  GmosGrating = "R400_G5305"
	GratingR150G5306  GmosGrating = "R150_G5306"
)

// GMOS South gratings.
const (
	GratingB1200G5321 GmosGrating = "B1200_G5321"
	GratingR831G5322  GmosGrating = "R831_G5322"
	GratingB600G5323  GmosGrating = "B600_G5323"
	GratingR600G5324  GmosGrating = "R600_G5324"
	GratingR400G5325  GmosGrating = "R400_G5325"
	GratingR150G5326  GmosGrating = "R150_G5326"
)

// gratingTraits carries the static optical properties of a grating family.
type gratingTraits struct {
	rulingDensity   int     // lines per mm
	blazeNm         float64 // blaze wavelength
	dispersionPm    float64 // dispersion per pixel in pm
	referenceResolution float64 // resolution at blaze for a 0.5" slit
	simultaneousCoverageNm float64
}

// traits are keyed by grating barcode; the North and South barcodes of the
// same element carry identical entries.
var gratingTable = map[GmosGrating]gratingTraits{
	GratingB1200G5301: {1200, 463, 13.2, 3744, 159},
	GratingB1200G5321: {1200, 463, 13.2, 3744, 159},
	GratingR831G5302:  {831, 757, 19.3, 4396, 230},
	GratingR831G5322:  {831, 757, 19.3, 4396, 230},
	GratingB600G5303:  {600, 461, 25.2, 1688, 307},
	GratingB600G5307:  {600, 461, 25.2, 1688, 307},
	GratingB600G5323:  {600, 461, 25.2, 1688, 307},
	GratingR600G5304:  {600, 926, 26.4, 3744, 318},
	GratingR600G5324:  {600, 926, 26.4, 3744, 318},
	GratingR400G5305:  {400, 764, 36.6, 1918, 462},
	GratingR400G5325:  {400, 764, 36.6, 1918, 462},
	GratingR150G5306:  {150, 717, 96.6, 631, 1190},
	GratingR150G5326:  {150, 717, 96.6, 631, 1190},
}

// GmosFilter is a GMOS bandpass filter, shared by imaging and spectroscopy.
type GmosFilter string

// GMOS filters (common subset of the North and South wheels).
const (
	FilterUPrime GmosFilter = "U_PRIME"
	FilterGPrime GmosFilter = "G_PRIME"
	FilterRPrime GmosFilter = "R_PRIME"
	FilterIPrime GmosFilter = "I_PRIME"
	FilterZPrime GmosFilter = "Z_PRIME"
	FilterZ      GmosFilter = "Z"
	FilterY      GmosFilter = "Y"
	FilterGG455  GmosFilter = "GG455"
	FilterOG515  GmosFilter = "OG515"
	FilterRG610  GmosFilter = "RG610"
	FilterRG780  GmosFilter = "RG780"
	FilterHa     GmosFilter = "H_ALPHA"
	FilterHaC    GmosFilter = "H_ALPHA_C"
)

// GmosFpu is a built-in GMOS focal-plane unit (long slit or IFU).
type GmosFpu string

// GMOS built-in focal-plane units.
const (
	FpuLongSlit025 GmosFpu = "LONG_SLIT_0_25"
	FpuLongSlit050 GmosFpu = "LONG_SLIT_0_50"
	FpuLongSlit075 GmosFpu = "LONG_SLIT_0_75"
	FpuLongSlit100 GmosFpu = "LONG_SLIT_1_00"
	FpuLongSlit150 GmosFpu = "LONG_SLIT_1_50"
	FpuLongSlit200 GmosFpu = "LONG_SLIT_2_00"
	FpuLongSlit500 GmosFpu = "LONG_SLIT_5_00"
	FpuIfu2        GmosFpu = "IFU_2"
	FpuIfuBlue     GmosFpu = "IFU_BLUE"
	FpuIfuRed      GmosFpu = "IFU_RED"
)

var fpuSlitWidthArcsec = map[GmosFpu]float64{
	FpuLongSlit025: 0.25,
	FpuLongSlit050: 0.50,
	FpuLongSlit075: 0.75,
	FpuLongSlit100: 1.00,
	FpuLongSlit150: 1.50,
	FpuLongSlit200: 2.00,
	FpuLongSlit500: 5.00,
	FpuIfu2:        0.31,
	FpuIfuBlue:     0.31,
	FpuIfuRed:      0.31,
}

// FocalPlane selects between a built-in FPU and a custom-cut slit.
// Exactly one of BuiltIn or CustomSlitWidth is set; CustomSlitWidth is the
// slit width in arcseconds.
type FocalPlane struct {
	BuiltIn         GmosFpu
	CustomSlitWidth float64
}

// SlitWidthArcsec returns the effective slit width of the focal plane.
func (fp FocalPlane) SlitWidthArcsec() float64 {
	if fp.CustomSlitWidth > 0 {
		return fp.CustomSlitWidth
	}
	return fpuSlitWidthArcsec[fp.BuiltIn]
}

func (fp FocalPlane) String() string {
	if fp.CustomSlitWidth > 0 {
		return fmt.Sprintf("custom(%g\")", fp.CustomSlitWidth)
	}
	return string(fp.BuiltIn)
}

// ObservingMode is the instrument configuration for a request. It is a
// variant: Spectroscopy and Imaging are mutually exclusive and exactly one
// is non-nil.
type ObservingMode struct {
	Spectroscopy *SpectroscopyMode
	Imaging      *ImagingMode
}

// IsSpectroscopy reports whether the mode is a spectroscopic configuration.
func (m ObservingMode) IsSpectroscopy() bool { return m.Spectroscopy != nil }

// Instrument returns the instrument identifier for the mode's site.
func (m ObservingMode) Instrument() string {
	site := SiteNorth
	switch {
	case m.Spectroscopy != nil:
		site = m.Spectroscopy.Site
	case m.Imaging != nil:
		site = m.Imaging.Site
	}
	if site == SiteSouth {
		return "GMOS_SOUTH"
	}
	return "GMOS_NORTH"
}

// SpectroscopyMode is a GMOS spectroscopic configuration.
type SpectroscopyMode struct {
	Site              Site
	Grating           GmosGrating
	FocalPlane        FocalPlane
	Filter            GmosFilter // empty means no blocking filter
	CentralWavelength Wavelength
}

// Resolution returns the resolving power λ/Δλ of the configuration,
// scaled from the grating's 0.5" reference slit to the actual slit width.
func (s SpectroscopyMode) Resolution() float64 {
	tr, ok := gratingTable[s.Grating]
	if !ok {
		return 0
	}
	width := s.FocalPlane.SlitWidthArcsec()
	if width <= 0 {
		width = 0.5
	}
	return tr.referenceResolution * 0.5 / width
}

// DispersionPicometers returns the linear dispersion per detector pixel.
func (s SpectroscopyMode) DispersionPicometers() float64 {
	return gratingTable[s.Grating].dispersionPm
}

// CoverageNanometers returns the simultaneous wavelength coverage of the
// grating in nanometers.
func (s SpectroscopyMode) CoverageNanometers() float64 {
	return gratingTable[s.Grating].simultaneousCoverageNm
}

// ImagingMode is a GMOS imaging configuration.
type ImagingMode struct {
	Site   Site
	Filter GmosFilter
}
