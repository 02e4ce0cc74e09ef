// Package graph implements the GraphQL surface of the ITC service: the
// schema, the input coercion and validation layer, and the resolvers that
// hand validated calculation requests to the orchestrator.
package graph

// Schema is the GraphQL schema served at /graphql.
const Schema = `
schema {
	query: Query
}

type Query {
	"Build and upstream data version identifiers."
	versions: Versions!

	"Solve the exposure plan reaching a requested S/N for a spectroscopic configuration."
	spectroscopyIntegrationTime(input: SpectroscopyTimeInput!): IntegrationTimeResult!

	"Solve the exposure plan reaching a requested S/N for an imaging configuration."
	imagingIntegrationTime(input: ImagingTimeInput!): IntegrationTimeResult!

	"Calculate spectroscopy charts for a fixed exposure plan."
	optimizedSpectroscopyGraph(input: SpectroscopyGraphInput!): SpectroscopyGraphResult!
}

type Versions {
	serverVersion: String!
	dataVersion: String
}

type Duration {
	seconds: Float!
	milliseconds: Float!
}

type IntegrationTimeResult {
	serverVersion: String!
	dataVersion: String
	exposureTime: Duration!
	exposures: Int!
	signalToNoise: Float!
	singleSignalToNoise: Float!
}

type Ccd {
	singleSNRatio: Float!
	totalSNRatio: Float!
	peakPixelFlux: Float!
	wellDepth: Float!
	ampGain: Float!
	warnings: [String!]!
}

type ChartSeries {
	title: String!
	dataType: SeriesDataType!
	xAxis: [Float!]!
	yAxis: [Float!]!
}

type ChartGroup {
	series: [ChartSeries!]!
}

type SpectroscopyGraphResult {
	serverVersion: String!
	dataVersion: String
	ccds: [Ccd!]!
	charts: [ChartGroup!]!
	peakFinalSignalToNoise: Float!
	peakSingleSignalToNoise: Float!
	atWavelengthFinalSignalToNoise: Float
	atWavelengthSingleSignalToNoise: Float
}

enum SeriesDataType {
	SIGNAL_DATA
	BACKGROUND_DATA
	SINGLE_S2N
	FINAL_S2N
	PIX_SIG
	PIX_BACK
}

"Exactly one unit must be given."
input WavelengthInput {
	picometers: Int
	angstroms: Float
	nanometers: Float
	micrometers: Float
}

"Exactly one unit must be given."
input RadialVelocityInput {
	centimetersPerSecond: Float
	metersPerSecond: Float
	kilometersPerSecond: Float
}

"Exactly one unit must be given."
input DurationInput {
	milliseconds: Float
	seconds: Float
	minutes: Float
	hours: Float
}

"Exactly one unit must be given."
input AngleInput {
	milliarcseconds: Float
	arcseconds: Float
}

enum Band {
	SLOAN_U SLOAN_G SLOAN_R SLOAN_I SLOAN_Z
	U B V R I Y J H K L M N Q AP GAIA
}

enum BrightnessUnit {
	VEGA_MAGNITUDE
	AB_MAGNITUDE
	JANSKY
	W_PER_M_SQUARED_PER_UM
	ERG_PER_S_PER_CM_SQUARED_PER_A
	ERG_PER_S_PER_CM_SQUARED_PER_HZ
}

"Exactly one SED variant must be given."
input SedInput {
	stellarLibrary: String
	blackBodyTempK: Float
	powerLawIndex: Float
}

input BandBrightnessInput {
	band: Band!
	value: Float!
	units: BrightnessUnit!
}

input BandNormalizedInput {
	sed: SedInput!
	brightnesses: [BandBrightnessInput!]!
}

input EmissionLineInput {
	wavelength: WavelengthInput!
	lineWidth: Float!
	lineFlux: Float!
	continuum: Float!
}

"Exactly one variant must be given."
input SpectralDefinitionInput {
	bandNormalized: BandNormalizedInput
	emissionLine: EmissionLineInput
}

input GaussianInput {
	fwhm: AngleInput!
	spectralDefinition: SpectralDefinitionInput!
}

"Exactly one geometry must be given."
input SourceProfileInput {
	point: SpectralDefinitionInput
	uniform: SpectralDefinitionInput
	gaussian: GaussianInput
}

enum ImageQuality {
	POINT_ONE POINT_TWO POINT_THREE POINT_FOUR POINT_SIX POINT_EIGHT
	ONE_POINT_ZERO ONE_POINT_FIVE TWO_POINT_ZERO
}

enum CloudExtinction {
	POINT_ONE POINT_THREE POINT_FIVE ONE_POINT_ZERO ONE_POINT_FIVE
	TWO_POINT_ZERO THREE_POINT_ZERO
}

enum SkyBackground {
	DARKEST DARK GRAY BRIGHT
}

enum WaterVapor {
	VERY_DRY DRY MEDIAN WET
}

input AirMassRangeInput {
	min: Float!
	max: Float!
}

input HourAngleRangeInput {
	minHours: Float!
	maxHours: Float!
}

"Exactly one range must be given."
input ElevationRangeInput {
	airMass: AirMassRangeInput
	hourAngle: HourAngleRangeInput
}

input ConstraintsInput {
	imageQuality: ImageQuality!
	cloudExtinction: CloudExtinction!
	skyBackground: SkyBackground!
	waterVapor: WaterVapor!
	elevationRange: ElevationRangeInput!
}

enum GmosGrating {
	B1200_G5301 R831_G5302 B600_G5303 B600_G5307 R600_G5304 R400_G5305 R150_G5306
	B1200_G5321 R831_G5322 B600_G5323 R600_G5324 R400_G5325 R150_G5326
}

enum GmosFilter {
	U_PRIME G_PRIME R_PRIME I_PRIME Z_PRIME Z Y
	GG455 OG515 RG610 RG780 H_ALPHA H_ALPHA_C
}

enum GmosFpu {
	LONG_SLIT_0_25 LONG_SLIT_0_50 LONG_SLIT_0_75 LONG_SLIT_1_00
	LONG_SLIT_1_50 LONG_SLIT_2_00 LONG_SLIT_5_00
	IFU_2 IFU_BLUE IFU_RED
}

"Exactly one of builtin or customSlitWidth must be given."
input GmosFpuInput {
	builtin: GmosFpu
	"Custom slit width in arcseconds."
	customSlitWidth: Float
}

input GmosSpectroscopyInput {
	grating: GmosGrating!
	fpu: GmosFpuInput!
	filter: GmosFilter
	centralWavelength: WavelengthInput!
}

input GmosImagingInput {
	filter: GmosFilter!
}

"Exactly one instrument mode must be given."
input InstrumentModeInput {
	gmosNSpectroscopy: GmosSpectroscopyInput
	gmosSSpectroscopy: GmosSpectroscopyInput
	gmosNImaging: GmosImagingInput
	gmosSImaging: GmosImagingInput
}

input SignificantFiguresInput {
	xAxis: Int
	yAxis: Int
	ccd: Int
}

input SpectroscopyTimeInput {
	signalToNoise: Float!
	"When given, the S/N is reached at this wavelength rather than at the peak of the final S/N curve."
	atWavelength: WavelengthInput
	sourceProfile: SourceProfileInput!
	band: Band!
	radialVelocity: RadialVelocityInput!
	constraints: ConstraintsInput!
	mode: InstrumentModeInput!
}

input ImagingTimeInput {
	signalToNoise: Float!
	sourceProfile: SourceProfileInput!
	band: Band!
	radialVelocity: RadialVelocityInput!
	constraints: ConstraintsInput!
	mode: InstrumentModeInput!
}

input SpectroscopyGraphInput {
	exposureTime: DurationInput!
	exposures: Int!
	"When given, the result carries the S/N evaluated at this wavelength."
	atWavelength: WavelengthInput
	sourceProfile: SourceProfileInput!
	band: Band!
	radialVelocity: RadialVelocityInput!
	constraints: ConstraintsInput!
	mode: InstrumentModeInput!
	significantFigures: SignificantFiguresInput
}
`
