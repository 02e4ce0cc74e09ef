// Package itc defines the domain model for the integration time calculator
// service: target profiles, observing modes and conditions, calculation
// requests, and the result shapes returned by the legacy calculator.
//
// All types in this package are immutable value types. They are constructed
// during input coercion, consumed by the request orchestrator, and discarded
// when the response is emitted.
package itc

import (
	"fmt"
	"math"
)

// Wavelength is an exact wavelength stored as an integer number of
// picometers. Storing picometers avoids floating-point drift when the same
// wavelength arrives in different units, which matters because wavelengths
// participate in cache key fingerprints.
type Wavelength struct {
	Picometers int64
}

// Conversion factors to picometers.
const (
	pmPerAngstrom   = 100
	pmPerNanometer  = 1_000
	pmPerMicrometer = 1_000_000
)

// WavelengthFromPicometers builds a Wavelength from an integer picometer count.
func WavelengthFromPicometers(pm int64) (Wavelength, error) {
	if pm <= 0 {
		return Wavelength{}, fmt.Errorf("wavelength must be positive, got %d pm", pm)
	}
	return Wavelength{Picometers: pm}, nil
}

// WavelengthFromAngstroms builds a Wavelength from a decimal Ångström value.
// The value is rounded to the nearest picometer.
func WavelengthFromAngstroms(a float64) (Wavelength, error) {
	return wavelengthFromDecimal(a, pmPerAngstrom, "Å")
}

// WavelengthFromNanometers builds a Wavelength from a decimal nanometer value.
// The value is rounded to the nearest picometer.
func WavelengthFromNanometers(nm float64) (Wavelength, error) {
	return wavelengthFromDecimal(nm, pmPerNanometer, "nm")
}

// WavelengthFromMicrometers builds a Wavelength from a decimal micrometer
// value. The value is rounded to the nearest picometer.
func WavelengthFromMicrometers(um float64) (Wavelength, error) {
	return wavelengthFromDecimal(um, pmPerMicrometer, "µm")
}

func wavelengthFromDecimal(v float64, factor float64, unit string) (Wavelength, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Wavelength{}, fmt.Errorf("wavelength must be a positive finite value, got %v %s", v, unit)
	}
	pm := math.Round(v * factor)
	if pm < 1 || pm > math.MaxInt64 {
		return Wavelength{}, fmt.Errorf("wavelength %v %s is out of range", v, unit)
	}
	return Wavelength{Picometers: int64(pm)}, nil
}

// Nanometers returns the wavelength as a decimal nanometer value, the unit
// the legacy calculator speaks.
func (w Wavelength) Nanometers() float64 {
	return float64(w.Picometers) / pmPerNanometer
}

// Micrometers returns the wavelength as a decimal micrometer value.
func (w Wavelength) Micrometers() float64 {
	return float64(w.Picometers) / pmPerMicrometer
}

func (w Wavelength) String() string {
	return fmt.Sprintf("%g nm", w.Nanometers())
}

// IsZero reports whether the wavelength is the zero value, used for
// optional wavelengths carried by value.
func (w Wavelength) IsZero() bool {
	return w.Picometers == 0
}

// SpeedOfLight in meters per second.
const SpeedOfLight = 299_792_458.0

// RadialVelocity is a line-of-sight velocity in meters per second.
// Positive values recede from the observer.
type RadialVelocity struct {
	MetersPerSecond float64
}

// Redshift converts the radial velocity to a redshift using the
// relativistic Doppler relation.
func (rv RadialVelocity) Redshift() float64 {
	beta := rv.MetersPerSecond / SpeedOfLight
	return math.Sqrt((1+beta)/(1-beta)) - 1
}

func (rv RadialVelocity) String() string {
	return fmt.Sprintf("%g km/s", rv.MetersPerSecond/1000)
}
