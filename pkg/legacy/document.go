// Package legacy bridges the service to the legacy numeric calculator.
//
// The calculator is a separately deployed sidecar wrapping the old
// observatory ITC library. It accepts a canonical JSON document describing
// the target, instrument configuration, conditions and calculation method,
// and returns either a structured payload or a single-line error message.
// The bridge owns document encoding and response parsing; it performs no
// retries and no concurrency control (the calculator worker serialises
// calls).
package legacy

import (
	"encoding/json"
	"fmt"

	"github.com/cquiroz/lucuma-itc/pkg/itc"
)

// Calculation methods understood by the sidecar.
const (
	methodSignalToNoise   = "S2N"
	methodSignalToNoiseAt = "S2N_AT"
	methodIntegrationTime = "INT_TIME"
)

// Fixed telescope configuration. The ITC always models the Gemini 8.1 m
// primary with a silver coating and the on-instrument wavefront sensor.
const (
	telescopeMirrorCoating = "SILVER"
	telescopeWfs           = "OIWFS"
)

// document is the canonical request document. Field order is fixed by the
// struct declarations; encoding/json emits struct fields in declaration
// order, so the same request always serialises to the same bytes.
type document struct {
	Target      targetDoc      `json:"target"`
	Conditions  conditionsDoc  `json:"conditions"`
	Instrument  instrumentDoc  `json:"instrument"`
	Telescope   telescopeDoc   `json:"telescope"`
	Observation observationDoc `json:"observation"`
}

type targetDoc struct {
	Geometry     string        `json:"geometry"`
	FWHM         float64       `json:"fwhm,omitempty"`
	Distribution *sedDoc       `json:"spectralDistribution,omitempty"`
	Brightness   *brightnessDoc `json:"brightness,omitempty"`
	EmissionLine *emissionDoc  `json:"emissionLine,omitempty"`
	Redshift     float64       `json:"redshift"`
}

type sedDoc struct {
	Kind        string  `json:"kind"`
	Template    string  `json:"template,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Index       float64 `json:"index,omitempty"`
}

type brightnessDoc struct {
	Band  string  `json:"band"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type emissionDoc struct {
	WavelengthNm float64 `json:"wavelength"`
	Width        float64 `json:"width"`
	Flux         float64 `json:"flux"`
	Continuum    float64 `json:"continuum"`
}

type conditionsDoc struct {
	ImageQuality    string  `json:"iq"`
	CloudExtinction string  `json:"cc"`
	SkyBackground   string  `json:"sb"`
	WaterVapor      string  `json:"wv"`
	AirMass         float64 `json:"airmass"`
}

type instrumentDoc struct {
	Name              string  `json:"name"`
	Grating           string  `json:"grating,omitempty"`
	FpuName           string  `json:"fpu,omitempty"`
	CustomSlitWidth   float64 `json:"customSlitWidth,omitempty"`
	Filter            string  `json:"filter,omitempty"`
	CentralWavelength float64 `json:"centralWavelength,omitempty"`
	Site              string  `json:"site"`
}

type telescopeDoc struct {
	MirrorCoating string `json:"mirrorCoating"`
	Wfs           string `json:"wfs"`
}

type observationDoc struct {
	Method        string  `json:"method"`
	ExposureTime  float64 `json:"exposureTime,omitempty"`
	Exposures     int     `json:"exposures,omitempty"`
	SignalToNoise float64 `json:"signalToNoise,omitempty"`
	AtWavelength  float64 `json:"atWavelength,omitempty"`
}

// EncodeDocument serialises a calculation request as the canonical UTF-8
// document the sidecar consumes. Encoding is deterministic: equal requests
// produce byte-identical documents.
func EncodeDocument(req itc.CalculationRequest) ([]byte, error) {
	doc := document{
		Target:     encodeTarget(req.Target),
		Conditions: encodeConditions(req.Conditions),
		Instrument: encodeInstrument(req.Mode),
		Telescope: telescopeDoc{
			MirrorCoating: telescopeMirrorCoating,
			Wfs:           telescopeWfs,
		},
		Observation: encodeObservation(req.Goal),
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode calculation document: %w", err)
	}
	return out, nil
}

func encodeTarget(t itc.TargetProfile) targetDoc {
	doc := targetDoc{
		Geometry: string(t.Source.Geometry),
		Redshift: t.Redshift(),
	}
	if t.Source.Geometry == itc.GeometryGaussian {
		doc.FWHM = t.Source.FWHMArcsec
	}
	if d := t.Source.Distribution; d != nil {
		doc.Distribution = &sedDoc{
			Kind:        string(d.Kind),
			Template:    d.Template,
			Temperature: d.TemperatureK,
			Index:       d.Index,
		}
	}
	if b := t.Source.Brightness; b != nil {
		doc.Brightness = &brightnessDoc{
			Band:  string(b.Band),
			Value: b.Value,
			Unit:  string(b.Unit),
		}
	}
	if e := t.Source.EmissionLine; e != nil {
		doc.EmissionLine = &emissionDoc{
			WavelengthNm: e.Wavelength.Nanometers(),
			Width:        e.WidthKmPerSec,
			Flux:         e.LineFlux,
			Continuum:    e.Continuum,
		}
	}
	return doc
}

func encodeConditions(c itc.ObservingConditions) conditionsDoc {
	return conditionsDoc{
		ImageQuality:    string(c.ImageQuality),
		CloudExtinction: string(c.CloudExtinction),
		SkyBackground:   string(c.SkyBackground),
		WaterVapor:      string(c.WaterVapor),
		AirMass:         c.AirMass,
	}
}

func encodeInstrument(m itc.ObservingMode) instrumentDoc {
	doc := instrumentDoc{Name: m.Instrument()}
	switch {
	case m.Spectroscopy != nil:
		s := m.Spectroscopy
		doc.Site = string(s.Site)
		doc.Grating = string(s.Grating)
		if s.FocalPlane.CustomSlitWidth > 0 {
			doc.CustomSlitWidth = s.FocalPlane.CustomSlitWidth
		} else {
			doc.FpuName = string(s.FocalPlane.BuiltIn)
		}
		doc.Filter = string(s.Filter)
		doc.CentralWavelength = s.CentralWavelength.Nanometers()
	case m.Imaging != nil:
		doc.Site = string(m.Imaging.Site)
		doc.Filter = string(m.Imaging.Filter)
	}
	return doc
}

func encodeObservation(g itc.CalculationGoal) observationDoc {
	switch {
	case g.SignalToNoise > 0 && !g.SignalToNoiseAt.IsZero():
		return observationDoc{
			Method:        methodSignalToNoiseAt,
			SignalToNoise: g.SignalToNoise,
			AtWavelength:  g.SignalToNoiseAt.Nanometers(),
		}
	case g.SignalToNoise > 0:
		return observationDoc{
			Method:        methodSignalToNoise,
			SignalToNoise: g.SignalToNoise,
		}
	default:
		return observationDoc{
			Method:       methodIntegrationTime,
			ExposureTime: g.ExposureTime.Seconds(),
			Exposures:    g.Exposures,
		}
	}
}
