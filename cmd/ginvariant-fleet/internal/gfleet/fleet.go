// Package gfleet loads fleets of vehicles and inspects them
// against runtime-configurable groups of rules.
package gfleet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gordian-engine/invariants/ginvariant/ginvarianttest"
	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a fleet.
// JSON documents are accepted as well, as a subset of YAML.
type Document struct {
	Vehicles []VehicleDocument `yaml:"vehicles" json:"vehicles"`
}

// VehicleDocument describes a single vehicle in a [Document].
type VehicleDocument struct {
	// One of "car", "sedan", or "truck".
	Kind string `yaml:"kind" json:"kind"`

	Plate  string `yaml:"plate" json:"plate"`
	Weight int    `yaml:"weight" json:"weight"`

	// Mileage of each wheel, in order.
	Wheels []int `yaml:"wheels" json:"wheels"`
}

// Entry is a vehicle loaded from a [Document].
type Entry struct {
	Kind    string
	Vehicle ginvarianttest.Vehicle
}

// Plate returns the license plate of e's vehicle.
func (e Entry) Plate() string {
	return e.Vehicle.Info().LicensePlate
}

// UnknownVehicleKindError is returned from [Load]
// when a vehicle's kind is not one of the known kinds.
type UnknownVehicleKindError struct {
	Index int
	Kind  string
}

func (e UnknownVehicleKindError) Error() string {
	return fmt.Sprintf("vehicle %d: unknown kind %q (want car, sedan, or truck)", e.Index, e.Kind)
}

// Load decodes a fleet document from r and builds its vehicles.
// Unknown fields are rejected.
func Load(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty document is an empty fleet.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode fleet: %w", err)
	}

	return doc.Entries()
}

// LoadFile is like [Load], reading from the file at path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fleet file: %w", err)
	}
	defer f.Close()

	entries, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return entries, nil
}

// Entries builds the vehicles described by d.
// All unknown kinds are reported together.
func (d Document) Entries() ([]Entry, error) {
	out := make([]Entry, 0, len(d.Vehicles))
	var errs error
	for i, vd := range d.Vehicles {
		v, err := vd.vehicle(i)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		out = append(out, Entry{Kind: strings.ToLower(vd.Kind), Vehicle: v})
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func (vd VehicleDocument) vehicle(idx int) (ginvarianttest.Vehicle, error) {
	info := ginvarianttest.VehicleInfo{
		LicensePlate: vd.Plate,
		Weight:       vd.Weight,
		Wheels:       ginvarianttest.NewWheels(len(vd.Wheels)),
	}
	for i, m := range vd.Wheels {
		info.Wheels[i].Mileage = m
	}

	switch strings.ToLower(vd.Kind) {
	case "car":
		return &ginvarianttest.Car{VehicleInfo: info}, nil
	case "sedan":
		return &ginvarianttest.Sedan{Car: ginvarianttest.Car{VehicleInfo: info}}, nil
	case "truck":
		return &ginvarianttest.Truck{VehicleInfo: info}, nil
	default:
		return nil, UnknownVehicleKindError{Index: idx, Kind: vd.Kind}
	}
}
