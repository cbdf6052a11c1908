// Package ginvarianttest contains fixtures for exercising rule sets:
// a small vehicle model with rules for vehicles, cars, and wheels,
// and a pool that registers them.
package ginvarianttest

import (
	"fmt"

	"github.com/gordian-engine/invariants/ginvariant"
)

// VehicleInfo holds the fields common to every vehicle.
type VehicleInfo struct {
	LicensePlate string
	Weight       int
	Wheels       []Wheel
}

// Info returns i, so that any type embedding VehicleInfo
// satisfies [Vehicle] through a pointer.
func (i *VehicleInfo) Info() *VehicleInfo { return i }

// Vehicle is the supertype of the fixture subjects.
type Vehicle interface {
	Info() *VehicleInfo
}

// Car is a vehicle with a custom String method.
type Car struct {
	VehicleInfo
}

func (c *Car) String() string {
	return fmt.Sprintf("Car(%s)", c.LicensePlate)
}

// Sedan inherits Car's String method through embedding.
type Sedan struct {
	Car
}

// Truck is a vehicle without a String method.
type Truck struct {
	VehicleInfo
}

// Wreck is a vehicle whose String method panics.
type Wreck struct {
	VehicleInfo
}

func (w *Wreck) String() string {
	panic(fmt.Errorf("cannot describe wreck %q", w.LicensePlate))
}

// Wheel is the element type nested inside every vehicle.
type Wheel struct {
	Mileage int
}

// NewWheels returns n wheels with zero mileage.
func NewWheels(n int) []Wheel {
	return make([]Wheel, n)
}

// VehicleHasNonNegativeWeight is an unparametrized rule for every vehicle.
type VehicleHasNonNegativeWeight struct{}

func (VehicleHasNonNegativeWeight) IsSatisfiedBy(v Vehicle) bool {
	return v.Info().Weight >= 0
}

// VehicleMaximumWeight is a parametrized rule,
// so it is never discovered and must be added explicitly.
type VehicleMaximumWeight struct {
	Max int
}

// NewVehicleMaximumWeight returns a rule requiring vehicles to weigh at most max.
func NewVehicleMaximumWeight(max int) *VehicleMaximumWeight {
	return &VehicleMaximumWeight{Max: max}
}

func (r *VehicleMaximumWeight) IsSatisfiedBy(v Vehicle) bool {
	return v.Info().Weight <= r.Max
}

func (r *VehicleMaximumWeight) String() string {
	return fmt.Sprintf("VehicleMaximumWeight(%d)", r.Max)
}

// CarHasFourWheels applies only to cars.
type CarHasFourWheels struct{}

func (CarHasFourWheels) IsSatisfiedBy(c *Car) bool {
	return len(c.Wheels) == 4
}

// WheelHasNonNegativeMileage is the rule for individual wheels.
type WheelHasNonNegativeMileage struct{}

func (WheelHasNonNegativeMileage) IsSatisfiedBy(w Wheel) bool {
	return w.Mileage >= 0
}

// VehicleWheels is a composite rule
// asserting a nested set of wheel rules against each of a vehicle's wheels.
type VehicleWheels struct {
	wheels *ginvariant.Set[Wheel]
}

// NewVehicleWheels returns a VehicleWheels rule
// whose nested set holds the wheel rules discovered in p.
func NewVehicleWheels(p *ginvariant.Pool) *VehicleWheels {
	return &VehicleWheels{
		wheels: ginvariant.DiscoverSet[Wheel](p),
	}
}

func (r *VehicleWheels) IsSatisfiedBy(v Vehicle) bool {
	for _, w := range v.Info().Wheels {
		if !r.wheels.IsSatisfiedBy(w) {
			return false
		}
	}
	return true
}

func (r *VehicleWheels) AssertSatisfiedBy(v Vehicle) error {
	for _, w := range v.Info().Wheels {
		if err := r.wheels.AssertSatisfiedBy(w); err != nil {
			return err
		}
	}
	return nil
}

// VehicleRule is an interface implementation type,
// registered to show that abstract implementations are never discovered.
type VehicleRule interface {
	ginvariant.Rule[Vehicle]
}

// Pool returns a new pool with every fixture rule registered
// and with Car and Truck declared as subtypes of Vehicle.
// Sedan is deliberately not declared,
// as a *Sedan cannot be evaluated by a rule for *Car.
func Pool() *ginvariant.Pool {
	p := ginvariant.NewPool()

	ginvariant.DeclareSubtype[*Car, Vehicle](p)
	ginvariant.DeclareSubtype[*Truck, Vehicle](p)

	ginvariant.Register[Vehicle](p, func() VehicleHasNonNegativeWeight {
		return VehicleHasNonNegativeWeight{}
	})
	ginvariant.RegisterParametrized[Vehicle, *VehicleMaximumWeight](p)
	ginvariant.Register[*Car](p, func() CarHasFourWheels {
		return CarHasFourWheels{}
	})
	ginvariant.Register[Wheel](p, func() WheelHasNonNegativeMileage {
		return WheelHasNonNegativeMileage{}
	})
	ginvariant.Register[Vehicle](p, func() *VehicleWheels {
		return NewVehicleWheels(p)
	})
	ginvariant.RegisterParametrized[Vehicle, VehicleRule](p)

	return p
}
