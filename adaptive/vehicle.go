package adaptive

import (
	"fmt"
	"strings"
)

// VehicleClass identifies the kind of delivery vehicle a route is planned
// for. Heavier classes are penalized more on poor road surfaces.
type VehicleClass string

const (
	// VehicleBoda is a light two-wheeler (motorcycle taxi).
	VehicleBoda VehicleClass = "boda"

	// VehicleBajaji is a three-wheeler (auto rickshaw).
	VehicleBajaji VehicleClass = "bajaji"
)

// ParseVehicleClass maps a vehicle name or alias to a VehicleClass.
func ParseVehicleClass(name string) (VehicleClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "boda", "light", "two-wheeler":
		return VehicleBoda, nil
	case "bajaji", "heavy", "three-wheeler":
		return VehicleBajaji, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVehicle, name)
	}
}

// valid reports whether v is one of the supported vehicle classes.
func (v VehicleClass) valid() bool {
	return v == VehicleBoda || v == VehicleBajaji
}
