package params

// DefaultDescriptors returns the built-in field table for the trajectory
// dataset. Measured and derived top-level quantities are primary; the
// trailing entries are sub-components of computed trajectories.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Key: "key", Primary: true},
		{Key: "idx", Name: "0-based location in the data file", Primary: true},
		{Key: "ref", Primary: true},
		{Key: "desc", Primary: true},
		{Key: "date", Primary: true},
		{Key: "technique", Primary: true},
		{Key: "power_factor", Units: "J/kg", Primary: true},
		{Key: "given_date", Primary: true},
		{Key: "given_charge", Primary: true},
		{Key: "given_diameter", Primary: true},
		{Key: "given_angle", Primary: true},
		{Key: "given_range", Primary: true},
		{Key: "given_final_angle", Primary: true},
		{Key: "given_final_height", Primary: true},
		{Key: "given_final_time", Primary: true},
		{Key: "given_final_velocity", Primary: true},
		{Key: "given_atmospheric_density", Primary: true},
		{Key: "given_group", Primary: true},
		{Key: "given_temperature", Primary: true},
		{Key: "given_humidity", Primary: true},
		{Key: "given_wetbulb", Primary: true},
		{Key: "given_initial_height", Primary: true},
		{Key: "given_initial_velocity", Primary: true},
		{Key: "given_mass", Primary: true},
		{Key: "given_material", Primary: true},
		{Key: "given_material_density", Primary: true},
		{Key: "given_maxheight", Primary: true},
		{Key: "given_power", Primary: true},
		{Key: "given_pressure", Primary: true},
		{Key: "given_rising_height", Primary: true},
		{Key: "given_technique", Primary: true},
		{Key: "charge", Units: "kg", Primary: true},
		{Key: "diam", Units: "m", Primary: true},
		{Key: "range", Units: "m", Primary: true},
		{Key: "final_angle", Units: "deg", Primary: true},
		{Key: "final_height", Units: "m", Primary: true},
		{Key: "final_time", Units: "s", Primary: true},
		{Key: "final_velocity", Units: "m/s", Primary: true},
		{Key: "atmospheric_density", Units: "kg/m^3", Primary: true},
		{Key: "rh", Primary: true},
		{Key: "initial_height", Units: "m", Primary: true},
		{Key: "initial_velocity", Units: "m/s", Primary: true},
		{Key: "mass", Units: "kg", Primary: true},
		{Key: "material", Primary: true},
		{Key: "material_density", Units: "kg/m^3", Primary: true},
		{Key: "projectile_density", Units: "kg/m^3", Primary: true},
		{Key: "max_height", Units: "m", Primary: true},
		{Key: "pressure", Units: "Pa", Primary: true},
		{Key: "pressure_y0", Units: "m", Primary: true},
		{Key: "rising_height", Units: "m", Primary: true},
		{Key: "computation_time", Units: "s"},
		{Key: "initial_angle", Units: "deg"},
		{Key: "T", Name: "Air temperature", Units: "K"},
		{Key: "Twb", Name: "Wet-bulb temperature", Units: "K"},
		{Key: "x", Units: "m"},
		{Key: "y", Units: "m"},
		{Key: "vx", Units: "m/s"},
		{Key: "vy", Units: "m/s"},
		{Key: "ax", Units: "m/s^2"},
		{Key: "ay", Units: "m/s^2"},
		{Key: "final_density_density", Units: "kg/m^3"},
		{Key: "final_density_h", Name: "final density humidity (0-1)"},
		{Key: "final_density_pressure", Units: "Pa"},
		{Key: "final_density_psv", Name: "Vapor pressure at saturation", Units: "Pa"},
		{Key: "final_density_T", Units: "K"},
		{Key: "final_density_y", Units: "m"},
		{Key: "final_drag_sos", Units: "m/s"},
		{Key: "final_viscosity_mua", Name: "Viscosity of dry air", Units: "kg/m/s"},
		{Key: "final_viscosity_muv", Name: "Viscosity of water vapor", Units: "kg/m/s"},
		{Key: "final_viscosity_viscosity", Name: "Viscosity", Units: "kg/m/s"},
	}
}
