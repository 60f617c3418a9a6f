package units

import "math"

const (
	statuteFoot   = 0.3048
	parisFoot     = statuteFoot * 144 / 135
	sardiniaFoot  = statuteFoot * 20.23457 / 12
	poundMass     = 0.45359237
	troyPound     = poundMass * 5760 / 7000
	parisPound    = poundMass / 0.926
	piedmontPound = poundMass * 0.81332
	gravity       = 9.806650
)

// Dimension exponents, indexed by Length, Mass, Time, Temperature, Angle.
type Dimension [5]int

// Dimension indexes.
const (
	Length = iota
	Mass
	Time
	Temperature
	Angle
)

var (
	dimNone     = Dimension{}
	dimLength   = Dimension{Length: 1}
	dimMass     = Dimension{Mass: 1}
	dimTime     = Dimension{Time: 1}
	dimTemp     = Dimension{Temperature: 1}
	dimAngle    = Dimension{Angle: 1}
	dimForce    = Dimension{Length: 1, Mass: 1, Time: -2}
	dimEnergy   = Dimension{Length: 2, Mass: 1, Time: -2}
	dimPressure = Dimension{Length: -1, Mass: 1, Time: -2}
)

// Definition is one entry of the unit table. A value v in this unit is
// (v + Offset) * Scale in the SI reference unit of its dimension.
type Definition struct {
	Names  []string
	Prefix bool
	Scale  float64
	Offset float64
	Dim    Dimension
	Desc   string
}

// prefixes allowed on prefix-enabled units.
var prefixes = map[string]float64{
	"T": 1e12, "G": 1e9, "M": 1e6, "k": 1e3, "h": 1e2, "d": 1e-1,
	"c": 1e-2, "m": 1e-3, "u": 1e-6, "µ": 1e-6, "n": 1e-9,
}

var table = []Definition{
	// Length (reference m)
	{Names: []string{"m", "meter", "meters"}, Prefix: true, Scale: 1, Dim: dimLength, Desc: "SI meter"},
	{Names: []string{"in", "inch", "inches"}, Scale: statuteFoot / 12, Dim: dimLength, Desc: "Statute inch"},
	{Names: []string{"lk", "link", "links"}, Scale: 0.66 * statuteFoot, Dim: dimLength, Desc: "Link"},
	{Names: []string{"ft", "foot", "feet"}, Scale: statuteFoot, Dim: dimLength, Desc: "Statute foot"},
	{Names: []string{"yd", "yard", "yards", "yds"}, Scale: 3 * statuteFoot, Dim: dimLength, Desc: "Statute yard"},
	{Names: []string{"ch", "chain", "chains"}, Scale: 66 * statuteFoot, Dim: dimLength, Desc: "Chain"},
	{Names: []string{"mi", "mile", "miles"}, Scale: 5280 * statuteFoot, Dim: dimLength, Desc: "Statute mile"},
	{Names: []string{"pace", "paces", "doublepace", "doublepaces"}, Scale: 5 * statuteFoot, Dim: dimLength, Desc: "Geometrical pace"},
	{Names: []string{"ftfr", "parisfoot", "frenchfoot"}, Scale: parisFoot, Dim: dimLength, Desc: "Paris foot"},
	{Names: []string{"infr", "parisinch", "frenchinch", "pouce", "pouces"}, Scale: parisFoot / 12, Dim: dimLength, Desc: "Paris inch"},
	{Names: []string{"linefr", "parisline", "ligne", "lignes"}, Scale: parisFoot / 144, Dim: dimLength, Desc: "Paris line"},
	{Names: []string{"toise", "toises"}, Scale: parisFoot * 6, Dim: dimLength, Desc: "Paris toise"},
	{Names: []string{"ftit", "italianfoot", "sardiniafoot", "pieliprando"}, Scale: sardiniaFoot, Dim: dimLength, Desc: "Sardinia foot"},
	{Names: []string{"init", "italianinch", "oncia", "oncie"}, Scale: sardiniaFoot / 12, Dim: dimLength, Desc: "Sardinia inch"},
	{Names: []string{"trabucco", "trabucchi"}, Scale: sardiniaFoot * 6, Dim: dimLength, Desc: "Sardinia trabucco"},

	// Mass (reference kg)
	{Names: []string{"g", "gram", "grams"}, Prefix: true, Scale: 0.001, Dim: dimMass, Desc: "SI gram"},
	{Names: []string{"kg", "kilogram", "kilograms"}, Scale: 1, Dim: dimMass, Desc: "SI kilogram"},
	{Names: []string{"tonne"}, Scale: 1000, Dim: dimMass, Desc: "SI megagram"},
	{Names: []string{"gr", "grain", "grains"}, Scale: poundMass / 7000, Dim: dimMass, Desc: "Grain"},
	{Names: []string{"dr", "dram", "drams"}, Scale: poundMass / 256, Dim: dimMass, Desc: "Avoirdupois dram"},
	{Names: []string{"oz", "ounce", "ounces"}, Scale: poundMass / 16, Dim: dimMass, Desc: "Avoirdupois ounce"},
	{Names: []string{"lb", "pound", "pounds", "lbs"}, Scale: poundMass, Dim: dimMass, Desc: "Avoirdupois pound"},
	{Names: []string{"cwt", "hundredweight"}, Scale: poundMass * 112, Dim: dimMass, Desc: "Hundredweight"},
	{Names: []string{"ozt", "troyounce"}, Scale: troyPound / 12, Dim: dimMass, Desc: "Troy ounce"},
	{Names: []string{"lbt", "troypound"}, Scale: troyPound, Dim: dimMass, Desc: "Troy pound"},
	{Names: []string{"lbfr", "parispound", "frenchpound"}, Scale: parisPound, Dim: dimMass, Desc: "Paris pound"},
	{Names: []string{"ozfr", "parisounce", "frenchounce"}, Scale: parisPound / 16, Dim: dimMass, Desc: "Paris ounce"},
	{Names: []string{"lbit", "italianpound", "piedmontesepound"}, Scale: piedmontPound, Dim: dimMass, Desc: "Piedmont pound"},

	// Energy (reference J)
	{Names: []string{"J", "Joule", "Joules"}, Prefix: true, Scale: 1, Dim: dimEnergy, Desc: "SI joule"},
	{Names: []string{"cal", "calorie", "calories"}, Prefix: true, Scale: 4.184, Dim: dimEnergy, Desc: "Thermochemical calorie"},
	{Names: []string{"Cal", "kcal", "Calorie", "Calories"}, Scale: 4184, Dim: dimEnergy, Desc: "Food calorie"},
	{Names: []string{"ftlb", "footpound", "footpounds"}, Scale: statuteFoot * gravity * poundMass, Dim: dimEnergy, Desc: "Foot-pound"},

	// Force (reference N)
	{Names: []string{"N", "Newton", "Newtons"}, Prefix: true, Scale: 1, Dim: dimForce, Desc: "SI newton"},
	{Names: []string{"gf", "gramforce", "pond", "ponds"}, Prefix: true, Scale: 0.001 * gravity, Dim: dimForce, Desc: "Gram-force"},
	{Names: []string{"kgf", "kp", "kilogramforce", "kilopond"}, Scale: gravity, Dim: dimForce, Desc: "Kilogram-force"},
	{Names: []string{"lbf", "poundforce"}, Scale: poundMass * gravity, Dim: dimForce, Desc: "Pound-force"},
	{Names: []string{"pdl", "poundal", "poundals"}, Scale: poundMass * statuteFoot, Dim: dimForce, Desc: "Poundal"},

	// Angle (reference rad)
	{Names: []string{"rad", "radian", "radians"}, Scale: 1, Dim: dimAngle, Desc: "Radian"},
	{Names: []string{"deg", "degree", "degrees"}, Scale: math.Pi / 180, Dim: dimAngle, Desc: "Degree"},
	{Names: []string{"arcmin", "arcminute", "arcminutes"}, Scale: math.Pi / 180 / 60, Dim: dimAngle, Desc: "Minute of arc"},
	{Names: []string{"arcsec", "arcsecond", "arcseconds"}, Scale: math.Pi / 180 / 3600, Dim: dimAngle, Desc: "Second of arc"},
	{Names: []string{"grad", "gradian", "gradians", "gon"}, Scale: math.Pi / 200, Dim: dimAngle, Desc: "Gradian"},
	{Names: []string{"quadpt", "quadrantpoint", "quadrantpoints"}, Scale: math.Pi / 24, Dim: dimAngle, Desc: "Gunner's quadrant point"},

	// Time (reference s)
	{Names: []string{"s", "sec", "second", "seconds"}, Prefix: true, Scale: 1, Dim: dimTime, Desc: "SI second"},
	{Names: []string{"third", "thirds"}, Scale: 1.0 / 60, Dim: dimTime, Desc: "Third (1/60 second)"},
	{Names: []string{"min", "minute", "minutes"}, Scale: 60, Dim: dimTime, Desc: "Minute"},
	{Names: []string{"h", "hour", "hours"}, Scale: 3600, Dim: dimTime, Desc: "Hour"},

	// Temperature (reference K)
	{Names: []string{"K", "Kelvin"}, Scale: 1, Dim: dimTemp, Desc: "Kelvin"},
	{Names: []string{"C", "degC"}, Scale: 1, Offset: 273.15, Dim: dimTemp, Desc: "Celsius"},
	{Names: []string{"F", "degF"}, Scale: 5.0 / 9.0, Offset: 459.67, Dim: dimTemp, Desc: "Fahrenheit"},
	{Names: []string{"Ra", "Rankine"}, Scale: 5.0 / 9.0, Dim: dimTemp, Desc: "Rankine"},

	// Fraction
	{Names: []string{"%", "percent"}, Scale: 0.01, Dim: dimNone, Desc: "Percent"},

	// Pressure (reference Pa)
	{Names: []string{"Pa", "Pascal", "Pascals"}, Prefix: true, Scale: 1, Dim: dimPressure, Desc: "SI pascal"},
	{Names: []string{"bar"}, Scale: 1e5, Dim: dimPressure, Desc: "Bar"},
	{Names: []string{"atm", "atmosphere", "atmospheres"}, Scale: 101325, Dim: dimPressure, Desc: "Standard atmosphere"},
	{Names: []string{"psi"}, Scale: poundMass * gravity / (statuteFoot / 12) / (statuteFoot / 12), Dim: dimPressure, Desc: "Pound-force per square inch"},
	{Names: []string{"mmHg"}, Scale: 133.322387415, Dim: dimPressure, Desc: "Millimeter of mercury"},
	{Names: []string{"mHg"}, Prefix: true, Scale: 133322.387415, Dim: dimPressure, Desc: "Meter of mercury"},
	{Names: []string{"inHg"}, Scale: 3386.388, Dim: dimPressure, Desc: "Inch of mercury"},
}
