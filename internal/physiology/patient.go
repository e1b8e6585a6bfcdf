package physiology

import "math"

// Class is the patient age band.
type Class string

const (
	Neonate    Class = "neonate"
	Infant     Class = "infant"
	Toddler    Class = "toddler"
	Preschool  Class = "preschool"
	SchoolAge  Class = "schoolAge"
	Adolescent Class = "adolescent"
	Adult      Class = "adult"
)

// Classes is the display order used by the selectors.
var Classes = []Class{Neonate, Infant, Toddler, Preschool, SchoolAge, Adolescent, Adult}

// Pediatric is true for every known class except adult.
// An empty class is treated as adult.
func (c Class) Pediatric() bool {
	switch c {
	case Neonate, Infant, Toddler, Preschool, SchoolAge, Adolescent:
		return true
	}
	return false
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Patient carries the demographics the engine reads.
// HeightCm and Gender only matter for adults.
type Patient struct {
	Class    Class   `json:"class" yaml:"class"`
	WeightKg float64 `json:"weightKg" yaml:"weight_kg"`
	AgeYears float64 `json:"ageYears,omitempty" yaml:"age_years,omitempty"`
	HeightCm float64 `json:"heightCm,omitempty" yaml:"height_cm,omitempty"`
	Gender   Gender  `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// DefaultPatient is the 70 kg adult the simulator starts with.
func DefaultPatient() Patient {
	return Patient{Class: Adult, WeightKg: 70, AgeYears: 30, HeightCm: 175, Gender: Male}
}

// Range is a closed [Min, Max] interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Category describes one patient class.
type Category struct {
	Class         Class   `json:"class"`
	Label         string  `json:"label"`
	WeightRange   Range   `json:"weightRange"`
	AgeRange      Range   `json:"ageRange"`
	TVPerKg       Range   `json:"tvPerKg"`
	RecommendedRR float64 `json:"recommendedRR"`
}

var categories = map[Class]Category{
	Neonate:    {Neonate, "Neonate (0-28 days)", Range{0.5, 4}, Range{0, 0.08}, Range{4, 6}, 40},
	Infant:     {Infant, "Infant (1-12 months)", Range{3, 12}, Range{0.08, 1}, Range{5, 7}, 30},
	Toddler:    {Toddler, "Toddler (1-3 years)", Range{10, 15}, Range{1, 3}, Range{6, 8}, 25},
	Preschool:  {Preschool, "Preschool (3-6 years)", Range{14, 20}, Range{3, 6}, Range{6, 8}, 22},
	SchoolAge:  {SchoolAge, "School Age (6-12 years)", Range{20, 40}, Range{6, 12}, Range{6, 8}, 20},
	Adolescent: {Adolescent, "Adolescent (12-18 years)", Range{40, 70}, Range{12, 18}, Range{6, 8}, 16},
	Adult:      {Adult, "Adult (18+ years)", Range{50, 120}, Range{18, 100}, Range{6, 8}, 12},
}

// CategoryFor returns the category of c, falling back to adult.
func CategoryFor(c Class) Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return categories[Adult]
}

// ParameterRanges are the slider limits recommended for a patient.
type ParameterRanges struct {
	PEEP    Range `json:"peep"`
	PIP     Range `json:"pip"`
	RR      Range `json:"rr"`
	TV      Range `json:"tv"`
	IERatio Range `json:"ieRatio"`
}

func RangesFor(c Class, weightKg float64) ParameterRanges {
	if !c.Pediatric() {
		return ParameterRanges{
			PEEP:    Range{3, 20},
			PIP:     Range{15, 50},
			RR:      Range{8, 30},
			TV:      Range{400, 800},
			IERatio: Range{0.2, 3.0},
		}
	}
	cat := CategoryFor(c)
	rr := Range{15, 25}
	switch c {
	case Neonate:
		rr = Range{30, 60}
	case Infant:
		rr = Range{20, 40}
	case Toddler:
		rr = Range{20, 30}
	}
	return ParameterRanges{
		PEEP:    Range{3, 12},
		PIP:     Range{12, 30},
		RR:      rr,
		TV:      Range{math.Round(weightKg * cat.TVPerKg.Min), math.Round(weightKg * cat.TVPerKg.Max)},
		IERatio: Range{0.3, 2.0},
	}
}

// ForClass returns a patient with the class's average weight and age.
// Adult height and gender are kept from p.
func (p Patient) ForClass(c Class) Patient {
	cat := CategoryFor(c)
	p.Class = cat.Class
	p.WeightKg = math.Round(cat.WeightRange.Mid())
	p.AgeYears = math.Round(cat.AgeRange.Mid()*10) / 10
	return p
}
