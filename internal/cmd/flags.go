package cmd

import (
	"github.com/spf13/pflag"

	"github.com/Nicholas-Amsler/lung-iq/internal/physiology"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// patientFlags are the demographics shared by several commands.
type patientFlags struct {
	class  string
	weight float64
	age    float64
	height float64
	gender string
}

func (p *patientFlags) register(fs *pflag.FlagSet) {
	d := physiology.DefaultPatient()
	fs.StringVar(&p.class, "class", string(d.Class), "patient class (neonate, infant, toddler, preschool, schoolAge, adolescent, adult)")
	fs.Float64Var(&p.weight, "weight", d.WeightKg, "actual body weight in kg")
	fs.Float64Var(&p.age, "age", d.AgeYears, "age in years")
	fs.Float64Var(&p.height, "height", d.HeightCm, "height in cm")
	fs.StringVar(&p.gender, "gender", string(d.Gender), "male or female")
}

func (p *patientFlags) patient() physiology.Patient {
	return physiology.Patient{
		Class:    physiology.Class(p.class),
		WeightKg: p.weight,
		AgeYears: p.age,
		HeightCm: p.height,
		Gender:   physiology.Gender(p.gender),
	}
}

// requestFlags describe one generator call. A scenario, when given, supplies
// the starting values; flags set explicitly win over it.
type requestFlags struct {
	patientFlags
	scenario  string
	pathology string
	mode      string
	peep      float64
	pip       float64
	rr        float64
	ie        float64
	rise      float64
	phase     int
	step      int
	etco2     float64
}

func (r *requestFlags) register(fs *pflag.FlagSet) {
	r.patientFlags.register(fs)
	s := waveform.DefaultSettings()
	fs.StringVar(&r.scenario, "scenario", "", "start from a catalogue scenario")
	fs.StringVar(&r.pathology, "pathology", string(physiology.Normal), "lung condition")
	fs.StringVar(&r.mode, "mode", string(s.Mode), "volume, pressure or support")
	fs.Float64Var(&r.peep, "peep", s.PEEP, "PEEP in cmH2O")
	fs.Float64Var(&r.pip, "pip", s.PIP, "peak inspiratory pressure in cmH2O")
	fs.Float64Var(&r.rr, "rr", s.RespiratoryRate, "respiratory rate per minute")
	fs.Float64Var(&r.ie, "ie", s.IERatio, "inspiratory to expiratory ratio (0.5 is 1:2)")
	fs.Float64Var(&r.rise, "rise", s.RiseTime, "rise time as a fraction of inspiration")
	fs.IntVar(&r.phase, "phase", 0, "phase offset in samples")
	fs.IntVar(&r.step, "step", 0, "breath step counter")
	fs.Float64Var(&r.etco2, "etco2", waveform.DefaultEtCO2, "capnography plateau in mmHg")
}

func (r *requestFlags) request(fs *pflag.FlagSet) (waveform.Request, *scenario.Scenario, error) {
	req := waveform.Request{
		Settings: waveform.Settings{
			PEEP:            r.peep,
			PIP:             r.pip,
			RespiratoryRate: r.rr,
			IERatio:         r.ie,
			RiseTime:        r.rise,
			Mode:            waveform.Mode(r.mode),
		},
		Patient:    r.patient(),
		Pathology:  physiology.Pathology(r.pathology),
		Phase:      r.phase,
		BreathStep: r.step,
		EtCO2Max:   r.etco2,
	}
	if r.scenario == "" {
		return req, nil, nil
	}

	sc, err := scenario.Default().Scenario(r.scenario)
	if err != nil {
		return req, nil, err
	}
	base := req
	req.Settings = sc.Settings
	req.Pathology = sc.Pathology
	req.Patient = sc.ApplyPatient(req.Patient)

	override := map[string]func(){
		"peep":      func() { req.Settings.PEEP = base.Settings.PEEP },
		"pip":       func() { req.Settings.PIP = base.Settings.PIP },
		"rr":        func() { req.Settings.RespiratoryRate = base.Settings.RespiratoryRate },
		"ie":        func() { req.Settings.IERatio = base.Settings.IERatio },
		"rise":      func() { req.Settings.RiseTime = base.Settings.RiseTime },
		"mode":      func() { req.Settings.Mode = base.Settings.Mode },
		"pathology": func() { req.Pathology = base.Pathology },
		"class":     func() { req.Patient.Class = base.Patient.Class },
		"weight":    func() { req.Patient.WeightKg = base.Patient.WeightKg },
		"age":       func() { req.Patient.AgeYears = base.Patient.AgeYears },
		"height":    func() { req.Patient.HeightCm = base.Patient.HeightCm },
		"gender":    func() { req.Patient.Gender = base.Patient.Gender },
	}
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := override[f.Name]; ok {
			apply()
		}
	})
	return req, &sc, nil
}
