package ctl

import (
	"time"

	"gopkg.in/yaml.v3"

	"f4disco/errcode"
	"f4disco/internal/dds"
	"f4disco/x/strconvx"
)

// Wave is a waveform that reads from YAML as a selector or a name.
type Wave dds.Waveform

func (w *Wave) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseWaveform(n.Value)
	if err != nil {
		return err
	}
	*w = Wave(v)
	return nil
}

// ProfileStep is either a single setting or a sweep.
type ProfileStep struct {
	Frequency uint32        `yaml:"frequency"`
	Amplitude uint8         `yaml:"amplitude"`
	Waveform  Wave          `yaml:"waveform"`
	Dwell     time.Duration `yaml:"dwell"`
	Sweep     *Sweep        `yaml:"sweep"`
}

// Profile is a scripted sequence sent one command per line.
//
//	terminator: "!"
//	repeat: 2
//	steps:
//	  - {frequency: 1000, amplitude: 128, waveform: sine, dwell: 500ms}
//	  - sweep: {from: 100, to: 10000, steps: 20, amplitude: 200, waveform: triangle, dwell: 50ms}
type Profile struct {
	Terminator string        `yaml:"terminator"`
	Repeat     int           `yaml:"repeat"`
	Steps      []ProfileStep `yaml:"steps"`
}

// ParseProfile decodes a YAML profile.
func ParseProfile(src []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(src, &p); err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "ctl.profile", Err: err}
	}
	if p.Terminator == "" {
		p.Terminator = string(rune(DefaultTerminator))
	}
	if len(p.Terminator) != 1 || !dds.IsNoise(p.Terminator[0]) {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "ctl.profile", Msg: "terminator"}
	}
	if p.Repeat <= 0 {
		p.Repeat = 1
	}
	return &p, nil
}

func (p *Profile) Term() byte { return p.Terminator[0] }

// Plan flattens the profile, repeats included.
func (p *Profile) Plan() ([]Step, error) {
	var once []Step
	for i, s := range p.Steps {
		if s.Sweep != nil {
			st, err := s.Sweep.Plan()
			if err != nil {
				return nil, err
			}
			once = append(once, st...)
			continue
		}
		prm := dds.Params{Frequency: s.Frequency, Amplitude: s.Amplitude, Waveform: dds.Waveform(s.Waveform)}
		if !prm.Valid() {
			return nil, &errcode.E{C: errcode.OutOfRange, Op: "ctl.profile", Msg: "step " + strconvx.Itoa(i)}
		}
		once = append(once, Step{Params: prm, Dwell: s.Dwell})
	}
	out := make([]Step, 0, len(once)*p.Repeat)
	for r := 0; r < p.Repeat; r++ {
		out = append(out, once...)
	}
	return out, nil
}
