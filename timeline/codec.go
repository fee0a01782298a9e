package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/matt-g-everett/ledmotion/timing"
	"gopkg.in/yaml.v2"
)

var ErrInvalidKeyframe = errors.New("invalid keyframe")

type timelineData struct {
	Name       string          `json:"name" yaml:"name"`
	Animations []animationData `json:"animations" yaml:"animations"`
}

type animationData struct {
	Target    string         `json:"target" yaml:"target"`
	Repeat    bool           `json:"repeat" yaml:"repeat"`
	Alternate bool           `json:"alternate" yaml:"alternate"`
	Keyframes []keyframeData `json:"keyframes" yaml:"keyframes"`
}

type keyframeData struct {
	Time       float64         `json:"time" yaml:"time"`
	Attributes []attributeData `json:"attributes" yaml:"attributes"`
}

type attributeData struct {
	Name           string       `json:"name" yaml:"name"`
	Value          *Value       `json:"value,omitempty" yaml:"value,omitempty"`
	TimingFunction timing.Curve `json:"timingFunction" yaml:"timingFunction"`
}

func (t *Timeline) data() timelineData {
	d := timelineData{
		Name:       t.name,
		Animations: make([]animationData, len(t.animations)),
	}
	for i, a := range t.animations {
		ad := animationData{
			Target:    a.target,
			Repeat:    a.repeat,
			Alternate: a.alternate,
			Keyframes: make([]keyframeData, len(a.keyframes)),
		}
		for j, k := range a.keyframes {
			kd := keyframeData{
				Time:       k.time,
				Attributes: make([]attributeData, len(k.attributes)),
			}
			for n, attr := range k.attributes {
				kd.Attributes[n] = attributeData{
					Name:           attr.name,
					Value:          attr.value,
					TimingFunction: attr.curve,
				}
			}
			ad.Keyframes[j] = kd
		}
		d.Animations[i] = ad
	}
	return d
}

func fromData(d timelineData) (*Timeline, error) {
	if d.Name == "" {
		return nil, errors.New("timeline has no name")
	}
	t := New(d.Name)
	for i, ad := range d.Animations {
		a := NewAnimation(ad.Target, ad.Repeat, ad.Alternate)
		for j, kd := range ad.Keyframes {
			if math.IsNaN(kd.Time) || math.IsInf(kd.Time, 0) || kd.Time < 0 {
				return nil, fmt.Errorf("%w: animation %d keyframe %d has time %v", ErrInvalidKeyframe, i, j, kd.Time)
			}
			k := NewKeyframe(kd.Time)
			for _, attr := range kd.Attributes {
				if attr.Name == "" {
					return nil, fmt.Errorf("%w: animation %d keyframe %d has an unnamed attribute", ErrInvalidKeyframe, i, j)
				}
				k.AddAttribute(NewKeyframeAttribute(attr.Name, attr.Value, attr.TimingFunction))
			}
			a.AddKeyframe(k)
		}
		t.AddAnimation(a)
	}
	t.MarkClean()
	return t, nil
}

// MarshalJSON implements json.Marshaler.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.data())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// Parse decodes a JSON timeline.
func Parse(data []byte) (*Timeline, error) {
	var d timelineData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}
	return fromData(d)
}

// Load decodes a JSON timeline from r.
func Load(r io.Reader) (*Timeline, error) {
	var d timelineData
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}
	return fromData(d)
}

// ParseYAML decodes a timeline written in YAML using the JSON field names.
func ParseYAML(data []byte) (*Timeline, error) {
	var d timelineData
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}
	return fromData(d)
}

// MarshalYAML implements yaml.Marshaler.
func (t *Timeline) MarshalYAML() (interface{}, error) {
	return t.data(), nil
}
