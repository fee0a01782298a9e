package library

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/matt-g-everett/ledmotion/timeline"
	"github.com/matt-g-everett/ledmotion/timing"
)

var ErrUnknownPreset = errors.New("unknown preset")

// PresetOptions tune a generated timeline. Zero values take defaults.
type PresetOptions struct {
	// Period is the length of one cycle in seconds.
	Period float64
	// Steps is the number of random changes per target.
	Steps int
	// Seed makes random presets reproducible. Zero picks no fixed seed.
	Seed int64
}

func (o PresetOptions) withDefaults() PresetOptions {
	if o.Period <= 0 {
		o.Period = 4
	}
	if o.Steps <= 0 {
		o.Steps = 8
	}
	return o
}

type presetFunc func(tl *timeline.Timeline, targets []string, o PresetOptions, rng *rand.Rand)

var presets = map[string]presetFunc{
	"trail":   trailPreset,
	"twinkle": twinklePreset,
	"streak":  streakPreset,
	"stripes": stripesPreset,
}

// Presets returns the names of the built-in generators.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPreset generates a timeline named name that animates each target with
// the kind of effect requested.
func NewPreset(kind, name string, targets []string, o PresetOptions) (*timeline.Timeline, error) {
	fn, ok := presets[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, kind)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("preset %q needs at least one target", kind)
	}
	o = o.withDefaults()
	seed := o.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	tl := timeline.New(name)
	fn(tl, targets, o, rand.New(rand.NewSource(seed)))
	return tl, nil
}

func randomBetween(rng *rand.Rand, min, max float64) float64 {
	return rng.Float64()*(max-min) + min
}

// trailPreset runs each target's gradient once through its full length.
func trailPreset(tl *timeline.Timeline, targets []string, o PresetOptions, _ *rand.Rand) {
	for _, target := range targets {
		a := tl.Animate(target, true, false)
		a.Keyframe(0).Attribute("gradient", timeline.NumberPtr(0), timing.Linear)
		a.Keyframe(o.Period).Attribute("gradient", timeline.NumberPtr(1), timing.Linear)
	}
}

// twinklePreset scintillates each target: luminance swells towards a peak
// and falls back, at random moments.
func twinklePreset(tl *timeline.Timeline, targets []string, o PresetOptions, rng *rand.Rand) {
	const base, peak = 0.05, 0.6
	step := o.Period / float64(o.Steps)
	for _, target := range targets {
		a := tl.Animate(target, false, false)
		a.Keyframe(0).Attribute("luminance", timeline.NumberPtr(base), timing.EaseInOut)
		for n := 0; n < o.Steps; n++ {
			at := float64(n)*step + randomBetween(rng, 0, step/2)
			width := randomBetween(rng, step/8, step/4)
			a.Keyframe(at+width).Attribute("luminance", timeline.NumberPtr(randomBetween(rng, base, peak)), timing.EaseInOut)
			a.Keyframe(at+2*width).Attribute("luminance", timeline.NumberPtr(base), timing.EaseInOut)
		}
	}
}

// streakPreset fades a streak in and out across the targets in order.
func streakPreset(tl *timeline.Timeline, targets []string, o PresetOptions, _ *rand.Rand) {
	stagger := o.Period / float64(len(targets)+1)
	for n, target := range targets {
		start := float64(n) * stagger
		a := tl.Animate(target, false, false)
		a.Keyframe(start).Attribute("luminance", timeline.NumberPtr(0), timing.EaseInOut)
		a.Keyframe(start+stagger).Attribute("luminance", timeline.NumberPtr(0.5), timing.EaseInOut)
		a.Keyframe(start+2*stagger).Attribute("luminance", timeline.NumberPtr(0), timing.EaseInOut)
	}
}

// stripesPreset steps each target through random hues, never repeating the
// previous one.
func stripesPreset(tl *timeline.Timeline, targets []string, o PresetOptions, rng *rand.Rand) {
	palette := []float64{0, 30, 60, 120, 180, 240, 280, 320}
	step := o.Period / float64(o.Steps)
	for _, target := range targets {
		a := tl.Animate(target, false, false)
		current := rng.Intn(len(palette))
		a.Keyframe(0).Attribute("hue", timeline.NumberPtr(palette[current]), timing.Ease)
		for n := 1; n <= o.Steps; n++ {
			next := rng.Intn(len(palette) - 1)
			if next >= current {
				next++
			}
			current = next
			a.Keyframe(float64(n)*step).Attribute("hue", timeline.NumberPtr(palette[current]), timing.Ease)
		}
	}
}
