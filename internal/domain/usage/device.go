package usage

import "slices"

// Platform feature names that identify non-handheld form factors
const (
	FeatureLeanback   = "android.software.leanback"
	FeatureWatch      = "android.hardware.type.watch"
	FeatureAutomotive = "android.hardware.type.automotive"
)

// FormFactor is the kind of device the controller runs on
type FormFactor string

const (
	Handheld   FormFactor = "handheld"
	Television FormFactor = "television"
	Wear       FormFactor = "wear"
	Automotive FormFactor = "automotive"
)

// FormFactorFromFeatures derives the form factor from system features
func FormFactorFromFeatures(features []string) FormFactor {
	switch {
	case slices.Contains(features, FeatureLeanback):
		return Television
	case slices.Contains(features, FeatureAutomotive):
		return Automotive
	case slices.Contains(features, FeatureWatch):
		return Wear
	default:
		return Handheld
	}
}

// IsHandheld reports whether f is a phone or tablet
func (f FormFactor) IsHandheld() bool {
	return f == Handheld || f == ""
}

// FeaturesFor returns the system features that identify ff
func FeaturesFor(ff FormFactor) []string {
	switch ff {
	case Television:
		return []string{FeatureLeanback}
	case Automotive:
		return []string{FeatureAutomotive}
	case Wear:
		return []string{FeatureWatch}
	default:
		return nil
	}
}
