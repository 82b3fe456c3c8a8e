package featureflag

// FeatureFlag is a lookup set for optional behaviors that are enabled or
// disabled at startup.
type FeatureFlag map[Flag]struct{}

// New returns feature flags initialized from a list of flag names.
func New(flags []string) FeatureFlag {
	featureFlag := make(FeatureFlag, len(flags))
	for _, f := range flags {
		featureFlag[Flag(f)] = struct{}{}
	}
	return featureFlag
}

// Enabled reports whether flag is set.
func (f FeatureFlag) Enabled(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// IfSet runs do if flag is set.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if _, ok := f[flag]; !ok {
		return
	}
	do()
}

// IfNotSet runs do if flag is not set.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if _, ok := f[flag]; ok {
		return
	}
	do()
}
