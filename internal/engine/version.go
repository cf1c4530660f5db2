// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SceneForge Contributors

package engine

import (
	"errors"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// MaxFeatureLevel is the highest feature level this build understands.
// Documents above it cannot be loaded.
const MaxFeatureLevel = 5

// ErrBadEngineVersion indicates an engine version string that is not
// valid semver.
var ErrBadEngineVersion = errors.New("invalid engine version")

// ErrFeatureLevelRange indicates a feature level outside 1..MaxFeatureLevel.
var ErrFeatureLevelRange = errors.New("feature level out of range")

// featureGates lists the minimum runtime version for each feature level,
// ascending. A runtime supports every level whose gate it reaches.
var featureGates = []struct {
	version *semver.Version
	level   int
}{
	{semver.MustParse("1.0.0"), 1},
	{semver.MustParse("1.1.0"), 2},
	{semver.MustParse("1.2.0"), 3},
	{semver.MustParse("1.4.0"), 4},
	{semver.MustParse("2.0.0"), 5},
}

// FeatureLevelCeiling returns the highest feature level the given engine
// runtime version supports.
func FeatureLevelCeiling(engineVersion string) (int, error) {
	v, err := semver.NewVersion(engineVersion)
	if err != nil {
		return 0, oops.With("version", engineVersion).Wrap(ErrBadEngineVersion)
	}
	ceiling := 0
	for _, gate := range featureGates {
		if v.Compare(gate.version) >= 0 {
			ceiling = gate.level
		}
	}
	if ceiling == 0 {
		return 0, oops.With("version", engineVersion).Wrap(ErrBadEngineVersion)
	}
	return ceiling, nil
}

// ValidFeatureLevel checks that a document feature level is one this
// build can open.
func ValidFeatureLevel(level int) error {
	if level < 1 || level > MaxFeatureLevel {
		return oops.With("level", level).With("max", MaxFeatureLevel).Wrap(ErrFeatureLevelRange)
	}
	return nil
}
