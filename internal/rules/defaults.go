package rules

import "fmt"

// Profiles lists the limit profiles a rule pack can be bound to.
var Profiles = []string{"default", "strict", "permissive"}

// DefaultRulePack returns the builtin VGM gate rules bound to the given
// limit profile.
func DefaultRulePack(profile string) RulePack {
	if profile == "" {
		profile = "default"
	}
	return RulePack{
		RulePackId: "vgm-core",
		Version:    "1.0.0",
		Profile:    profile,
		Rules: []Rule{
			{
				RuleId: "VGM-001", Name: "Container parses", Stage: StageHeader,
				Severity: ERROR, Check: "CheckHeaderParse",
				Refs:    []string{"vgmspec §1"},
				Message: "file must decode as a VGM container",
			},
			{
				RuleId: "VGM-002", Name: "Version known", Stage: StageHeader,
				Severity: WARN, Check: "CheckVersionKnown",
				Refs:    []string{"vgmspec §1.1"},
				Message: "BCD version must be within the published range",
			},
			{
				RuleId: "VGM-003", Name: "EoF offset", Stage: StageHeader,
				Severity: ERROR, Check: "CheckEndOfFileOffset",
				Refs:    []string{"vgmspec §1.1"},
				Message: "relative end-of-file offset must match the file size",
			},
			{
				RuleId: "VGM-004", Name: "Clock plausibility", Stage: StageHeader,
				Severity: WARN, Check: "CheckClockRanges",
				Refs:    []string{"vgmspec §1.1"},
				Message: "configured chip clocks must be plausible hardware rates",
			},
			{
				RuleId: "VGM-005", Name: "Commands vs clocks", Stage: StageCommands,
				Severity: WARN, Check: "CheckCommandClockCrossRef",
				Refs:    []string{"vgmspec §2"},
				Message: "commands must not address chips with a zero clock",
			},
			{
				RuleId: "VGM-006", Name: "Loop consistency", Stage: StageHeader,
				Severity: ERROR, Check: "CheckLoopConsistency",
				Refs:    []string{"vgmspec §1.1"},
				Message: "loop offset and loop samples must agree",
			},
			{
				RuleId: "VGM-007", Name: "Wait total", Stage: StageCommands,
				Severity: WARN, Check: "CheckWaitTotal",
				Refs:    []string{"vgmspec §2"},
				Message: "wait commands must sum to the declared total samples",
			},
			{
				RuleId: "VGM-008", Name: "GD3 metadata", Stage: StageMetadata,
				Severity: WARN, Check: "CheckGD3Tag",
				Refs:    []string{"vgmspec §3"},
				Message: "a GD3 tag with a track name should be present",
			},
			{
				RuleId: "VGM-009", Name: "Data block budget", Stage: StageResource,
				Severity: WARN, Check: "CheckDataBlockBudget",
				Refs:    []string{"vgmspec §2.1"},
				Message: "data block payloads should stay within the profile budget",
			},
			{
				RuleId: "VGM-010", Name: "Round trip", Stage: StageEncode,
				Severity: WARN, Check: "CheckRoundTrip",
				Refs:    []string{"vgmspec §1"},
				Message: "decode followed by encode must reproduce the input",
			},
		},
	}
}

// ResolveRulePack loads the pack at path, or falls back to the builtin pack
// for the profile when no path is given.
func ResolveRulePack(path, profile string) (RulePack, error) {
	if path == "" {
		return DefaultRulePack(profile), nil
	}
	rp, err := LoadRulePack(path)
	if err != nil {
		return rp, fmt.Errorf("load rule pack %s: %w", path, err)
	}
	if rp.Profile == "" {
		rp.Profile = profile
	}
	return rp, nil
}
