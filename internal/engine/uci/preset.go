package uci

import (
	"fmt"
	"slices"
	"strings"
)

// Preset bundles the engine options and search limits for one difficulty.
type Preset struct {
	Name    string
	Options Options
	Limits  Limits
}

const (
	defaultThreads = 2
	DefaultPreset  = "level5"
)

var presets = map[string]Preset{
	"level1": {Options: Options{SkillLevel: 0, Threads: defaultThreads, HashMB: 16}, Limits: Limits{MoveTimeMillis: 20, Depth: 5}},
	"level2": {Options: Options{SkillLevel: 0, Threads: defaultThreads, HashMB: 16}, Limits: Limits{MoveTimeMillis: 60, Depth: 6}},
	"level3": {Options: Options{SkillLevel: 1, Threads: defaultThreads, HashMB: 24}, Limits: Limits{MoveTimeMillis: 80, Depth: 8}},
	"level4": {Options: Options{SkillLevel: 3, Threads: defaultThreads, HashMB: 32}, Limits: Limits{MoveTimeMillis: 140, Depth: 10}},
	"level5": {Options: Options{SkillLevel: 7, Threads: defaultThreads, HashMB: 48}, Limits: Limits{MoveTimeMillis: 200, Depth: 12}},
	"level6": {Options: Options{SkillLevel: 11, Threads: defaultThreads, HashMB: 64}, Limits: Limits{MoveTimeMillis: 300, Depth: 16}},
	"level7": {Options: Options{SkillLevel: 16, Threads: defaultThreads, HashMB: 96}, Limits: Limits{MoveTimeMillis: 500, Depth: 20}},
	"level8": {Options: Options{SkillLevel: 20, Threads: 6, HashMB: 128}, Limits: Limits{MoveTimeMillis: 1000, Depth: 30}},
}

var presetAliases = map[string]string{
	"beginner":     "level1",
	"intermediate": "level5",
	"advanced":     "level7",
	"master":       "level8",
}

// LookupPreset resolves a level name or one of its aliases.
func LookupPreset(name string) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultPreset
	}
	if alias, ok := presetAliases[key]; ok {
		key = alias
	}
	p, ok := presets[key]
	if !ok {
		return Preset{}, fmt.Errorf("unknown difficulty preset: %s", name)
	}
	p.Name = key
	return p, nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
