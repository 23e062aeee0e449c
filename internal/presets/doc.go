// Package presets builds molecules and scenes into a world.
//
// A [Preset] is a construction script written against [Builder], so the same
// script can target a live world or a recording builder in tests. Built-in
// presets cover common small molecules; [LoadScript] reads extra ones from
// YAML and [Soup] scatters unbonded atoms using Perlin noise.
//
//	ids, err := presets.Place(w, "Water", 400, 300)
//	presets.Spin(w, ids, 400, 300, presets.DefaultSpin)
package presets
