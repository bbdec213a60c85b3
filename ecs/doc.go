// Package ecs loads imported tmximport scenes into a [Donburi] world.
//
// [Build] creates one entity per layer, tile and object, carrying
// [LayerComponent], [TileComponent] and [ObjectComponent]. Tiles with
// collision shapes are tagged with [ColliderTag] and flipped tiles with
// [FlippedTag]. Import diagnostics are
// published as [DiagnosticEventType] events.
//
// Usage:
//
//	world := donburi.NewWorld()
//	reg, _ := tmximport.NewRegistry(ecs.NewSceneBuilder(world))
//	im := tmximport.NewImporter(tmximport.Options{Reader: reader, Registry: reg})
//	scene, err := im.Import("level1.tmx")
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
