// Package tmximport decodes [Tiled] maps (TMX maps, TSX tilesets and TX
// object templates) into an engine-agnostic scene: positioned tiles, object
// instances and the layer hierarchy, each tagged with the transform needed to
// render and collide correctly for the map's projection.
//
// # Quick start
//
//	im := tmximport.NewImporter(tmximport.Options{
//		Reader: tmximport.DirReader{Root: "assets"},
//	})
//	scene, err := im.Import("maps/level1.tmx")
//	if err != nil {
//		return err // unreadable map, bad markup or unsupported orientation
//	}
//	for _, d := range scene.Diagnostics {
//		log.Println(d)
//	}
//
// # Pipeline
//
// [ParseMap] decodes the document. [Importer.ImportMap] then imports every
// tileset in ascending firstgid order (slicing shared images with
// [SliceTileset] and registering sprites through an [AssetImporter]), and
// only when the [TileTable] is complete decodes tile layers, chunks and
// object groups in parallel. Each payload goes through [DecodePayload], each
// GID through [TileTable.Resolve] and each cell through [Grid.Cell]. Objects
// are merged with their template by [MergeObject] and placed with
// [Grid.ObjectPosition].
//
// # Coordinates
//
// Destination cells use a Y-up grid: orthogonal tile (x, y) lands on cell
// (x, -(y+1)). Isometric maps rotate that result a quarter turn; staggered
// and hexagonal maps use half-offset addressing, with [Grid.Swizzle] telling
// the host to swap its column and row axes when the stagger axis is X.
//
// # Errors
//
// File and map level problems are returned as errors ([*DocumentError],
// [*UnsupportedOrientationError]). Everything finer grained (payloads that
// fail, GIDs without a tile, tilesets or templates that cannot be loaded)
// becomes a [Diagnostic] on the scene, and the import carries on.
//
// # Extensions
//
// Handlers registered in a [Registry] run after the scene is built. A handler
// implements any of [MapHandler], [TilesetHandler], [LayerHandler],
// [ObjectHandler] and [TileHandler].
//
// Subpackage ebitenatlas slices tileset images into [Ebitengine] sub-images;
// subpackage ecs loads a scene into a [Donburi] world.
//
// [Tiled]: https://www.mapeditor.org
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package tmximport
