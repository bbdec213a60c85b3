// Command tmximport imports Tiled maps and writes the resolved scenes as JSON
// or as a Go-syntax dump.
//
//	tmximport [flags] map.tmx...
//
// The exit status is 1 when a map could not be imported (or, with --strict,
// produced error diagnostics) and 2 on usage errors.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/phanxgames/tmximport"
	"github.com/phanxgames/tmximport/ebitenatlas"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, maps, err := loadConfig(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "tmximport:", err)
		return 2
	}
	if len(maps) == 0 {
		fmt.Fprintln(stderr, "tmximport: no maps given")
		return 2
	}

	log, closer, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "tmximport:", err)
		return 2
	}
	defer closer.Close()

	reader, err := tmximport.NewCachedReader(tmximport.DirReader{Root: cfg.Root}, int64(cfg.CacheMB)<<20)
	if err != nil {
		log.WithError(err).Error("file cache")
		return 1
	}
	defer reader.Close()

	opts := tmximport.Options{
		Reader:  reader,
		Logger:  log,
		Workers: cfg.Workers,
	}
	var atlas *ebitenatlas.Atlas
	if cfg.Slice {
		atlas = ebitenatlas.NewImporter(reader)
		opts.Assets = atlas
	}
	im := tmximport.NewImporter(opts)

	status := 0
	for _, p := range maps {
		scene, err := im.Import(filepath.ToSlash(p))
		if err != nil {
			log.WithError(err).WithField("map", p).Error("import failed")
			status = 1
			continue
		}
		summarize(log, scene)
		if cfg.Strict && scene.Diagnostics.HasErrors() {
			status = 1
		}
		if err := writeScene(cfg, stdout, scene); err != nil {
			log.WithError(err).WithField("map", p).Error("write failed")
			status = 1
		}
	}

	if atlas != nil && cfg.AtlasOut != "" {
		data, err := json.MarshalIndent(atlas, "", "  ")
		if err == nil {
			err = os.WriteFile(cfg.AtlasOut, data, 0o644)
		}
		if err != nil {
			log.WithError(err).Error("write atlas")
			status = 1
		} else {
			log.WithFields(logrus.Fields{"path": cfg.AtlasOut, "regions": atlas.Len(), "pages": len(atlas.Pages())}).Info("atlas written")
		}
	}
	return status
}

func summarize(log logrus.FieldLogger, scene *tmximport.Scene) {
	fields := logrus.Fields{
		"map":      scene.Path,
		"layers":   len(scene.Layers),
		"tiles":    scene.TileCount(),
		"tilesets": len(scene.Tilesets),
	}
	summary := scene.Diagnostics.Summary()
	codes := make([]string, 0, len(summary))
	for code := range summary {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, c := range codes {
		fields["diag_"+c] = summary[tmximport.Code(c)]
	}
	var unresolved int
	for _, d := range scene.Diagnostics.ByCode(tmximport.CodeUnresolvedGID) {
		unresolved += d.Count
	}
	if unresolved > 0 {
		fields["unresolved_cells"] = unresolved
	}
	log.WithFields(fields).Info("imported")
}

func writeScene(cfg *config, stdout io.Writer, scene *tmximport.Scene) error {
	w := stdout
	if cfg.Out != "" && cfg.Out != "-" {
		if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
			return err
		}
		ext := ".json"
		if cfg.Format == "spew" {
			ext = ".txt"
		}
		name := strings.TrimSuffix(path.Base(scene.Path), path.Ext(scene.Path)) + ext
		f, err := os.Create(filepath.Join(cfg.Out, name))
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if cfg.Format == "spew" {
		dumper := spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		}
		dumper.Fdump(w, scene)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scene)
}
