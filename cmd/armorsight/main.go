// Command armorsight computes which parts of armor meshes are visible
// along a view axis.
//
// Usage:
//
//	armorsight -subject hull.stl -other turret.stl -axis 2 -out visible.stl
//	armorsight -scene ship.json -view top -out visible.json
//	armorsight -demo -view side -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chazu/armorsight/pkg/config"
	"github.com/chazu/armorsight/pkg/mesh"
	"github.com/chazu/armorsight/pkg/occlude"
	"github.com/chazu/armorsight/pkg/plate"
	"github.com/chazu/armorsight/pkg/viewer"
)

var errUsage = errors.New("exactly one of -subject, -scene or -demo is required")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type options struct {
	config  string
	view    string
	axis    int
	subject string
	other   string
	scene   string
	demo    bool
	out     string
	vv      bool
	v       bool
	q       bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("armorsight", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "TOML configuration file.")
	fs.StringVar(&o.view, "view", "", "View: side, top or front. Overrides the configuration and the scene.")
	fs.IntVar(&o.axis, "axis", -1, "View axis 0, 1 or 2 for -subject. Defaults to the axis of the view.")
	fs.StringVar(&o.subject, "subject", "", "STL file to occlude.")
	fs.StringVar(&o.other, "other", "", "STL file occluding -subject. Defaults to -subject itself.")
	fs.StringVar(&o.scene, "scene", "", "JSON scene of meshes to view.")
	fs.BoolVar(&o.demo, "demo", false, "View the built-in demo scene.")
	fs.StringVar(&o.out, "out", "", "Output file. A .stl file gets all visible triangles, anything else JSON. Defaults to JSON on stdout.")
	fs.BoolVar(&o.vv, "vv", false, "Log debug output.")
	fs.BoolVar(&o.v, "v", false, "Log informational output.")
	fs.BoolVar(&o.q, "q", false, "Log errors only.")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments %q: %w", fs.Args(), errUsage)
	}

	modes := 0
	for _, set := range []bool{o.subject != "", o.scene != "", o.demo} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return o, errUsage
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if o.config != "" {
		if cfg, err = config.Load(o.config); err != nil {
			return err
		}
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if o.vv || o.v || o.q {
		level = config.LevelFromFlags(o.vv, o.v, o.q)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	occ := occlude.New(cfg.OcclusionOptions(logger))

	viewName := cfg.Viewer.View
	var sc *scene
	switch {
	case o.scene != "":
		if sc, err = loadScene(o.scene); err != nil {
			return err
		}
	case o.demo:
		if sc, err = demoScene(); err != nil {
			return err
		}
	}
	if sc != nil && sc.view != "" {
		viewName = sc.view
	}
	if o.view != "" {
		viewName = o.view
	}
	view, err := viewer.ParseView(viewName)
	if err != nil {
		return err
	}

	var visible []*mesh.Mesh
	if o.subject != "" {
		axis := view.Axis()
		if o.axis >= 0 {
			axis = o.axis
		}
		res, err := pairwise(occ, o.subject, o.other, axis)
		if err != nil {
			return err
		}
		visible = []*mesh.Mesh{res}
	} else {
		vw := viewer.New(occ,
			viewer.WithConcurrency(cfg.Viewer.Concurrency),
			viewer.WithLogger(logger))
		if visible, err = vw.View(ctx, sc.meshes, view); err != nil {
			return err
		}
	}

	for _, m := range visible {
		logger.Info("visible", "mesh", m.ID, "view", view.String(),
			"triangles", m.TriangleCount(), "area", m.Area())
	}
	return write(o.out, stdout, view, visible)
}

func pairwise(occ *occlude.Occluder, subjectPath, otherPath string, axis int) (*mesh.Mesh, error) {
	subject, err := plate.LoadSTL("subject", subjectPath)
	if err != nil {
		return nil, err
	}
	other := subject
	if otherPath != "" {
		if other, err = plate.LoadSTL("other", otherPath); err != nil {
			return nil, err
		}
	}
	return occ.Occlude(subject, other, axis)
}

func write(path string, stdout io.Writer, view viewer.View, meshes []*mesh.Mesh) error {
	if path == "" {
		return encodeScene(stdout, view, meshes)
	}
	if strings.EqualFold(filepath.Ext(path), ".stl") {
		all := mesh.New("visible")
		for _, m := range meshes {
			all.Triangles = append(all.Triangles, m.Triangles...)
		}
		return plate.SaveSTL(path, all)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encodeScene(f, view, meshes); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
