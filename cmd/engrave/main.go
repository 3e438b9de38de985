// Command engrave exercises the decoration engine from the shell.
//
// Usage:
//
//	engrave fill   -in art.png -out filled.png [-color #hex | -pattern tile.png] [-seed x,y] [-exterior]
//	engrave layout -text "IN LOVING MEMORY" [-font serif.ttf] [-size 1] [-curve 0] [-align center]
//	engrave place  -host-pos 0,0,0 -host-rot 0,0,0 -host-scale 1,1,1 -bounds 1,1,0.1 [-finish flush] [-local x,y,z]
//	engrave check  -design design.json
//
// Every command reads its tunables from -config or $ENGRAVE_CONFIG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
	"github.com/gogpu/engrave/design"
	"github.com/gogpu/engrave/fill"
	"github.com/gogpu/engrave/glyphs"
	"github.com/gogpu/engrave/layout"
	"github.com/gogpu/engrave/resource"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "fill":
		err = runFill(args)
	case "layout":
		err = runLayout(args)
	case "place":
		err = runPlace(args)
	case "check":
		err = runCheck(args)
	case "-h", "-help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("engrave: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: engrave <fill|layout|place|check> [flags]")
}

// common registers the flags every command shares and returns a loader
// for the resulting configuration.
func common(fs *flag.FlagSet) func() (engrave.Config, error) {
	path := fs.String("config", "", "TOML config file (default $"+engrave.ConfigEnv+")")
	verbose := fs.Bool("v", false, "debug logging to stderr")
	return func() (engrave.Config, error) {
		if *verbose {
			engrave.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		if *path != "" {
			return engrave.LoadConfig(*path)
		}
		return engrave.ConfigFromEnv()
	}
}

func runFill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	var (
		in       = fs.String("in", "", "input image")
		out      = fs.String("out", "filled.png", "output PNG")
		hex      = fs.String("color", "#c0392b", "fill color")
		pattern  = fs.String("pattern", "", "tile image; overrides -color")
		seed     = fs.String("seed", "", "x,y of the pixel to fill from; empty fills globally")
		exterior = fs.Bool("exterior", false, "global fill leaves enclosed holes alone")
	)
	config := common(fs)
	_ = fs.Parse(args)
	cfg, err := config()
	if err != nil {
		return err
	}
	if *in == "" {
		return errors.New("fill: -in is required")
	}

	ctx := context.Background()
	loader := resource.NewLoader(resource.WithConfig(cfg.Resource))
	defer loader.Close()

	art, err := loader.Load(ctx, *in)
	if err != nil {
		return err
	}
	req := fill.Request{Mode: fill.ModeGlobal, ExteriorOnly: *exterior}
	if *seed != "" {
		x, y, err := parseXY(*seed)
		if err != nil {
			return err
		}
		req.Mode, req.SeedX, req.SeedY = fill.ModeSeeded, x, y
	}
	if *pattern != "" {
		tile, err := loader.Load(ctx, *pattern)
		if err != nil {
			return err
		}
		req.Pattern = fill.NewTiled(tile)
	} else {
		col, err := engrave.ParseColor(*hex)
		if err != nil {
			return err
		}
		req.Pattern = fill.NewSolid(col)
	}

	buf := engrave.NewRasterBuffer(art)
	res, err := fill.New(fill.WithConfig(cfg.Fill)).Apply(buf, req)
	if err != nil {
		return err
	}
	if res.NoOp {
		log.Printf("nothing to fill (%s)", req.Mode)
	}
	if err := buf.Current().SavePNG(*out); err != nil {
		return err
	}
	log.Printf("%s fill: %d pixels in %d regions -> %s", req.Mode, res.Changed, res.Regions, *out)
	return nil
}

func runLayout(args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	var (
		text    = fs.String("text", "HELLO", "inscription; \\n separates lines")
		font    = fs.String("font", "", "TrueType/OpenType file; default Go Regular")
		size    = fs.Float64("size", 1, "font size")
		curve   = fs.Float64("curve", 0, "curvature in [-max, max]")
		align   = fs.String("align", "center", "left, center or right")
		spacing = fs.Float64("spacing", 0, "extra character spacing in em")
		line    = fs.Float64("line", 1.2, "line spacing multiplier")
	)
	config := common(fs)
	_ = fs.Parse(args)
	cfg, err := config()
	if err != nil {
		return err
	}
	a, ok := engrave.ParseAlignment(*align)
	if !ok {
		return fmt.Errorf("layout: unknown alignment %q", *align)
	}

	fonts, err := glyphs.NewResolver(glyphs.WithDefaultWidth(cfg.Layout.DefaultWidth))
	if err != nil {
		return err
	}
	fontID := glyphs.FallbackID
	if *font != "" {
		fontID = "user"
		if err := fonts.RegisterFile(fontID, *font); err != nil {
			return err
		}
	}

	lines := layout.SplitLines(strings.ReplaceAll(*text, `\n`, "\n"))
	var runes []rune
	for _, l := range lines {
		runes = append(runes, []rune(l)...)
	}
	widths, err := fonts.ResolveGlyphWidths(fontID, runes)
	if err != nil {
		return err
	}
	outline, err := fonts.ResolveOutline(fontID)
	if err != nil {
		return err
	}

	l := layout.New(layout.WithConfig(cfg.Layout))
	run := l.Layout(lines, widths, layout.Options{
		Size:        *size,
		CharSpacing: *spacing,
		LineSpacing: *line,
		Align:       a,
		Curvature:   *curve,
	})

	lo, hi := run.Bounds(*size)
	fmt.Printf("font %s, arc %.4f rad, bounds (%.4f, %.4f)-(%.4f, %.4f)\n",
		outline.Family, run.ArcAngle, lo.X, lo.Y, hi.X, hi.Y)
	for i, info := range run.Lines {
		fmt.Printf("line %d: width %.4f radius %.4f sweep %.4f shaped %.4f\n",
			i, info.Width, info.Radius, info.Sweep, *size*outline.ShapedWidth(lines[i]))
	}
	for _, p := range run.Placements {
		mark := ' '
		if !p.Visible {
			mark = '~'
		}
		fmt.Printf("%c%q\tline %d\tx %8.4f\ty %8.4f\trot %8.4f\n", mark, p.Rune, p.Line, p.X, p.Y, p.Rotation)
	}
	return nil
}

func runPlace(args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	var (
		pos    = fs.String("host-pos", "0,0,0", "host world position")
		rot    = fs.String("host-rot", "0,0,0", "host XYZ Euler rotation, radians")
		scale  = fs.String("host-scale", "1,1,1", "host scale")
		bounds = fs.String("bounds", "1,1,0.1", "host local bounding size")
		finish = fs.String("finish", "flush", "flush, etched or raised")
		local  = fs.String("local", "", "local position; default is the surface offset")
	)
	config := common(fs)
	_ = fs.Parse(args)
	cfg, err := config()
	if err != nil {
		return err
	}

	var host coord.HostTransform
	var r, size engrave.Vec3
	for _, f := range []struct {
		s   string
		dst *engrave.Vec3
	}{{*pos, &host.Position}, {*rot, &r}, {*scale, &host.Scale}, {*bounds, &size}} {
		if *f.dst, err = parseVec3(f.s); err != nil {
			return err
		}
	}
	host.Rotation = engrave.QuatFromEuler(r)
	fv, ok := engrave.ParseFinish(*finish)
	if !ok {
		return fmt.Errorf("place: unknown finish %q", *finish)
	}

	var p coord.Pose
	if *local != "" {
		if p.Position, err = parseVec3(*local); err != nil {
			return err
		}
	} else {
		thickness, ok := coord.Thickness(size)
		if !ok {
			return fmt.Errorf("place: bounds %s have no thickness", *bounds)
		}
		p.Position.Z = coord.NewSurface(cfg.Surface).Offset(thickness, fv)
	}

	world, err := coord.ToWorld(p, &host)
	if err != nil {
		return err
	}
	back, err := coord.ToLocal(world, &host)
	if err != nil {
		return err
	}
	if err := coord.CheckRoundTrip(back, world, &host, cfg.Attach.RoundTripTolerance); err != nil {
		return err
	}
	fmt.Printf("local  %v rot %v\n", p.Position.Array(), p.Rotation.Array())
	fmt.Printf("world  %v quat %+v\n", world.Position.Array(), world.Rotation)
	fmt.Printf("back   %v rot %v\n", back.Position.Array(), back.Rotation.Array())
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	path := fs.String("design", "", "design JSON file")
	config := common(fs)
	_ = fs.Parse(args)
	if _, err := config(); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("check: -design is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	store := design.NewStore()
	if err := store.Load(f); err != nil {
		return err
	}
	for _, d := range store.Decorations() {
		host := d.HostID
		if host == "" {
			host = "-"
		}
		fmt.Printf("%s\t%s\thost %s\tpos %v\n", d.ID, d.Kind, host, d.Position.Array())
	}
	fmt.Printf("%d decorations ok\n", store.Len())
	return nil
}

func parseXY(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseVec3(s string) (engrave.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return engrave.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var a [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return engrave.Vec3{}, err
		}
		a[i] = v
	}
	return engrave.Vec3FromArray(a), nil
}
