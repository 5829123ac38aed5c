package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ryanlewis/figpad"
	"github.com/ryanlewis/figpad/fonts"
	"github.com/ryanlewis/figpad/internal/config"
)

// app carries what every command shares once flags and config are read.
type app struct {
	configPath   string
	verbose      bool
	tracePath    string
	tracePretty  bool
	fontsDir     string
	fontsURL     string
	fetchTimeout time.Duration

	cfg       config.Config
	logger    *log.Logger
	tracer    *figpad.Tracer
	traceFile io.Closer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	tui := &tuiOptions{}

	root := &cobra.Command{
		Use:   "figpad",
		Short: "figpad renders text as FIGlet banners",
		Long: `figpad renders text as FIGlet banners. Without a subcommand it opens an
interactive editor that re-renders as you type.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, stderr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a, tui)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("figpad %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/figpad/config.toml)")
	pf.StringVar(&a.tracePath, "trace", "", "write load and render trace events to `FILE` (- for stderr)")
	pf.BoolVar(&a.tracePretty, "trace-pretty", false, "use the human-readable trace format instead of JSON Lines")
	pf.StringVar(&a.fontsDir, "fonts-dir", "", "directory of extra .flf fonts")
	pf.StringVar(&a.fontsURL, "fonts-url", "", "fetch fonts from this base `URL` instead of the bundled set")
	pf.DurationVar(&a.fetchTimeout, "fetch-timeout", config.DefaultFetchTimeout, "give up on a font fetch after this long (0 waits forever)")

	tui.bind(root.Flags())

	root.AddCommand(newTUICmd(a))
	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newFontsCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newGenCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = newLogger(stderr, level)
	cmd.SetContext(withLogger(cmd.Context(), a.logger))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("fonts-dir") {
		cfg.FontsDir = a.fontsDir
	}
	if flags.Changed("fonts-url") {
		cfg.FontsURL = a.fontsURL
	}
	if flags.Changed("fetch-timeout") {
		cfg.FetchTimeout.Duration = a.fetchTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.Path != "" {
		a.logger.Debug("loaded config", "path", cfg.Path)
	}
	return a.openTrace(stderr)
}

// openTrace enables tracing for --trace or FIGPAD_TRACE=1.
func (a *app) openTrace(stderr io.Writer) error {
	target := a.tracePath
	if target == "" && os.Getenv("FIGPAD_TRACE") == "1" {
		target = "-"
	}
	if target == "" {
		return nil
	}
	pretty := a.tracePretty || os.Getenv("FIGPAD_TRACE_PRETTY") == "1"

	var w io.Writer = stderr
	if target != "-" {
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create trace file: %w", err)
		}
		a.traceFile = f
		w = f
	}
	a.tracer = figpad.NewTracer(w, pretty)
	return nil
}

func (a *app) teardown() error {
	err := a.tracer.Close()
	if a.traceFile != nil {
		err = errors.Join(err, a.traceFile.Close())
	}
	return err
}

// catalog is the bundled fonts plus every .flf in fonts_dir and the
// [[fonts]] tables, later entries replacing earlier ones with the same ID.
func (a *app) catalog() (*figpad.Catalog, error) {
	var extra []figpad.CatalogEntry
	if dir := a.cfg.FontsDir; dir != "" {
		matches, err := filepath.Glob(filepath.Join(dir, "*.flf"))
		if err != nil {
			return nil, fmt.Errorf("scan fonts dir: %w", err)
		}
		for _, m := range matches {
			base := filepath.Base(m)
			extra = append(extra, figpad.CatalogEntry{
				ID:          figpad.FontID(strings.TrimSuffix(base, ".flf")),
				Location:    base,
				Description: "from " + dir,
			})
		}
	}
	for _, f := range a.cfg.Fonts {
		extra = append(extra, figpad.CatalogEntry{
			ID:          figpad.FontID(f.ID),
			Location:    f.Location,
			Description: f.Description,
		})
	}
	return figpad.DefaultCatalog().With(extra...)
}

// fetcher reads relative locations from fonts_url when set, otherwise from
// fonts_dir with the bundled fonts underneath. Absolute URLs always go over
// HTTP.
func (a *app) fetcher() (figpad.Fetcher, error) {
	client := &http.Client{}
	if a.cfg.FontsURL != "" {
		return figpad.NewHTTPFetcher(a.cfg.FontsURL, client)
	}
	var fsys fs.FS = fonts.FS
	if a.cfg.FontsDir != "" {
		fsys = overlayFS{os.DirFS(a.cfg.FontsDir), fonts.FS}
	}
	return figpad.NewLocationFetcher(fsys, client), nil
}

func (a *app) newLoader() (*figpad.Loader, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}
	fetcher, err := a.fetcher()
	if err != nil {
		return nil, err
	}
	opts := []figpad.LoaderOption{
		figpad.WithLoaderLogger(a.logger),
		figpad.WithFetchTimeout(a.cfg.FetchTimeout.Duration),
	}
	if a.tracer != nil {
		opts = append(opts, figpad.WithLoaderTracer(a.tracer))
	}
	return figpad.NewLoader(cat, fetcher, opts...), nil
}

// overlayFS opens a name from the first filesystem that has it.
type overlayFS []fs.FS

func (o overlayFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, fsys := range o {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil || errors.Is(firstErr, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}

// fontFlagUsage is shared by every command taking --font.
const fontFlagUsage = "font ID (fuzzy matched) or path to a .flf file"

// resolveFont returns the font named by query: a path to an existing .flf
// file is parsed directly, anything else goes through the catalog.
func resolveFont(cmd *cobra.Command, loader *figpad.Loader, query string) (*figpad.Font, error) {
	if strings.HasSuffix(query, ".flf") {
		if _, err := os.Stat(query); err == nil {
			dir, file := filepath.Split(query)
			if dir == "" {
				dir = "."
			}
			return figpad.LoadFontFS(os.DirFS(dir), path.Clean(file))
		}
	}
	id, err := loader.Catalog().Resolve(query)
	if err != nil {
		return nil, err
	}
	if string(id) != strings.TrimSpace(query) {
		loggerFromContext(cmd.Context()).Debug("resolved font", "query", query, "font", id)
	}
	return loader.Load(cmd.Context(), id)
}

// changedInt returns the flag value when set on the command line and
// fallback otherwise.
func changedInt(flags *pflag.FlagSet, name string, value, fallback int) int {
	if flags.Changed(name) {
		return value
	}
	return fallback
}
