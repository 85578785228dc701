// Package cli implements idgen, the offline batch generator.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/youruser/memberids/internal/app"
	"github.com/youruser/memberids/internal/batch"
	"github.com/youruser/memberids/internal/config"
	"github.com/youruser/memberids/internal/document"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/render"
	"github.com/youruser/memberids/internal/util"
)

type Options struct {
	In       string
	Out      string
	Profile  string
	Profiles string
	Limit    int
	Manifest bool
}

func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		_, _ = fmt.Fprintln(out, "Usage:")
		_, _ = fmt.Fprintf(out, "  %s [options]\n\n", name)
		_, _ = fmt.Fprintln(out, "Renders every member as a front and a back page of one PDF.")
		_, _ = fmt.Fprintln(out, "Without -in the member directory at API_BASE is used.")
		_, _ = fmt.Fprintln(out)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs fills Options from argv; cfg supplies defaults.
func ParseArgs(fs *flag.FlagSet, argv []string, cfg config.Config) (Options, error) {
	var o Options
	fs.StringVar(&o.In, "in", "", "members file (.json or .csv)")
	fs.StringVar(&o.Out, "out", config.ArtifactName, "output PDF path")
	fs.StringVar(&o.Profile, "profile", cfg.Profile, "layout profile")
	fs.StringVar(&o.Profiles, "profiles", cfg.ProfilesFile, "YAML file with profile overrides")
	fs.IntVar(&o.Limit, "limit", cfg.BatchLimit, "render at most this many members (0 = all)")
	fs.BoolVar(&o.Manifest, "manifest", false, "print the page manifest after saving")
	if err := fs.Parse(argv); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.Limit < 0 {
		return o, fmt.Errorf("-limit must not be negative")
	}
	return o, nil
}

// RunContext returns the process exit code: 0 on success, 1 when nothing
// could be generated, 2 on usage errors.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	cfg := config.FromEnv()

	fs := NewFlagSet("idgen")
	fs.SetOutput(stderr)
	opts, err := ParseArgs(fs, argv, cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg.Profile = opts.Profile
	cfg.ProfilesFile = opts.Profiles
	cfg.BatchLimit = opts.Limit

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer log.Sync()

	doc, err := Generate(ctx, cfg, opts, log)
	switch {
	case errors.Is(err, batch.ErrEmptyInput):
		fmt.Fprintln(stderr, "no members found; nothing written")
		return 1
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "wrote %s: %d cards, %d pages\n", opts.Out, doc.CardCount(), doc.PageCount())
	if opts.Manifest {
		fmt.Fprintln(stdout, document.ExportManifestText(doc))
	}
	return 0
}

// Generate loads members, composes the batch and writes the PDF atomically to
// opts.Out. Nothing is written on failure or cancellation.
func Generate(ctx context.Context, cfg config.Config, opts Options, log *logger.Logger) (*document.Document, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}

	var dir members.Directory
	if opts.In != "" {
		dir = members.FileDirectory{Path: opts.In, Log: log}
	} else {
		hd, err := a.Directory()
		if err != nil {
			return nil, err
		}
		dir = hd
	}
	ms, err := dir.List(ctx)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(opts.Out)
	comp, err := a.Compositor(opts.Profile, render.NewPDF(name, log), nil)
	if err != nil {
		return nil, err
	}
	doc, err := comp.Generate(ctx, ms)
	if err != nil {
		return nil, err
	}
	doc.Name = name
	if err := util.WriteFileAtomic(opts.Out, func(w io.Writer) error {
		return comp.Save(ctx, doc, w)
	}); err != nil {
		return nil, err
	}
	return doc, nil
}
