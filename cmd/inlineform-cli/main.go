package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	inlineform "github.com/goliatone/go-inlineform"
	"github.com/goliatone/go-inlineform/internal/logging"
	"github.com/goliatone/go-inlineform/pkg/fielddef"
	"github.com/goliatone/go-inlineform/pkg/model"
	"github.com/goliatone/go-inlineform/pkg/reconcile"
	"github.com/goliatone/go-inlineform/pkg/render"
	"github.com/goliatone/go-inlineform/pkg/renderers/html"
	"github.com/goliatone/go-inlineform/pkg/renderers/tui"
	"github.com/goliatone/go-inlineform/pkg/settings"
	"github.com/goliatone/go-inlineform/pkg/state"
	"github.com/goliatone/go-inlineform/pkg/storage/gormstore"
)

//go:embed demo.yaml
var demoDocument []byte

func main() {
	definitions := flag.String("definitions", "", "OpenAPI document path or URL declaring inline fields (embedded demo if empty)")
	schema := flag.String("schema", "Article", "schema owning the field")
	fieldName := flag.String("field", "field_sections", "inline reference field to edit")
	settingsDir := flag.String("settings", "", "directory of YAML/JSON widget settings")
	dsn := flag.String("db", "inlineform.db", "sqlite database for child records")
	ids := flag.String("ids", "", "comma separated ids of the records already referenced")
	logDir := flag.String("log-dir", "", "directory for rotated log files (disabled if empty)")
	tableFormat := flag.String("table", "grid", "table layout: grid, simple or plain")
	outPath := flag.String("out", "", "also write the final widget to this file")
	format := flag.String("format", html.Name, "output format for -out: html or tui")
	flag.Parse()

	logger, flush, err := logging.New(logging.Config{Dir: *logDir})
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer flush()

	ctx := context.Background()
	if err := run(ctx, logger, options{
		definitions: *definitions,
		schema:      *schema,
		field:       *fieldName,
		settingsDir: *settingsDir,
		dsn:         *dsn,
		ids:         splitIDs(*ids),
		tableFormat: tui.TableFormat(*tableFormat),
		outPath:     *outPath,
		format:      *format,
	}); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			fmt.Println("Aborted.")
			return
		}
		logger.Error("inlineform-cli failed", zap.Error(err))
		log.Fatalf("inlineform-cli: %v", err)
	}
}

type options struct {
	definitions string
	schema      string
	field       string
	settingsDir string
	dsn         string
	ids         []string
	tableFormat tui.TableFormat
	outPath     string
	format      string
}

func run(ctx context.Context, logger *zap.Logger, opts options) error {
	defs, err := loadDefinitions(ctx, opts.definitions)
	if err != nil {
		return err
	}
	field, ok := defs.Field(opts.schema, opts.field)
	if !ok {
		return fmt.Errorf("field %s.%s is not an inline reference field", opts.schema, opts.field)
	}

	cfg := settings.DefaultSettings()
	if opts.settingsDir != "" {
		loaded, err := inlineform.LoadSettings(os.DirFS(opts.settingsDir))
		if err != nil {
			return err
		}
		cfg, _ = loaded.Field(field.Name)
	}

	records, err := gormstore.Open(opts.dsn, gormstore.WithLogger(logger))
	if err != nil {
		return err
	}
	existing := make([]*model.Record, 0, len(opts.ids))
	for _, id := range opts.ids {
		rec, err := records.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("load record %s: %w", id, err)
		}
		existing = append(existing, rec)
	}

	var output render.Renderer
	if opts.outPath != "" {
		renderers, err := outputRenderers(logger, opts.tableFormat)
		if err != nil {
			return err
		}
		if output, err = renderers.Resolve(opts.format, html.Name); err != nil {
			return err
		}
	}

	widget := inlineform.New(field, cfg,
		inlineform.WithStorage(records),
		inlineform.WithValidator(model.RequireFields("label")),
		inlineform.WithLogger(logger),
	)

	cycles := state.NewCache(state.WithCacheLogger(logger))
	buildID, store := cycles.Begin()
	defer cycles.Finish(buildID)
	id := widget.Prepare(ctx, store, nil, existing)

	session := tui.NewSession(store, id, tui.DispatchFunc(widget.Handle),
		tui.WithAssembler(tui.AssembleFunc(widget.Build)),
		tui.WithRenderer(tui.New(tui.WithTableFormat(opts.tableFormat))),
		tui.WithPromptDriver(tui.NewSurveyDriver(os.Stdout)),
		tui.WithSessionLogger(logger),
	)
	if err := session.Run(ctx); err != nil {
		return err
	}

	if output != nil {
		rendered, err := widget.Render(ctx, store, id, output, render.RenderOptions{
			HiddenFields: render.MergeHiddenFields(nil, render.BuildIDField(buildID)),
		}, nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.outPath, rendered, 0o644); err != nil {
			return fmt.Errorf("write %s output: %w", output.Name(), err)
		}
		fmt.Printf("Widget %s written to %s\n", output.Name(), opts.outPath)
	}

	result, err := widget.Extract(ctx, store, id, reconcile.Posted{})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	out, err := json.MarshalIndent(result.Maps(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func loadDefinitions(ctx context.Context, location string) (*fielddef.Definitions, error) {
	if location == "" {
		return inlineform.LoadFieldDefinitions(ctx, demoDocument)
	}
	src, err := fielddef.ParseSource(location)
	if err != nil {
		return nil, err
	}
	return fielddef.NewLoader(fielddef.WithHTTPFallback(10 * time.Second)).Load(ctx, src)
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func outputRenderers(logger *zap.Logger, table tui.TableFormat) (*render.Registry, error) {
	markup, err := html.New(html.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(markup, tui.New(tui.WithTableFormat(table)))
}
