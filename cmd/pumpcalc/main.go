// Command pumpcalc resolves pump operating points offline, without the HTTP
// service, and exports curves and reports to files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/okian/pumpcurve/internal/adapters/catalog"
	"github.com/okian/pumpcurve/internal/adapters/export"
	"github.com/okian/pumpcurve/internal/adapters/messages"
	app "github.com/okian/pumpcurve/internal/app"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
	"github.com/okian/pumpcurve/pkg/logger"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
	exitRejected = 4
)

type options struct {
	catalogPath string
	list        bool
	dumpCatalog bool
	pump        string
	flow        float64
	hasFlow     bool
	head        float64
	hasHead     bool
	lang        string
	samples     int
	xlsxPath    string
	pdfPath     string
	batchPath   string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("pumpcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.catalogPath, "catalog", "", "YAML catalog file (default: built-in catalog)")
	fs.BoolVar(&o.list, "list", false, "List the pumps of the catalog")
	fs.BoolVar(&o.dumpCatalog, "dump-catalog", false, "Write the effective catalog as YAML to stdout")
	fs.StringVar(&o.pump, "pump", "", "Pump name")
	fs.Float64Var(&o.flow, "flow", 0, "Flow in m³/h")
	fs.Float64Var(&o.head, "head", 0, "Specified head in m (default: read from the curve)")
	fs.StringVar(&o.lang, "lang", string(messages.English), "Message language (en or pt)")
	fs.IntVar(&o.samples, "samples", pump.DefaultSamples, "Samples per curve for pumps that do not set their own")
	fs.StringVar(&o.xlsxPath, "xlsx", "", "Write the pump's curves to this XLSX file")
	fs.StringVar(&o.pdfPath, "pdf", "", "Write an operating point report to this PDF file")
	fs.StringVar(&o.batchPath, "batch", "", "Resolve every row of this XLSX file (pump, flow, head)")
	fs.BoolVar(&o.verbose, "v", false, "Log service activity to stderr")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "flow":
			o.hasFlow = true
		case "head":
			o.hasHead = true
		}
	})

	switch {
	case fs.NArg() > 0:
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	case !o.list && !o.dumpCatalog && o.batchPath == "" && o.pump == "":
		return o, errors.New("nothing to do: use -list, -dump-catalog, -batch or -pump")
	case o.pdfPath != "" && (o.pump == "" || !o.hasFlow):
		return o, errors.New("-pdf needs -pump and -flow")
	case o.xlsxPath != "" && o.pump == "":
		return o, errors.New("-xlsx needs -pump")
	}
	return o, nil
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "pumpcalc:", err)
		}
		return exitUsage
	}

	l := logger.Nop()
	if o.verbose {
		if l, err = logger.New(stderr, logger.FormatText); err != nil {
			fmt.Fprintln(stderr, "pumpcalc:", err)
			return exitFailure
		}
	}

	svc := app.New(
		app.WithLogger(l),
		app.WithCatalogPath(o.catalogPath),
		app.WithSamples(o.samples),
	)
	if err := svc.Start(ctx); err != nil {
		fmt.Fprintln(stderr, "pumpcalc:", err)
		return exitFailure
	}
	defer svc.Stop()

	lang := messages.ParseLang(o.lang, messages.English)

	steps := []func() error{}
	if o.dumpCatalog {
		steps = append(steps, func() error { return dumpCatalog(ctx, svc, stdout) })
	}
	if o.list {
		steps = append(steps, func() error { return listPumps(ctx, svc, stdout) })
	}
	if o.pump != "" && o.xlsxPath != "" {
		steps = append(steps, func() error { return writeCurves(ctx, svc, o.pump, o.xlsxPath, stdout) })
	}
	// -pump alone resolves at the given flow; with -xlsx only when -flow is set.
	if o.pump != "" && (o.hasFlow || o.xlsxPath == "") {
		steps = append(steps, func() error { return resolve(ctx, svc, o, lang, stdout) })
	}
	if o.batchPath != "" {
		steps = append(steps, func() error { return batch(ctx, svc, o.batchPath, lang, stdout) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return report(stderr, lang, o.pump, err)
		}
	}
	return exitOK
}

func report(stderr io.Writer, lang messages.Lang, name string, err error) int {
	if re, ok := operating.AsRejection(err); ok {
		fmt.Fprintln(stderr, "pumpcalc:", messages.Rejection(lang, re.Reason))
		return exitRejected
	}
	if errors.Is(err, pump.ErrNotFound) {
		fmt.Fprintln(stderr, "pumpcalc:", messages.NotFound(lang, name))
		return exitNotFound
	}
	fmt.Fprintln(stderr, "pumpcalc:", err)
	return exitFailure
}

func dumpCatalog(ctx context.Context, svc *app.Service, w io.Writer) error {
	specs, err := svc.Pumps(ctx)
	if err != nil {
		return err
	}
	return catalog.Encode(w, specs)
}

func listPumps(ctx context.Context, svc *app.Service, w io.Writer) error {
	specs, err := svc.Pumps(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PUMP\tPOWER (CV)\tRPM\tMAX FLOW (m³/h)\tBEP (m³/h)\tEFF (%)")
	for _, s := range specs {
		fmt.Fprintf(tw, "%s\t%.1f\t%.0f\t%.1f\t%.1f\t%.1f\n",
			s.Name, s.RatedPowerCV, s.RatedRPM, s.Curves.MaxFlow, s.Curves.BEPFlow, s.RatedEfficiencyPercent)
	}
	return tw.Flush()
}

func writeCurves(ctx context.Context, svc *app.Service, name, path string, w io.Writer) error {
	spec, set, err := svc.Curves(ctx, name)
	if err != nil {
		return err
	}
	body, err := export.CurvesXLSX(spec, set)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "curves of %s written to %s (%d samples)\n", name, path, set.Len())
	return nil
}

func resolve(ctx context.Context, svc *app.Service, o options, lang messages.Lang, w io.Writer) error {
	q := operating.Query{Pump: o.pump, Flow: o.flow}
	if o.hasHead {
		q.Head = operating.HeadOf(o.head)
	}
	res, err := svc.Resolve(ctx, q)
	if err != nil {
		return err
	}
	printResult(w, lang, res)

	if o.pdfPath == "" {
		return nil
	}
	spec, err := svc.Pump(ctx, o.pump)
	if err != nil {
		return err
	}
	body, err := export.OperatingPointPDF(lang, spec, res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.pdfPath, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.pdfPath, err)
	}
	fmt.Fprintf(w, "report written to %s\n", o.pdfPath)
	return nil
}

func printResult(w io.Writer, lang messages.Lang, res operating.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "pump\t%s\n", res.Pump)
	fmt.Fprintf(tw, "flow\t%.2f m³/h\n", res.Flow)
	if res.UserHead != nil {
		fmt.Fprintf(tw, "head\t%.2f m (curve %.2f m)\n", *res.UserHead, res.ResolvedHead)
	} else {
		fmt.Fprintf(tw, "head\t%.2f m\n", res.ResolvedHead)
	}
	fmt.Fprintf(tw, "power\t%.2f CV\n", res.Power)
	fmt.Fprintf(tw, "efficiency\t%.1f %%\n", res.Efficiency)
	fmt.Fprintf(tw, "npsh\t%.2f m\n", res.NPSH)
	fmt.Fprintf(tw, "status\t%s\n", messages.Status(lang, res.Verdict.Status))
	_ = tw.Flush()
	for _, line := range messages.Verdict(lang, res.Verdict) {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

func batch(ctx context.Context, svc *app.Service, path string, lang messages.Lang, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := export.ReadQueriesXLSX(f)
	if err != nil {
		return err
	}

	queries := make([]operating.Query, 0, len(rows))
	lines := make([]int, 0, len(rows))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tPUMP\tFLOW\tHEAD\tPOWER\tEFF (%)\tNPSH\tSTATUS\tNOTES")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(tw, "%d\t\t\t\t\t\t\t-\t%v\n", row.Line, row.Err)
			continue
		}
		queries = append(queries, row.Query)
		lines = append(lines, row.Line)
	}

	items, err := svc.ResolveBatch(ctx, queries)
	if err != nil {
		return err
	}
	for i, item := range items {
		if item.Err != nil {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t\t\t\t\t-\t%s\n", lines[i], item.Query.Pump, item.Query.Flow, batchNote(lang, item))
			continue
		}
		res := item.Result
		notes := ""
		if res.Verdict.Status != operating.StatusOK {
			notes = fmt.Sprint(res.Verdict.Codes())
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.1f\t%.2f\t%s\t%s\n",
			lines[i], res.Pump, res.Flow, res.ResolvedHead, res.Power, res.Efficiency, res.NPSH,
			messages.Status(lang, res.Verdict.Status), notes)
	}
	return tw.Flush()
}

func batchNote(lang messages.Lang, item app.BatchItem) string {
	if re, ok := operating.AsRejection(item.Err); ok {
		return messages.Rejection(lang, re.Reason)
	}
	if errors.Is(item.Err, pump.ErrNotFound) {
		return messages.NotFound(lang, item.Query.Pump)
	}
	return item.Err.Error()
}
