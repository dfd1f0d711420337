package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"example.com/vgmgate/internal/common"
	"example.com/vgmgate/internal/manifest"
	"example.com/vgmgate/internal/report"
	"example.com/vgmgate/internal/rules"
	"example.com/vgmgate/internal/vgm"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `vgmctl %s (built %s)

Usage:
  vgmctl scan      --in FILE [--profile NAME] [--metrics] [--progress]
  vgmctl validate  --in FILE [--profile NAME] [--rules PACK.json] [--out DIAG.ndjson]
                   [--acceptance OUT.json] [--concurrency N] [--metrics] [--progress]
  vgmctl gd3       --in FILE
  vgmctl roundtrip --in FILE
  vgmctl report    --acceptance IN.json --pdf OUT.pdf [--title TEXT] [--qr OUT.png]
  vgmctl manifest  --inputs FILE[,FILE...] --out OUT.json
`, version, buildDate)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "scan":
		cmdScan(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	case "gd3":
		cmdGD3(os.Args[2:])
	case "roundtrip":
		cmdRoundTrip(os.Args[2:])
	case "report":
		cmdReport(os.Args[2:])
	case "manifest":
		cmdManifest(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("vgmctl %s (built %s)\n", version, buildDate)
	default:
		usage()
	}
}

// loadFile reads a file and strips the gzip transport if present, feeding the
// metrics counters along the way.
func loadFile(path string, m *common.Metrics) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plain, err := vgm.DecompressTransport(data)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetTotalBytes(int64(len(plain)))
		m.AddBytes(int64(len(plain)))
	}
	return plain, nil
}

func decodeWithMetrics(plain []byte, profile string, m *common.Metrics) (*vgm.File, error) {
	f, err := vgm.DecodeFile(plain, vgm.NewTracker(rules.LimitsForProfile(profile)))
	if err != nil {
		return nil, err
	}
	if m != nil {
		for _, cmd := range f.Commands {
			m.AddCommand()
			if _, ok := cmd.(vgm.DataBlock); ok {
				m.AddDataBlock(commandSize(cmd))
			}
		}
	}
	return f, nil
}

func commandSize(cmd vgm.Command) int64 {
	b, err := vgm.EncodeCommand(cmd)
	if err != nil {
		return 0
	}
	return int64(len(b))
}

func versionString(bcd uint32) string {
	dec := vgm.BCDToDecimal(bcd)
	return fmt.Sprintf("%d.%02d", dec/100, dec%100)
}

func printMetricsLine(m *common.Metrics) {
	snap := m.Snapshot()
	fmt.Printf("processed %s in %s (%s/s), %d commands, %d data blocks (%s)\n",
		common.FormatBytes(snap.Bytes), snap.Duration.Round(time.Millisecond),
		common.FormatBytes(int64(snap.ThroughputBytesPerSecond())),
		snap.Commands, snap.DataBlocks, common.FormatBytes(snap.DataBlockBytes))
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	in := fs.String("in", "", "input .vgm or .vgz file")
	profile := fs.String("profile", "default", "limit profile (default, strict, permissive)")
	withMetrics := fs.Bool("metrics", false, "print throughput metrics")
	progress := fs.Bool("progress", false, "print a live progress line")
	fs.Parse(args)
	if *in == "" {
		common.Fatalf("scan: --in is required")
	}

	m := common.NewMetrics()
	m.Start()
	var stopProgress func()
	if *progress {
		stopProgress = common.StartProgressPrinter(os.Stderr, m, time.Second)
	}
	plain, err := loadFile(*in, m)
	if err != nil {
		common.Fatalf("scan %s: %v", *in, err)
	}
	f, err := decodeWithMetrics(plain, *profile, m)
	if err != nil {
		common.Fatalf("scan %s: %v", *in, err)
	}
	m.Stop()
	if stopProgress != nil {
		stopProgress()
	}

	h := f.Header
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "file\t%s\n", *in)
	fmt.Fprintf(w, "size\t%s\n", common.FormatBytes(int64(len(plain))))
	fmt.Fprintf(w, "sha256\t%s\n", common.Sha256OfBytes(plain))
	fmt.Fprintf(w, "version\t%s\n", versionString(h.Version))
	fmt.Fprintf(w, "total samples\t%d\n", h.TotalSamples)
	fmt.Fprintf(w, "loop samples\t%d\n", h.LoopSamples)
	fmt.Fprintf(w, "rate\t%d\n", h.Rate)
	fmt.Fprintf(w, "commands\t%d\n", len(f.Commands))
	clocks := []struct {
		name  string
		value uint32
	}{
		{"SN76489", h.SN76489Clock},
		{"YM2413", h.YM2413Clock},
		{"YM2612", h.YM2612Clock},
		{"YM2151", h.YM2151Clock},
		{"YM2203", h.YM2203Clock},
		{"YM2608", h.YM2608Clock},
		{"YM2610", h.YM2610Clock},
		{"YM3812", h.YM3812Clock},
		{"AY8910", h.AY8910Clock},
		{"OKIM6258", h.OKIM6258Clock},
		{"OKIM6295", h.OKIM6295Clock},
		{"QSound", h.QSoundClock},
	}
	for _, c := range clocks {
		if c.value != 0 {
			fmt.Fprintf(w, "clock %s\t%d\n", c.name, c.value&0x3FFFFFFF)
		}
	}
	if f.GD3 != nil {
		fmt.Fprintf(w, "track\t%s\n", f.GD3.TrackNameEN)
		fmt.Fprintf(w, "game\t%s\n", f.GD3.GameNameEN)
	}
	w.Flush()
	if *withMetrics {
		printMetricsLine(m)
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "input .vgm or .vgz file")
	profile := fs.String("profile", "default", "limit profile (default, strict, permissive)")
	rulePath := fs.String("rules", "", "rule pack JSON (builtin pack when empty)")
	out := fs.String("out", "diagnostics.ndjson", "diagnostics NDJSON output path")
	acceptance := fs.String("acceptance", "", "acceptance report JSON output path")
	includeSamples := fs.Bool("diag-include-samples", true, "include sample offsets in diagnostics")
	concurrency := fs.Int("concurrency", runtime.NumCPU(), "rule evaluation concurrency")
	withMetrics := fs.Bool("metrics", false, "print throughput metrics")
	progress := fs.Bool("progress", false, "print a live progress line")
	fs.Parse(args)
	if *in == "" {
		common.Fatalf("validate: --in is required")
	}

	rp, err := rules.ResolveRulePack(*rulePath, *profile)
	if err != nil {
		common.Fatalf("validate: %v", err)
	}
	engine := rules.NewEngine(rp)
	engine.RegisterBuiltins()
	engine.SetConcurrency(*concurrency)
	engine.SetConfigValue("diag.include_samples", *includeSamples)

	m := common.NewMetrics()
	m.Start()
	var stopProgress func()
	if *progress {
		stopProgress = common.StartProgressPrinter(os.Stderr, m, time.Second)
	}
	ctx := &rules.Context{InputFile: *in, Profile: *profile, Metrics: m}
	diags, err := engine.Eval(ctx)
	m.Stop()
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		common.Fatalf("validate: %v", err)
	}
	if err := engine.WriteDiagnosticsNDJSON(*out); err != nil {
		common.Fatalf("write %s: %v", *out, err)
	}
	rep := engine.MakeAcceptance()
	if *acceptance != "" {
		if err := report.SaveAcceptanceJSON(rep, *acceptance); err != nil {
			common.Fatalf("write %s: %v", *acceptance, err)
		}
	}
	fmt.Printf("PASS=%v, errors=%d, warnings=%d, diagnostics=%d\n",
		rep.Summary.Pass, rep.Summary.Errors, rep.Summary.Warnings, len(diags))
	if *withMetrics {
		printMetricsLine(m)
	}
	if !rep.Summary.Pass {
		os.Exit(1)
	}
}

func cmdGD3(args []string) {
	fs := flag.NewFlagSet("gd3", flag.ExitOnError)
	in := fs.String("in", "", "input .vgm or .vgz file")
	fs.Parse(args)
	if *in == "" {
		common.Fatalf("gd3: --in is required")
	}
	plain, err := loadFile(*in, nil)
	if err != nil {
		common.Fatalf("gd3 %s: %v", *in, err)
	}
	f, err := decodeWithMetrics(plain, "default", nil)
	if err != nil {
		common.Fatalf("gd3 %s: %v", *in, err)
	}
	if f.GD3 == nil {
		common.Fatalf("gd3 %s: no GD3 tag present", *in)
	}
	t := f.GD3
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "track (en)\t%s\n", t.TrackNameEN)
	fmt.Fprintf(w, "track (jp)\t%s\n", t.TrackNameJP)
	fmt.Fprintf(w, "game (en)\t%s\n", t.GameNameEN)
	fmt.Fprintf(w, "game (jp)\t%s\n", t.GameNameJP)
	fmt.Fprintf(w, "system (en)\t%s\n", t.SystemNameEN)
	fmt.Fprintf(w, "system (jp)\t%s\n", t.SystemNameJP)
	fmt.Fprintf(w, "author (en)\t%s\n", t.AuthorEN)
	fmt.Fprintf(w, "author (jp)\t%s\n", t.AuthorJP)
	fmt.Fprintf(w, "release\t%s\n", t.ReleaseDate)
	fmt.Fprintf(w, "creator\t%s\n", t.Creator)
	fmt.Fprintf(w, "notes\t%s\n", t.Notes)
	w.Flush()
}

func cmdRoundTrip(args []string) {
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	in := fs.String("in", "", "input .vgm or .vgz file")
	fs.Parse(args)
	if *in == "" {
		common.Fatalf("roundtrip: --in is required")
	}
	plain, err := loadFile(*in, nil)
	if err != nil {
		common.Fatalf("roundtrip %s: %v", *in, err)
	}
	f, err := decodeWithMetrics(plain, "default", nil)
	if err != nil {
		common.Fatalf("roundtrip %s: %v", *in, err)
	}
	encoded, err := f.Encode()
	if err != nil {
		common.Fatalf("roundtrip %s: encode: %v", *in, err)
	}
	inSum := common.Sha256OfBytes(plain)
	outSum := common.Sha256OfBytes(encoded)
	fmt.Printf("input  %s (%s)\n", inSum, common.FormatBytes(int64(len(plain))))
	fmt.Printf("output %s (%s)\n", outSum, common.FormatBytes(int64(len(encoded))))
	if inSum == outSum {
		fmt.Println("round trip: identical")
		return
	}
	limit := len(plain)
	if len(encoded) < limit {
		limit = len(encoded)
	}
	for i := 0; i < limit; i++ {
		if plain[i] != encoded[i] {
			fmt.Printf("round trip: first difference at offset 0x%X (0x%02X -> 0x%02X)\n",
				i, plain[i], encoded[i])
			os.Exit(1)
		}
	}
	fmt.Printf("round trip: length differs (%d -> %d bytes)\n", len(plain), len(encoded))
	os.Exit(1)
}

func cmdReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	acceptance := fs.String("acceptance", "", "acceptance report JSON input")
	pdfOut := fs.String("pdf", "", "PDF output path")
	title := fs.String("title", "", "PDF title override")
	qrOut := fs.String("qr", "", "QR stamp PNG output path")
	qrSize := fs.Int("qr-size", 256, "QR stamp size in pixels")
	fs.Parse(args)
	if *acceptance == "" || *pdfOut == "" {
		common.Fatalf("report: --acceptance and --pdf are required")
	}
	rep, err := report.LoadAcceptanceJSON(*acceptance)
	if err != nil {
		common.Fatalf("report: load %s: %v", *acceptance, err)
	}
	if err := report.SaveAcceptancePDF(rep, *pdfOut, report.PDFOptions{Title: *title}); err != nil {
		common.Fatalf("report: write %s: %v", *pdfOut, err)
	}
	fmt.Printf("wrote %s\n", *pdfOut)
	if *qrOut != "" {
		hash, _, err := common.Sha256OfFile(*acceptance)
		if err != nil {
			common.Fatalf("report: hash %s: %v", *acceptance, err)
		}
		png, err := report.FileHashToQR(hash, *qrSize)
		if err != nil {
			common.Fatalf("report: qr: %v", err)
		}
		if err := os.WriteFile(*qrOut, png, 0644); err != nil {
			common.Fatalf("report: write %s: %v", *qrOut, err)
		}
		fmt.Printf("wrote %s\n", *qrOut)
	}
}

func cmdManifest(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma separated input files")
	out := fs.String("out", "manifest.json", "manifest output path")
	fs.Parse(args)
	if *inputs == "" {
		common.Fatalf("manifest: --inputs is required")
	}
	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		common.Fatalf("manifest: no input files")
	}
	m, err := manifest.Build(paths)
	if err != nil {
		common.Fatalf("manifest: %v", err)
	}
	if err := manifest.Save(m, *out); err != nil {
		common.Fatalf("manifest: write %s: %v", *out, err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "PATH\tTYPE\tSIZE\tSHA256\n")
	for _, item := range m.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			item.Path, item.Type, common.FormatBytes(item.Size), item.Sha256)
	}
	w.Flush()
	fmt.Printf("wrote %s\n", *out)
}
