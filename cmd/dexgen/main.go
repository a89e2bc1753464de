// Dexgen CLI - builds dex images from a TOML class manifest.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("dexgen")

func main() {
	configPath := flag.String("c", "dexgen.toml", "Path to the build manifest")
	output := flag.String("o", "", "Output path (overrides the manifest)")
	disasm := flag.Bool("disasm", false, "Print a disassembly of every generated method")
	reportPath := flag.String("report", "", "Write a CBOR build report to this path")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dexgen [options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds a dex image from the classes described in a TOML manifest.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dexgen                          # Build dexgen.toml in the current directory\n")
		fmt.Fprintf(os.Stderr, "  dexgen -c app.toml -o app.dex   # Explicit manifest and output\n")
		fmt.Fprintf(os.Stderr, "  dexgen -disasm                  # Also print method listings\n")
		fmt.Fprintf(os.Stderr, "  dexgen -report build.cbor       # Also write a machine-readable report\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Output = *output
	}

	log.Infof("building %d classes from %s", len(cfg.Classes), *configPath)
	result, err := Generate(cfg, *disasm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		for _, m := range result.Methods {
			fmt.Printf("; === %s.%s (%s) ===\n", m.Class, m.Name, m.Shorty)
			fmt.Printf("; registers=%d outs=%d\n", m.Registers, m.Outs)
			fmt.Print(m.Listing)
			fmt.Println()
		}
	}

	if err := os.WriteFile(cfg.Output, result.Image, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", cfg.Output, err)
		os.Exit(1)
	}
	log.Infof("wrote %s (%d bytes, %d methods)", cfg.Output, len(result.Image), len(result.Methods))
	if *verbose {
		fmt.Printf("Wrote %s (%d bytes)\n", cfg.Output, len(result.Image))
	}

	if *reportPath != "" {
		report, err := MarshalReport(NewBuildReport(cfg, result))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*reportPath, report, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *reportPath, err)
			os.Exit(1)
		}
		log.Infof("wrote report %s", *reportPath)
	}
}
