// Garnet compiler CLI - lowers YAML AST documents to bytecode units
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/garnet/compiler"
	"github.com/chazu/garnet/manifest"
	"github.com/chazu/garnet/server"
	"github.com/chazu/garnet/vm/dist"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("garnet.cli")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	mode := flag.String("mode", "", "Container kind: script, eval, or snippet (default from garnet.toml)")
	dump := flag.Bool("dump", false, "Print the s-expression dump of each document")
	listing := flag.Bool("S", false, "Print the disassembly of each compiled unit")
	output := flag.String("o", "", "Write the compiled unit as CBOR to this path (one input file)")
	configDir := flag.String("config", ".", "Directory to search upward for garnet.toml")
	serveMode := flag.Bool("serve", false, "Start the compile server (gRPC + Connect HTTP/JSON)")
	addr := flag.String("addr", "", "Compile server address (default from garnet.toml)")
	noCache := flag.Bool("no-cache", false, "Disable the persistent unit cache")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: garnetc [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles YAML AST documents. Without files, compiles the source dirs from garnet.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  garnetc -S main.yaml              # Print disassembly\n")
		fmt.Fprintf(os.Stderr, "  garnetc -mode eval -dump a.yaml   # Dump as an evaluation unit\n")
		fmt.Fprintf(os.Stderr, "  garnetc -o main.cbor main.yaml    # Write the compiled unit\n")
		fmt.Fprintf(os.Stderr, "\nServers:\n")
		fmt.Fprintf(os.Stderr, "  garnetc -serve                    # Compile server on :4567\n")
		fmt.Fprintf(os.Stderr, "  garnetc -serve -addr :8080        # Compile server on :8080\n")
		fmt.Fprintf(os.Stderr, "  garnetc -lsp                      # Language server on stdio\n")
	}
	flag.Parse()

	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default()
	}

	verbosity := m.Log.Verbosity
	if *verbose && verbosity < 2 {
		verbosity = 2
	}
	if *lspMode && m.LogFile() == "" {
		// stdout carries the protocol; keep stderr quiet too.
		verbosity = 0
	}
	var logPath *string
	if f := m.LogFile(); f != "" {
		logPath = &f
	}
	commonlog.Configure(verbosity, logPath)

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *serveMode {
		if *addr == "" {
			*addr = m.Server.Addr
		}
		if err := serve(m, *addr, *noCache); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	kind := m.ContainerKind()
	if *mode != "" {
		k, ok := compiler.ParseContainerKind(*mode)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: -mode must be script, eval, or snippet, not %q\n", *mode)
			os.Exit(2)
		}
		kind = k
	}

	files := flag.Args()
	if len(files) == 0 {
		if files, err = m.SourceFiles(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			flag.Usage()
			os.Exit(2)
		}
	}

	opts := options{
		kind:        kind,
		defaultFile: m.Compiler.File,
		dump:        *dump,
		listing:     *listing || (!*dump && *output == ""),
		output:      *output,
	}
	if err := compileFiles(os.Stdout, files, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the compile server until it fails.
func serve(m *manifest.Manifest, addr string, noCache bool) error {
	var opts []server.ServerOption
	if !noCache && m.Cache.Enabled {
		store, err := dist.OpenStore(m.CachePath())
		if err != nil {
			return err
		}
		defer store.Close()
		log.Infof("unit cache at %s", store.Path())
		opts = append(opts, server.WithStore(store))
	}

	srv := server.New(opts...)
	defer srv.Stop()
	return srv.ListenAndServe(addr)
}
