package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/garnet/compiler"
	"github.com/chazu/garnet/compiler/astfile"
	"github.com/chazu/garnet/vm"
	"github.com/chazu/garnet/vm/dist"
)

type options struct {
	kind        compiler.ContainerKind
	defaultFile string
	dump        bool
	listing     bool
	output      string
}

// compileFiles compiles each document in order. Evaluation units share one
// session frame, so locals one file creates are visible to the next.
func compileFiles(w io.Writer, files []string, opts options) error {
	if opts.output != "" && len(files) != 1 {
		return fmt.Errorf("-o needs exactly one input file, got %d", len(files))
	}

	frame := compiler.NewEvalRuntimeScope(nil)
	for _, path := range files {
		u, err := astfile.DecodeFile(path)
		if err != nil {
			return err
		}
		u.Kind = opts.kind
		if u.File == "" {
			u.File = opts.defaultFile
		}

		res, err := compiler.CompileEval(u, frame)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, name := range res.EvalLocals {
			frame.DefineEvalLocal(name)
		}
		log.Debugf("compiled %s as %s (%s)", path, res.Code.Name, u.Kind)

		if opts.dump {
			fmt.Fprintln(w, compiler.Dump(u).String())
		}
		if opts.listing {
			writeListing(w, res.Code)
		}
		if opts.output != "" {
			data, err := dist.MarshalCode(res.Code)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", opts.output, err)
			}
			log.Infof("wrote %s (%d bytes)", opts.output, len(data))
		}
	}
	return nil
}

// writeListing prints a unit and every nested unit, outermost first.
func writeListing(w io.Writer, code *vm.CompiledCode) {
	code.Walk(func(c *vm.CompiledCode) {
		fmt.Fprintf(w, "== %s (arity %d, locals %d)\n", c.Name, c.Arity, c.LocalCount)
		for _, ins := range c.Instructions() {
			fmt.Fprintf(w, "  %s\n", ins)
		}
	})
}
