package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/uniondec/internal/catalog"
	"github.com/danmuck/uniondec/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	format := fs.String("format", "toml", "catalog format: toml|yaml")
	output := fs.String("output", "", "output path for the catalog template (defaults to catalog.<format>)")
	validate := fs.Bool("validate", false, "validate an existing catalog file")
	input := fs.String("input", "", "catalog path for validation (defaults to catalog.<format>)")
	force := fs.Bool("force", false, "overwrite existing catalog file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := catalog.Template(catalog.Format(*format)); err != nil {
		return err
	}

	if *validate {
		path := *input
		if path == "" {
			path = "catalog." + *format
		}
		reg, err := catalog.Load(path)
		if err != nil {
			return err
		}
		log.Info().
			Str("path", path).
			Strs("unions", reg.Unions()).
			Strs("records", reg.Records()).
			Msg("validated catalog")
		return nil
	}

	target := *output
	if target == "" {
		target = "catalog." + *format
	}
	if err := catalog.WriteTemplate(target, catalog.Format(*format), *force); err != nil {
		return err
	}
	log.Info().Str("format", *format).Str("path", target).Msg("wrote catalog template")
	return nil
}
