package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/uniondec/internal/catalog"
	"github.com/danmuck/uniondec/internal/logging"
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "uniondec: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("uniondec", flag.ContinueOnError)
	configPath := fs.String("config", "", "runtime config (toml)")
	catalogPath := fs.String("catalog", "", "catalog path (.toml|.yaml), overrides config")
	input := fs.String("in", "-", "frame stream to decode, - for stdin")
	serve := fs.Bool("serve", false, "run the HTTP decode service")
	addr := fs.String("addr", "", "listen address, overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultRuntimeConfig()
	if *configPath != "" {
		loaded, err := loadRuntimeConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyEnvOverrides(&cfg)
	if *catalogPath != "" {
		cfg.Catalog = *catalogPath
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if cfg.levelSet {
		zerolog.SetGlobalLevel(cfg.LogLevel)
	}

	reg, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}

	if *serve {
		return server.New(server.Config{
			ID:          "uniondec",
			Addr:        cfg.ListenAddr,
			CORSOrigins: cfg.CORSOrigins,
			Limits:      cfg.Limits,
			AuthToken:   cfg.AuthToken,
		}, reg).Serve()
	}

	in := stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return decodeStream(in, stdout, reg, cfg)
}

// decodeStream decodes back-to-back frames until EOF and writes one JSON
// record per line. It stops at the first frame that fails.
func decodeStream(in io.Reader, out io.Writer, reg *catalog.Registry, cfg runtimeConfig) error {
	br := bufio.NewReader(in)
	enc := json.NewEncoder(out)
	for n := 0; ; n++ {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Int("frames", n).Msg("decode stream done")
				return nil
			}
			return err
		}
		msg, err := protocol.Decode(br, cfg.Limits)
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		rec, err := reg.Decode(msg)
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
}
