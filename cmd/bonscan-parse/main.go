// Command bonscan-parse runs the receipt parsing pipeline over one
// upstream OCR payload and emits the downstream JSON document
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"bonscan/internal/core/ocr"
	"bonscan/internal/platform/config"
	perr "bonscan/internal/platform/errors"
	"bonscan/internal/platform/logger"
	"bonscan/internal/services/parse/domain"
	"bonscan/internal/services/parse/service"
)

func main() {
	fs := ff.NewFlagSet("bonscan-parse")
	var (
		inPath    = fs.StringLong("in", "-", "OCR payload JSON file, '-' for stdin")
		outPath   = fs.StringLong("out", "-", "output file, '-' for stdout")
		forced    = fs.StringLong("locale", "", "skip locale resolution and use this code, e.g. de_DE")
		configDir = fs.StringLong("config-dir", "", "load locale configs from this directory instead of the embedded set")
		pretty    = fs.BoolLong("pretty", "indent the output JSON")
		withText  = fs.BoolLong("with-text", "copy the raw OCR text into the output")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("BONSCAN")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.FromEnv())
	log := logger.Named("cmd")

	cfg := service.FromConfig(config.New())
	if *forced != "" {
		cfg.ForcedLocale = *forced
	}
	if *configDir != "" {
		cfg.ConfigDir = *configDir
	}

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load locale configs")
	}

	in, err := readPayload(*inPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *inPath).Msg("read OCR payload")
	}

	res, err := svc.Parse(context.Background(), in)
	if err != nil && !perr.IsCode(err, perr.ErrorCodeChecksum) {
		log.Fatal().Err(err).Msg("parse receipt")
	}
	if err != nil {
		// checksum failures still produce a usable document; the exit
		// code below tells scripted callers to quarantine it
		log.Warn().Err(err).Msg("checksum failed")
	}

	text := ""
	if *withText {
		text = in.FullText
	}
	if werr := writeDTO(*outPath, domain.ToDTO(res, text), *pretty); werr != nil {
		log.Fatal().Err(werr).Str("path", *outPath).Msg("write output")
	}

	if err != nil {
		os.Exit(2)
	}
}

func readPayload(path string) (ocr.Result, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return ocr.Result{}, err
		}
		defer f.Close()
		r = f
	}
	var in ocr.Result
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return ocr.Result{}, perr.Wrapf(err, perr.ErrorCodeJSON, "decode OCR payload")
	}
	return in, nil
}

func writeDTO(path string, dto domain.ReceiptDTO, pretty bool) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(dto)
}
