package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/jbpratt/quotes/internal/config"
	"github.com/jbpratt/quotes/internal/quiz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	importQuotes := flag.Bool("import", false, "copy the configured quotes into the sqlite store and exit")
	lvl := zap.LevelFlag("v", zapcore.WarnLevel, "set the log level")

	flag.Parse()

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(*lvl),
	))

	defer func() {
		_ = logger.Sync()
	}()

	sugar := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := cfg.QuoteSource(ctx, sugar)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := closeSource(); err != nil {
			log.Println(err)
		}
	}()

	if *importQuotes {
		if err = importInto(ctx, sugar, source, cfg.Source.DBPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err = play(ctx, sugar, os.Stdin, os.Stdout, source, cfg.SessionOptions()...); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

func importInto(ctx context.Context, logger *zap.SugaredLogger, source quiz.Source, path string) error {
	records := quiz.Load(ctx, logger, source)
	if len(records) == 0 {
		return fmt.Errorf("no quotes to import")
	}

	store, err := quiz.OpenSQLiteSource(ctx, logger, path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(ctx, records)
	if err != nil {
		return err
	}

	fmt.Printf("imported %s new quotes into %s\n", humanize.Comma(int64(n)), path)
	return nil
}
