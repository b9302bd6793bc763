package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jbpratt/quotes/internal/chat"
	"github.com/jbpratt/quotes/internal/config"
	"github.com/jbpratt/quotes/internal/quizbot"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dev := flag.Bool("dev", false, "use chat2")
	lvl := zap.LevelFlag("v", zapcore.InfoLevel, "set the log level")

	flag.Parse()

	encoderCfg := zap.NewProductionEncoderConfig()
	atom := zap.NewAtomicLevelAt(*lvl)
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))

	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if *dev {
		cfg.Chat.URL = "wss://chat2.strims.gg/ws"
	}
	if err = cfg.RequireChat(); err != nil {
		logger.Fatal(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-c
		logger.Sugar().Infow("received signal, shutting down", "signal", s)
		cancel()
	}()

	sugar := logger.Sugar()

	source, closeSource, err := cfg.QuoteSource(ctx, sugar)
	if err != nil {
		logger.Fatal(err.Error())
	}
	defer func() {
		if err := closeSource(); err != nil {
			log.Println(err)
		}
	}()

	client, err := chat.Dial(ctx, sugar, chat.WebsocketDialer, cfg.Chat.URL, cfg.Chat.Token,
		chat.WithReconnect(cfg.Chat.Reconnect),
		chat.WithIgnoredKinds("NAMES", "JOIN", "QUIT", "VIEWERSTATE", "PRIVMSGSENT"),
	)
	if err != nil {
		logger.Fatal(err.Error())
	}

	bot := quizbot.New(ctx, sugar, client, source, cfg.SessionOptions()...)
	bot.Register(client)

	if err = client.Run(ctx); err != nil {
		sugar.Errorw("chat client stopped", "err", err)
	}
}
