package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/adapter/transport"
	"github.com/seu-repo/armvoice/internal/simulator"
	"github.com/seu-repo/armvoice/pkg/config"
)

var (
	configPath = flag.String("config", "", "Path to config file (defaults to ./configs/config.yaml)")
	deviceID   = flag.String("id", "", "Device ID to listen as (overrides device.id)")
	kind       = flag.String("transport", "", "Transport kind: nats, rabbitmq or mqtt (overrides transport.kind)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *deviceID != "" {
		cfg.Device.ID = *deviceID
	}
	if *kind != "" {
		cfg.Transport.Kind = *kind
	}

	// The simulator is the arm, so it connects under the device's own identity.
	cfg.Transport.MQTT.ClientID = cfg.Device.ID

	tr, err := transport.New(cfg, nil, logger)
	if err != nil {
		logger.Fatal("Failed to create transport", zap.Error(err))
	}
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = tr.Connect(ctx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect transport", zap.Error(err))
	}

	arm := simulator.NewArm(simulator.DefaultLimits)
	// MQTT brokers replay the retained config on subscribe.
	handler := simulator.NewHandler(arm, cfg.Transport.Kind == "mqtt", logger)
	if err := tr.Subscribe(cfg.Device.ID, handler.Handle); err != nil {
		logger.Fatal("Failed to subscribe", zap.Error(err))
	}

	pos := arm.Position()
	logger.Info("Arm simulator started",
		zap.String("device_id", cfg.Device.ID),
		zap.String("transport", cfg.Transport.Kind),
		zap.Int("elbow", pos.Elbow),
		zap.Int("shoulder", pos.Shoulder),
		zap.Int("base", pos.Base),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down simulator")
}
