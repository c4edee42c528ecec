package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/sa7bnb/repeater/pkg/repeater"
	"github.com/sa7bnb/repeater/pkg/repeater/audio"
	"github.com/sa7bnb/repeater/pkg/repeater/config"
	"github.com/sa7bnb/repeater/pkg/repeater/device"
	"github.com/sa7bnb/repeater/pkg/repeater/device/cm108"
	"github.com/sa7bnb/repeater/pkg/repeater/ident"
	"github.com/sa7bnb/repeater/pkg/repeater/web"
	"github.com/sa7bnb/repeater/pkg/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "repeater.yaml", "YAML config file")
	flag.Parse()

	cfg := config.Default()
	if contents, err := os.ReadFile(*configFile); err == nil {
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			log.Fatal().Err(err).Msg("error unmarshaling yaml file")
		}
	} else {
		log.Warn().Str("file", *configFile).Msg("config file not found, using defaults")
	}

	// The audio path is the reason this process exists; failure here is fatal.
	audioEngine, err := audio.NewEngine(audio.StreamConfig{
		SampleRate:     cfg.SampleRate,
		ChunkSize:      cfg.ChunkSize,
		DeviceKeywords: cfg.AudioDeviceKeywords,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio")
	}
	defer audioEngine.Close()

	// Keying hardware is not: without it the repeater runs degraded, with
	// carrier permanently quiet and keying as a no-op.
	var keyer device.Keyer
	candidates := make([]cm108.Candidate, 0, len(cfg.Keyer.Candidates))
	for _, cand := range cfg.Keyer.Candidates {
		candidates = append(candidates, cm108.Candidate{Vendor: cand.Vendor, Product: cand.Product})
	}
	keyer, err = cm108.Connect(candidates, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("keying device unavailable, running degraded")
		keyer = device.Nop{}
	}
	defer keyer.Close()

	announcer := ident.NewAnnouncer(ident.Config{
		ClipPath:    cfg.ID.Clip,
		Interval:    cfg.ID.Interval,
		Enabled:     cfg.ID.Enabled,
		SampleRate:  cfg.SampleRate,
		ChunkSize:   cfg.ChunkSize,
		MaxDuration: cfg.ID.MaxClipDuration,
	}, log.Logger)

	var writeAPI api.WriteAPI = &util.MockWriteAPI{}
	if cfg.InfluxDB.Host != "" {
		writeAPI = influxdb2.NewClient(cfg.InfluxDB.Host, "").WriteAPI(cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
	}

	rep, err := repeater.New(keyer, audioEngine, announcer,
		repeater.Options{
			SampleRate:           cfg.SampleRate,
			ChunkSize:            cfg.ChunkSize,
			PreRollChunks:        cfg.PreRollChunks,
			CarrierPollInterval:  cfg.CarrierPollInterval,
			KeySettleDelay:       cfg.KeySettleDelay,
			PlaybackGuardDelay:   cfg.PlaybackGuardDelay,
			InputVolume:          cfg.InputVolume,
			OutputVolume:         cfg.OutputVolume,
			PausePrerollDuringTX: cfg.PausePrerollDuringTX,
		},
		repeater.WithInfluxDB(writeAPI),
		repeater.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create repeater")
	}

	webServer := web.NewServer(cfg.Web.Port, rep, log.Logger)

	eg, ctx := errgroup.WithContext(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}
		return rep.Stop()
	})

	eg.Go(func() error {
		return rep.Start(ctx)
	})

	eg.Go(func() error {
		return webServer.Run(ctx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}
