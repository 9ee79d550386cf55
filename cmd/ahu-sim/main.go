// Command ahu-sim simulates an air handling unit and publishes its telemetry to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/ahu-sim/internal/config"
	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
	"github.com/sweeney/ahu-sim/internal/sim"
	"github.com/sweeney/ahu-sim/internal/status"
	"github.com/sweeney/ahu-sim/internal/telemetry"
	"github.com/sweeney/ahu-sim/internal/weather"
	"github.com/sweeney/ahu-sim/internal/web"
)

func main() {
	mode := flag.String("mode", "sim", `Operation mode: "live" (real weather) or "sim" (simulated)`)
	cadence := flag.Duration("cadence", 2*time.Second, "Telemetry publish interval")
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := run(*mode, *cadence, *configPath, *httpAddr); err != nil {
		logger.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(mode string, cadence time.Duration, configPath, httpAddr string) error {
	if mode != "live" && mode != "sim" {
		return fmt.Errorf(`unknown mode %q, want "live" or "sim"`, mode)
	}
	if cadence <= 0 {
		return fmt.Errorf("cadence must be positive, got %v", cadence)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	simulator := sim.New(cfg.Setpoint, cfg.PIDKp, cfg.PIDKi, cfg.PIDKd, rng)

	tracker := status.NewTracker(time.Now(), status.Config{
		Mode:     mode,
		Cadence:  cadence,
		Broker:   cfg.BrokerURL(),
		Topic:    cfg.MQTTTopic,
		Device:   cfg.DeviceID,
		Building: cfg.BuildingID,
		HTTPAddr: httpAddr,
	})

	simulated := weather.NewSimulated(time.Now, rng)
	var source weather.Source = simulated
	if mode == "live" {
		source = weather.NewLive(cfg.Latitude, cfg.Longitude, simulated, tracker.RecordWeatherFallback)
	}

	publisher := mqtt.NewRealPublisher(cfg.BrokerURL(), "ahu-sim-"+cfg.DeviceID)
	defer publisher.Close()

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening on %s", httpAddr)
	}

	logger.Info("starting simulator in %s mode with %v cadence", mode, cadence)
	logger.Info("device=%s building=%s broker=%s topic=%s",
		cfg.DeviceID, cfg.BuildingID, cfg.BrokerURL(), cfg.MQTTTopic)

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(simulator, source, publisher, publisher, tracker, cfg, time.Now, ticker.C, sigCh)
}

// runLoop drives one control cycle per tick: sample the outside temperature,
// step the unit, record the result, and publish it. dt is the wall-clock gap
// between ticks, so a stalled tick does not distort the plant model.
func runLoop(simulator *sim.Simulator, source weather.Source, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg config.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	last := now()

	for {
		select {
		case s := <-sig:
			logger.Info("received %v, shutting down", s)
			return nil

		case <-tick:
			t := now()
			dt := t.Sub(last).Seconds()
			last = t

			st := simulator.Step(source.Sample(), dt)
			tracker.RecordCycle(t, st)
			tracker.SetMQTTConnected(mqttStatus.IsConnected())

			data, err := telemetry.Build(st, cfg.DeviceID, cfg.BuildingID, t).Encode()
			if err != nil {
				logger.Error("encode telemetry: %v", err)
				continue
			}
			if err := publisher.Publish(cfg.MQTTTopic, data); err != nil {
				logger.Warn("publish: %v", err)
				tracker.RecordPublishError()
				continue
			}
			logger.Debug("published telemetry to %s", cfg.MQTTTopic)
			tracker.RecordPublish(t)
		}
	}
}
