// Command ahu-replay publishes Building Data Genome CSV exports to MQTT,
// pacing the records against their original timestamps.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
	"github.com/sweeney/ahu-sim/internal/replay"
)

func main() {
	file := flag.String("file", "", "CSV file to replay")
	speed := flag.Float64("speed", 1.0, "Replay speed multiplier (10 = ten times faster than recorded)")
	prefix := flag.String("topic-prefix", "building", "Topic prefix for published telemetry")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	sampleOut := flag.String("sample-out", "", "Write a sample of --file here instead of replaying")
	sampleRows := flag.Int("sample-rows", 1000, "Rows to keep with --sample-out")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := run(*file, *speed, *prefix, *broker, *sampleOut, *sampleRows); err != nil {
		logger.Error("fatal: %v", err)
		os.Exit(1)
	}
}

func run(file string, speed float64, prefix, broker, sampleOut string, sampleRows int) error {
	if file == "" {
		return errors.New("--file is required")
	}

	if sampleOut != "" {
		if err := replay.SampleCSV(file, sampleOut, sampleRows); err != nil {
			return err
		}
		logger.Info("wrote sample of %s to %s", file, sampleOut)
		return nil
	}

	records, err := replay.ParseFile(file)
	if err != nil {
		return err
	}

	publisher := mqtt.NewRealPublisher(broker, "ahu-replay")
	defer publisher.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := replay.NewRunner(publisher, prefix, speed)
	if err := runner.Run(ctx, records); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
