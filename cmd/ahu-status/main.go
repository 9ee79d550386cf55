// Command ahu-status subscribes to building telemetry and serves the latest
// reading per topic over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
	"github.com/sweeney/ahu-sim/internal/status"
	"github.com/sweeney/ahu-sim/internal/web"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	filter := flag.String("topic", "building/#", "MQTT subscription filter")
	httpAddr := flag.String("http", ":8000", "HTTP API address")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := run(*broker, *filter, *httpAddr); err != nil {
		logger.Error("fatal: %v", err)
		os.Exit(1)
	}
}

// cacheHandler stores every telemetry message under its topic. Messages that
// are not valid JSON are dropped so one bad publisher cannot poison the cache.
func cacheHandler(cache *status.Cache) func(mqtt.Message) {
	return func(msg mqtt.Message) {
		if err := cache.Put(msg.Topic, msg.Payload, time.Now()); err != nil {
			logger.Warn("drop message on %s: %v", msg.Topic, err)
			return
		}
		logger.Debug("cached %s", msg.Topic)
	}
}

func run(broker, filter, httpAddr string) error {
	cache := status.NewCache()

	sub := mqtt.NewRealSubscriber(broker, "ahu-status", filter, cacheHandler(cache))
	defer sub.Close()

	srv := web.NewAPI(httpAddr, cache, sub, time.Now())
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logger.Info("status api listening on %s", httpAddr)
	logger.Info("subscribing to %s on %s", filter, broker)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case s := <-sigCh:
		logger.Info("received %v, shutting down", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
