// formfiller: tool-call orchestration service for the voice form agent.
// Accepts tool invocations, keeps form sessions legal, and mirrors every
// change to connected UI observers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/altafuddin/FormFiller/internal/config"
	"github.com/altafuddin/FormFiller/internal/log"
	"github.com/altafuddin/FormFiller/pkg/dispatch"
	"github.com/altafuddin/FormFiller/pkg/forms"
	"github.com/altafuddin/FormFiller/pkg/perf"
	"github.com/altafuddin/FormFiller/pkg/uisync"
	"github.com/altafuddin/FormFiller/pkg/web"
)

var version = "1.0.0"

func main() {
	port := flag.String("port", config.Port(), "HTTP server port")
	flag.Parse()

	log.Init(config.LogLevel())
	log.Info("formfiller starting", "version", version)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())

	tracker := perf.NewTracker(promReg)
	registry := forms.NewRegistry(forms.WithFastPathFields(config.FastPathFields()))
	manager := forms.NewManager()
	hub := uisync.NewHub("ui")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var channel uisync.Channel = uisync.NewHubChannel(hub)
	if url := config.RemoteUIURL(); url != "" {
		fwd := uisync.NewForwarder(url)
		fwd.Start(ctx)
		defer fwd.Stop()
		channel = uisync.Fanout{channel, fwd}
	}

	dispatcher := dispatch.NewDispatcher(registry, channel, tracker,
		dispatch.WithUIPushTimeout(config.UIPushTimeout()),
		dispatch.WithAckTimeout(config.AckTimeout()),
	)

	server := web.NewServer(web.Options{
		Port:       *port,
		Registry:   registry,
		Manager:    manager,
		Dispatcher: dispatcher,
		Tracker:    tracker,
		Hub:        hub,
		ExportDir:  config.ExportDir(),
		Gatherer:   promReg,
	})
	server.StartAsync()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if _, err := tracker.ExportFile(config.ExportDir()); err != nil {
		log.Warn("final latency export failed", "err", err)
	}
	if err := server.Shutdown(); err != nil {
		log.Error("shutdown error", "err", err)
	}
}
