// sensord is the field sensor node: it samples the IR flame sensor and
// the GPS receiver and serves the current-state snapshot to whoever
// polls GET /fire-alert.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/5TUM8L3/vigia-fogo/internal/config"
	"github.com/5TUM8L3/vigia-fogo/internal/gps"
	"github.com/5TUM8L3/vigia-fogo/internal/sensor"
	"github.com/5TUM8L3/vigia-fogo/internal/sensornode"
)

// simulated fire drill: calm, ignition, flare-up, calm again
var drillScript = []int{4095, 4095, 3500, 2600, 1800, 900, 450, 450, 900, 4095}

func main() {
	cfgPath := flag.String("config", "sensor.yaml", "caminho do ficheiro de configuração")
	simulate := flag.Bool("simulate", false, "correr sem hardware (sensor e GPS simulados)")
	flag.Parse()

	cfg, err := config.LoadSensor(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erro de configuração:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flame sensor.Reader
	var fixes gps.Source
	if *simulate {
		flame = &sensor.Simulated{Script: drillScript}
		fixes = runSimulatedGPS(ctx, cfg)
		fmt.Println("Modo simulado: sensor e GPS sintéticos")
	} else {
		flame = &sensor.FileReader{Path: cfg.ADCPath}
		reader := gps.NewReader()
		fixes = reader
		go drainGPS(ctx, reader, cfg.GPSDevice)
	}

	node := &sensornode.Node{
		Flame: flame,
		GPS: &gps.Validator{
			Source:      fixes,
			FallbackLat: cfg.FallbackLat,
			FallbackLng: cfg.FallbackLng,
			MaxAge:      cfg.GPSMaxAge,
		},
		Thresholds: cfg.Thresholds,
	}

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      node.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		fmt.Printf("Nó sensor em %s (/fire-alert, /metrics, /healthz)\n", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "Erro HTTP:", err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Println("A terminar...")
	shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}

// drainGPS keeps the latest fix current from the serial device. A missing
// or dead receiver is logged once; the validator then reports the
// fallback position until the stream comes back on restart.
func drainGPS(ctx context.Context, reader *gps.Reader, device string) {
	f, err := os.Open(device)
	if err != nil {
		fmt.Fprintln(os.Stderr, "GPS indisponível:", err)
		return
	}
	defer f.Close()
	if err := reader.Run(ctx, f); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "GPS stream:", err)
	}
}

// runSimulatedGPS refreshes a static fix at the fallback site so the
// snapshot exercises the live-fix path without a receiver.
func runSimulatedGPS(ctx context.Context, cfg config.Sensor) gps.Source {
	src := &gps.StaticSource{}
	src.Set(gps.Fix{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng, At: time.Now(), Valid: true})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				src.Set(gps.Fix{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng, At: time.Now(), Valid: true})
			}
		}
	}()
	return src
}
