// monitor is the desktop client: it polls the sensor node's snapshot,
// keeps the deduplicated alert list for the session and pushes ntfy
// notifications for each newly detected fire.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/5TUM8L3/vigia-fogo/internal/config"
	"github.com/5TUM8L3/vigia-fogo/internal/monitor"
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	cfgPath := flag.String("config", "monitor.yaml", "caminho do ficheiro de configuração")
	addr := flag.String("addr", "", "endereço do nó sensor (fica persistido)")
	dryRun := flag.Bool("dry-run", false, "escrever notificações no terminal em vez de publicar")
	flag.Parse()

	cfg, err := config.LoadMonitor(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erro de configuração:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := monitor.NewSession(cfg, *cfgPath)
	if *dryRun || getenv("NTFY_DRYRUN", "") != "" {
		sess.Dispatcher().DryRun = true
	}
	if *addr != "" {
		if err := sess.SetTarget(*addr); err != nil {
			fmt.Fprintln(os.Stderr, "Endereço inválido:", err)
			os.Exit(1)
		}
	}

	// Metrics endpoint
	if getenv("METRICS_DISABLE", "") == "" {
		metricsAddr := getenv("METRICS_ADDR", cfg.MetricsAddr)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Fprintln(os.Stderr, "metrics server error:", err)
			}
		}()
		fmt.Println("Métricas Prometheus em", metricsAddr, "/metrics")
	}

	// Teste opcional de notificação no arranque (defina NTFY_TEST=1)
	if getenv("NTFY_TEST", "") != "" {
		sess.Dispatcher().Startup()
	}

	sess.Start()
	fmt.Printf("Monitor ativo; nó sensor em %s\n", sess.Status().SensorAddr)

	// On Windows this blocks inside the tray loop; elsewhere it waits
	// for Ctrl+C / SIGTERM.
	runTray(ctx, sess, stop)

	sess.Stop()
	fmt.Println("A terminar...")
}
