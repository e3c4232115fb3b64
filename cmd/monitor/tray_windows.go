//go:build windows

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/getlantern/systray"

	"github.com/5TUM8L3/vigia-fogo/internal/monitor"
)

// runTray runs the Windows system tray until quit. The status line
// doubles as the "monitoring inactive" surface: poll failures are never
// errors, they just flip the text.
func runTray(ctx context.Context, sess *monitor.Session, onQuit func()) {
	if os.Getenv("SHOW_CONSOLE") == "" {
		hideConsoleWindow()
	}
	systray.Run(func() {
		systray.SetTitle("Vigia Fogo")
		systray.SetTooltip("Monitor de fogo a correr em segundo plano")
		mStatus := systray.AddMenuItem(statusLine(sess), "Estado da monitorização")
		mStatus.Disable()
		mTest := systray.AddMenuItem("Enviar alerta de teste", "Gerar um alerta sintético")
		mQuit := systray.AddMenuItem("Sair", "Fechar o monitor")
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mStatus.SetTitle(statusLine(sess))
				case <-mTest.ClickedCh:
					sess.TriggerTestAlert()
				case <-mQuit.ClickedCh:
					if onQuit != nil {
						onQuit()
					}
					systray.Quit()
					return
				case <-ctx.Done():
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		fmt.Fprintln(os.Stderr, "Tray terminated")
	})
}

func statusLine(sess *monitor.Session) string {
	st := sess.Status()
	if !st.Running || !st.LastPollOK {
		return "Monitorização inativa"
	}
	return fmt.Sprintf("Monitorização ativa (%d alertas)", st.ActiveAlerts)
}
