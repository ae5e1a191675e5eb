package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/config"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/liveness"
)

// pingCmd probes a running daemon through its bridge
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Probe a running daemon",
	Long: `Probe a running daemon through its message bridge.

By default a single probe is sent. With --wait the command keeps probing at
the configured liveness interval until the daemon acknowledges or the command
is interrupted.`,
	RunE: runPing,
}

var pingWait bool

func init() {
	pingCmd.Flags().BoolVar(&pingWait, "wait", false, "Keep probing until the daemon answers")
}

func runPing(cmd *cobra.Command, args []string) error {
	dir, err := resolveStateDir()
	if err != nil {
		return fmt.Errorf("failed to resolve state directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	prober := &liveness.HTTPProber{BaseURL: "http://" + cfg.Bridge.Listen}
	if pingWait {
		if err := liveness.AwaitReady(cmd.Context(), prober, cfg.Liveness.ProbeInterval); err != nil {
			return err
		}
	} else if err := prober.Probe(cmd.Context()); err != nil {
		return fmt.Errorf("daemon did not acknowledge at %s: %w", cfg.Bridge.Listen, err)
	}

	fmt.Println(statusOKStyle.Render("Daemon is alive."))
	fmt.Printf("  %s %s\n", statusDimStyle.Render("Bridge:"), cfg.Bridge.Listen)
	return nil
}
