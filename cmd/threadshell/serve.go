package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spamprx/ThreadShell/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and its read-only monitoring API",
	Long:  "Starts the worker pool and blocks, serving the monitoring API until interrupted (SIGINT/SIGTERM), at which point it drains running jobs and exits.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	sched, cfg, err := bootstrap(configPath)
	if err != nil {
		return err
	}

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sched.Start()
	defer sched.Stop()

	mon := api.New(sched, log)
	go func() {
		if err := mon.ListenAndServe(cfg.MonitoringAddr); err != nil {
			log.WithError(err).Warn("monitoring API stopped")
		}
	}()

	fmt.Fprintf(os.Stdout, "threadshell running: %d cores, monitoring on %s\n", cfg.NumCores, cfg.MonitoringAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Fprintln(os.Stdout, "shutting down, draining running jobs...")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
