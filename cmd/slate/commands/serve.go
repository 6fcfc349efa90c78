package commands

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slateops/slate"
	"github.com/slateops/slate/tracing"
)

var traceFile string

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the approval pipeline server",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "Write OpenTelemetry spans to a file")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	if traceFile != "" {
		if err := tracing.Init("slate", version, traceFile); err != nil {
			log.Printf("tracing disabled: %v", err)
		}
	}

	svc, err := slate.New(ctx, slate.WithConfig(cfg))
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() { errs <- svc.Runtime().Start(ctx) }()

	select {
	case <-ctx.Done():
		log.Println("slate: shutting down")
	case err := <-errs:
		if err != nil {
			return err
		}
	}
	return svc.Runtime().Shutdown(context.Background())
}
