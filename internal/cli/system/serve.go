package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/daylog/internal/api"
	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/explore"
)

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	Addr     string `help:"Address to listen on." default:"${api_addr}" env:"DAYLOG_API_ADDR"`
	Timezone string `help:"IANA timezone for the default date when a request omits one." default:"UTC" env:"DAYLOG_TIMEZONE"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if c.Addr == "" {
		c.Addr = constants.DefaultAPIAddr
	}

	metrics, err := explore.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	engine := explore.NewEngine(ctx.Journal, metrics)
	server := api.New(ctx.Journal, engine, prometheus.DefaultGatherer)
	if err := server.SetTimezone(c.Timezone); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %s API on http://%s (Ctrl+C to stop)\n", constants.AppName, c.Addr)
	return server.ListenAndServe(sigCtx, c.Addr)
}
