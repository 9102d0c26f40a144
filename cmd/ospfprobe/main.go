// Command ospfprobe runs a passive, non-forwarding OSPFv2 probe on a single
// interface, learning the link state database of whatever area it joins
// without ever originating LSAs or contending for Designated Router.
//
// Grounded on marmos91-dittofs/cmd/dittofs's cobra-based command layout and
// pyospf's entrypoint, which wires config, logging, the OSPF core, and the
// HTTP query surface together in one process.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	ospf2 "github.com/ospfprobe/ospfprobe"
	"github.com/ospfprobe/ospfprobe/internal/api"
	"github.com/ospfprobe/ospfprobe/internal/config"
	"github.com/ospfprobe/ospfprobe/internal/engine"
	"github.com/ospfprobe/ospfprobe/internal/socket"
	"github.com/ospfprobe/ospfprobe/internal/xlog"
)

var (
	version = "dev"
	commit  = "none"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "ospfprobe",
		Short:         "A passive, non-forwarding OSPFv2 neighbor and LSDB probe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	root.AddCommand(runCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("ospfprobe %s (%s)\n", version, commit)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the probe in the foreground",
		RunE:  runE,
	}
}

func runE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log := xlog.New(os.Stderr, cfg.Logging.Level, !cfg.Logging.JSON)
	log.Info().Str("interface", cfg.Probe.InterfaceName).Msg("starting ospfprobe")

	ifi, err := net.InterfaceByName(cfg.Probe.InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to look up interface %q: %w", cfg.Probe.InterfaceName, err)
	}

	conn, err := socket.Listen(ifi)
	if err != nil {
		return fmt.Errorf("failed to open OSPFv2 socket on %q: %w", cfg.Probe.InterfaceName, err)
	}
	defer conn.Close()

	selfID := ospf2.IDFromIP(net.ParseIP(cfg.Probe.RouterID))
	areaID := ospf2.IDFromIP(net.ParseIP(cfg.Probe.AreaID))

	lsdb := engine.NewLSDB(areaID)
	stats := engine.NewStats()

	var networkMask net.IPMask
	if ip := net.ParseIP(cfg.Probe.NetworkMask); ip != nil {
		networkMask = net.IPMask(ip.To4())
	}

	params := engine.InterfaceParams{
		NetworkMask:        networkMask,
		HelloInterval:      cfg.Probe.HelloInterval,
		RouterDeadInterval: cfg.Probe.RouterDeadInterval,
		MTU:                uint16(cfg.Probe.MTU),
		StubArea:           cfg.Probe.StubArea,
		NSSAArea:           cfg.Probe.NSSAArea,
		OpaqueCapable:      cfg.Probe.OpaqueCapable,
	}

	recv := engine.NewReceiver(conn, nil, lsdb, stats, selfID, areaID, params, log)
	ifFSM := engine.NewInterfaceFSM(lsdb, cfg.Probe.HelloInterval, cfg.Probe.RouterDeadInterval, recv.SendHello)
	recv.SetInterfaceFSM(ifFSM)
	ifFSM.Dispatch(engine.EventInterfaceUp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return recv.Run(gctx) })

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.BindHost, cfg.API.BindPort),
		Handler: api.NewRouter(recv, api.Credentials{Username: cfg.API.Username, Password: cfg.API.Password}, log),
	}
	g.Go(func() error {
		log.Info().Str("addr", httpSrv.Addr).Msg("serving probe query API")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigC:
		log.Info().Msg("shutdown signal received")
	case <-gctx.Done():
		log.Error().Msg("a background task exited unexpectedly")
	}

	cancel()
	ifFSM.Dispatch(engine.EventInterfaceDown)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("background task returned an error")
	}
	return nil
}
