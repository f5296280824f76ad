package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/feeling-system/internal/config"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/rpc"
	"github.com/danielpatrickdp/feeling-system/internal/state"
)

// #region main
func main() {
	var (
		configPath string
		addr       string
		writeCfg   string
	)

	rootCmd := &cobra.Command{
		Use:          "feelingd",
		Short:        "Serve one feeling system over gRPC",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if writeCfg != "" {
				return cfg.SaveToFile(writeCfg)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to feeling.yaml")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.Flags().StringVar(&writeCfg, "write-config", "", "write the effective config to this path and exit")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region serve

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Logging)

	opts := []feeling.Option{feeling.WithLogger(logger)}
	if cfg.Storage.DBPath != "" {
		store, err := state.NewStore(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, feeling.WithPersister(store))
	}

	sys, err := feeling.New(cfg.Feeling(), opts...)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	srv := grpc.NewServer()
	rpc.Register(srv, rpc.NewServer(sys, rpc.WithLogger(logger)))

	eg, egCtx := errgroup.WithContext(ctx)

	// 1. Serve until the listener closes
	eg.Go(func() error {
		logger.Info().Str("addr", lis.Addr().String()).Msg("feelingd listening")
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	// 2. Drain on shutdown
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info().Msg("shutting down")
		srv.GracefulStop()
		return nil
	})

	return eg.Wait()
}

// #endregion serve
