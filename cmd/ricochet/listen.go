package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/server"
)

var listenFlags struct {
	http     bool
	dns      bool
	host     string
	port     int
	dnsPort  int
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Start the HTTP and/or DNS Callback Listener",
	RunE:  runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().BoolVar(&listenFlags.http, "http", false, "start the HTTP callback listener")
	listenCmd.Flags().BoolVar(&listenFlags.dns, "dns", false, "start the DNS callback listener")
	listenCmd.Flags().StringVar(&listenFlags.host, "host", "0.0.0.0", "address to bind the HTTP listener to (the DNS listener always binds all interfaces)")
	listenCmd.Flags().IntVar(&listenFlags.port, "port", 8080, "HTTP listener port")
	listenCmd.Flags().IntVar(&listenFlags.dnsPort, "dns-port", 5353, "DNS listener port")
}

func runListen(cmd *cobra.Command, args []string) error {
	if !listenFlags.http && !listenFlags.dns {
		return usageErrorf("listen requires --http and/or --dns")
	}

	if err := openStorePath(); err != nil {
		return err
	}
	sdb, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer sdb.Close()
	store := db.NewStore(sdb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var group errgroup.Group
	var httpManaged *server.ManagedServer
	var dnsListener *server.DNSListener

	if listenFlags.http {
		listener := server.NewHTTPListener(store, logger.Named("http"))
		addr := fmt.Sprintf("%s:%d", listenFlags.host, listenFlags.port)
		cfg := server.DefaultServerConfig(addr, listener, logger.Named("http"))
		httpManaged = server.NewManagedServer("http", cfg)
		httpManaged.Start()
		logger.Info("http callback listener starting", zap.String("addr", addr))
		if err := httpManaged.WaitForStartup(200 * time.Millisecond); err != nil {
			return err
		}
	}

	if listenFlags.dns {
		dnsListener = server.NewDNSListener(store, logger.Named("dns"))
		if err := dnsListener.Start(listenFlags.dnsPort, listenFlags.dnsPort); err != nil {
			return err
		}
		logger.Info("dns callback listener starting", zap.Int("port", listenFlags.dnsPort))
	}

	group.Go(func() error {
		<-ctx.Done()
		return nil
	})
	_ = group.Wait()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpManaged != nil {
		httpManaged.Shutdown(shutdownCtx)
	}
	if dnsListener != nil {
		dnsListener.Shutdown(shutdownCtx)
	}

	return nil
}
