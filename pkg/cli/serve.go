package cli

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haystackd/haystackd/pkg/config"
	"github.com/haystackd/haystackd/pkg/logging"
	"github.com/haystackd/haystackd/pkg/search"
	"github.com/haystackd/haystackd/pkg/server"
	haytls "github.com/haystackd/haystackd/pkg/tls"
)

// drainTimeout bounds how long shutdown waits for in-flight sessions.
const drainTimeout = 10 * time.Second

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(serveConfigPath)
		if err != nil {
			return err
		}

		log := logging.New(logging.Config{
			Level:  logging.ParseLevel(settings.Logging.Level),
			Format: logging.ParseFormat(settings.Logging.Format),
		})

		algorithm, err := search.ParseAlgorithm(settings.Search.Algorithm)
		if err != nil {
			return err
		}
		engine, err := search.New(settings.Search.Path, search.Options{
			Algorithm:     algorithm,
			RereadOnQuery: settings.Search.RereadOnQuery,
			UseMmap:       settings.Search.UseMmap,
		})
		if err != nil {
			return err
		}

		var tlsCfg *tls.Config
		if settings.TLS.Enabled {
			tlsCfg, err = haytls.BuildServerConfig(settings.TLS.CertFile, settings.TLS.KeyFile, settings.TLS.CAFile)
			if err != nil {
				return err
			}
		}

		srv := server.New(settings, engine, tlsCfg, log)
		if err := srv.Start(); err != nil {
			return err
		}
		// Stop also runs on the normal exit path, not only on signal.
		defer srv.Stop(drainTimeout)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("termination signal received")
		srv.Stop(drainTimeout)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "haystackd.yaml", "Path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}
