package cli

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haystackd/haystackd/pkg/client"
)

var (
	queryAddr       string
	queryTLS        bool
	queryCAFile     string
	queryCertFile   string
	queryKeyFile    string
	queryServerName string
	queryInsecure   bool
)

var queryCmd = &cobra.Command{
	Use:   "query STRING",
	Short: "Send one query to a running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tlsCfg, err := buildClientTLS()
		if err != nil {
			return err
		}

		c, err := client.Dial(queryAddr, client.Options{TLSConfig: tlsCfg})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		verdict, elapsed, err := c.Query(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%.2fms)\n", verdict, float64(elapsed.Microseconds())/1000.0)
		if verdict != client.VerdictExists {
			os.Exit(1)
		}
		return nil
	},
}

// buildClientTLS assembles the client-side TLS configuration from the
// query flags. Returns nil when TLS is not requested.
func buildClientTLS() (*tls.Config, error) {
	if !queryTLS && queryCAFile == "" && queryCertFile == "" {
		return nil, nil
	}

	cfg := &tls.Config{
		ServerName:         queryServerName,
		InsecureSkipVerify: queryInsecure,
		MinVersion:         tls.VersionTLS12,
	}

	if queryCAFile != "" {
		caPEM, err := os.ReadFile(queryCAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in %s", queryCAFile)
		}
		cfg.RootCAs = pool
	}

	if queryCertFile != "" || queryKeyFile != "" {
		pair, err := tls.LoadX509KeyPair(queryCertFile, queryKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	return cfg, nil
}

func init() {
	queryCmd.Flags().StringVar(&queryAddr, "addr", "localhost:44445", "Server address (host:port)")
	queryCmd.Flags().BoolVar(&queryTLS, "tls", false, "Connect over TLS")
	queryCmd.Flags().StringVar(&queryCAFile, "ca", "", "CA certificate for server verification (implies --tls)")
	queryCmd.Flags().StringVar(&queryCertFile, "cert", "", "Client certificate for mutual TLS (implies --tls)")
	queryCmd.Flags().StringVar(&queryKeyFile, "key", "", "Client private key for mutual TLS")
	queryCmd.Flags().StringVar(&queryServerName, "server-name", "localhost", "Expected server certificate name")
	queryCmd.Flags().BoolVar(&queryInsecure, "insecure", false, "Skip server certificate verification")
	rootCmd.AddCommand(queryCmd)
}
