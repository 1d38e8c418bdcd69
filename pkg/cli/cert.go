package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	haytls "github.com/haystackd/haystackd/pkg/tls"
)

var (
	certOut        string
	certKeyOut     string
	certCommonName string
	certDays       int
	certClientAuth bool
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Generate a self-signed certificate and key pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := haytls.DefaultCertificateConfig()
		cfg.CommonName = certCommonName
		cfg.ValidFor = time.Duration(certDays) * 24 * time.Hour
		cfg.ClientAuth = certClientAuth

		cert, err := haytls.GenerateAndSave(cfg, certOut, certKeyOut)
		if err != nil {
			return err
		}

		fmt.Printf("wrote %s and %s (CN=%s, valid until %s)\n",
			certOut, certKeyOut,
			cert.Certificate.Subject.CommonName,
			cert.Certificate.NotAfter.Format(time.RFC3339),
		)
		return nil
	},
}

func init() {
	certCmd.Flags().StringVar(&certOut, "cert", "certs/server.pem", "Certificate output path")
	certCmd.Flags().StringVar(&certKeyOut, "key", "certs/server.key", "Private key output path")
	certCmd.Flags().StringVar(&certCommonName, "cn", "localhost", "Certificate common name")
	certCmd.Flags().IntVar(&certDays, "days", 365, "Validity period in days")
	certCmd.Flags().BoolVar(&certClientAuth, "client", false, "Mark the certificate usable for client authentication")
	rootCmd.AddCommand(certCmd)
}
