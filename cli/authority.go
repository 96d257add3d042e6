// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/certs/pki"
	"github.com/spf13/cobra"
)

const defValidity = 10 * 365 * 24 * time.Hour

type certificateInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	Serial    string    `json:"serial"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}

type authorityInfo struct {
	CloudCommonName string          `json:"cloud_common_name"`
	Root            certificateInfo `json:"root"`
	Cloud           certificateInfo `json:"cloud"`
}

// NewGenerateCmd returns the command creating a root and cloud authority
// key container.
func NewGenerateCmd() *cobra.Command {
	var rootCN, cloudCN, out, password string
	var validity time.Duration

	cmd := cobra.Command{
		Use:   "generate --cloud <common_name> --out <file.p12> [--root <common_name>] [--password <password>] [--validity <duration>]",
		Short: "Generate authority key container",
		Long:  `Generates a self-signed root authority and a cloud authority issued by it, and stores both in a PKCS#12 container`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 || cloudCN == "" || out == "" {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			bundle, err := pki.Generate(rootCN, cloudCN, validity)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			data, err := bundle.Encode(password)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logCreatedCmd(*cmd, out)
		},
	}

	cmd.Flags().StringVar(&rootCN, "root", "root", "root authority common name")
	cmd.Flags().StringVar(&cloudCN, "cloud", "", "cloud authority common name")
	cmd.Flags().StringVar(&out, "out", "", "container output file")
	cmd.Flags().StringVar(&password, "password", "", "container password")
	cmd.Flags().DurationVar(&validity, "validity", defValidity, "authority validity")

	return &cmd
}

// NewInspectCmd returns the command printing the authorities held by a key container.
func NewInspectCmd() *cobra.Command {
	var password string

	cmd := cobra.Command{
		Use:   "inspect <file.p12> [--password <password>]",
		Short: "Inspect authority key container",
		Long:  `Loads a PKCS#12 container the same way the service does and prints the root and cloud authorities`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			authority, err := pki.Decode(data, password)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			logJSONCmd(*cmd, authorityInfo{
				CloudCommonName: authority.CloudCommonName(),
				Root:            toCertificateInfo(authority.RootCertificate()),
				Cloud:           toCertificateInfo(authority.CloudCertificate()),
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "container password")

	return &cmd
}

// NewCSRCmd returns the command creating a key pair and a signing request
// ready to be posted for signing.
func NewCSRCmd() *cobra.Command {
	var keyOut string
	var dnsNames []string

	cmd := cobra.Command{
		Use:   "csr <common_name> [--key-out <file>] [--dns <name>]",
		Short: "Create certificate signing request",
		Long:  `Generates an EC P-256 key and prints the base64 DER encoded certificate signing request`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)
				return
			}

			key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}
			der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
				Subject:  pkix.Name{CommonName: args[0]},
				DNSNames: dnsNames,
			}, key)
			if err != nil {
				logErrorCmd(*cmd, err)
				return
			}

			if keyOut != "" {
				keyDER, err := x509.MarshalECPrivateKey(key)
				if err != nil {
					logErrorCmd(*cmd, err)
					return
				}
				data := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
				if err := os.WriteFile(keyOut, data, 0o600); err != nil {
					logErrorCmd(*cmd, err)
					return
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), certs.EncodeDER(der))
		},
	}

	cmd.Flags().StringVar(&keyOut, "key-out", "", "private key output file")
	cmd.Flags().StringSliceVar(&dnsNames, "dns", nil, "DNS subject alternative names")

	return &cmd
}

func toCertificateInfo(cert *x509.Certificate) certificateInfo {
	return certificateInfo{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		Serial:    cert.SerialNumber.String(),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
	}
}
