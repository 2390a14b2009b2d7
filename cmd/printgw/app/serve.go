package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/printrelay/printgw/pkg/api"
	"github.com/printrelay/printgw/pkg/auth/obo"
	"github.com/printrelay/printgw/pkg/auth/token"
	"github.com/printrelay/printgw/pkg/config"
	"github.com/printrelay/printgw/pkg/logger"
	"github.com/printrelay/printgw/pkg/networking"
	"github.com/printrelay/printgw/pkg/printing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the print gateway server",
	Long: `Start the print gateway HTTP server.
The server validates caller tokens against the configured identity tenant and
forwards printing operations to the upstream print API on the caller's behalf.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", config.DefaultAddress, "Address to listen on")
	serveCmd.Flags().String("tenant-id", "", "Identity tenant ID")
	serveCmd.Flags().String("client-id", "", "OAuth client ID of the gateway")
	serveCmd.Flags().String("client-secret", "", "OAuth client secret of the gateway")
	serveCmd.Flags().String("issuer", "", "Expected token issuer (derived from tenant-id if empty)")
	serveCmd.Flags().String("audience", "", "Expected token audience (defaults to client-id)")
	serveCmd.Flags().String("jwks-url", "", "Signing key discovery URL (derived from tenant-id if empty)")
	serveCmd.Flags().String("token-url", "", "OAuth token endpoint (derived from tenant-id if empty)")
	serveCmd.Flags().String("graph-base-url", config.DefaultGraphBaseURL, "Upstream print API base URL")
	serveCmd.Flags().StringSlice("graph-scopes", []string{config.DefaultGraphScope}, "Downstream scopes to request")
	serveCmd.Flags().String("required-scope", config.DefaultRequiredScope, "Scope callers must present")
	serveCmd.Flags().StringSlice("cors-origins", []string{"*"}, "Origins allowed for browser callers")

	for _, name := range []string{
		"address", "tenant-id", "client-id", "client-secret", "issuer", "audience",
		"jwks-url", "token-url", "graph-base-url", "graph-scopes", "required-scope",
		"cors-origins",
	} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", name, err)
		}
	}

	config.SetDefaults()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Infof("Loaded configuration: %s", cfg)

	validator, err := token.NewValidator(ctx, token.ValidatorConfig{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		JWKSURL:  cfg.JWKSURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token validator: %w", err)
	}

	exchangeClient, err := networking.NewHttpClientBuilder().Build()
	if err != nil {
		return fmt.Errorf("failed to create token exchange client: %w", err)
	}

	exchanger := &obo.Config{
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.GraphScopes,
		HTTPClient:   exchangeClient,
	}
	if err := exchanger.Validate(); err != nil {
		return fmt.Errorf("invalid token exchange configuration: %w", err)
	}

	client := printing.NewClient(cfg.GraphBaseURL, exchanger)

	return api.Serve(ctx, api.ServerConfig{
		Address:       cfg.Address,
		RequiredScope: cfg.RequiredScope,
		CORSOrigins:   cfg.CORSOrigins,
		Debug:         cfg.Debug,
	}, validator, client)
}
