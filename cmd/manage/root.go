package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"rachiohook/internal/engine/webhooks"
	"rachiohook/internal/pkg/logger"
	"rachiohook/internal/platform/config"
	"rachiohook/internal/platform/models"
)

// RachioAPI is what the management commands need from Rachio.
type RachioAPI interface {
	webhooks.Directory
	GetDevices(ctx context.Context) ([]models.Device, error)
}

type app struct {
	cfgFile    string
	jsonOutput bool

	cfg       *config.Config
	client    RachioAPI
	newClient func(config.RachioConfig) RachioAPI
}

func newRootCmd(newClient func(config.RachioConfig) RachioAPI) *cobra.Command {
	a := &app{newClient: newClient}

	root := &cobra.Command{
		Use:   "manage",
		Short: "Manage the Rachio webhook subscription for this relay",
		Long: `Register this service's public callback with Rachio and inspect the
devices and webhooks the configured API key can see.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml or ./configs/config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output results as JSON")

	root.AddCommand(
		newCreateWebhookCmd(a),
		newListWebhooksCmd(a),
		newGetDevicesCmd(a),
	)
	return root
}

// setup loads configuration and builds the Rachio client. Logs go to stderr
// so stdout stays parseable.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// help and completion need no credentials
	if cmd.RunE == nil {
		return nil
	}
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAdmin(); err != nil {
		return err
	}

	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Logging.Level))
	log.Logger = logger.New(cmd.ErrOrStderr(), cfg.Logging.Format)
	cmd.SetContext(log.Logger.WithContext(cmd.Context()))

	a.cfg = cfg
	a.client = a.newClient(cfg.Rachio)
	return nil
}

// deviceID falls back to the configured device when the flag is empty.
func (a *app) deviceID(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Rachio.DeviceID
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
