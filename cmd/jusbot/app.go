// cmd/jusbot/app.go
package jusbot

import (
	"errors"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mwiater/jusbot/internal/config"
	"github.com/mwiater/jusbot/internal/provider"
	"github.com/mwiater/jusbot/internal/repl"
	"github.com/mwiater/jusbot/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Seams replaced in tests.
var (
	connectorFor = provider.Connector
	loadConfig   = func() (*config.Config, error) { return config.Load(viper.GetViper(), cfgFile) }
)

// app bundles what every chat command needs.
type app struct {
	cfg     *config.Config
	session *session.Session
	logFile io.Closer
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) loop(cmd *cobra.Command) *repl.Loop {
	return repl.New(a.session, repl.Options{
		In:                cmd.InOrStdin(),
		Out:               cmd.OutOrStdout(),
		Model:             a.cfg.StartModel(),
		SystemInstruction: a.cfg.SystemInstruction,
	})
}

// setup loads the configuration, routes logging and initializes the session.
// Credential and connection failures print operator guidance to stderr
// before the error is returned.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	if cfg.Debug {
		f, err := tea.LogToFile(cfg.LogFile, "debug")
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		a.logFile = f
	} else {
		log.SetOutput(io.Discard)
	}

	connector, err := connectorFor(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	sess, err := session.Initialize(cmd.Context(), cfg.APIKey, connector,
		session.WithCatalog(cfg.Catalog),
		session.WithTimeout(cfg.Timeout),
		session.WithName(cfg.Provider),
	)
	if err != nil {
		a.close()
		var cfgErr *session.ConfigError
		var connErr *session.ConnectionError
		switch {
		case errors.As(err, &cfgErr):
			fmt.Fprintln(cmd.ErrOrStderr(), config.Guidance)
		case errors.As(err, &connErr):
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not reach the %s API. Check your API key and network connection.\n", cfg.Provider)
		}
		return nil, err
	}
	a.session = sess
	fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s API\n", cfg.Provider)
	return a, nil
}
