package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/danmuck/recwire/internal/catalog"
	"github.com/danmuck/recwire/internal/config"
	"github.com/danmuck/recwire/internal/logging"
	"github.com/danmuck/recwire/internal/protocol/schema"
	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "recwire.toml"

// app carries state resolved once per invocation by the root pre-run.
type app struct {
	configPath string
	schemas    []string
	scheme     string

	cfg   config.Config
	types *record.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "recwire",
		Short: "Encode, decode and store self-describing records",
		Long: `recwire converts records between JSON and the tagged or compact wire
schemes, stores them in pebble or sqlite, and serves them over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "config file (defaults apply when missing)")
	root.PersistentFlags().StringArrayVar(&a.schemas, "schema", nil, "extra struct definition file (.toml/.yaml), repeatable")
	root.PersistentFlags().StringVar(&a.scheme, "scheme", "", "wire scheme: tagged|compact (overrides config)")

	root.AddCommand(
		newTypesCmd(a),
		newEncodeCmd(a),
		newDecodeCmd(a),
		newPutCmd(a),
		newGetCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) load() error {
	logging.ConfigureRuntime()

	cfg, err := config.Load(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
		logging.Debugf("config %s not found, using defaults", a.configPath)
	case err != nil:
		return err
	}
	if a.scheme != "" {
		cfg.DefaultScheme = a.scheme
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok && os.Getenv(logging.EnvLogLevel) == "" {
		zerolog.SetGlobalLevel(lvl)
	}

	types := catalog.Registry()
	paths := append(append([]string{}, cfg.Schemas...), a.schemas...)
	if err := schema.LoadInto(types, paths...); err != nil {
		return err
	}
	a.cfg = cfg
	a.types = types
	return nil
}

func (a *app) lookup(name string) (*record.Descriptor, error) {
	desc, ok := a.types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q (see `recwire types`)", name)
	}
	return desc, nil
}

func (a *app) openStore() (*store.RecordStore, error) {
	backend, err := store.OpenBackend(a.cfg.Store.Driver, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	st, err := store.New(backend, a.types, store.Options{
		Scheme:         a.cfg.Scheme(),
		Compress:       a.cfg.Store.Compress,
		ProtocolLimits: a.cfg.ProtocolLimits(),
		FrameLimits:    a.cfg.FrameLimits(),
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return st, nil
}
