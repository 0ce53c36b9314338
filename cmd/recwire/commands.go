package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/recwire/internal/config"
	"github.com/danmuck/recwire/internal/record"
	"github.com/danmuck/recwire/internal/server"
	"github.com/spf13/cobra"
)

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered record types and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.types.Names() {
				desc, _ := a.types.Lookup(name)
				fmt.Fprintln(out, name)
				for _, fd := range desc.Fields() {
					fmt.Fprintf(out, "  %d: %s %s %s\n", fd.ID, fd.Presence, fd.Type, fd.Name)
				}
			}
			return nil
		},
	}
}

func newEncodeCmd(a *app) *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "encode <type>",
		Short: "Encode a JSON record from stdin to wire bytes on stdout",
		Example: `  echo '{"name":"cf1","ttl":"86400"}' | recwire encode ColumnFamily --scheme compact --hex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			body, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			rec, err := record.ParseJSON(desc, body)
			if err != nil {
				return err
			}
			data, err := record.Marshal(rec, a.cfg.Scheme())
			if err != nil {
				return err
			}
			if asHex {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "write hex instead of raw bytes")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var fromHex, render bool
	cmd := &cobra.Command{
		Use:   "decode <type>",
		Short: "Decode wire bytes from stdin and print the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if fromHex {
				data, err = hex.DecodeString(strings.TrimSpace(string(data)))
				if err != nil {
					return fmt.Errorf("decode hex input: %w", err)
				}
			}
			rec, err := record.UnmarshalWithLimits(data, desc, a.cfg.Scheme(), a.cfg.ProtocolLimits())
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec, render)
		},
	}
	cmd.Flags().BoolVar(&fromHex, "hex", false, "read hex instead of raw bytes")
	cmd.Flags().BoolVar(&render, "render", false, "print the debug rendering instead of JSON")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <type> [key]",
		Short: "Store a JSON record from stdin; prints the key",
		Long:  "Store a JSON record read from stdin. Without a key a ksuid is generated.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			body, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			rec, err := record.ParseJSON(desc, body)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			key := ""
			if len(args) == 2 {
				key = args[1]
				err = st.Put(cmd.Context(), key, rec)
			} else {
				key, err = st.Create(cmd.Context(), rec)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "get <type> <key>",
		Short: "Print a stored record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.lookup(args[0]); err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec, render)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "print the debug rendering instead of JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve records over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.New(st, server.Options{
				Addr:         a.cfg.Addr,
				CorsOrigins:  a.cfg.CorsOrigins,
				Scheme:       a.cfg.Scheme(),
				Limits:       a.cfg.ProtocolLimits(),
				MaxBodyBytes: int64(a.cfg.FrameLimits().MaxPayloadBytes),
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
		// config commands must run without a valid config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(a.configPath, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(a.configPath); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "validated %s\n", a.configPath)
			return err
		},
	}
	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func printRecord(w io.Writer, rec *record.Record, render bool) error {
	if render {
		_, err := fmt.Fprintln(w, rec.String())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
