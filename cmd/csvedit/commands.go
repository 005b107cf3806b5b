package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/client"
	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/console"
	"github.com/JonMunkholm/csvedit/internal/dispatch"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errRejected is returned when the server refused an action. Its detail has
// already been shown, so only the exit status carries it.
var errRejected = errors.New("action rejected by server")

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg  *config.Config
	view *console.View
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		a       app
	)

	root := &cobra.Command{
		Use:           "csvedit",
		Short:         "Edit CSV files held by a csv server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.API.BaseURL = baseURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			slog.Debug("configuration loaded", "config", cfg.String())

			api, err := client.New(cfg.API.BaseURL,
				client.WithTimeout(cfg.API.RequestTimeout),
				client.WithUserAgent(cfg.API.UserAgent),
				client.WithListPath(cfg.API.RefreshPath),
			)
			if err != nil {
				return err
			}

			var opts []console.Option
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				opts = append(opts, console.WithPrompt(func(context.Context, string) (string, bool) {
					return name, true
				}))
			}

			a.cfg = cfg
			a.view = console.New(cmd.InOrStdin(), cmd.OutOrStdout(), api, opts...)
			dispatch.Bind(a.view, dispatch.New(api, a.view))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "csv server URL (overrides CSVEDIT_BASE_URL)")

	root.AddCommand(
		newUploadCmd(&a),
		newRenameCmd(&a),
		newDeleteCmd(&a),
		newListCmd(&a),
	)
	return root
}

func newUploadCmd(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parseFields(fields)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer f.Close()

			outcome, err := a.view.Fire(cmd.Context(), dispatch.Event{
				Kind: dispatch.UploadSubmitted,
				Form: &dispatch.UploadForm{
					Fields: form,
					File: client.File{
						FieldName: a.cfg.Upload.FieldName,
						Filename:  filepath.Base(args[0]),
						Content:   f,
					},
				},
			})
			return result(outcome, err)
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "extra form field as key=value (repeatable)")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename COLUMN_ID",
		Short: "Rename a column; prompts for the new name unless --name is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := a.view.Fire(cmd.Context(), dispatch.Event{
				Kind:   dispatch.RenameClicked,
				Target: dispatch.Target{Data: map[string]string{dispatch.ColumnIDKey: args[0]}},
			})
			if outcome == dispatch.Cancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "Rename cancelled.")
			}
			return result(outcome, err)
		},
	}
	cmd.Flags().String("name", "", "new column name (may be empty)")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ROW_ID...",
		Short: "Delete rows; several IDs are deleted concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g errgroup.Group
			for _, rowID := range args {
				g.Go(func() error {
					outcome, err := a.view.Fire(cmd.Context(), dispatch.Event{
						Kind:   dispatch.DeleteClicked,
						Target: dispatch.Target{Data: map[string]string{dispatch.RowIDKey: rowID}},
					})
					if err := result(outcome, err); err != nil {
						return fmt.Errorf("row %s: %w", rowID, err)
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.view.Refresh(cmd.Context())
		},
	}
}

// result maps an action outcome to the command's error.
func result(outcome dispatch.Outcome, err error) error {
	if err != nil {
		return err
	}
	if outcome == dispatch.ErrorShown {
		return errRejected
	}
	return nil
}

// parseFields turns key=value pairs into form fields.
func parseFields(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", p)
		}
		fields[k] = v
	}
	return fields, nil
}
