package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	contactform "github.com/goliatone/go-contactform"
	"github.com/goliatone/go-contactform/pkg/config"
	"github.com/goliatone/go-contactform/pkg/session"
	"github.com/goliatone/go-contactform/pkg/status"
	"github.com/goliatone/go-contactform/pkg/submit"
	"github.com/goliatone/go-contactform/pkg/validation"
)

func (a *app) newSubmitCmd() *cobra.Command {
	var statePath string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a saved form state and submit it",
		Example: `  contactform submit --state form.yaml --endpoint https://intake.example.com/contacts
  contactform submit --state form.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			state, err := config.LoadState(statePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			opts := []session.Option{
				session.WithLogger(a.log().Named("session")),
				session.WithSink(printer(out)),
			}
			if dryRun {
				opts = append(opts, session.WithTransport(submit.TransportFunc(dryRunTransport(out))))
			}
			result, err := contactform.SubmitState(cmd.Context(), cfg, state, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "submission %s delivered after %d attempt(s)\n", result.SubmissionID, result.Attempts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&statePath, "state", "s", "", "YAML or JSON form state file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the payload instead of sending it")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the submit-time rules against a saved form state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			state, err := config.LoadState(statePath)
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}
			errs := validation.New(cfg.Rules(), validation.WithCatalog(catalog)).Validate(state)
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			for _, e := range errs {
				fmt.Fprintf(out, "%s: %s\n", e.Field.ID(), e.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(errs))
		},
	}
	cmd.Flags().StringVarP(&statePath, "state", "s", "", "YAML or JSON form state file")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func printer(w io.Writer) status.Sink {
	return status.Funcs{
		OnUpdate: func(u status.Update) {
			if u.Kind != status.KindMessage {
				return
			}
			fmt.Fprintf(w, "[%s] %s\n", u.Severity, u.Message)
		},
	}
}

func dryRunTransport(w io.Writer) func(context.Context, submit.Payload) (submit.Verdict, error) {
	return func(_ context.Context, p submit.Payload) (submit.Verdict, error) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return submit.Verdict{}, &submit.TerminalError{Message: "encode payload", Err: err}
		}
		return submit.Verdict{Success: true, Message: "dry run"}, nil
	}
}
