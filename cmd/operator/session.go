package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/her-chat/internal/app"
	"github.com/easeaico/her-chat/internal/storage"
	"github.com/easeaico/her-chat/internal/types"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored chat sessions",
	}
	cmd.AddCommand(newSessionExportCmd())
	return cmd
}

func newSessionExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored chat session as Markdown or JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load session %s: %w", args[0], err)
			}
			var persona *types.Persona
			if session.PersonaID != "" {
				found, err := store.Personas.Get(cmd.Context(), session.PersonaID)
				switch {
				case err == nil:
					persona = &found
				case !errors.Is(err, storage.ErrNotFound):
					return fmt.Errorf("failed to load persona %s: %w", session.PersonaID, err)
				}
			}

			content, err := renderSession(session, persona, app.ExportFormat(format), time.Local)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(app.ExportMarkdown), "Output format: markdown or json")
	return cmd
}

func renderSession(session types.ChatSession, persona *types.Persona, format app.ExportFormat, loc *time.Location) ([]byte, error) {
	switch format {
	case app.ExportMarkdown, "":
		return []byte(app.RenderMarkdown(session, persona, loc) + "\n"), nil
	case app.ExportJSON:
		content, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode session: %w", err)
		}
		return append(content, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
