package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/easeaico/her-chat/internal/emotion"
	"github.com/easeaico/her-chat/internal/prompt"
	"github.com/easeaico/her-chat/internal/types"
)

func newPersonaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Render, import and export personas",
	}
	cmd.AddCommand(newPersonaRenderCmd(), newPersonaImportCmd(), newPersonaExportCmd())
	return cmd
}

func newPersonaRenderCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the system prompt for a persona (default: the built-in persona)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			persona := prompt.DefaultPersona(time.Now())
			if file != "" {
				loaded, err := readPersonaFile(file)
				if err != nil {
					return err
				}
				persona = loaded
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.RenderPersona(persona))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML persona file to render")
	return cmd
}

func newPersonaImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Insert or replace a persona from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			persona, err := readPersonaFile(args[0])
			if err != nil {
				return err
			}
			persona = preparePersona(persona, time.Now())

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Personas.Save(cmd.Context(), persona); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Imported persona %s (%s)\n", persona.Name, persona.ID)
			return nil
		},
	}
}

func newPersonaExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored persona as YAML to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			persona, err := store.Personas.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load persona %s: %w", args[0], err)
			}
			return writePersona(cmd.OutOrStdout(), persona)
		},
	}
}

func readPersonaFile(path string) (types.Persona, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Persona{}, fmt.Errorf("failed to open persona file: %w", err)
	}
	defer f.Close()
	return decodePersona(f)
}

func decodePersona(r io.Reader) (types.Persona, error) {
	var persona types.Persona
	if err := yaml.NewDecoder(r).Decode(&persona); err != nil {
		return types.Persona{}, fmt.Errorf("failed to decode persona yaml: %w", err)
	}
	if strings.TrimSpace(persona.Name) == "" {
		return types.Persona{}, fmt.Errorf("persona name is required")
	}
	return persona, nil
}

func writePersona(w io.Writer, persona types.Persona) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(persona); err != nil {
		return fmt.Errorf("failed to encode persona yaml: %w", err)
	}
	return enc.Close()
}

// preparePersona fills identity and timestamps and clamps the style sliders.
func preparePersona(persona types.Persona, now time.Time) types.Persona {
	if persona.ID == "" {
		persona.ID = uuid.NewString()
	}
	if persona.CharacterName == "" {
		persona.CharacterName = persona.Name
	}
	if persona.CreatedAt == 0 {
		persona.CreatedAt = now.UnixMilli()
	}
	persona.UpdatedAt = now.UnixMilli()
	persona.Style = emotion.ClampStyle(persona.Style)
	return persona
}
