package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Materialize and print an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := envRequest(cmd)
			if err != nil {
				return err
			}

			env, err := c.app.Environment(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "# group=%s platform=%s packages=%d\n", env.Group, env.Platform, len(env.Packages))
			for _, pkg := range env.Packages {
				_, _ = fmt.Fprintf(out, "%3d  %s@%s  %s:%s\n", pkg.Order, pkg.Name, pkg.Version, pkg.Source.Form, pkg.Source.Ref)
			}
			return nil
		},
	}
	addEnvFlags(cmd)
	return cmd
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Materialize an environment and build its packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := envRequest(cmd)
			if err != nil {
				return err
			}
			useTUI, _ := cmd.Flags().GetBool("tui")
			return c.app.Build(cmd.Context(), req, app.BuildOptions{TUI: useTUI})
		},
	}
	addEnvFlags(cmd)
	cmd.Flags().Bool("tui", false, "Render an interactive progress display")
	return cmd
}

func addEnvFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("group", "g", "", "Dependency group to materialize (default: all)")
	cmd.Flags().StringP("platform", "p", "", "Target platform (default: host)")
	cmd.Flags().StringArrayP("editable", "e", nil, "Editable package as name=path (repeatable)")
	cmd.Flags().StringArray("source-form", nil, "Per-package source form as name=form (repeatable)")
}

func envRequest(cmd *cobra.Command) (app.EnvRequest, error) {
	group, _ := cmd.Flags().GetString("group")
	platform, _ := cmd.Flags().GetString("platform")
	root, _ := cmd.Flags().GetString("workspace")

	editables, _ := cmd.Flags().GetStringArray("editable")
	editable, err := parsePairs(editables, "editable")
	if err != nil {
		return app.EnvRequest{}, err
	}

	formFlags, _ := cmd.Flags().GetStringArray("source-form")
	formPairs, err := parsePairs(formFlags, "source-form")
	if err != nil {
		return app.EnvRequest{}, err
	}
	var forms map[string]domain.SourceForm
	if len(formPairs) > 0 {
		forms = make(map[string]domain.SourceForm, len(formPairs))
		for pkg, form := range formPairs {
			switch f := domain.SourceForm(form); f {
			case domain.FormPrebuilt, domain.FormSource, domain.FormEditable:
				forms[pkg] = f
			default:
				return app.EnvRequest{}, zerr.New("unknown source form " + form)
			}
		}
	}

	return app.EnvRequest{
		Root:        root,
		Group:       group,
		Platform:    platform,
		Editable:    editable,
		SourceForms: forms,
	}, nil
}

func parsePairs(raw []string, flag string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pairs := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" || value == "" {
			return nil, zerr.New("--" + flag + " expects name=value, got " + entry)
		}
		pairs[key] = value
	}
	return pairs, nil
}
