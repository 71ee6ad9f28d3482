// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/execstream/internal/issue"
)

func newIssueCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issue [name]",
		Short: "Explain a failure and how to fix it",
		Long: `Explain a failure and how to fix it.

Error messages end with the name of the issue describing them. Without a name,
all issues are listed.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(issue.Values()))
			for _, is := range issue.Values() {
				names = append(names, is.Name())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app)
				return nil
			}
			return renderIssue(app, args[0])
		},
	}
}

func listIssues(app *App) {
	p := app.paint
	fmt.Fprintln(app.stdout, p.render(TitleStyle, "Issues"))
	fmt.Fprintln(app.stdout)
	for _, is := range issue.Values() {
		fmt.Fprintf(app.stdout, "  %-24s %s\n", p.render(CmdStyle, is.Name()), p.render(SubtitleStyle, is.Title()))
	}
}

func renderIssue(app *App, name string) error {
	is := issue.Lookup(name)
	if is == nil {
		return issue.NewErrorContext().
			WithOperation("show issue").
			WithResource(name).
			WithSuggestion("Run 'execstream issue' to list the known issues").
			Wrap(fmt.Errorf("no issue named %q", name)).
			BuildError()
	}

	rendered, err := is.Render(app.paint.issueStyle())
	if err != nil {
		return fmt.Errorf("render issue %s: %w", name, err)
	}
	fmt.Fprint(app.stdout, rendered)
	return nil
}
