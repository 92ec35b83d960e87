package cmd

import (
	"fmt"
	"strings"

	"github.com/cmass-sales/visitlog/internal/application"
	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/spf13/cobra"
)

type resolvedSchool struct {
	Token     string `json:"token"`
	Cleaned   string `json:"cleaned"`
	School    string `json:"school"`
	Strategy  string `json:"strategy"`
	Level     string `json:"schoolLevel"`
	Owner     string `json:"assigned_sales"`
	Region    string `json:"region"`
	Location  string `json:"location"`
	NEISCode  string `json:"neis_code,omitempty"`
	Ambiguous bool   `json:"ambiguous"`
}

func newResolveCmd(state *rootState) *cobra.Command {
	var reporter, contextText string
	var noLookup, asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <token>...",
		Short: "Show how school name tokens resolve to canonical names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := wireApp(ctx, state.cfg, state.log, wireOptions{noLookup: noLookup})
			if err != nil {
				return err
			}
			defer a.Close()

			hint := application.ResolveHint{
				Context:  contextText,
				Reporter: application.NormalizeStaffName(reporter, a.vocab),
			}

			results := make([]resolvedSchool, 0, len(args))
			for _, token := range args {
				results = append(results, resolveToken(cmd, a, token, hint))
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			for _, r := range results {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), formatResolved(r)); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&reporter, "reporter", "", "Reporting staff member used to break roster ties")
	cmd.Flags().StringVar(&contextText, "context", "", "Message text searched for region hints")
	cmd.Flags().BoolVar(&noLookup, "no-lookup", false, "Skip network registry lookups")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func resolveToken(cmd *cobra.Command, a *app, token string, hint application.ResolveHint) resolvedSchool {
	ctx := cmd.Context()
	cleaned := application.CleanSchoolToken(strings.TrimSpace(token))
	resolution := a.resolver.Explain(ctx, cleaned, hint)
	profile := a.resolver.Profile(ctx, resolution.Name)

	result := resolvedSchool{
		Token:     token,
		Cleaned:   cleaned,
		School:    resolution.Name,
		Strategy:  resolution.Strategy,
		Level:     string(domain.DetectLevel(resolution.Name)),
		Owner:     profile.Owner,
		Region:    profile.Region,
		Location:  profile.Location,
		Ambiguous: len(a.roster.Matching(cleaned)) > 1,
	}
	if profile.HasRecord {
		result.NEISCode = profile.Record.Code
	}

	return result
}

func formatResolved(r resolvedSchool) string {
	line := fmt.Sprintf("%s -> %s (%s)", r.Token, r.School, r.Strategy)

	var details []string
	if r.Level != "" {
		details = append(details, "level "+r.Level)
	}
	if r.Owner != "" {
		details = append(details, "owner "+r.Owner)
	}
	if r.Region != "" {
		details = append(details, "region "+r.Region)
	}
	if r.NEISCode != "" {
		details = append(details, "code "+r.NEISCode)
	}
	if r.Ambiguous {
		details = append(details, "ambiguous in roster")
	}
	if len(details) > 0 {
		line += " [" + strings.Join(details, ", ") + "]"
	}

	return line
}
