package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/spf13/cobra"
)

func newAliasCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage school name aliases in the vocabulary file",
	}

	cmd.AddCommand(newAliasListCmd(state), newAliasAddCmd(state))

	return cmd
}

func newAliasListCmd(state *rootState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List school aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd.Context(), state.cfg, state.log, wireOptions{noLookup: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), a.vocab.SchoolAliases)
			}

			tokens := make([]string, 0, len(a.vocab.SchoolAliases))
			for token := range a.vocab.SchoolAliases {
				tokens = append(tokens, token)
			}
			slices.Sort(tokens)

			for _, token := range tokens {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", token, a.vocab.SchoolAliases[token]); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newAliasAddCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "add <token> <canonical>",
		Short: "Map a short school token to its canonical name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd.Context(), state.cfg, state.log, wireOptions{noLookup: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.vocabRepo.SaveSchoolAlias(cmd.Context(), args[0], args[1]); err != nil {
				if errors.Is(err, domain.ErrVocabularyNotFound) {
					return fmt.Errorf("%w (pass --vocabulary or set vocabulary.path)", err)
				}
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "alias saved: %s -> %s\n", args[0], args[1])
			return err
		},
	}
}
