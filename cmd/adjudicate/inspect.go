package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

func newAdjustmentsCmd(a *app) *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "adjustments <dfen>",
		Short: "Show how many units each power builds or removes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := diplomacy.DecodeDFEN(args[0])
			if err != nil {
				return err
			}
			p := a.cfg.Rules().BuildPolicy
			if policy != "" {
				if p, err = diplomacy.ParseBuildPolicy(policy); err != nil {
					return err
				}
			}

			m := diplomacy.StandardMap()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POWER\tCENTERS\tUNITS\tADJUST")
			for _, power := range diplomacy.AllPowers() {
				info := diplomacy.ComputeAdjustment(gs, m, p, power)
				fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\n", power, info.SupplyCenters, info.Units, info.Amount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "build policy: home-only, any-owned or any-if-home-owned (overrides BUILD_POLICY)")
	return cmd
}

func newRetreatsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retreats <dfen>",
		Short: "List legal retreats for each dislodged unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := diplomacy.DecodeDFEN(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(gs.Dislodged) == 0 {
				fmt.Fprintln(w, "no dislodged units")
				return nil
			}
			rc := diplomacy.NewRetreatChecker(gs, diplomacy.StandardMap(), gs.PriorMoves)
			for _, d := range gs.Dislodged {
				u := d.Unit
				dests := rc.ValidDestinations(u.Loc())
				names := make([]string, len(dests))
				for i, l := range dests {
					names[i] = l.String()
				}
				list := strings.Join(names, " ")
				if list == "" {
					list = "none (disbands)"
				}
				fmt.Fprintf(w, "%s %s %s: %s\n", u.Power, u.Type.Abbrev(), u.Loc(), list)
			}
			return nil
		},
	}
}
