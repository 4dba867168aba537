package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gojankovic/fpl-insights/internal/forecast"
)

var (
	predictPlayers     []int
	predictPeriod      int
	predictDetail      bool
	predictOverrides   map[string]string
	predictFrom        int
	predictTo          int
	predictTop         int
	predictPool        int
	predictUnavailable bool
)

func init() {
	predictCmd.Flags().IntSliceVarP(&predictPlayers, "player", "p", nil, "Player id(s) to predict; with --from, the pool to rank")
	predictCmd.Flags().IntVar(&predictPeriod, "period", 0, "Target period (gameweek)")
	predictCmd.Flags().BoolVar(&predictDetail, "detail", false, "Include the per-stage breakdown")
	predictCmd.Flags().StringToStringVar(&predictOverrides, "set", nil, "Parameter overrides, e.g. --set shrink_k=12")
	predictCmd.Flags().IntVar(&predictFrom, "from", 0, "Rank players from this period")
	predictCmd.Flags().IntVar(&predictTo, "to", 0, "Rank players up to this period (defaults to --from)")
	predictCmd.Flags().IntVar(&predictTop, "top", forecast.DefaultRankTopN, "Number of ranked players to show (0 shows all)")
	predictCmd.Flags().IntVar(&predictPool, "pool", forecast.DefaultRankPoolSize, "Player pool size to rank from (0 ranks everyone)")
	predictCmd.Flags().BoolVar(&predictUnavailable, "include-unavailable", false, "Rank injured, suspended and unavailable players too")
}

// rankRange reports whether the flags ask for a ranking and over which periods
func rankRange(players []int, period, from, to int) (bool, int, int, error) {
	if from == 0 && to == 0 {
		if len(players) == 0 || period == 0 {
			return false, 0, 0, fmt.Errorf("either --player with --period, or --from is required")
		}
		return false, 0, 0, nil
	}
	if period != 0 {
		return false, 0, 0, fmt.Errorf("--period cannot be combined with --from/--to")
	}
	if from == 0 {
		return false, 0, 0, fmt.Errorf("--to needs --from")
	}
	if to == 0 {
		to = from
	}
	return true, from, to, nil
}

func parseOverrides(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict expected points for players, or rank them over a period range",
	RunE: func(cmd *cobra.Command, args []string) error {
		rank, from, to, err := rankRange(predictPlayers, predictPeriod, predictFrom, predictTo)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		latest, err := a.predictor.LatestKnownPeriod(ctx)
		if err != nil {
			return err
		}
		opts := []forecast.Option{forecast.WithLatestKnownPeriod(latest)}
		if len(predictOverrides) > 0 {
			overrides, err := parseOverrides(predictOverrides)
			if err != nil {
				return err
			}
			opts = append(opts, forecast.WithParameters(a.store.Current().WithOverrides(overrides)))
		}

		if rank {
			return runRanking(cmd, a, forecast.RankRequest{
				From:               from,
				To:                 to,
				TopN:               predictTop,
				PlayerIDs:          predictPlayers,
				PoolSize:           predictPool,
				IncludeUnavailable: predictUnavailable,
			}, opts)
		}

		breakdowns := make([]*forecast.Breakdown, 0, len(predictPlayers))
		for _, id := range predictPlayers {
			b, err := a.predictor.PredictDetailed(ctx, id, predictPeriod, opts...)
			if err != nil {
				return err
			}
			breakdowns = append(breakdowns, b)
		}

		if outputFormat == "json" {
			if predictDetail {
				return writeJSON(os.Stdout, breakdowns)
			}
			results := make([]interface{}, 0, len(breakdowns))
			for _, b := range breakdowns {
				results = append(results, b.Result())
			}
			return writeJSON(os.Stdout, results)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if predictDetail {
			fmt.Fprintln(tw, "Player\tPos\tGW\tMinutes\tRate\tRole\tFixtures\tMean\tStd")
			for _, b := range breakdowns {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.3f\t%.3f\t%v\t%.3f\t%.3f\n",
					b.PlayerID, b.Position, b.Period, b.ExpectedMinutes, b.Rate, b.RoleMultiplier, b.Difficulties, b.Mean, b.Std)
			}
		} else {
			fmt.Fprintln(tw, "Player\tPos\tGW\tMean\tStd\tBlank")
			for _, b := range breakdowns {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%.3f\t%v\n", b.PlayerID, b.Position, b.Period, b.Mean, b.Std, b.Blank)
			}
		}
		return tw.Flush()
	},
}

func runRanking(cmd *cobra.Command, a *app, req forecast.RankRequest, opts []forecast.Option) error {
	ranked, err := a.predictor.RankPlayers(cmd.Context(), req, opts...)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return writeJSON(os.Stdout, ranked)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "#\tPlayer\tName\tTeam\tPos\tTotal"
	for gw := req.From; gw <= req.To; gw++ {
		header += fmt.Sprintf("\tGW%d", gw)
	}
	fmt.Fprintln(tw, header)
	for i, r := range ranked {
		row := fmt.Sprintf("%d\t%d\t%s\t%d\t%s\t%.2f", i+1, r.PlayerID, r.WebName, r.TeamID, r.Position, r.Total)
		for _, pp := range r.PerPeriod {
			row += "\t" + periodCell(pp)
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

// periodCell renders points with the fixture difficulties, or BLANK
func periodCell(pp forecast.PeriodPoints) string {
	if len(pp.Difficulties) == 0 {
		return fmt.Sprintf("%.1f BLANK", pp.Points)
	}
	diffs := make([]string, len(pp.Difficulties))
	for i, d := range pp.Difficulties {
		diffs[i] = "d" + strconv.Itoa(d)
	}
	return fmt.Sprintf("%.1f %s", pp.Points, strings.Join(diffs, "/"))
}
