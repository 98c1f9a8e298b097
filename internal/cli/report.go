package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/simulation"
)

// addReportCommands adds cap table, simulation and audit commands.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCapTableCmd(app))
	rootCmd.AddCommand(newSimulateCmd(app))
	rootCmd.AddCommand(newScenariosCmd(app))
	rootCmd.AddCommand(newDilutionCmd(app))
	rootCmd.AddCommand(newReconcileCmd(app))
}

func newCapTableCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "table",
		Aliases: []string{"cap-table", "ct"},
		Short:   "Show the current cap table",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			companyID, err := requiredUUID(cmd, "company")
			if err != nil {
				return err
			}
			company, err := app.visibleCompany(cmd.Context(), companyID, act)
			if err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			table, err := svc.capTable.GetCapTable(cmd.Context(), companyID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(table)
			}

			output.Title("Cap table - %s", company.Name)
			output.Field("Total shares", FormatShares(table.TotalShares))
			output.Field("Total invested", output.Money(table.TotalValue))
			output.Println()
			if len(table.Entries) == 0 {
				output.Warning("No shares issued yet.")
				return nil
			}
			renderEntries(output, table.Entries, false)

			output.Println()
			output.Title("By shareholder type")
			byType := NewTable(output, "Type", "Holders", "Shares", "Ownership")
			for _, s := range table.ByShareholderType {
				byType.AddRow(string(s.Type), fmt.Sprintf("%d", s.ShareholderCount), FormatShares(s.TotalShares), FormatPercent(s.OwnershipPercentage))
			}
			byType.Render()

			output.Println()
			output.Title("By share class")
			byClass := NewTable(output, "Class", "Name", "Shares", "Invested", "Ownership")
			for _, s := range table.ByShareClass {
				byClass.AddRow(s.ShareClassCode, s.ShareClassName, FormatShares(s.TotalShares), output.Money(s.TotalValue), FormatPercent(s.OwnershipPercentage))
			}
			byClass.Render()
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

// roundFlags registers the flags describing one financing round
func roundFlags(cmd *cobra.Command) {
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("pre-money", "", "pre-money valuation")
	cmd.Flags().String("investment", "", "total investment; defaults to the sum of --investor amounts")
	cmd.Flags().StringArray("investor", nil, "new investor as NAME=AMOUNT or SHAREHOLDER_ID=AMOUNT (repeatable)")
	cmd.Flags().String("pool", "", "option pool percentage of the post-round total")
	cmd.Flags().Bool("pool-pre-money", false, "the option pool is created before the round and dilutes only existing holders")
}

func newSimulateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project a financing round onto the cap table",
		Long: `Project a financing round onto the current cap table without recording anything.

The price per share is the pre-money valuation divided by the shares outstanding.
A company without shares is priced as if it had the configured baseline.`,
		Example: `  captable simulate --company $CO --pre-money 10000000 --investment 2000000
  captable simulate --company $CO --pre-money 8000000 --investor "Fundo A=1500000" --investor "Anjo B=500000" --pool 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			companyID, err := requiredUUID(cmd, "company")
			if err != nil {
				return err
			}
			input, err := readRound(cmd, companyID)
			if err != nil {
				return err
			}
			if _, err := app.visibleCompany(cmd.Context(), companyID, act); err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			result, err := svc.simulation.SimulateRound(cmd.Context(), input)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			renderSimulation(output, result)
			return nil
		},
	}
	roundFlags(cmd)
	return cmd
}

func newScenariosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenarios",
		Short:   "Compare several financing rounds side by side",
		Example: `  captable scenarios --company $CO --scenario 5000000:1000000 --scenario 8000000:1000000:10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			companyID, err := requiredUUID(cmd, "company")
			if err != nil {
				return err
			}

			raw, _ := cmd.Flags().GetStringArray("scenario")
			if len(raw) == 0 {
				return usagef("at least one --scenario is required")
			}
			if limit := app.Config.Simulation.MaxScenarios; limit > 0 && len(raw) > limit {
				return usagef("at most %d scenarios can be compared, got %d", limit, len(raw))
			}
			poolPreMoney, _ := cmd.Flags().GetBool("pool-pre-money")

			scenarios := make([]simulation.SimulateRoundInput, 0, len(raw))
			for _, r := range raw {
				s, err := parseScenario(companyID, r, poolPreMoney)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, s)
			}

			if _, err := app.visibleCompany(cmd.Context(), companyID, act); err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			results, err := svc.simulation.SimulateScenarios(cmd.Context(), scenarios)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(results)
			}
			table := NewTable(output, "#", "Pre-money", "Investment", "Post-money", "Price/share", "New shares", "Pool", "Dilution")
			for i, r := range results {
				pool := "-"
				if r.OptionPool != nil {
					pool = FormatShares(r.OptionPool.Shares)
				}
				table.AddRow(
					fmt.Sprintf("%d", i+1),
					output.Money(r.PreMoneyValuation),
					output.Money(r.InvestmentAmount),
					output.Money(r.PostMoneyValuation),
					r.PricePerShare.StringFixed(4),
					FormatShares(r.NewShares),
					pool,
					FormatPercent(r.TotalDilutionPercentage),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().StringArray("scenario", nil, "round as PRE_MONEY:INVESTMENT[:POOL_PERCENT] (repeatable)")
	cmd.Flags().Bool("pool-pre-money", false, "option pools are created before the round")
	return cmd
}

func newDilutionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dilution",
		Short: "Compute the total dilution of a round",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			companyID, err := requiredUUID(cmd, "company")
			if err != nil {
				return err
			}
			preMoney, err := decimalFlag(cmd, "pre-money", true)
			if err != nil {
				return err
			}
			investment, err := decimalFlag(cmd, "investment", true)
			if err != nil {
				return err
			}
			if _, err := app.visibleCompany(cmd.Context(), companyID, act); err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			dilution, err := svc.simulation.CalculateDilution(cmd.Context(), companyID, investment, preMoney)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"dilution_percentage": dilution})
			}
			output.Field("Total dilution", FormatPercent(dilution))
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("pre-money", "", "pre-money valuation")
	cmd.Flags().String("investment", "", "investment amount")
	return cmd
}

func newReconcileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check that active lots match the transaction history",
		Long: `Replay the company's transactions and compare every holding's balance with
the sum of its active lots. Exits with a business rule error when they diverge.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			companyID, err := requiredUUID(cmd, "company")
			if err != nil {
				return err
			}
			if _, err := app.visibleCompany(cmd.Context(), companyID, act); err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			report, err := svc.reconcile.Reconcile(cmd.Context(), companyID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				output.Field("Transactions", fmt.Sprintf("%d", report.Transactions))
				output.Field("Holdings", fmt.Sprintf("%d", len(report.Holdings)))
				if report.Consistent() {
					output.Success("Ledger and lots are consistent")
				}
				for _, m := range report.Mismatches {
					output.Error("Holding %s/%s: ledger %s, lots %s", m.ShareholderID, m.ShareClassID, m.LedgerBalance, m.LotBalance)
				}
				for _, m := range report.NegativeBalances {
					output.Error("Holding %s/%s went negative: %s", m.ShareholderID, m.ShareClassID, m.LedgerBalance)
				}
				for _, id := range report.DanglingLots {
					output.Error("Lot %s has no originating transaction", id)
				}
			}

			if !report.Consistent() {
				return domain.NewBusinessRuleError("ledger_consistency", "active lots do not match the transaction history")
			}
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

// readRound reads the round flags into a simulation input
func readRound(cmd *cobra.Command, companyID uuid.UUID) (simulation.SimulateRoundInput, error) {
	input := simulation.SimulateRoundInput{CompanyID: companyID}

	var err error
	if input.PreMoneyValuation, err = decimalFlag(cmd, "pre-money", true); err != nil {
		return input, err
	}
	if input.InvestmentAmount, err = decimalFlag(cmd, "investment", false); err != nil {
		return input, err
	}

	raw, _ := cmd.Flags().GetStringArray("investor")
	for _, r := range raw {
		investor, err := parseInvestor(r)
		if err != nil {
			return input, err
		}
		input.NewInvestors = append(input.NewInvestors, investor)
	}
	if input.InvestmentAmount.IsZero() && len(input.NewInvestors) == 0 {
		return input, usagef("--investment or at least one --investor is required")
	}

	if cmd.Flags().Changed("pool") {
		if input.OptionPoolPercentage, err = decimalFlag(cmd, "pool", true); err != nil {
			return input, err
		}
		input.IncludeOptionPool = true
		input.OptionPoolIsPreMoney, _ = cmd.Flags().GetBool("pool-pre-money")
	}
	return input, nil
}

func renderEntries(output *Output, entries []domain.CapTableEntry, withDelta bool) {
	headers := []string{"Shareholder", "Type", "Class", "Shares", "Value", "Ownership", "Voting"}
	if withDelta {
		headers = append(headers, "Dilution")
	}
	table := NewTable(output, headers...)
	for _, e := range entries {
		row := []string{
			e.ShareholderName,
			string(e.ShareholderType),
			e.ShareClassCode,
			FormatShares(e.Shares),
			output.Money(e.Value),
			FormatPercent(e.OwnershipPercentage),
			FormatPercent(e.VotingPercentage),
		}
		if withDelta {
			delta := "-"
			if !e.IsSynthetic {
				delta = FormatPercent(e.DilutionDelta)
			}
			row = append(row, delta)
		}
		table.AddRow(row...)
	}
	table.Render()
}

func renderSimulation(output *Output, r *domain.RoundSimulationResult) {
	output.Title("Round")
	output.Field("Pre-money", output.Money(r.PreMoneyValuation))
	output.Field("Investment", output.Money(r.InvestmentAmount))
	output.Field("Post-money", output.Money(r.PostMoneyValuation))
	output.Field("Price per share", r.PricePerShare.StringFixed(4))
	output.Field("Shares before", FormatShares(r.SharesBefore))
	output.Field("New shares", FormatShares(r.NewShares))
	output.Field("Shares after", FormatShares(r.SharesAfter))
	output.Field("Total dilution", FormatPercent(r.TotalDilutionPercentage))
	if r.UsedBaselineShares {
		output.Warning("No shares recorded; priced against the baseline share count.")
	}

	output.Println()
	output.Title("New investors")
	investors := NewTable(output, "Investor", "Investment", "Shares", "Ownership")
	for _, inv := range r.NewInvestors {
		investors.AddRow(inv.Name, output.Money(inv.InvestmentAmount), FormatShares(inv.Shares), FormatPercent(inv.OwnershipPercentage))
	}
	investors.Render()

	if r.OptionPool != nil {
		output.Println()
		when := "post-money"
		if r.OptionPool.IsPreMoney {
			when = "pre-money"
		}
		output.Title("Option pool (%s)", when)
		output.Field(r.OptionPool.Name, FormatShares(r.OptionPool.Shares)+" ("+FormatPercent(r.OptionPool.OwnershipPercentage)+")")
	}

	if len(r.CapTableBefore) > 0 {
		output.Println()
		output.Title("Before")
		renderEntries(output, r.CapTableBefore, false)
	}
	output.Println()
	output.Title("After")
	renderEntries(output, r.CapTableAfter, true)
}
