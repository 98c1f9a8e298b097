package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/logging"
)

// addStoreCommands adds schema and company directory commands.
func addStoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newMigrateCmd(app))

	cmd := &cobra.Command{
		Use:   "company",
		Short: "Company directory",
	}
	cmd.AddCommand(newCompanyCreateCmd(app))
	cmd.AddCommand(newCompanyListCmd(app))
	rootCmd.AddCommand(cmd)
}

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Example: `  captable migrate
  captable migrate --down 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			b, err := app.open()
			if err != nil {
				return err
			}
			if b.Migrate == nil {
				output.Warning("This store has no schema to migrate.")
				return nil
			}

			down, _ := cmd.Flags().GetInt("down")
			var n int
			if down > 0 {
				n, err = b.Rollback(down)
			} else {
				n, err = b.Migrate()
			}
			if err != nil {
				return err
			}
			app.Logger.Info().Int("applied", n).Bool("down", down > 0).Msg("migrations run")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"applied": n, "down": down > 0})
			}
			if down > 0 {
				output.Success("Rolled back %d migration(s)", n)
			} else {
				output.Success("Applied %d migration(s)", n)
			}
			return nil
		},
	}
	cmd.Flags().Int("down", 0, "roll back this many migrations instead of applying")
	return cmd
}

func newCompanyCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a company",
		Long: `Register a company in the directory.

The company belongs to the tenant given with --tenant; without it the company is
visible to every caller.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			b, err := app.open()
			if err != nil {
				return err
			}

			company := &domain.Company{ID: uuid.New(), TenantID: act.TenantID, Name: args[0]}
			if err := company.Validate(); err != nil {
				return err
			}
			if err := b.Companies.Create(cmd.Context(), company); err != nil {
				return err
			}
			companyLogger := logging.WithCompany(app.Logger, company.ID.String())
			companyLogger.Info().Str("name", company.Name).Msg("company created")

			seed, _ := cmd.Flags().GetBool("seed")
			var seeded []*domain.ShareClass
			if seed {
				svc, err := app.services()
				if err != nil {
					return err
				}
				if seeded, err = svc.seeder.Seed(cmd.Context(), company.ID, act); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"company": company, "share_classes": seeded})
			}
			output.Success("Company %s created", company.Name)
			output.Field("ID", company.ID.String())
			for _, c := range seeded {
				output.Field("Class "+c.Code, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("seed", true, "create the default ON and PN share classes")
	return cmd
}

func newCompanyListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies visible to the caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			act, err := actor(cmd)
			if err != nil {
				return err
			}
			b, err := app.open()
			if err != nil {
				return err
			}

			all, err := b.Companies.List(cmd.Context())
			if err != nil {
				return err
			}
			companies := make([]*domain.Company, 0, len(all))
			for _, c := range all {
				if c.VisibleTo(act) {
					companies = append(companies, c)
				}
			}

			if output.IsJSON() {
				return output.JSON(companies)
			}
			if len(companies) == 0 {
				output.Warning("No companies registered.")
				return nil
			}
			table := NewTable(output, "ID", "Name")
			for _, c := range companies {
				table.AddRow(c.ID.String(), c.Name)
			}
			table.Render()
			return nil
		},
	}
}
