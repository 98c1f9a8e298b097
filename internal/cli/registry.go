package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/registry"
)

// addRegistryCommands adds share class and shareholder commands.
func addRegistryCommands(rootCmd *cobra.Command, app *App) {
	classCmd := &cobra.Command{
		Use:     "class",
		Aliases: []string{"classes"},
		Short:   "Share class registry",
	}
	classCmd.AddCommand(newClassSeedCmd(app))
	classCmd.AddCommand(newClassCreateCmd(app))
	classCmd.AddCommand(newClassListCmd(app))
	classCmd.AddCommand(newClassStatusCmd(app, "activate", domain.ShareClassStatusActive))
	classCmd.AddCommand(newClassStatusCmd(app, "deactivate", domain.ShareClassStatusInactive))
	classCmd.AddCommand(newClassDeleteCmd(app))
	rootCmd.AddCommand(classCmd)

	holderCmd := &cobra.Command{
		Use:     "holder",
		Aliases: []string{"holders", "shareholder"},
		Short:   "Shareholder registry",
	}
	holderCmd.AddCommand(newHolderCreateCmd(app))
	holderCmd.AddCommand(newHolderListCmd(app))
	holderCmd.AddCommand(newHolderStatusCmd(app))
	holderCmd.AddCommand(newHolderDeleteCmd(app))
	rootCmd.AddCommand(holderCmd)
}

func newClassSeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default ON and PN classes when missing",
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
			svc, err := app.services()
			if err != nil {
				return err
			}

			created, err := svc.seeder.Seed(cmd.Context(), companyID, act)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(created)
			}
			if len(created) == 0 {
				output.Warning("Default classes already exist.")
				return nil
			}
			for _, c := range created {
				output.Success("Created %s (%s)", c.Code, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newClassCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <code> <name>",
		Short: "Create a share class",
		Example: `  captable class create PNA "Preferencial Série A" --company $CO --votes 0 \
      --liquidation-preference 1.5 --convertible --converts-to ON --ratio 1`,
		Args: cobra.ExactArgs(2),
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
			svc, err := app.services()
			if err != nil {
				return err
			}

			votes, err := decimalFlag(cmd, "votes", false)
			if err != nil {
				return err
			}
			liquidation, err := decimalFlag(cmd, "liquidation-preference", false)
			if err != nil {
				return err
			}
			dividend, err := optionalDecimal(cmd, "dividend-preference")
			if err != nil {
				return err
			}
			ratio, err := optionalDecimal(cmd, "ratio")
			if err != nil {
				return err
			}
			tagAlong, err := decimalFlag(cmd, "tag-along", false)
			if err != nil {
				return err
			}

			input := registry.CreateShareClassInput{
				CompanyID:             companyID,
				Code:                  args[0],
				Name:                  args[1],
				HasVotingRights:       votes.IsPositive(),
				VotesPerShare:         votes,
				LiquidationPreference: liquidation,
				DividendPreference:    dividend,
				ConversionRatio:       ratio,
				Actor:                 act,
			}
			input.Description, _ = cmd.Flags().GetString("description")
			input.IsParticipating, _ = cmd.Flags().GetBool("participating")
			input.IsConvertible, _ = cmd.Flags().GetBool("convertible")
			input.DisplayOrder, _ = cmd.Flags().GetInt("order")

			antiDilution, _ := cmd.Flags().GetString("anti-dilution")
			input.AntiDilution = domain.AntiDilutionKind(strings.ToUpper(strings.TrimSpace(antiDilution)))

			input.Rights.TagAlongPercentage = tagAlong
			input.Rights.DragAlong, _ = cmd.Flags().GetBool("drag-along")
			input.Rights.Preemptive, _ = cmd.Flags().GetBool("preemptive")
			input.Rights.InformationRights, _ = cmd.Flags().GetBool("information-rights")
			input.Rights.BoardSeats, _ = cmd.Flags().GetInt("board-seats")

			if cmd.Flags().Changed("converts-to") {
				ref, _ := cmd.Flags().GetString("converts-to")
				target, err := classRef(cmd.Context(), svc, companyID, ref, act)
				if err != nil {
					return err
				}
				input.ConvertsToClassID = &target.ID
			}

			class, err := svc.classes.CreateShareClass(cmd.Context(), input)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(class)
			}
			output.Success("Share class %s created", class.Code)
			output.Field("ID", class.ID.String())
			output.Field("Votes per share", class.VotesPerShare.String())
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("description", "", "free-form description")
	cmd.Flags().String("votes", "1", "votes per share; 0 for non-voting classes")
	cmd.Flags().String("liquidation-preference", "1", "liquidation preference multiple")
	cmd.Flags().Bool("participating", false, "participates after the preference is paid")
	cmd.Flags().String("dividend-preference", "", "dividend preference percentage")
	cmd.Flags().Bool("convertible", false, "shares convert into another class")
	cmd.Flags().String("converts-to", "", "target class code or ID")
	cmd.Flags().String("ratio", "", "conversion ratio")
	cmd.Flags().String("anti-dilution", string(domain.AntiDilutionNone), "NONE, FULL_RATCHET or WEIGHTED_AVERAGE")
	cmd.Flags().String("tag-along", "", "tag-along percentage")
	cmd.Flags().Bool("drag-along", false, "class is bound by drag-along")
	cmd.Flags().Bool("preemptive", false, "class has preemptive rights")
	cmd.Flags().Bool("information-rights", false, "class has information rights")
	cmd.Flags().Int("board-seats", 0, "board seats appointed by the class")
	cmd.Flags().Int("order", 0, "display order")
	return cmd
}

func newClassListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List share classes",
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
			svc, err := app.services()
			if err != nil {
				return err
			}

			classes, err := svc.classes.ListShareClasses(cmd.Context(), companyID, act)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(classes)
			}
			if len(classes) == 0 {
				output.Warning("No share classes. Run 'captable class seed' to create the defaults.")
				return nil
			}
			table := NewTable(output, "Code", "Name", "Votes", "Liq. Pref.", "Convertible", "Status", "ID")
			for _, c := range classes {
				table.AddRow(
					c.Code,
					c.Name,
					c.VotesPerShare.String(),
					c.LiquidationPreference.String()+"x",
					strconv.FormatBool(c.IsConvertible),
					string(c.Status),
					c.ID.String(),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newClassStatusCmd(app *App, use string, status domain.ShareClassStatus) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <code|id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a share class",
		Args:  cobra.ExactArgs(1),
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
			svc, err := app.services()
			if err != nil {
				return err
			}
			class, err := classRef(cmd.Context(), svc, companyID, args[0], act)
			if err != nil {
				return err
			}

			if status == domain.ShareClassStatusActive {
				class, err = svc.classes.ActivateShareClass(cmd.Context(), class.ID, act)
			} else {
				class, err = svc.classes.DeactivateShareClass(cmd.Context(), class.ID, act)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(class)
			}
			output.Success("Share class %s is now %s", class.Code, class.Status)
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newClassDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <code|id>",
		Short: "Delete a share class without active shares",
		Args:  cobra.ExactArgs(1),
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
			svc, err := app.services()
			if err != nil {
				return err
			}
			class, err := classRef(cmd.Context(), svc, companyID, args[0], act)
			if err != nil {
				return err
			}

			if err := svc.classes.DeleteShareClass(cmd.Context(), class.ID, act); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": class.ID.String()})
			}
			output.Success("Share class %s deleted", class.Code)
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newHolderCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a shareholder",
		Example: `  captable holder create "Ana Souza" --company $CO --document 123.456.789-09 --type FOUNDER
  captable holder create "Fundo XYZ" --company $CO --document 12.345.678/0001-90 --document-type CNPJ --type INVESTOR`,
		Args: cobra.ExactArgs(1),
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
			document, err := requiredString(cmd, "document")
			if err != nil {
				return err
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			docType, _ := cmd.Flags().GetString("document-type")
			holderType, _ := cmd.Flags().GetString("type")
			input := registry.CreateShareholderInput{
				CompanyID:    companyID,
				Name:         args[0],
				Document:     document,
				DocumentType: domain.DocumentType(strings.ToUpper(strings.TrimSpace(docType))),
				Type:         domain.ShareholderType(strings.ToUpper(strings.TrimSpace(holderType))),
				Actor:        act,
			}
			input.Email, _ = cmd.Flags().GetString("email")
			input.Phone, _ = cmd.Flags().GetString("phone")
			input.Address, _ = cmd.Flags().GetString("address")

			holder, err := svc.holders.CreateShareholder(cmd.Context(), input)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(holder)
			}
			output.Success("Shareholder %s registered", holder.Name)
			output.Field("ID", holder.ID.String())
			output.Field("Document", string(holder.DocumentType)+" "+holder.Document)
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("document", "", "tax document (CPF, CNPJ, passport)")
	cmd.Flags().String("document-type", string(domain.DocumentTypeCPF), "CPF, CNPJ, PASSPORT or OTHER")
	cmd.Flags().String("type", string(domain.ShareholderTypeFounder), "FOUNDER, INVESTOR, EMPLOYEE, ADVISOR, ESOP or OTHER")
	cmd.Flags().String("email", "", "contact email")
	cmd.Flags().String("phone", "", "contact phone")
	cmd.Flags().String("address", "", "postal address")
	return cmd
}

func newHolderListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shareholders",
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
			svc, err := app.services()
			if err != nil {
				return err
			}

			holders, err := svc.holders.ListShareholders(cmd.Context(), companyID, act)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(holders)
			}
			if len(holders) == 0 {
				output.Warning("No shareholders registered.")
				return nil
			}
			table := NewTable(output, "Name", "Type", "Document", "Status", "ID")
			for _, h := range holders {
				table.AddRow(h.Name, string(h.Type), string(h.DocumentType)+" "+h.Document, string(h.Status), h.ID.String())
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newHolderStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <document|id> <ACTIVE|SUSPENDED|INACTIVE>",
		Short: "Change a shareholder's status",
		Args:  cobra.ExactArgs(2),
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
			svc, err := app.services()
			if err != nil {
				return err
			}
			holderID, err := holderRef(cmd.Context(), svc, companyID, args[0], act)
			if err != nil {
				return err
			}

			status := domain.ShareholderStatus(strings.ToUpper(strings.TrimSpace(args[1])))
			holder, err := svc.holders.UpdateShareholderStatus(cmd.Context(), holderID, status, act)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(holder)
			}
			output.Success("Shareholder %s is now %s", holder.Name, holder.Status)
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}

func newHolderDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document|id>",
		Short: "Delete a shareholder without active shares",
		Args:  cobra.ExactArgs(1),
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
			svc, err := app.services()
			if err != nil {
				return err
			}
			holderID, err := holderRef(cmd.Context(), svc, companyID, args[0], act)
			if err != nil {
				return err
			}

			if err := svc.holders.DeleteShareholder(cmd.Context(), holderID, act); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": holderID.String()})
			}
			output.Success("Shareholder deleted")
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	return cmd
}
