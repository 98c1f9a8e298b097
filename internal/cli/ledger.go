package cli

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/ledger"
)

// addLedgerCommands adds the equity movement commands.
func addLedgerCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newIssueCmd(app))
	rootCmd.AddCommand(newTransferCmd(app))
	rootCmd.AddCommand(newCancelCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
	rootCmd.AddCommand(newTransactionsCmd(app))
}

// movementFlags registers the flags shared by issue, transfer and cancel
func movementFlags(cmd *cobra.Command) {
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("class", "", "share class code or ID")
	cmd.Flags().String("quantity", "", "number of shares")
	cmd.Flags().String("date", "", "reference date YYYY-MM-DD (default: today)")
	cmd.Flags().String("number", "", "transaction number (default: next TXN-<year>-<seq>)")
	cmd.Flags().String("reason", "", "reason recorded on the transaction")
	cmd.Flags().String("notes", "", "free-form notes")
	cmd.Flags().String("document", "", "supporting document reference")
}

// movement holds the flag values shared by issue, transfer and cancel
type movement struct {
	act       domain.Actor
	svc       *services
	companyID uuid.UUID
	class     *domain.ShareClass
	quantity  decimal.Decimal
}

func newIssueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Short:   "Issue new shares to a shareholder",
		Example: `  captable issue --company $CO --holder 123.456.789-09 --class ON --quantity 600000 --price 0.01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			m, err := app.readMovement(cmd)
			if err != nil {
				return err
			}
			holderID, err := holderFlag(cmd, m, "holder")
			if err != nil {
				return err
			}
			price, err := decimalFlag(cmd, "price", false)
			if err != nil {
				return err
			}
			date, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}

			input := ledger.IssueSharesInput{
				CompanyID:     m.companyID,
				ShareholderID: holderID,
				ShareClassID:  m.class.ID,
				Quantity:      m.quantity,
				PricePerUnit:  price,
				ReferenceDate: date,
				Actor:         m.act,
			}
			input.TransactionNumber, _ = cmd.Flags().GetString("number")
			input.CertificateNumber, _ = cmd.Flags().GetString("certificate")
			input.Reason, _ = cmd.Flags().GetString("reason")
			input.Notes, _ = cmd.Flags().GetString("notes")
			input.DocumentReference, _ = cmd.Flags().GetString("document")

			result, err := m.svc.ledger.IssueShares(cmd.Context(), input)
			if err != nil {
				return err
			}
			return renderResult(output, result, m.class)
		},
	}
	movementFlags(cmd)
	cmd.Flags().String("holder", "", "shareholder document or ID")
	cmd.Flags().String("price", "0", "price per share")
	cmd.Flags().String("certificate", "", "certificate number of the new lot")
	return cmd
}

func newTransferCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer shares between shareholders",
		Long: `Transfer shares between two shareholders of the same company.

The sender's oldest lots are consumed first; a partially consumed lot leaves a
remainder lot with the original acquisition price and date.`,
		Example: `  captable transfer --company $CO --from 123.456.789-09 --to 987.654.321-00 --class ON --quantity 100 --price 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			m, err := app.readMovement(cmd)
			if err != nil {
				return err
			}
			fromID, err := holderFlag(cmd, m, "from")
			if err != nil {
				return err
			}
			toID, err := holderFlag(cmd, m, "to")
			if err != nil {
				return err
			}
			price, err := decimalFlag(cmd, "price", false)
			if err != nil {
				return err
			}
			date, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}

			input := ledger.TransferSharesInput{
				CompanyID:         m.companyID,
				FromShareholderID: fromID,
				ToShareholderID:   toID,
				ShareClassID:      m.class.ID,
				Quantity:          m.quantity,
				PricePerUnit:      price,
				ReferenceDate:     date,
				Actor:             m.act,
			}
			input.TransactionNumber, _ = cmd.Flags().GetString("number")
			input.CertificateNumber, _ = cmd.Flags().GetString("certificate")
			input.Reason, _ = cmd.Flags().GetString("reason")
			input.Notes, _ = cmd.Flags().GetString("notes")
			input.DocumentReference, _ = cmd.Flags().GetString("document")

			result, err := m.svc.ledger.TransferShares(cmd.Context(), input)
			if err != nil {
				return err
			}
			return renderResult(output, result, m.class)
		},
	}
	movementFlags(cmd)
	cmd.Flags().String("from", "", "sending shareholder document or ID")
	cmd.Flags().String("to", "", "receiving shareholder document or ID")
	cmd.Flags().String("price", "0", "price per share paid by the recipient")
	cmd.Flags().String("certificate", "", "certificate number of the recipient lot")
	return cmd
}

func newCancelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cancel",
		Short:   "Cancel shares held by a shareholder",
		Example: `  captable cancel --company $CO --holder 123.456.789-09 --class ON --quantity 50 --reason buyback`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			m, err := app.readMovement(cmd)
			if err != nil {
				return err
			}
			holderID, err := holderFlag(cmd, m, "holder")
			if err != nil {
				return err
			}
			date, err := dateFlag(cmd, "date")
			if err != nil {
				return err
			}

			input := ledger.CancelSharesInput{
				CompanyID:     m.companyID,
				ShareholderID: holderID,
				ShareClassID:  m.class.ID,
				Quantity:      m.quantity,
				ReferenceDate: date,
				Actor:         m.act,
			}
			input.TransactionNumber, _ = cmd.Flags().GetString("number")
			input.Reason, _ = cmd.Flags().GetString("reason")
			input.Notes, _ = cmd.Flags().GetString("notes")
			input.DocumentReference, _ = cmd.Flags().GetString("document")

			result, err := m.svc.ledger.CancelShares(cmd.Context(), input)
			if err != nil {
				return err
			}
			return renderResult(output, result, m.class)
		},
	}
	movementFlags(cmd)
	cmd.Flags().String("holder", "", "shareholder document or ID")
	return cmd
}

func newBalanceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show share balances",
		Long: `Show the active shares of one shareholder in one class, the total of one
class, or the total of the company, depending on the flags given.`,
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

			if _, err := app.visibleCompany(cmd.Context(), companyID, act); err != nil {
				return err
			}

			scope := "company"
			classRaw, _ := cmd.Flags().GetString("class")
			holderRaw, _ := cmd.Flags().GetString("holder")
			if holderRaw != "" && classRaw == "" {
				return usagef("--holder needs --class")
			}

			var class *domain.ShareClass
			if classRaw != "" {
				if class, err = classRef(cmd.Context(), svc, companyID, classRaw, act); err != nil {
					return err
				}
			}

			var balance decimal.Decimal
			switch {
			case holderRaw != "":
				scope = "holding"
				holderID, err := holderRef(cmd.Context(), svc, companyID, holderRaw, act)
				if err != nil {
					return err
				}
				balance, err = svc.ledger.GetShareholderBalance(cmd.Context(), holderID, class.ID)
				if err != nil {
					return err
				}
			case class != nil:
				scope = "class"
				balance, err = svc.ledger.GetTotalSharesByClass(cmd.Context(), class.ID)
			default:
				balance, err = svc.ledger.GetTotalSharesByCompany(cmd.Context(), companyID)
			}
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"scope": scope, "shares": balance})
			}
			label := "Company total"
			switch scope {
			case "holding":
				label = holderRaw + " in " + class.Code
			case "class":
				label = "Class " + class.Code
			}
			output.Field(label, FormatShares(balance))
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().String("class", "", "share class code or ID")
	cmd.Flags().String("holder", "", "shareholder document or ID")
	return cmd
}

func newTransactionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txs", "history"},
		Short:   "List the company's transactions in recording order",
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
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			if limit < 0 || offset < 0 {
				return usagef("--limit and --offset cannot be negative")
			}
			svc, err := app.services()
			if err != nil {
				return err
			}

			holders, err := svc.holders.ListShareholders(cmd.Context(), companyID, act)
			if err != nil {
				return err
			}
			txs, total, err := svc.ledger.ListTransactions(cmd.Context(), companyID, limit, offset)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"total": total, "transactions": txs})
			}
			if len(txs) == 0 {
				output.Warning("No transactions recorded.")
				return nil
			}

			names := make(map[uuid.UUID]string, len(holders))
			for _, h := range holders {
				names[h.ID] = h.Name
			}
			party := func(id *uuid.UUID) string {
				if id == nil {
					return "-"
				}
				if n, ok := names[*id]; ok {
					return n
				}
				return id.String()
			}

			table := NewTable(output, "Number", "Date", "Type", "From", "To", "Quantity", "Price", "Total")
			for _, tx := range txs {
				table.AddRow(
					tx.TransactionNumber,
					tx.ReferenceDate.Format(dateLayout),
					string(tx.Type),
					party(tx.FromShareholderID),
					party(tx.ToShareholderID),
					FormatShares(tx.Quantity),
					output.Money(tx.PricePerUnit),
					output.Money(tx.TotalValue()),
				)
			}
			table.Render()
			output.Println()
			output.Printf("Showing %d of %d transactions\n", len(txs), total)
			return nil
		},
	}
	cmd.Flags().String("company", "", "company ID")
	cmd.Flags().Int("limit", 50, "maximum transactions to show; 0 for all")
	cmd.Flags().Int("offset", 0, "transactions to skip")
	return cmd
}

// readMovement reads the company, class and quantity of a movement command
func (a *App) readMovement(cmd *cobra.Command) (*movement, error) {
	act, err := actor(cmd)
	if err != nil {
		return nil, err
	}
	companyID, err := requiredUUID(cmd, "company")
	if err != nil {
		return nil, err
	}
	classRaw, err := requiredString(cmd, "class")
	if err != nil {
		return nil, err
	}
	quantity, err := decimalFlag(cmd, "quantity", true)
	if err != nil {
		return nil, err
	}
	svc, err := a.services()
	if err != nil {
		return nil, err
	}
	class, err := classRef(cmd.Context(), svc, companyID, classRaw, act)
	if err != nil {
		return nil, err
	}

	return &movement{act: act, svc: svc, companyID: companyID, class: class, quantity: quantity}, nil
}

func holderFlag(cmd *cobra.Command, m *movement, name string) (uuid.UUID, error) {
	raw, err := requiredString(cmd, name)
	if err != nil {
		return uuid.Nil, err
	}
	return holderRef(cmd.Context(), m.svc, m.companyID, raw, m.act)
}

func renderResult(output *Output, result *ledger.Result, class *domain.ShareClass) error {
	if output.IsJSON() {
		return output.JSON(result)
	}

	tx := result.Transaction
	output.Success("%s %s recorded", tx.Type, tx.TransactionNumber)
	output.Field("Class", class.Code)
	output.Field("Quantity", FormatShares(tx.Quantity))
	if !tx.PricePerUnit.IsZero() {
		output.Field("Price per share", output.Money(tx.PricePerUnit))
		output.Field("Total", output.Money(tx.TotalValue()))
	}
	if result.Share != nil {
		output.Field("New lot", result.Share.ID.String())
	}
	for _, id := range result.Consumed {
		output.Field("Consumed lot", id.String())
	}
	for _, r := range result.Remainders {
		output.Field("Remainder lot", r.ID.String()+" ("+FormatShares(r.Quantity)+")")
	}
	return nil
}
