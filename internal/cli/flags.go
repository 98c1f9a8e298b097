package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/simulation"
)

const dateLayout = "2006-01-02"

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func requiredString(cmd *cobra.Command, name string) (string, error) {
	v, _ := cmd.Flags().GetString(name)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", usagef("--%s is required", name)
	}
	return v, nil
}

func requiredUUID(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, err := requiredString(cmd, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, usagef("--%s: %q is not a valid ID", name, raw)
	}
	return id, nil
}

func optionalUUID(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, usagef("--%s: %q is not a valid ID", name, raw)
	}
	return id, nil
}

// parseAmount reads a decimal written with a dot or a comma as decimal separator
func parseAmount(raw string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(raw)
	if strings.Contains(clean, ",") && !strings.Contains(clean, ".") {
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}
	clean = strings.ReplaceAll(clean, "_", "")
	return decimal.NewFromString(clean)
}

func decimalFlag(cmd *cobra.Command, name string, required bool) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		if required {
			return decimal.Zero, usagef("--%s is required", name)
		}
		return decimal.Zero, nil
	}
	d, err := parseAmount(raw)
	if err != nil {
		return decimal.Zero, usagef("--%s: %q is not a number", name, raw)
	}
	return d, nil
}

func optionalDecimal(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	d, err := decimalFlag(cmd, name, false)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, usagef("--%s: %q is not a date (YYYY-MM-DD)", name, raw)
	}
	return t, nil
}

// parseInvestor reads NAME=AMOUNT; a NAME that is a shareholder ID links the existing holder
func parseInvestor(raw string) (simulation.NewInvestor, error) {
	name, amount, ok := strings.Cut(raw, "=")
	if !ok {
		return simulation.NewInvestor{}, usagef("--investor %q: expected NAME=AMOUNT", raw)
	}
	value, err := parseAmount(amount)
	if err != nil {
		return simulation.NewInvestor{}, usagef("--investor %q: %q is not a number", raw, amount)
	}

	investor := simulation.NewInvestor{Name: strings.TrimSpace(name), InvestmentAmount: value}
	if id, err := uuid.Parse(investor.Name); err == nil {
		investor.ShareholderID = &id
		investor.Name = ""
	}
	return investor, nil
}

// parseScenario reads PRE_MONEY:INVESTMENT[:POOL_PERCENT]
func parseScenario(companyID uuid.UUID, raw string, poolPreMoney bool) (simulation.SimulateRoundInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return simulation.SimulateRoundInput{}, usagef("--scenario %q: expected PRE_MONEY:INVESTMENT[:POOL_PERCENT]", raw)
	}

	values := make([]decimal.Decimal, len(parts))
	for i, p := range parts {
		d, err := parseAmount(p)
		if err != nil {
			return simulation.SimulateRoundInput{}, usagef("--scenario %q: %q is not a number", raw, p)
		}
		values[i] = d
	}

	input := simulation.SimulateRoundInput{
		CompanyID:         companyID,
		PreMoneyValuation: values[0],
		InvestmentAmount:  values[1],
	}
	if len(values) == 3 {
		input.IncludeOptionPool = true
		input.OptionPoolPercentage = values[2]
		input.OptionPoolIsPreMoney = poolPreMoney
	}
	return input, nil
}

// holderRef resolves a shareholder given as an ID or as a tax document
func holderRef(ctx context.Context, svc *services, companyID uuid.UUID, ref string, act domain.Actor) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	holders, err := svc.holders.ListShareholders(ctx, companyID, act)
	if err != nil {
		return uuid.Nil, err
	}
	for _, h := range holders {
		if domain.NormalizeDocument(ref, h.DocumentType) == h.Document {
			return h.ID, nil
		}
	}
	return uuid.Nil, &domain.NotFoundError{Entity: "shareholder", ID: ref}
}

// classRef resolves a share class given as an ID or as its code
func classRef(ctx context.Context, svc *services, companyID uuid.UUID, ref string, act domain.Actor) (*domain.ShareClass, error) {
	ref = strings.TrimSpace(ref)
	id, err := uuid.Parse(ref)
	if err != nil {
		return svc.classes.GetShareClassByCode(ctx, companyID, ref, act)
	}

	classes, err := svc.classes.ListShareClasses(ctx, companyID, act)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.NewNotFoundError("share class", id)
}

// visibleCompany loads a company and hides it from actors of another tenant
func (a *App) visibleCompany(ctx context.Context, companyID uuid.UUID, act domain.Actor) (*domain.Company, error) {
	b, err := a.open()
	if err != nil {
		return nil, err
	}
	company, err := b.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(act) {
		return nil, domain.NewNotFoundError("company", companyID)
	}
	return company, nil
}
