// Package cli provides the command-line interface of the cap table ledger.
package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/captable-backend/internal/adapter/repository/memory"
	"github.com/simaogato/captable-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/captable-backend/internal/config"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/logging"
	"github.com/simaogato/captable-backend/internal/usecase/captable"
	"github.com/simaogato/captable-backend/internal/usecase/ledger"
	"github.com/simaogato/captable-backend/internal/usecase/reconcile"
	"github.com/simaogato/captable-backend/internal/usecase/registry"
	"github.com/simaogato/captable-backend/internal/usecase/seeder"
	"github.com/simaogato/captable-backend/internal/usecase/simulation"
)

// Version information
const Version = "0.3.0"

// Backend is the store the commands run against
type Backend struct {
	Companies    domain.CompanyStore
	ShareClasses domain.ShareClassRepository
	Shareholders domain.ShareholderRepository
	Shares       domain.ShareRepository
	Transactions domain.ShareTransactionRepository
	Transactor   domain.Transactor

	// Migrate and Rollback manage the schema; nil for stores without one
	Migrate  func() (int, error)
	Rollback func(steps int) (int, error)
	Close    func() error
}

// OpenPostgres connects to the configured database
func OpenPostgres(cfg *config.Config) (*Backend, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.Database.DSN(), cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Companies:    postgres.NewCompanyRepository(db),
		ShareClasses: postgres.NewShareClassRepository(db),
		Shareholders: postgres.NewShareholderRepository(db),
		Shares:       postgres.NewShareRepository(db),
		Transactions: postgres.NewShareTransactionRepository(db),
		Transactor:   postgres.NewTransactor(db),
		Migrate:      db.Migrate,
		Rollback:     db.Rollback,
		Close:        db.Close,
	}, nil
}

// NewMemoryBackend serves the commands from an in-memory store
func NewMemoryBackend(store *memory.Store) *Backend {
	return &Backend{
		Companies:    memory.NewCompanyRepository(store),
		ShareClasses: memory.NewShareClassRepository(store),
		Shareholders: memory.NewShareholderRepository(store),
		Shares:       memory.NewShareRepository(store),
		Transactions: memory.NewShareTransactionRepository(store),
		Transactor:   store,
		Close:        func() error { return nil },
	}
}

// services holds the use cases wired to one backend
type services struct {
	ledger     *ledger.LedgerService
	classes    *registry.ShareClassService
	holders    *registry.ShareholderService
	seeder     *seeder.ClassSeeder
	capTable   *captable.CapTableService
	simulation *simulation.SimulationService
	reconcile  *reconcile.Service
}

func newServices(b *Backend, cfg *config.Config, logger zerolog.Logger) *services {
	ledgerSvc := ledger.NewLedgerService(b.Companies, b.Shareholders, b.ShareClasses, b.Shares, b.Transactions, b.Transactor)
	ledgerSvc.Logger = logger

	classes := registry.NewShareClassService(b.Companies, b.ShareClasses, b.Shares)
	classes.Logger = logger

	holders := registry.NewShareholderService(b.Companies, b.Shareholders, b.Shares)
	holders.Logger = logger

	capTable := captable.NewCapTableService(b.Companies, b.Shareholders, b.ShareClasses, b.Shares)

	sim := simulation.NewSimulationService(b.Companies, b.Shares, capTable, simulation.Options{
		BaselineShares:      decimal.NewFromInt(cfg.Simulation.BaselineShares),
		DefaultInvestorName: cfg.Simulation.DefaultInvestorName,
		OptionPoolName:      cfg.Simulation.OptionPoolName,
	})
	sim.Logger = logger

	rec := reconcile.NewService(b.Companies, b.Shares, b.Transactions)
	rec.Logger = logger

	return &services{
		ledger:     ledgerSvc,
		classes:    classes,
		holders:    holders,
		seeder:     seeder.NewClassSeeder(b.Companies, b.ShareClasses),
		capTable:   capTable,
		simulation: sim,
		reconcile:  rec,
	}
}

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// OpenBackend is called on the first command that needs the store
	OpenBackend func(cfg *config.Config) (*Backend, error)

	backend *Backend
	svc     *services
}

// NewApp creates an App backed by PostgreSQL; configuration is loaded when a command runs
func NewApp() *App {
	return &App{
		Logger:      zerolog.Nop(),
		OpenBackend: OpenPostgres,
	}
}

func (a *App) open() (*Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	if a.OpenBackend == nil {
		return nil, errors.New("no backend configured")
	}

	b, err := a.OpenBackend(a.Config)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	a.backend = b
	a.Logger.Debug().Msg("store opened")
	return b, nil
}

func (a *App) services() (*services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	b, err := a.open()
	if err != nil {
		return nil, err
	}
	a.svc = newServices(b, a.Config, a.Logger)
	return a.svc, nil
}

// Close releases the store, if one was opened
func (a *App) Close() error {
	if a.backend == nil || a.backend.Close == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend, a.svc = nil, nil
	return err
}

// actor builds the acting identity from the global flags
func actor(cmd *cobra.Command) (domain.Actor, error) {
	var act domain.Actor
	var err error

	if act.UserID, err = optionalUUID(cmd, "user"); err != nil {
		return act, err
	}
	if act.TenantID, err = optionalUUID(cmd, "tenant"); err != nil {
		return act, err
	}
	return act, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "captable",
		Short: "Equity ledger and financing round simulator",
		Long: `captable records who owns which shares of a company, moves them through
issuance, transfer and cancellation, and projects the dilution of a financing round.

Use 'captable migrate' once to create the schema, then 'captable company create'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				cfg, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.Logger = logging.NewLoggerWithConfig(cfg.Log)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			app.Logger = logging.WithCommand(app.Logger, cmd.CommandPath())
			return nil
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/captable)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("user", "", "acting user ID recorded on every change")
	rootCmd.PersistentFlags().String("tenant", "", "acting tenant ID; companies of other tenants are hidden")

	rootCmd.AddCommand(newVersionCmd())
	addStoreCommands(rootCmd, app)
	addRegistryCommands(rootCmd, app)
	addLedgerCommands(rootCmd, app)
	addReportCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, "")
			if output.IsJSON() {
				return output.JSON(map[string]string{"version": Version})
			}
			output.Printf("captable v%s\n", Version)
			return nil
		},
	}
}

// output builds the command output with the configured currency
func (a *App) output(cmd *cobra.Command) *Output {
	currency := ""
	if a.Config != nil {
		currency = a.Config.Output.Currency
	}
	return NewOutput(cmd, currency)
}
