package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/blob"
	bgoogle "fintrack/internal/blob/google"
	"fintrack/internal/charts"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/services"
	sgoogle "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

const usageText = `Usage: fintrack <command> [flags]

Commands:
  register    create a new user
  login       verify credentials
  add         record a transaction
  update      edit a transaction
  delete      remove a transaction
  list        list transactions
  categories  print the suggested category names
  budget      manage monthly budgets (set | update | list | delete)
  alerts      show budget utilization alerts
  goal        manage savings goals (set | update | list | contribute | delete)
  report      print the full report
  export      write the workbook archive, or push it to Google Sheets
  chart       render the expense-by-category chart as PNG
  sync        back up the full export to the cloud blob store
`

type app struct {
	cfg    *config.Config
	logger *log.Logger
	repo   *storage.Repository

	accounts *services.AccountService
	ledger   *services.LedgerService
	budgets  *services.BudgetService
	goals    *services.GoalService
	reports  *services.ReportService
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		accounts: services.NewAccountService(repo),
		ledger:   services.NewLedgerService(repo, publisher),
		budgets:  services.NewBudgetService(repo, publisher),
		goals:    services.NewGoalService(repo, publisher),
	}
	a.reports = services.NewReportService(repo, a.budgets)

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "register":
		err = a.register(ctx, args)
	case "login":
		err = a.login(ctx, args)
	case "add":
		err = a.add(ctx, args)
	case "update":
		err = a.update(ctx, args)
	case "delete":
		err = a.delete(ctx, args)
	case "list":
		err = a.list(ctx, args)
	case "categories":
		err = a.categories()
	case "budget":
		err = a.budget(ctx, args)
	case "alerts":
		err = a.alerts(ctx, args)
	case "goal":
		err = a.goal(ctx, args)
	case "report":
		err = a.report(ctx, args)
	case "export":
		err = a.export(ctx, args)
	case "chart":
		err = a.chart(ctx, args)
	case "sync":
		err = a.sync(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usageText)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", log.FieldOperation, command, log.FieldError, err)
		os.Exit(1)
	}
}

func (a *app) resolveUser(ctx context.Context, username string) (core.User, error) {
	if username == "" {
		return core.User{}, fmt.Errorf("missing -user flag")
	}
	return a.repo.GetUserByUsername(ctx, username)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseAmount(s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, fmt.Errorf("missing -amount flag")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseNonNegativeAmount is parseAmount but permits zero, for fields the
// model allows at 0 (a goal's current amount).
func parseNonNegativeAmount(s string) (core.Money, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if v, err := strconv.ParseFloat(normalized, 64); err == nil && v == 0 {
		return core.Money{}, nil
	}
	return parseAmount(s)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "unique username")
	email := fs.String("email", "", "unique email address")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	user, err := a.accounts.Register(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := a.accounts.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Printf("welcome back, %s\n", user.Username)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	typ := fs.String("type", string(core.Expense), "income or expense")
	category := fs.String("category", "", "transaction category")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	description := fs.String("description", "", "optional description")
	date := fs.String("date", core.Today().String(), "transaction date (YYYY-MM-DD)")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	m, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	d, err := parseDate(*date)
	if err != nil {
		return err
	}

	id, err := a.ledger.Add(ctx, core.Transaction{
		UserID:      user.ID,
		Type:        core.TransactionType(*typ),
		Category:    *category,
		Amount:      m,
		Description: *description,
		Date:        d,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added transaction %d\n", id)
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	id := fs.Int64("id", 0, "transaction id")
	typ := fs.String("type", string(core.Expense), "income or expense")
	category := fs.String("category", "", "transaction category")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	description := fs.String("description", "", "optional description")
	date := fs.String("date", core.Today().String(), "transaction date (YYYY-MM-DD)")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	m, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	d, err := parseDate(*date)
	if err != nil {
		return err
	}

	if err := a.ledger.Update(ctx, core.Transaction{
		ID:          *id,
		UserID:      user.ID,
		Type:        core.TransactionType(*typ),
		Category:    *category,
		Amount:      m,
		Description: *description,
		Date:        d,
	}); err != nil {
		return err
	}
	fmt.Printf("updated transaction %d\n", *id)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	id := fs.Int64("id", 0, "transaction id")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	if err := a.ledger.Delete(ctx, user.ID, *id); err != nil {
		return err
	}
	fmt.Printf("deleted transaction %d\n", *id)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	typ := fs.String("type", "", "filter by income or expense")
	category := fs.String("category", "", "filter by category")
	from := fs.String("from", "", "start date inclusive (YYYY-MM-DD)")
	to := fs.String("to", "", "end date inclusive (YYYY-MM-DD)")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}

	filter := core.Filter{Type: core.TransactionType(*typ), Category: *category}
	if *from != "" {
		if filter.From, err = parseDate(*from); err != nil {
			return err
		}
	}
	if *to != "" {
		if filter.To, err = parseDate(*to); err != nil {
			return err
		}
	}

	txs, err := a.ledger.List(ctx, user.ID, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Type, t.Category, t.Amount, t.Description)
	}
	return w.Flush()
}

func (a *app) categories() error {
	for _, c := range core.SuggestedCategories {
		fmt.Println(c)
	}
	return nil
}

func (a *app) budget(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: fintrack budget <set|update|list|delete> [flags]")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "set":
		fs := flag.NewFlagSet("budget set", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		category := fs.String("category", "", "budget category")
		amount := fs.String("amount", "", "monthly limit, e.g. 500.00")
		month := fs.Int("month", int(time.Now().Month()), "month 1-12")
		year := fs.Int("year", time.Now().Year(), "year")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		m, err := parseAmount(*amount)
		if err != nil {
			return err
		}

		id, err := a.budgets.Set(ctx, core.Budget{
			UserID:   user.ID,
			Category: *category,
			Amount:   m,
			Month:    *month,
			Year:     *year,
		})
		if err != nil {
			return err
		}
		fmt.Printf("set budget %d\n", id)
		return nil

	case "update":
		fs := flag.NewFlagSet("budget update", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		id := fs.Int64("id", 0, "budget id")
		amount := fs.String("amount", "", "new monthly limit")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		m, err := parseAmount(*amount)
		if err != nil {
			return err
		}
		if err := a.budgets.Update(ctx, user.ID, *id, m); err != nil {
			return err
		}
		fmt.Printf("updated budget %d\n", *id)
		return nil

	case "list":
		fs := flag.NewFlagSet("budget list", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		month := fs.Int("month", int(time.Now().Month()), "month 1-12")
		year := fs.Int("year", time.Now().Year(), "year")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		budgets, err := a.budgets.List(ctx, user.ID, *month, *year)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tLIMIT\tMONTH")
		for _, b := range budgets {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\n", b.ID, b.Category, b.Amount, b.Month, b.Year)
		}
		return w.Flush()

	case "delete":
		fs := flag.NewFlagSet("budget delete", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		id := fs.Int64("id", 0, "budget id")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		if err := a.budgets.Delete(ctx, user.ID, *id); err != nil {
			return err
		}
		fmt.Printf("deleted budget %d\n", *id)
		return nil

	default:
		return fmt.Errorf("unknown budget subcommand %q", sub)
	}
}

func (a *app) alerts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	month := fs.Int("month", int(time.Now().Month()), "month 1-12")
	year := fs.Int("year", time.Now().Year(), "year")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	alerts, err := a.budgets.Alerts(ctx, user.ID, *month, *year)
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		fmt.Println("no alerts")
		return nil
	}
	for _, al := range alerts {
		fmt.Printf("[%s] %s: %.1f%% of budget used (%s / %s)\n",
			al.Severity, al.Category, al.Percentage, al.Spent, al.Budget)
	}
	return nil
}

func (a *app) goal(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: fintrack goal <set|update|list|contribute|delete> [flags]")
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "set":
		fs := flag.NewFlagSet("goal set", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		title := fs.String("title", "", "goal title")
		target := fs.String("target", "", "target amount, e.g. 5000.00")
		deadline := fs.String("deadline", "", "deadline (YYYY-MM-DD)")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		m, err := parseAmount(*target)
		if err != nil {
			return err
		}
		d, err := parseDate(*deadline)
		if err != nil {
			return err
		}

		id, err := a.goals.Set(ctx, core.Goal{
			UserID:   user.ID,
			Title:    *title,
			Target:   m,
			Deadline: d,
		})
		if err != nil {
			return err
		}
		fmt.Printf("set goal %d\n", id)
		return nil

	case "update":
		fs := flag.NewFlagSet("goal update", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		id := fs.Int64("id", 0, "goal id")
		title := fs.String("title", "", "goal title")
		target := fs.String("target", "", "target amount")
		current := fs.String("current", "0", "current amount")
		deadline := fs.String("deadline", "", "deadline (YYYY-MM-DD)")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		targetM, err := parseAmount(*target)
		if err != nil {
			return err
		}
		currentM, err := parseNonNegativeAmount(*current)
		if err != nil {
			return err
		}
		d, err := parseDate(*deadline)
		if err != nil {
			return err
		}

		if err := a.goals.Update(ctx, core.Goal{
			ID:       *id,
			UserID:   user.ID,
			Title:    *title,
			Target:   targetM,
			Current:  currentM,
			Deadline: d,
		}); err != nil {
			return err
		}
		fmt.Printf("updated goal %d\n", *id)
		return nil

	case "list":
		fs := flag.NewFlagSet("goal list", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		goals, err := a.goals.List(ctx, user.ID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTARGET\tCURRENT\tPROGRESS\tDEADLINE")
		for _, g := range goals {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f%%\t%s\n",
				g.ID, g.Title, g.Target, g.Current, g.Progress(), g.Deadline)
		}
		return w.Flush()

	case "contribute":
		fs := flag.NewFlagSet("goal contribute", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		id := fs.Int64("id", 0, "goal id")
		amount := fs.String("amount", "", "contribution amount")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		m, err := parseAmount(*amount)
		if err != nil {
			return err
		}
		if err := a.goals.Contribute(ctx, user.ID, *id, m); err != nil {
			return err
		}
		fmt.Printf("contributed %s to goal %d\n", m, *id)
		return nil

	case "delete":
		fs := flag.NewFlagSet("goal delete", flag.ExitOnError)
		username := fs.String("user", "", "owner username")
		id := fs.Int64("id", 0, "goal id")
		fs.Parse(args)

		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return err
		}
		if err := a.goals.Delete(ctx, user.ID, *id); err != nil {
			return err
		}
		fmt.Printf("deleted goal %d\n", *id)
		return nil

	default:
		return fmt.Errorf("unknown goal subcommand %q", sub)
	}
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	doc, err := a.reports.Document(ctx, user)
	if err != nil {
		return err
	}

	fmt.Printf("%s - %s (%s)\n\n", doc.Title, doc.Username, doc.GeneratedAt.Format("2006-01-02"))
	for _, row := range doc.SummaryRows {
		fmt.Printf("%-10s %s\n", row[0], row[1])
	}

	if len(doc.AlertLines) > 0 {
		fmt.Println("\nBudget alerts:")
		for _, line := range doc.AlertLines {
			fmt.Println("  " + line)
		}
	}

	if len(doc.TransactionsRows) > 0 {
		fmt.Println("\nRecent transactions:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, row := range doc.TransactionsRows {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4])
		}
		w.Flush()
	}

	if len(doc.GoalsRows) > 0 {
		fmt.Println("\nGoals:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, row := range doc.GoalsRows {
			fmt.Fprintf(w, "  %s\t%s / %s\t%s\tby %s\n", row[0], row[2], row[1], row[3], row[4])
		}
		w.Flush()
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	out := fs.String("out", "", "archive output path (default <username>.zip)")
	toSheets := fs.Bool("sheets", false, "push the workbook to Google Sheets instead")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	wb, err := a.reports.Workbook(ctx, user.ID)
	if err != nil {
		return err
	}

	if *toSheets {
		client, err := sgoogle.NewFromEnv(ctx)
		if err != nil {
			return err
		}
		ref, err := client.WriteWorkbook(ctx, wb)
		if err != nil {
			return err
		}
		fmt.Printf("exported to spreadsheet %s\n", ref)
		return nil
	}

	path := *out
	if path == "" {
		path = user.Username + ".zip"
	}
	if err := export.WriteArchive(path, wb); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func (a *app) chart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	out := fs.String("out", "expenses.png", "PNG output path")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}
	byCategory, err := a.ledger.SumByCategory(ctx, user.ID, core.Expense, core.DateRange{})
	if err != nil {
		return err
	}

	png, err := charts.NewGenerator().ExpensePie(byCategory)
	if err != nil {
		return err
	}
	if png == nil {
		fmt.Println("no expenses to chart")
		return nil
	}
	if err := os.WriteFile(*out, png, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}

func (a *app) sync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	username := fs.String("user", "", "owner username")
	fs.Parse(args)

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}

	var uploader blob.Uploader
	uploader, err = bgoogle.NewFromEnv(ctx)
	if err != nil {
		return err
	}

	cloudSync := worker.NewCloudSync(a.reports, uploader, a.cfg.SyncTempDir)
	for ev := range cloudSync.Run(ctx, user.ID) {
		switch ev.Type {
		case worker.EventProgress:
			fmt.Printf("sync %d%%\n", ev.Percent)
		case worker.EventFinished:
			fmt.Printf("sync finished: %s\n", ev.Ref)
		case worker.EventFailed:
			return ev.Err
		}
	}
	return nil
}
