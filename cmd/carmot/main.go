package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/auth"
	"github.com/barale2906/carmot-go/dashboards"
	"github.com/barale2906/carmot-go/internal/config"
	"github.com/barale2906/carmot-go/internal/utils"
	"github.com/barale2906/carmot-go/kpis"
	"github.com/barale2906/carmot-go/metadata"
	"github.com/barale2906/carmot-go/nav"
	"github.com/barale2906/carmot-go/notifications"
	"github.com/barale2906/carmot-go/workspace"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CARMOT_CONFIG"))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)

	if len(args) == 0 {
		displayAppname(cfg.AppName)
		usage()
		return nil
	}

	app, err := newApp(cfg, &logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	command, rest := args[0], args[1:]

	switch command {
	case "login":
		err = app.login(ctx, rest)
	case "logout":
		err = app.logout(ctx)
	case "whoami":
		err = app.whoami(ctx)
	case "kpis":
		err = app.kpiCommand(ctx, rest)
	case "dashboards":
		err = app.dashboardCommand(ctx, rest)
	case "export-pdf":
		err = app.exportPDF(ctx, rest)
	case "help":
		displayAppname(cfg.AppName)
		usage()
	default:
		usage()
		err = fmt.Errorf("unknown command %q", command)
	}

	app.flushNotifications()
	return err
}

func usage() {
	fmt.Println(`Usage: carmot <command>

Commands:
  login [email]              Sign in and persist the credential
  logout                     End the session and clear the credential
  whoami                     Show the signed-in user
  kpis list                  List KPI definitions
  kpis show <id>             Show one KPI with fields and relations
  kpis delete <id>           Delete a KPI
  dashboards list            List dashboards
  dashboards show <id>       Show one dashboard and compute its cards
  export-pdf <id> <file>     Export a dashboard to a PDF file
  help                       Show this help`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

// app wires the client, stores, and facades for one CLI invocation.
type app struct {
	log        zerolog.Logger
	queue      *notifications.Store
	auth       *workspace.Auth
	kpis       *workspace.KPIs
	dashboards *workspace.Dashboards
	guard      *nav.Guard
}

func newApp(cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	credFile := cfg.CredentialFile
	if credFile == "" {
		credFile = config.DefaultCredentialFile()
	}
	creds := api.NewFileCredentials(credFile)

	var metrics *api.Metrics
	if cfg.Metrics.Enabled {
		metrics = api.NewMetrics(prometheus.NewRegistry())
	}

	queue := notifications.NewStore()

	var session *auth.SessionStore
	client, err := api.New(api.Config{
		BaseURL:     cfg.API.BaseURL,
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: cfg.API.Timeout},
		Logger:      logger,
		Metrics:     metrics,
		OnSessionInvalid: func() {
			if session != nil {
				session.MarkInvalid()
			}
			queue.Error("Sesión Expirada", "Tu sesión ha expirado. Por favor, inicia sesión nuevamente.")
		},
	})
	if err != nil {
		return nil, err
	}

	session = auth.NewSessionStore(client, auth.NewService(client), logger)
	lookups := metadata.NewStore(metadata.NewService(client), logger)

	return &app{
		log:        *logger,
		queue:      queue,
		auth:       workspace.NewAuth(session, queue),
		kpis:       workspace.NewKPIs(kpis.NewStore(kpis.NewService(client), logger), lookups, queue),
		dashboards: workspace.NewDashboards(dashboards.NewStore(dashboards.NewService(client), logger), queue),
		guard:      nav.NewGuard(session, logger),
	}, nil
}

// requireRoute runs the navigation guard for a protected route and reports
// whether the command may continue.
func (a *app) requireRoute(ctx context.Context, path string) error {
	route := nav.Route{Path: path, Requirement: nav.RequireAuth}
	decision := a.guard.Evaluate(ctx, route)
	if !decision.Proceed {
		return fmt.Errorf("not signed in, run: carmot login")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		email = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	ok, message := a.auth.Login(ctx, auth.Credentials{Email: email, Password: string(password)})
	if !ok {
		return errors.New(message)
	}
	fmt.Printf("Signed in as %s (%s)\n", a.auth.UserName(), a.auth.UserRole())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	fmt.Println("Signed out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.auth.CheckAuth(ctx) {
		fmt.Println("Not signed in")
		return nil
	}
	principal := a.auth.Principal()
	fmt.Printf("%s <%s> role=%s id=%d\n", principal.Name, principal.Email, principal.Role, principal.ID)
	return nil
}

func (a *app) kpiCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("kpis: subcommand required (list, show, delete)")
	}
	if err := a.requireRoute(ctx, "/kpis"); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		list, ok := a.kpis.LoadKPIs(ctx, url.Values{})
		if !ok {
			return errors.New(a.kpis.LastError())
		}
		for _, kpi := range list {
			status := "inactive"
			if kpi.IsActive {
				status = "active"
			}
			fmt.Printf("%6d  %-12s  %-30s  %s\n", kpi.ID, kpi.Code, kpi.Name, status)
		}
		fmt.Printf("%d KPIs\n", len(list))
		return nil
	case "show":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		kpi, ok := a.kpis.LoadKPI(ctx, id)
		if !ok {
			return errors.New(a.kpis.LastError())
		}
		fmt.Printf("KPI %d: %s (%s) calc=%s chart=%s\n", kpi.ID, kpi.Name, kpi.Code,
			utils.Value(kpi.CalculationType), utils.Value(kpi.ChartType))
		for _, field := range a.kpis.Store().Fields() {
			fmt.Printf("  field %d model_field=%d op=%s\n", field.ID, field.ModelFieldID, utils.Value(field.Operation))
		}
		for _, relation := range a.kpis.Store().Relations() {
			fmt.Printf("  relation %d %d %s %d\n", relation.ID, relation.LeftFieldID, relation.Operation, relation.RightFieldID)
		}
		return nil
	case "delete":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		if !a.kpis.RemoveKPI(ctx, id) {
			return errors.New(a.kpis.LastError())
		}
		return nil
	default:
		return fmt.Errorf("kpis: unknown subcommand %q", args[0])
	}
}

func (a *app) dashboardCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("dashboards: subcommand required (list, show)")
	}
	if err := a.requireRoute(ctx, nav.LandingPath); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		list, ok := a.dashboards.LoadDashboards(ctx, url.Values{})
		if !ok {
			return errors.New(a.dashboards.LastError())
		}
		for _, dashboard := range list {
			fmt.Printf("%6d  %s\n", dashboard.ID, dashboard.Name)
		}
		return nil
	case "show":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		dashboard, ok := a.dashboards.LoadDashboard(ctx, id)
		if !ok {
			return errors.New(a.dashboards.LastError())
		}
		fmt.Printf("Dashboard %d: %s %s\n", dashboard.ID, dashboard.Name, utils.Value(dashboard.Description))
		results, ok := a.dashboards.Refresh(ctx, nil)
		if !ok {
			return errors.New(a.dashboards.LastError())
		}
		for _, result := range results {
			fmt.Printf("  card %d kpi=%d points=%d\n", result.Card.ID, result.Card.KPIID, len(result.Data.Series))
		}
		return nil
	default:
		return fmt.Errorf("dashboards: unknown subcommand %q", args[0])
	}
}

func (a *app) exportPDF(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("export-pdf: usage: carmot export-pdf <id> <file>")
	}
	if err := a.requireRoute(ctx, nav.LandingPath); err != nil {
		return err
	}
	id, err := parseID(args)
	if err != nil {
		return err
	}

	pdf, ok := a.dashboards.ExportPDF(ctx, id)
	if !ok {
		return errors.New(a.dashboards.LastError())
	}
	if err := os.WriteFile(args[1], pdf, 0o644); err != nil {
		return fmt.Errorf("export-pdf write: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(pdf), args[1])
	return nil
}

// flushNotifications prints what the UI toaster would have shown.
func (a *app) flushNotifications() {
	for _, n := range a.queue.Active() {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
	}
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
