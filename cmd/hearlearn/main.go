package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/mmcdole/hearlearn/internal/adapter"
	"github.com/mmcdole/hearlearn/internal/conversion"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/search"
	"github.com/mmcdole/hearlearn/internal/tui"
	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                                            \r"

func main() {
	app := &cli.App{
		Name:    "hearlearn",
		Usage:   "Listen to PDF documents page by page",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"HEARLEARN_CONFIG"},
			},
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Upload a PDF and add it to the library",
				ArgsUsage: "<file.pdf>",
				Action:    runImport,
			},
			{
				Name:   "list",
				Usage:  "List the books in the library",
				Action: runList,
			},
			{
				Name:      "remove",
				Usage:     "Remove a book and its cached pages",
				ArgsUsage: "<id>",
				Action:    runRemove,
			},
			{
				Name:  "clear",
				Usage: "Remove every book from the library",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm removing every book",
					},
				},
				Action: runClear,
			},
			{
				Name:   "check",
				Usage:  "Check that the conversion service is reachable",
				Action: runCheck,
			},
			{
				Name:   "save-config",
				Usage:  "Write the effective configuration to the config file",
				Action: runSaveConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the application graph
func setup(c *cli.Context) (*App, error) {
	cfg, err := adapter.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting hearlearn", "version", Version, "args", c.Args().Slice())

	return NewApp(cfg, logger)
}

func runTUI(c *cli.Context) error {
	if c.Args().Present() {
		return cli.ShowAppHelp(c)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the interactive player needs a terminal; see hearlearn --help for scriptable commands")
	}

	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Close()

	model := tui.NewModel(tui.Deps{
		Library:   app.Library,
		Player:    app.Player,
		Observer:  tui.NewChannelObserver(0),
		Speaker:   app.Speaker,
		SaveTheme: adapter.SaveTheme,
		Theme:     app.Config.UI.Theme,
		ServerURL: app.Config.Server.URL,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	app.Logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		app.Logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	app.Logger.Info("shutting down")
	return nil
}

func runImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: hearlearn import <file.pdf>", 2)
	}
	path := adapter.ExpandHome(c.Args().First())

	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	book, err := importWithSpinner(ctx, app, path)
	switch {
	case err != nil && book.ID == "":
		return err
	case err != nil:
		fmt.Printf("✗ Added %s (%s) but its first page could not be loaded: %v\n", search.Title(book), book.ID, err)
		return nil
	}

	fmt.Printf("✓ Added %s (%s, %d pages)\n", search.Title(book), book.ID, book.TotalPages)
	return nil
}

// importWithSpinner runs the import, drawing a spinner when stdout is a terminal
func importWithSpinner(ctx context.Context, app *App, path string) (domain.Book, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return app.Library.Import(ctx, path, nil)
	}

	type result struct {
		book domain.Book
		err  error
	}
	resultCh := make(chan result, 1)
	stageCh := make(chan domain.ImportProgress, 4)

	go func() {
		book, err := app.Library.Import(ctx, path, func(p domain.ImportProgress) {
			stageCh <- p
		})
		resultCh <- result{book, err}
	}()

	label := "Uploading..."
	frame := 0
	fmt.Printf("\r%s %s", styles.SpinnerFrames[frame], label)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			return res.book, res.err

		case p := <-stageCh:
			switch p.Stage {
			case domain.ImportStageUploading:
				label = "Uploading " + p.FileName + "..."
			case domain.ImportStageVerifying:
				label = fmt.Sprintf("Checking first page of %s (%d pages)...", p.FileName, p.TotalPages)
			case domain.ImportStageSaved:
				label = "Saving..."
			}

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s %s", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], label)
		}
	}
}

func runList(c *cli.Context) error {
	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Close()

	books, err := app.Library.Books()
	if err != nil {
		return fmt.Errorf("failed to read library: %w", err)
	}
	if len(books) == 0 {
		fmt.Println("The library is empty. Add a PDF with: hearlearn import <file.pdf>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPROGRESS\tADDED")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, search.Title(b), b.Status, b.FormattedProgress(), b.AddedTime().Format("2006-01-02"))
	}
	return w.Flush()
}

func runRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: hearlearn remove <id>", 2)
	}
	id := c.Args().First()

	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Close()

	book, err := app.Library.Book(id)
	if err != nil {
		return err
	}
	if err := app.Library.Remove(id); err != nil {
		return fmt.Errorf("failed to remove book: %w", err)
	}
	fmt.Printf("Removed %s\n", search.Title(book))
	return nil
}

func runClear(c *cli.Context) error {
	if !c.Bool("yes") {
		return cli.Exit("refusing to clear the library without --yes", 2)
	}

	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Library.Clear(); err != nil {
		return fmt.Errorf("failed to clear library: %w", err)
	}
	fmt.Println("Library cleared")
	return nil
}

func runCheck(c *cli.Context) error {
	cfg, err := adapter.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := conversion.Probe(c.Context, cfg.Server.URL); err != nil {
		return fmt.Errorf("%s: %w", cfg.Server.URL, err)
	}
	fmt.Printf("✓ %s is reachable\n", cfg.Server.URL)
	return nil
}

func runSaveConfig(c *cli.Context) error {
	cfg, err := adapter.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := adapter.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("Configuration saved")
	return nil
}
