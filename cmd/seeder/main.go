package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/locvowork/employee_directory/internal/bootstrap"
	"github.com/locvowork/employee_directory/internal/database"
	"github.com/locvowork/employee_directory/internal/domain"
	"github.com/locvowork/employee_directory/internal/logger"
	"github.com/locvowork/employee_directory/internal/service"
	"github.com/locvowork/employee_directory/internal/ui"
)

func main() {
	action := flag.StringP("action", "a", "seed", "Action to perform: seed, clear, list")
	preset := flag.StringP("preset", "p", "small", "Data preset: small, medium, large")
	count := flag.IntP("count", "n", 0, "Number of employees to create (overrides preset)")
	seed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	yes := flag.BoolP("yes", "y", false, "Do not ask for confirmation before clearing")
	envFile := flag.String("env-file", ".env", "Env file to load")
	flag.Parse()

	ctx := context.Background()

	fmt.Println("Employee Directory Seeder")
	fmt.Println(strings.Repeat("=", 50))

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx, *envFile); err != nil {
		logger.ErrLog(ctx, err, "Failed to initialize application")
		os.Exit(1)
	}
	defer app.Close(ctx)

	seeder := database.NewDataSeeder(app.Store)
	if *seed != 0 {
		seeder.WithSeed(*seed)
	}

	var err error
	switch *action {
	case "seed":
		err = performSeed(ctx, seeder, *preset, *count)
	case "clear":
		err = performClear(ctx, seeder, *yes)
	case "list":
		performList(ctx, app)
	default:
		fmt.Printf("Unknown action: %s\n", *action)
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err != nil {
		logger.ErrLog(ctx, err, "Seeder failed")
		os.Exit(1)
	}
	fmt.Println("Done!")
}

func performSeed(ctx context.Context, seeder *database.DataSeeder, preset string, count int) error {
	n := count
	if n <= 0 {
		n = database.GetPresetConfig(database.SeedPreset(preset))
		fmt.Printf("Using preset: %s (%d employees)\n", preset, n)
	}
	created, err := seeder.SeedData(ctx, n)
	fmt.Printf("Created %d employees\n", created)
	if domain.IsPersistence(err) {
		return fmt.Errorf("employees were created but not persisted: %w", err)
	}
	return err
}

func performClear(ctx context.Context, seeder *database.DataSeeder, yes bool) error {
	if !yes {
		fmt.Println("This will delete every employee!")
		fmt.Print("Continue? (yes/no): ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	removed, err := seeder.ClearData(ctx)
	fmt.Printf("Deleted %d employees\n", removed)
	return err
}

func performList(ctx context.Context, app *bootstrap.App) {
	svc := service.NewEmployeeService(app.Store, app.Config.DefaultPageSize, "")
	res := svc.List(ctx, domain.DefaultViewParams(), ui.ModeTable)
	if res.Rendered.Empty != "" {
		fmt.Println(res.Rendered.Empty)
		return
	}
	fmt.Printf("%-6s %-28s %-32s %-12s %s\n", "ID", "Name", "Email", "Department", "Role")
	for _, row := range res.Rendered.Table.Rows {
		fmt.Printf("%-6d %-28s %-32s %-12s %s\n", row.ID, row.Name, row.Email, row.Department, row.Role)
	}
	fmt.Println(res.ResultText)
}
