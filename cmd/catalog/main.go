package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"signlearn/internal/config"
	"signlearn/internal/database"
	"signlearn/internal/importer"
	"signlearn/internal/repository"
	"signlearn/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path, .json, .xlsx or .csv (default: curriculum_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")

	// Validate flags
	validateInput := validateCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		requireFlag(validateCmd, *validateInput)
		handleValidate(*validateInput)
		return
	case "export":
		exportCmd.Parse(os.Args[2:])
	case "import":
		importCmd.Parse(os.Args[2:])
		requireFlag(importCmd, *importInput)
	default:
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	catalogService := service.NewCatalogService(db,
		repository.NewCatalogRepository(db),
		repository.NewProgressRepository(db),
		repository.NewUserRepository(db))

	if os.Args[1] == "export" {
		handleExport(ctx, catalogService, *exportOutput)
		return
	}
	handleImport(ctx, catalogService, *importInput)
}

func requireFlag(cmd *flag.FlagSet, value string) {
	if value == "" {
		fmt.Println("Error: -input flag is required")
		cmd.PrintDefaults()
		os.Exit(1)
	}
}

func handleValidate(inputPath string) {
	curriculum, err := importer.Load(inputPath)
	if err != nil {
		log.Fatalf("Failed to read curriculum: %v", err)
	}
	if err := service.ValidateCurriculum(curriculum); err != nil {
		log.Fatalf("Curriculum is invalid: %v", err)
	}

	lessons := 0
	for _, m := range curriculum.Modules {
		lessons += len(m.Lessons)
	}
	log.Printf("Curriculum is valid: %d modules, %d lessons", len(curriculum.Modules), lessons)
}

func handleExport(ctx context.Context, catalogService *service.CatalogService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("curriculum_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	curriculum, err := catalogService.Export(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Exporting catalog to: %s", outputPath)
	if err := importer.Save(outputPath, curriculum); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Export complete! %d modules written", len(curriculum.Modules))
}

func handleImport(ctx context.Context, catalogService *service.CatalogService, inputPath string) {
	log.Printf("Importing curriculum from: %s", inputPath)
	curriculum, err := importer.Load(inputPath)
	if err != nil {
		log.Fatalf("Failed to read curriculum: %v", err)
	}

	result, err := catalogService.Import(ctx, curriculum)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete! %d modules, %d lessons, %d new gestures, %d reused gestures, %d users backfilled",
		result.Modules, result.Lessons, result.Gestures, result.ReusedGestures, result.UsersBackfilled)
}

func printUsage() {
	fmt.Println("SignLearn Catalog Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  catalog import [options]      Add a curriculum file to the catalog")
	fmt.Println("  catalog export [options]      Write the catalog to a curriculum file")
	fmt.Println("  catalog validate [options]    Check a curriculum file without importing it")
	fmt.Println()
	fmt.Println("Curriculum files may be JSON (.json), Excel (.xlsx) or CSV (.csv).")
	fmt.Println("Spreadsheets use one row per gesture with the columns:")
	fmt.Println("  module, module_description, module_order, lesson, lesson_type, lesson_order, word, video, description")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: curriculum_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  catalog validate -input lessons.xlsx")
	fmt.Println("  catalog import -input lessons.xlsx")
	fmt.Println("  catalog export -output backup/curriculum.csv")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./signlearn.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
