package main

import (
	"fmt"
	"log"
	"os"

	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/services"
)

// One-off script: re-runs name/abbreviation linking across all imported rows.
// Useful after fixing user full names or CC abbreviations in bulk.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := models.InitDB(&cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	fmt.Println("Connected to database successfully!")
	fmt.Println("")

	var unlinkedIssues int64
	db.Model(&models.Issue{}).Where("resolved_user_id IS NULL AND TRIM(responsible) <> ''").Count(&unlinkedIssues)
	var unlinkedReturns int64
	db.Model(&models.ReturnRecord{}).Where("resolved_user_id IS NULL AND cc_abbreviation <> ''").Count(&unlinkedReturns)

	fmt.Printf("Unlinked issues:  %d\n", unlinkedIssues)
	fmt.Printf("Unlinked returns: %d\n", unlinkedReturns)
	fmt.Println("")

	linker := services.NewLinkerService(db)

	var sources []models.IssueSource
	if err := db.Order("id").Find(&sources).Error; err != nil {
		log.Fatalf("Failed to list sources: %v", err)
	}

	var totalLinked int64
	for _, source := range sources {
		linked, err := linker.LinkIssuesForSource(source.ID)
		if err != nil {
			log.Fatalf("Failed to link issues for source %s: %v", source.Name, err)
		}
		fmt.Printf("Source %-30s linked %d issues\n", source.Name, linked)
		totalLinked += linked
	}

	returnsLinked, err := linker.LinkReturns()
	if err != nil {
		log.Fatalf("Failed to link returns: %v", err)
	}
	fmt.Printf("Returns feed %-24s linked %d rows\n", "", returnsLinked)
	fmt.Println("")

	fmt.Printf("Done: %d issues and %d returns linked.\n", totalLinked, returnsLinked)
}
