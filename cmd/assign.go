package cmd

import (
	"fmt"
	"log"

	"region-index/assign"
	"region-index/records"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

type AssignConfig struct {
	Catalog CatalogConfig
	Points  string
	Kind    string
	Output  string
}

func Assign(cfg AssignConfig) {
	_, assigner, err := cfg.Catalog.build()
	if err != nil {
		log.Fatalf("failed to load region catalog: %v", err)
	}

	log.Printf("Assigning %s records from: %s", cfg.Kind, cfg.Points)
	report, err := assignFile(assigner, cfg)
	if err != nil {
		log.Fatalf("failed to assign %s: %v", cfg.Points, err)
	}

	printReport(report)
	log.Printf("Wrote %s rows to %s", humanize.Comma(int64(report.Total)), color.GreenString(cfg.Output))
}

func assignFile(assigner *assign.Assigner, cfg AssignConfig) (assign.Report, error) {
	switch cfg.Kind {
	case KindCrime:
		crimes, err := loadFile(cfg.Points, records.LoadCrimes)
		if err != nil {
			return assign.Report{}, err
		}
		crimes, report := assign.Batch(assigner, crimes)
		return report, writeFile(cfg.Output, crimes, records.WriteCrimes)

	case KindSchool:
		schools, err := loadFile(cfg.Points, records.LoadSchools)
		if err != nil {
			return assign.Report{}, err
		}
		schools, report := assign.Batch(assigner, schools)
		return report, writeFile(cfg.Output, schools, records.WriteSchools)

	default:
		return assign.Report{}, fmt.Errorf("unknown point kind %q: must be one of %s, %s", cfg.Kind, KindCrime, KindSchool)
	}
}

func printReport(report assign.Report) {
	matched := color.New(color.FgGreen).SprintFunc()
	unmatched := color.New(color.FgYellow).SprintFunc()
	missing := color.New(color.FgRed).SprintFunc()
	multi := color.New(color.FgBlue).SprintFunc()

	log.Printf("Assigned %s of %s records: %s matched, %s multi-match, %s outside every region, %s missing coordinates",
		humanize.Comma(int64(report.Assigned())),
		humanize.Comma(int64(report.Total)),
		matched(humanize.Comma(int64(report.Matched))),
		multi(humanize.Comma(int64(report.MultiMatch))),
		unmatched(humanize.Comma(int64(report.Unmatched))),
		missing(humanize.Comma(int64(report.MissingCoordinates))))
}
