// Command main runs the database seeder for Inkwell.
package main

import (
	"flag"
	"log"

	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/seed"
)

func main() {
	withSamples := flag.Bool("samples", true, "Seed sample works and a demo reader")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if *withSamples {
		if err := seed.SampleContent(db); err != nil {
			log.Fatalf("Sample content seeding failed: %v", err)
		}
		log.Println("Sample content seeded")
	}

	log.Println("Seeding complete")
}
