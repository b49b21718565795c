// Command seed fills the configured storage with demo or fixture data.
package main

import (
	"context"
	"flag"
	"log"

	"threadspire/internal/bootstrap"
	"threadspire/internal/config"
	"threadspire/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to create")
	threadsPerUser := flag.Int("threads", 3, "Number of threads per user")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	fixture := flag.String("fixture", "", "YAML fixture to load instead of generated data")
	flag.Parse()

	log.Println("🌱 ThreadSpire Seeder")
	log.Println("====================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Printf("Runtime close error: %v", err)
		}
	}()

	var sum seed.Summary
	if *fixture != "" {
		log.Printf("Applying fixture: %s\n", *fixture)
		f, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Fatalf("❌ Fixture load failed: %v", err)
		}
		sum, err = rt.Seeder().Apply(ctx, f)
		if err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
	} else {
		log.Printf("Target: %d users, %d threads each\n", *numUsers, *threadsPerUser)
		sum, err = rt.Seeder().Run(ctx, seed.Options{
			Users:          *numUsers,
			ThreadsPerUser: *threadsPerUser,
			Seed:           *seedValue,
		})
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
	}

	log.Printf("✨ Created %d users, %d threads, %d drafts, %d forks, %d collections\n",
		sum.Users, sum.Threads, sum.Drafts, sum.Forks, sum.Collections)
	if *fixture == "" {
		log.Printf("📧 All generated users have the password: %s\n", seed.DefaultPassword)
	}
}
