package config

import (
	"log"
	"strings"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "stockwolf-prod"

	// DefaultPlanLabel is the plan recorded when checkout metadata carries none.
	DefaultPlanLabel = "stockwolf_monthly"

	// StoreDriverMemory selects the in-process subscriber store.
	StoreDriverMemory = "memory"
)

// CheckNotProdDB aborts immediately if the configured database URL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB(cfg *Config) {
	dsn, err := cfg.StoreURL()
	if err != nil {
		log.Fatal("DatabaseURL is not configured")
	}
	if strings.Contains(dsn, ProdDbId) {
		log.Fatalf("Tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
}
