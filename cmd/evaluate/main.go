// Command evaluate scores the query analyzer against the golden query set and
// exits non-zero when a guardrail is violated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Noah-Banjo/lr-schoolbot/internal/evaluation"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

func main() {
	defaults := evaluation.DefaultGuardrails()
	goldenPath := flag.String("golden", "config/golden_queries.json", "path to the golden query set")
	minType := flag.Float64("min-type-accuracy", defaults.MinTypeAccuracy, "minimum query type accuracy")
	minCluster := flag.Float64("min-cluster-accuracy", defaults.MinClusterAccuracy, "minimum topic cluster accuracy")
	minRecall := flag.Float64("min-entity-recall", defaults.MinEntityRecall, "minimum historical entity recall")
	flag.Parse()

	observability.InitLogger("lr-schoolbot-evaluate", os.Getenv("APP_ENV"))

	queries, err := evaluation.LoadGoldenQueries(*goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("Golden queries are invalid")
	}

	summary, err := evaluation.NewRunner(nil).Run(context.Background(), queries)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode summary")
	}
	fmt.Println(string(out))

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinTypeAccuracy:    *minType,
		MinClusterAccuracy: *minCluster,
		MinEntityRecall:    *minRecall,
	})
	if violations := guardrails.Violations(summary); len(violations) > 0 {
		for _, v := range violations {
			log.Error().Msg(v)
		}
		os.Exit(1)
	}
}
