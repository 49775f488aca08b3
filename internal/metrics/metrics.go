package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecipesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "recipe_vault",
		Name:      "recipes_created_total",
		Help:      "Number of lineage root recipes created.",
	})

	RecipeVersionsDerived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_vault",
		Name:      "recipe_versions_derived_total",
		Help:      "Number of recipe version derivations by outcome.",
	}, []string{"outcome"})

	RecipeSaves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipe_vault",
		Name:      "recipe_saves_total",
		Help:      "Number of successful save and unsave operations.",
	}, []string{"action"})

	SaveCountDriftRepaired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "recipe_vault",
		Name:      "save_count_drift_repaired_total",
		Help:      "Number of recipes whose save_count was repaired by reconciliation.",
	})

	ImagesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "recipe_vault",
		Name:      "recipe_images_uploaded_total",
		Help:      "Number of recipe images stored.",
	})
)

func init() {
	prometheus.MustRegister(
		RecipesCreated,
		RecipeVersionsDerived,
		RecipeSaves,
		SaveCountDriftRepaired,
		ImagesUploaded,
	)
}
