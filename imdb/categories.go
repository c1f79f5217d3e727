package imdb

import (
	_ "embed"
	"log"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

type categoryPreset struct {
	Slug            string   `yaml:"slug"`
	Types           []string `yaml:"types"`
	Genres          []string `yaml:"genres"`
	SortBy          string   `yaml:"sortBy"`
	SortOrder       string   `yaml:"sortOrder"`
	StartYearOffset *int     `yaml:"startYearOffset"`
	EndYear         int      `yaml:"endYear"`
	MinRating       float64  `yaml:"minRating"`
}

var categoryPresets = loadCategoryPresets()

func loadCategoryPresets() map[string]categoryPreset {
	var presets []categoryPreset
	if err := yaml.Unmarshal(categoriesYAML, &presets); err != nil {
		// The file is embedded; failing to parse it is a build defect.
		log.Fatalf("failed to parse categories.yaml: %v", err)
	}
	byo := make(map[string]categoryPreset, len(presets))
	for _, p := range presets {
		byo[p.Slug] = p
	}
	return byo
}

// defaultPreset backs every unknown category token.
var defaultPreset = categoryPreset{
	SortBy:    string(SortByPopularity),
	SortOrder: "ASC",
	MinRating: 7,
}

// CategoryParams translates a discover category token into a search preset.
// Unknown tokens fall back to a generic popular-and-well-rated preset.
func CategoryParams(category string, now time.Time) SearchParams {
	preset, ok := categoryPresets[category]
	if !ok {
		preset = defaultPreset
	}

	params := SearchParams{
		Genres:             preset.Genres,
		EndYear:            preset.EndYear,
		MinAggregateRating: preset.MinRating,
		SortBy:             SortBy(preset.SortBy),
		SortOrder:          preset.SortOrder,
	}
	for _, t := range preset.Types {
		params.Types = append(params.Types, TitleType(t))
	}
	if preset.StartYearOffset != nil {
		params.StartYear = now.Year() + *preset.StartYearOffset
	}
	return params
}
