// Command load_data imports reference data from CSV files. Ingredient rows
// are "name,unit"; tag rows are "name,color,slug" with an optional color.
// Rows already present are skipped, so the command can be re-run.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "CSV file of name,unit rows; empty to skip")
	tagsPath := flag.String("tags", "", "CSV file of name,color,slug rows; empty to skip")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	catalog := service.NewCatalogService(db)
	ctx := context.Background()

	if *ingredientsPath != "" {
		ingredients, err := readFile(*ingredientsPath, parseIngredients)
		if err != nil {
			logging.Fatal().Err(err).Str("file", *ingredientsPath).Msg("failed to read ingredients")
		}
		added, err := catalog.ImportIngredients(ctx, ingredients)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to import ingredients")
		}
		logging.Info().Int("rows", len(ingredients)).Int64("added", added).Msg("ingredients loaded")
	}

	if *tagsPath != "" {
		tags, err := readFile(*tagsPath, parseTags)
		if err != nil {
			logging.Fatal().Err(err).Str("file", *tagsPath).Msg("failed to read tags")
		}
		added, err := catalog.ImportTags(ctx, tags)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to import tags")
		}
		logging.Info().Int("rows", len(tags)).Int64("added", added).Msg("tags loaded")
	}
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

func readRows(r io.Reader, minFields int, fn func(line int, row []string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(row) < minFields {
			return fmt.Errorf("line %d: expected at least %d fields, got %d", line, minFields, len(row))
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func parseIngredients(r io.Reader) ([]types.Ingredient, error) {
	var out []types.Ingredient
	err := readRows(r, 2, func(_ int, row []string) error {
		out = append(out, types.Ingredient{
			Name:            strings.TrimSpace(row[0]),
			MeasurementUnit: strings.TrimSpace(row[1]),
		})
		return nil
	})
	return out, err
}

func parseTags(r io.Reader) ([]types.Tag, error) {
	var out []types.Tag
	err := readRows(r, 3, func(_ int, row []string) error {
		out = append(out, types.Tag{
			Name:  strings.TrimSpace(row[0]),
			Color: strings.TrimSpace(row[1]),
			Slug:  strings.TrimSpace(row[2]),
		})
		return nil
	})
	return out, err
}
