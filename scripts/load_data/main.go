package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Loads reference data from a headerless CSV file.
//
//	ingredients: name,measurement_unit
//	tags:        name[,slug]
func main() {
	file := flag.String("file", "", "Path to the CSV file")
	model := flag.String("model", "ingredients", "What to load: ingredients or tags")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		log.Fatal("-file is required")
	}

	rows, err := readRows(*file)
	if err != nil {
		log.Fatal("Failed to read CSV:", err)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx := context.Background()
	var created int64
	switch strings.ToLower(*model) {
	case "ingredients":
		created, err = loadIngredients(ctx, db, rows)
	case "tags":
		created, err = loadTags(ctx, db, rows)
	default:
		log.Fatalf("Unknown -model %q, expected ingredients or tags", *model)
	}
	if err != nil {
		log.Fatal("Load failed:", err)
	}
	fmt.Printf("✓ %d of %d %s created, %d already present\n", created, len(rows), *model, int64(len(rows))-created)
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		rows = append(rows, record)
	}
}

func loadIngredients(ctx context.Context, db *gorm.DB, rows [][]string) (int64, error) {
	items := make([]models.Ingredient, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return 0, fmt.Errorf("line %d: expected name,measurement_unit", i+1)
		}
		items = append(items, models.Ingredient{Name: row[0], MeasurementUnit: row[1]})
	}
	return services.NewIngredientService(db).ImportIngredients(ctx, items)
}

func loadTags(ctx context.Context, db *gorm.DB, rows [][]string) (int64, error) {
	tags := services.NewTagService(db)
	var created int64
	for _, row := range rows {
		slug := ""
		if len(row) > 1 {
			slug = row[1]
		}
		_, err := tags.CreateTag(ctx, row[0], slug)
		var verr *services.ValidationError
		switch {
		case err == nil:
			created++
		case errors.As(err, &verr):
			// name or slug already taken
		default:
			return created, err
		}
	}
	return created, nil
}
