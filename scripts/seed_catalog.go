package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type catalogItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
}

type catalogUser struct {
	Name  string        `yaml:"name"`
	Email string        `yaml:"email"`
	Items []catalogItem `yaml:"items"`
}

// Catalog is the YAML seed file: users with the items they own.
type Catalog struct {
	Users []catalogUser `yaml:"users"`
}

type seedStats struct {
	users   int
	skipped int
	items   int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		catalogPath = flag.String("catalog", "configs/catalog.yaml", "path to catalog.yaml")
		dbPath      = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := seed(ctx, service.NewUserService(db, &logger), service.NewItemService(db, nil, &logger), catalog)
	if err != nil {
		return err
	}

	fmt.Printf("done: users=%d skipped=%d items=%d\n", stats.users, stats.skipped, stats.items)
	return nil
}

func loadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Users) == 0 {
		return nil, fmt.Errorf("no users in catalog")
	}
	return &c, nil
}

// seed creates every user and their items. Users whose email is already
// taken are skipped together with their items.
func seed(ctx context.Context, users domain.UserService, items domain.ItemService, c *Catalog) (seedStats, error) {
	var stats seedStats
	for _, cu := range c.Users {
		u, err := users.CreateUser(ctx, &models.User{Name: cu.Name, Email: cu.Email})
		if errors.Is(err, domain.ErrConflict) {
			stats.skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("create user %s: %w", cu.Email, err)
		}
		stats.users++

		for _, ci := range cu.Items {
			if _, err := items.CreateItem(ctx, u.ID, &models.Item{
				Name:        ci.Name,
				Description: ci.Description,
				Available:   ci.Available,
			}); err != nil {
				return stats, fmt.Errorf("create item %s: %w", ci.Name, err)
			}
			stats.items++
		}
	}
	return stats, nil
}
