package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cpa-academy/cmd/seed_initial_data/internal/seedmodels"
	"cpa-academy/internal/adapter"
	"cpa-academy/internal/cache"
	"cpa-academy/internal/config"
	"cpa-academy/internal/database"
	"cpa-academy/internal/domain"
	"cpa-academy/internal/logger"
	"cpa-academy/internal/repository"
	"cpa-academy/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultSeedFilePath = "configs/seed_data/initial_cpa_catalog.json"

type seeder struct {
	log      *zap.Logger
	tx       domain.TransactionManager
	catalog  domain.CatalogRepository
	quizzes  domain.QuizRepository
	users    domain.UserRepository
	cache    domain.Cache
	existing map[string]bool
	touched  []string
}

func newSeeder(log *zap.Logger, db *sqlx.DB) *seeder {
	return &seeder{
		log:     log,
		tx:      repository.NewTransactionManagerAdapter(db),
		catalog: repository.NewSQLXCatalogRepository(db),
		quizzes: repository.NewQuizDatabaseAdapter(db),
		users:   repository.NewSQLXUserRepository(db),
	}
}

func main() {
	seedFilePath := flag.String("file", defaultSeedFilePath, "path to the seed JSON file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		// If logger is not initialized yet, use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting initial data seeding process...")
	db, err := database.NewSQLXDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Loading seed data from file", zap.String("path", *seedFilePath))
	seed, err := seedmodels.Load(*seedFilePath)
	if err != nil {
		log.Fatal("Failed to load seed data", zap.Error(err))
	}
	log.Info("Successfully loaded seed data",
		zap.Int("subjects_loaded", len(seed.Subjects)),
		zap.Int("users_loaded", len(seed.Users)))

	s := newSeeder(log, db)
	if redisClient, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		log.Warn("Redis unavailable, catalog cache will expire on its own", zap.Error(err))
	} else {
		defer redisClient.Close()
		s.cache = adapter.NewRedisCacheAdapter(redisClient)
	}
	if err := s.loadExistingSubjects(ctx); err != nil {
		log.Fatal("Failed to list existing subjects", zap.Error(err))
	}

	failed := 0
	for _, u := range seed.Users {
		if err := s.seedUser(ctx, u); err != nil {
			failed++
			log.Error("Error seeding user", zap.String("email", u.Email), zap.Error(err))
		}
	}
	for _, subject := range seed.Subjects {
		// Each subject is seeded in its own transaction; a failure rolls back only that subject.
		if err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			return s.seedSubject(txCtx, subject)
		}); err != nil {
			failed++
			log.Error("Error seeding subject, transaction rolled back", zap.String("subject", subject.Name), zap.Error(err))
		}
	}

	s.invalidateCatalogCache(ctx)

	if failed > 0 {
		log.Error("Initial data seeding finished with errors", zap.Int("failed", failed))
		os.Exit(1)
	}
	log.Info("Initial data seeding process completed.")
}

func (s *seeder) loadExistingSubjects(ctx context.Context) error {
	subjects, err := s.catalog.ListSubjects(ctx)
	if err != nil {
		return err
	}
	s.existing = make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		s.existing[subject.Slug] = true
	}
	return nil
}

func (s *seeder) seedUser(ctx context.Context, su seedmodels.SeedUser) error {
	existing, err := s.users.GetUserByEmail(ctx, su.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Info("User exists.", zap.String("id", existing.ID), zap.String("email", existing.Email))
		return nil
	}

	user := domain.NewUser(util.NewULID(), strings.ToLower(strings.TrimSpace(su.Email)), su.Name)
	user.IsStaff = su.IsStaff
	user.IsSuperuser = su.IsSuperuser
	if err := user.Validate(); err != nil {
		return err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return err
	}
	s.log.Info("Created user.", zap.String("id", user.ID), zap.String("email", user.Email), zap.Bool("is_staff", user.IsStaff))
	return nil
}

func (s *seeder) seedSubject(ctx context.Context, ss seedmodels.SeedSubject) error {
	subject := &domain.Subject{Name: ss.Name, Slug: ss.Slug}
	if subject.Slug == "" {
		subject.Slug = domain.Slugify(ss.Name)
	}
	if s.existing[subject.Slug] {
		s.log.Info("Subject exists, skipping.", zap.String("slug", subject.Slug))
		return nil
	}

	if err := s.catalog.CreateSubject(ctx, subject); err != nil {
		return fmt.Errorf("failed to save subject %s: %w", ss.Name, err)
	}
	s.log.Info("Created subject.", zap.Int64("id", subject.ID), zap.String("slug", subject.Slug))

	for _, su := range ss.Units {
		unit := &domain.Unit{
			SubjectID:   subject.ID,
			Title:       su.Title,
			Code:        su.Code,
			Description: su.Description,
			Order:       su.Order,
		}
		if err := s.catalog.CreateUnit(ctx, unit); err != nil {
			return fmt.Errorf("failed to save unit %s: %w", su.Title, err)
		}
		s.log.Info("Created unit.", zap.Int64("id", unit.ID), zap.String("code", unit.Code))

		for _, sqs := range su.QuestionSets {
			set := sqs.ToDomain(unit.ID)
			if err := s.quizzes.CreateQuestionSet(ctx, set); err != nil {
				return fmt.Errorf("failed to save question set %s: %w", sqs.Title, err)
			}
			s.log.Info("Created question set.", zap.Int64("id", set.ID), zap.Int("questions", len(set.Questions)))
		}
	}
	s.existing[subject.Slug] = true
	s.touched = append(s.touched, cache.UnitsKey(subject.ID, ""))
	return nil
}

// invalidateCatalogCache drops the unfiltered catalog listings so new
// subjects show up before the entries expire. Search-specific keys age out.
func (s *seeder) invalidateCatalogCache(ctx context.Context) {
	if s.cache == nil || len(s.touched) == 0 {
		return
	}
	keys := append([]string{cache.SubjectsKey(), cache.UnitsKey(0, "")}, s.touched...)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("Failed to invalidate catalog cache", zap.Error(err))
		return
	}
	s.log.Info("Invalidated catalog cache", zap.Int("keys", len(keys)))
}
