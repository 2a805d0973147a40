package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/repository"
	"github.com/noah-isme/finalproject-api/pkg/config"
	"github.com/noah-isme/finalproject-api/pkg/database"
	"github.com/noah-isme/finalproject-api/pkg/logger"
)

type fixtureUser struct {
	Username  string          `yaml:"username"`
	Password  string          `yaml:"password"`
	Email     string          `yaml:"email"`
	FirstName string          `yaml:"first_name"`
	LastName  string          `yaml:"last_name"`
	Role      models.UserRole `yaml:"role"`

	Student *struct {
		StudentID    string `yaml:"student_id"`
		Major        string `yaml:"major"`
		YearEnrolled int    `yaml:"year_enrolled"`
	} `yaml:"student"`

	Advisor *struct {
		Department     string `yaml:"department"`
		Position       string `yaml:"position"`
		LeadingQuota   int    `yaml:"leading_quota"`
		CommitteeQuota int    `yaml:"committee_quota"`
	} `yaml:"advisor"`
}

type fixtures struct {
	Users []fixtureUser `yaml:"users"`
}

func main() {
	var (
		path    string
		timeout time.Duration
	)
	flag.StringVar(&path, "fixtures", "cmd/seed/fixtures.example.yaml", "Path to YAML fixtures file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	data, err := loadFixtures(path)
	if err != nil {
		logr.Fatal("failed to load fixtures", zap.String("path", path), zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, logr); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	users := repository.NewUserRepository(db)
	created := 0
	for _, fx := range data.Users {
		exists, err := users.ExistsByUsername(ctx, fx.Username)
		if err != nil {
			logr.Fatal("failed to look up user", zap.String("username", fx.Username), zap.Error(err))
		}
		if exists {
			logr.Info("user already present, skipping", zap.String("username", fx.Username))
			continue
		}
		user, student, advisor, err := fx.build()
		if err != nil {
			logr.Fatal("invalid fixture", zap.String("username", fx.Username), zap.Error(err))
		}
		if err := users.CreateWithProfile(ctx, user, student, advisor); err != nil {
			logr.Fatal("failed to create user", zap.String("username", fx.Username), zap.Error(err))
		}
		created++
	}
	logr.Info("seeding finished", zap.Int("created", created), zap.Int("total", len(data.Users)))
}

func loadFixtures(path string) (*fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out fixtures
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &out, nil
}

func (fx fixtureUser) build() (*models.User, *models.Student, *models.Advisor, error) {
	if fx.Username == "" || fx.Password == "" {
		return nil, nil, nil, fmt.Errorf("username and password are required")
	}
	if !fx.Role.Valid() {
		return nil, nil, nil, fmt.Errorf("unknown role %q", fx.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(fx.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     fx.Username,
		Email:        fx.Email,
		PasswordHash: string(hash),
		FirstName:    fx.FirstName,
		LastName:     fx.LastName,
		Role:         fx.Role,
		Active:       true,
	}

	var student *models.Student
	if fx.Role == models.RoleStudent && fx.Student != nil {
		student = &models.Student{
			FirstName:    fx.FirstName,
			LastName:     fx.LastName,
			Email:        fx.Email,
			StudentID:    fx.Student.StudentID,
			Major:        fx.Student.Major,
			YearEnrolled: fx.Student.YearEnrolled,
			Status:       models.StudentStatusStudying,
		}
	}
	var advisor *models.Advisor
	if fx.Role == models.RoleLecturer && fx.Advisor != nil {
		advisor = &models.Advisor{
			FirstName:      fx.FirstName,
			LastName:       fx.LastName,
			Email:          fx.Email,
			Department:     fx.Advisor.Department,
			Position:       fx.Advisor.Position,
			LeadingQuota:   fx.Advisor.LeadingQuota,
			CommitteeQuota: fx.Advisor.CommitteeQuota,
		}
	}
	return user, student, advisor, nil
}
