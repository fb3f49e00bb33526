package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/config"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/appointments"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/billing"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/facility"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/laboratory"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/notifications"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/patients"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/pharmacy"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/reports"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/staff"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/domain/users"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/audit"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/auth"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/db"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/middleware"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/web"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management System API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed roles and demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return seed(ctx, pool, cfg.BcryptCost)
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = web.NewValidator()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Token and session plumbing
	store := auth.NewPGStore(pool)
	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.JWTIssuer,
	})
	resolver := auth.NewResolver(tokens, store, store, store, logger)

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// API groups. The public group carries the credential endpoints; every
	// other route sits behind the bearer resolver and the audit trail.
	auditRecorder := audit.NewRecorder(pool)
	public := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))
	api := e.Group("/api/v1",
		middleware.RateLimit(rateLimitCfg),
		auth.Authenticate(resolver),
		middleware.Audit(logger, auditRecorder),
	)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Accounts and credentials
	userRepo := users.NewUserRepoPG(pool)
	userSvc := users.NewService(userRepo, resolver, cfg.BcryptCost)
	users.NewHandler(userSvc, resolver).RegisterRoutes(public, api)

	// Patient registry
	patientRepo := patients.NewPatientRepoPG(pool)
	patientSvc := patients.NewService(patientRepo, logger)
	patients.NewHandler(patientSvc).RegisterRoutes(api)

	// Staff registry
	doctorRepo := staff.NewDoctorRepoPG(pool)
	departmentRepo := staff.NewDepartmentRepoPG(pool)
	staffSvc := staff.NewService(doctorRepo, departmentRepo, logger)
	staff.NewHandler(staffSvc).RegisterRoutes(api)

	// Cross-domain directories. Each domain declares its own narrow
	// interface; these adapters satisfy them all from the registry repos.
	patientDir := &patientDirectory{repo: patientRepo}
	staffDir := &staffDirectory{doctors: doctorRepo, departments: departmentRepo}

	// Scheduling
	appointmentRepo := appointments.NewAppointmentRepoPG(pool)
	appointmentSvc := appointments.NewService(appointmentRepo, staffDir, patientDir, logger)
	appointments.NewHandler(appointmentSvc).RegisterRoutes(api)

	// Billing
	billRepo := billing.NewPGBillRepository(pool)
	billSvc := billing.NewService(billRepo, patientDir)
	billing.NewHandler(billSvc).RegisterRoutes(api)

	// Laboratory
	labRepo := laboratory.NewPGLabRepository(pool)
	labSvc := laboratory.NewService(labRepo, patientDir, staffDir)
	laboratory.NewHandler(labSvc).RegisterRoutes(api)

	// Pharmacy
	pharmacyRepo := pharmacy.NewPGPharmacyRepository(pool)
	pharmacySvc := pharmacy.NewService(pharmacyRepo, patientDir)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)

	// Beds and admissions
	facilityRepo := facility.NewPGFacilityRepository(pool)
	facilitySvc := facility.NewService(facilityRepo, patientDir, staffDir)
	facility.NewHandler(facilitySvc).RegisterRoutes(api)

	// Notifications
	notificationRepo := notifications.NewPGNotificationRepository(pool)
	notificationSvc := notifications.NewService(notificationRepo)
	notifications.NewHandler(notificationSvc).RegisterRoutes(api)

	// Reports
	reportRepo := reports.NewPGReportRepository(pool)
	reportSvc := reports.NewService(reportRepo)
	reports.NewHandler(reportSvc).RegisterRoutes(api)

	// Audit trail review. Gated on the user resource since only SUPER_ADMIN
	// holds it.
	api.GET("/admin/audit/patients/:id", func(c echo.Context) error {
		pid, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
		}
		limit := 100
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
			}
			limit = n
		}
		entries, err := auditRecorder.Query(c.Request().Context(), pid.String(), limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]any{
			"entries": entries,
			"count":   len(entries),
		})
	}, auth.RequirePermission(policy.ActionRead, policy.KindUser))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// patientDirectory answers existence checks against the patient registry.
// The same method satisfies the directory interface of every domain that
// references patients.
type patientDirectory struct {
	repo patients.PatientRepository
}

func (d *patientDirectory) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	p, err := d.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Status != patients.StatusInactive, nil
}

// staffDirectory answers doctor and department lookups for the scheduling,
// laboratory, and facility domains.
type staffDirectory struct {
	doctors     staff.DoctorRepository
	departments staff.DepartmentRepository
}

func (d *staffDirectory) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	doc, err := d.doctors.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc.IsActive, nil
}

func (d *staffDirectory) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	dept, err := d.departments.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return dept.IsActive, nil
}

func (d *staffDirectory) DoctorAvailability(ctx context.Context, id uuid.UUID) (*appointments.DoctorAvailability, error) {
	doc, err := d.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	avail := &appointments.DoctorAvailability{
		IsAvailable: doc.IsActive && doc.IsAvailable,
		Schedule:    make([]appointments.WorkingWindow, 0, len(doc.Schedule)),
	}
	for _, s := range doc.Schedule {
		avail.Schedule = append(avail.Schedule, appointments.WorkingWindow{
			DayOfWeek:   s.DayOfWeek,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			IsAvailable: s.IsAvailable,
		})
	}
	return avail, nil
}

// demoAccount is one seeded login.
type demoAccount struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
	Role        policy.Role
}

func demoAccounts() []demoAccount {
	return []demoAccount{
		{"admin@hospital.com", "admin123", "System", "Administrator", "System Administrator", policy.RoleSuperAdmin},
		{"doctor@hospital.com", "doctor123", "Gregory", "Hausman", "Dr. Gregory Hausman", policy.RoleDoctor},
		{"nurse@hospital.com", "nurse123", "Carla", "Espinoza", "Carla Espinoza", policy.RoleNurse},
		{"reception@hospital.com", "reception123", "Pam", "Beasley", "Pam Beasley", policy.RoleReceptionist},
		{"pharmacist@hospital.com", "pharmacist123", "Raj", "Mehta", "Raj Mehta", policy.RolePharmacist},
		{"labtech@hospital.com", "labtech123", "Nina", "Kovacs", "Nina Kovacs", policy.RoleLabTechnician},
		{"billing@hospital.com", "billing123", "Oscar", "Nunez", "Oscar Nunez", policy.RoleBillingManager},
		{"facility@hospital.com", "facility123", "Stan", "Pines", "Stan Pines", policy.RoleFacilityManager},
		{"accountant@hospital.com", "accountant123", "Angela", "Martin", "Angela Martin", policy.RoleAccountant},
		{"patient@hospital.com", "patient123", "John", "Doe", "John Doe", policy.RolePatient},
	}
}

// seed inserts the closed role set and one demo account per role. Existing
// rows are left untouched so the command is safe to re-run.
func seed(ctx context.Context, pool *pgxpool.Pool, bcryptCost int) error {
	for _, role := range policy.Roles() {
		_, err := pool.Exec(ctx, `
			INSERT INTO roles (id, name, display_name)
			VALUES (gen_random_uuid(), $1, $2)
			ON CONFLICT (name) DO NOTHING`,
			string(role), role.DisplayName())
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}
	fmt.Printf("Seeded %d roles.\n", len(policy.Roles()))

	repo := users.NewUserRepoPG(pool)
	created := 0
	for _, acct := range demoAccounts() {
		if existing, err := repo.GetByEmail(ctx, acct.Email); err == nil && existing != nil {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acct.Email, err)
		}
		u := &users.User{
			ID:           uuid.New(),
			Email:        acct.Email,
			PasswordHash: string(hash),
			FirstName:    acct.FirstName,
			LastName:     acct.LastName,
			DisplayName:  acct.DisplayName,
			Role:         string(acct.Role),
			IsActive:     true,
		}
		if err := repo.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", acct.Email, err)
		}
		created++
	}
	fmt.Printf("Seeded %d demo account(s).\n", created)
	return nil
}
