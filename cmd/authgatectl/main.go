package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/authgate/internal/cache"
	"github.com/dropDatabas3/authgate/internal/config"
	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/security/password"
	"github.com/dropDatabas3/authgate/internal/store/pg"
	"github.com/dropDatabas3/authgate/internal/token"
)

// authgatectl opera directo contra la base: seeding de RBAC, alta de
// administradores y limpieza de tokens vencidos. No pasa por el HTTP API.

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "authgatectl",
		Short:         "Herramientas operativas de AuthGate (acceso directo a la base)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración")

	root.AddCommand(seedRBACCmd(&configPath))
	root.AddCommand(createAdminCmd(&configPath))
	root.AddCommand(sweepCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, configPath string) (*config.Config, *pg.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := pg.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// seedPermissions son los permisos base del sistema. El seed es
// idempotente: los que ya existen se conservan.
var seedPermissions = []repository.PermissionInput{
	{Name: "users:read", Resource: "users", Action: "read", Description: "List and inspect user accounts"},
	{Name: "users:write", Resource: "users", Action: "write", Description: "Enable, disable and manage user accounts"},
	{Name: "roles:read", Resource: "roles", Action: "read", Description: "List roles and permissions"},
	{Name: "roles:write", Resource: "roles", Action: "write", Description: "Create and modify roles and permissions"},
}

func seedRBACCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-rbac",
		Short: "Crea los roles y permisos base (admin + user). Idempotente.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			_, store, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			permIDs := make(map[string]string, len(seedPermissions))
			for _, in := range seedPermissions {
				p, err := store.RBAC.CreatePermission(ctx, in)
				if err == nil {
					permIDs[p.Name] = p.ID
					fmt.Printf("permission %-12s created\n", p.Name)
					continue
				}
				if !repository.IsConflict(err) {
					return fmt.Errorf("create permission %s: %w", in.Name, err)
				}
				fmt.Printf("permission %-12s already exists\n", in.Name)
			}
			// Resolver IDs de los que ya existían.
			perms, err := store.RBAC.ListPermissions(ctx)
			if err != nil {
				return err
			}
			for _, p := range perms {
				permIDs[p.Name] = p.ID
			}

			admin, err := ensureRole(ctx, store.RBAC, repository.RoleInput{
				Name:        "admin",
				Description: "Full administrative access",
			})
			if err != nil {
				return err
			}
			for _, in := range seedPermissions {
				if err := store.RBAC.AddPermissionToRole(ctx, admin.ID, permIDs[in.Name]); err != nil {
					return fmt.Errorf("bind %s to admin: %w", in.Name, err)
				}
			}
			fmt.Printf("role admin ready (%d permissions)\n", len(seedPermissions))

			if _, err := ensureRole(ctx, store.RBAC, repository.RoleInput{
				Name:        "user",
				Description: "Default role for new accounts",
				IsDefault:   true,
			}); err != nil {
				return err
			}
			fmt.Println("role user ready (default for new accounts)")
			return nil
		},
	}
}

func ensureRole(ctx context.Context, rbac repository.RBACRepository, in repository.RoleInput) (*repository.Role, error) {
	role, err := rbac.CreateRole(ctx, in)
	if err == nil {
		return role, nil
	}
	if !repository.IsConflict(err) {
		return nil, fmt.Errorf("create role %s: %w", in.Name, err)
	}
	return rbac.GetRoleByName(ctx, in.Name)
}

func createAdminCmd(configPath *string) *cobra.Command {
	var email, pass, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea un usuario con el rol admin (requiere seed-rbac previo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || pass == "" {
				return fmt.Errorf("--email y --password son obligatorios")
			}
			if ok, reasons := password.DefaultPolicy.Validate(pass); !ok {
				return fmt.Errorf("password rechazada: %s", strings.Join(reasons, "; "))
			}

			_, store, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			adminRole, err := store.RBAC.GetRoleByName(ctx, "admin")
			if err != nil {
				return fmt.Errorf("rol admin no existe, correr seed-rbac primero: %w", err)
			}

			hash, err := password.Hash(password.Default, pass)
			if err != nil {
				return err
			}

			user, err := store.Users.Create(ctx, repository.CreateUserInput{
				Email:         email,
				PasswordHash:  hash,
				FirstName:     firstName,
				LastName:      lastName,
				EmailVerified: true,
			})
			if repository.IsConflict(err) {
				// Ya existe: solo asegurar el rol.
				user, err = store.Users.GetByEmail(ctx, email)
				if err != nil {
					return err
				}
				fmt.Printf("user %s already exists, assigning admin role\n", email)
			} else if err != nil {
				return err
			}

			if err := store.RBAC.AssignRole(ctx, user.ID, adminRole.ID); err != nil {
				return err
			}
			fmt.Printf("admin ready: %s (id %s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email del administrador")
	cmd.Flags().StringVar(&pass, "password", "", "password inicial")
	cmd.Flags().StringVar(&firstName, "first-name", "", "nombre")
	cmd.Flags().StringVar(&lastName, "last-name", "", "apellido")
	return cmd
}

func sweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Elimina refresh tokens y entradas de denylist vencidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			cfg, store, err := openStore(ctx, *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			authority, err := token.New(token.Config{
				Issuer:        cfg.JWT.Issuer,
				Audience:      cfg.JWT.Audience,
				AccessSecret:  []byte(cfg.JWT.AccessSecret),
				RefreshSecret: []byte(cfg.JWT.RefreshSecret),
			}, token.Deps{
				Tokens:    store.Tokens,
				Blacklist: store.Blacklist,
				Users:     store.Users,
				RBAC:      store.RBAC,
				Cache:     cache.NewMemory(""),
			})
			if err != nil {
				return err
			}

			refresh, denied, err := authority.SweepExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("swept %d refresh tokens, %d blacklist entries\n", refresh, denied)
			return nil
		},
	}
}
