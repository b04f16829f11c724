package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	taskDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/user"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

const seedPassword = "password"

var seedRoles = []userDatamodel.Role{
	{Name: "Administrator", PermissionType: rbac.PermissionTypeAll, Permissions: datatypes.JSON(`{}`)},
	{Name: "Manager", PermissionType: rbac.PermissionTypeCustom, Permissions: datatypes.JSON(`{"tasks":["create","assign","view"],"users":["view"]}`)},
	{Name: "Lead", PermissionType: rbac.PermissionTypeCustom, Permissions: datatypes.JSON(`{"tasks":["create","assign","view"],"users":["view"]}`)},
	{Name: "Employee", PermissionType: rbac.PermissionTypeCustom, Permissions: datatypes.JSON(`{"tasks":["create","view"]}`)},
}

// seedUsers is listed managers first so reports_to can be resolved by email.
var seedUsers = []struct {
	Email     string
	Name      string
	Role      string
	ReportsTo string
}{
	{"admin@crm.local", "Ada Admin", "Administrator", ""},
	{"maya@crm.local", "Maya Manager", "Manager", ""},
	{"leo@crm.local", "Leo Lead", "Lead", "maya@crm.local"},
	{"lina@crm.local", "Lina Lead", "Lead", "maya@crm.local"},
	{"eva@crm.local", "Eva Employee", "Employee", "leo@crm.local"},
	{"eli@crm.local", "Eli Employee", "Employee", "leo@crm.local"},
	{"ema@crm.local", "Ema Employee", "Employee", "lina@crm.local"},
	{"sam@crm.local", "Sam Solo", "Employee", ""},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed roles and a sample Manager > Lead > Employee hierarchy for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := openGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		if err := seed(db, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Printf("Seeded %d roles and %d users (password %q)\n", len(seedRoles), len(seedUsers), seedPassword)
	},
}

func seed(db *gorm.DB, clearFirst bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if clearFirst {
			for _, model := range []interface{}{&taskDatamodel.Task{}, &userDatamodel.User{}, &userDatamodel.Role{}} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return fmt.Errorf("clear %T: %w", model, err)
				}
			}
		}

		roleIDs := make(map[string]int64, len(seedRoles))
		for _, r := range seedRoles {
			role := r
			if err := tx.Where(userDatamodel.Role{Name: role.Name}).
				Assign(userDatamodel.Role{PermissionType: role.PermissionType, Permissions: role.Permissions}).
				FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", r.Name, err)
			}
			roleIDs[role.Name] = role.ID
		}

		userIDs := make(map[string]int64, len(seedUsers))
		for _, s := range seedUsers {
			roleID := roleIDs[s.Role]
			attrs := userDatamodel.User{
				Name:         s.Name,
				PasswordHash: string(hash),
				RoleID:       &roleID,
				IsActive:     true,
			}
			if s.ReportsTo != "" {
				managerID, ok := userIDs[s.ReportsTo]
				if !ok {
					return fmt.Errorf("seed user %s: manager %s not seeded yet", s.Email, s.ReportsTo)
				}
				attrs.ReportsToID = &managerID
			}

			var u userDatamodel.User
			if err := tx.Where(userDatamodel.User{Email: s.Email}).Attrs(attrs).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", s.Email, err)
			}
			userIDs[s.Email] = u.ID
		}
		return nil
	})
}
