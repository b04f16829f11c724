package cmd

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	taskDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/user"
	directoryPostgres "github.com/frahmantamala/crm-access/internal/directory/postgres"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

var _ = Describe("OpenAPI document", func() {
	It("loads and validates", func() {
		Expect(validateOpenAPI(filepath.Join("..", "api", "openapi.yml"))).To(Succeed())
	})

	It("fails for a missing file", func() {
		Expect(validateOpenAPI("does-not-exist.yml")).To(HaveOccurred())
	})
})

var _ = Describe("loadConfig", func() {
	It("reads config.yml from the given directory", func() {
		cfg, err := loadConfig("..")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Directory.LookupTimeout.Seconds()).To(BeNumerically("==", 2))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})

	It("fails when no config file exists", func() {
		_, err := loadConfig(GinkgoT().TempDir())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("seed", func() {
	var db *gorm.DB

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(db.AutoMigrate(&userDatamodel.Role{}, &userDatamodel.User{}, &taskDatamodel.Task{})).To(Succeed())
	})

	It("builds a hierarchy the directory can walk", func() {
		Expect(seed(db, false)).To(Succeed())

		var roles, users int64
		Expect(db.Model(&userDatamodel.Role{}).Count(&roles).Error).To(Succeed())
		Expect(db.Model(&userDatamodel.User{}).Count(&users).Error).To(Succeed())
		Expect(roles).To(Equal(int64(len(seedRoles))))
		Expect(users).To(Equal(int64(len(seedUsers))))

		var maya, eva userDatamodel.User
		Expect(db.Where("email = ?", "maya@crm.local").First(&maya).Error).To(Succeed())
		Expect(db.Where("email = ?", "eva@crm.local").First(&eva).Error).To(Succeed())

		directory := directoryPostgres.NewUserDirectory(db)
		hierarchy := rbac.NewHierarchyResolver(directory)
		ctx := context.Background()

		manager, err := directory.FindUserWithRole(ctx, maya.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.Role.Kind()).To(Equal(rbac.RoleManager))

		employee, err := directory.FindUserWithRole(ctx, eva.ID)
		Expect(err).NotTo(HaveOccurred())

		ok, err := hierarchy.InHierarchy(ctx, manager, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("is idempotent", func() {
		Expect(seed(db, false)).To(Succeed())
		Expect(seed(db, false)).To(Succeed())

		var users int64
		Expect(db.Model(&userDatamodel.User{}).Count(&users).Error).To(Succeed())
		Expect(users).To(Equal(int64(len(seedUsers))))
	})

	It("clears existing rows when asked", func() {
		Expect(seed(db, false)).To(Succeed())
		Expect(db.Create(&taskDatamodel.Task{Title: "stale", CreatedByID: 1, Status: "open", Version: 1}).Error).To(Succeed())

		Expect(seed(db, true)).To(Succeed())

		var tasks int64
		Expect(db.Model(&taskDatamodel.Task{}).Count(&tasks).Error).To(Succeed())
		Expect(tasks).To(BeZero())
	})
})
