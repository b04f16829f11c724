package rbac_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm-access/internal/rbac"
)

var _ = Describe("PermissionTree", func() {
	const stored = `{
		"tasks": ["create", "assign"],
		"settings": {
			"permissions": ["view"],
			"children": {
				"roles": {"permissions": ["edit"]},
				"voip": ["view", "configure"]
			}
		}
	}`

	var tree rbac.PermissionTree

	BeforeEach(func() {
		var err error
		tree, err = rbac.ParsePermissionTree([]byte(stored))
		Expect(err).NotTo(HaveOccurred())
	})

	It("decodes bare action lists", func() {
		node, ok := tree.Resolve("tasks")
		Expect(ok).To(BeTrue())
		Expect(node.Actions).To(ConsistOf("create", "assign"))
	})

	It("walks dot-paths through children", func() {
		node, ok := tree.Resolve("settings.roles")
		Expect(ok).To(BeTrue())
		Expect(node.Allows("edit")).To(BeTrue())

		node, ok = tree.Resolve("settings.voip")
		Expect(ok).To(BeTrue())
		Expect(node.Allows("configure")).To(BeTrue())
	})

	It("reports missing paths instead of failing", func() {
		_, ok := tree.Resolve("leads")
		Expect(ok).To(BeFalse())

		_, ok = tree.Resolve("settings.email")
		Expect(ok).To(BeFalse())

		_, ok = tree.Resolve("tasks.sub")
		Expect(ok).To(BeFalse())

		_, ok = tree.Resolve("")
		Expect(ok).To(BeFalse())
	})

	It("treats empty documents as an empty tree", func() {
		empty, err := rbac.ParsePermissionTree(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(empty).To(BeEmpty())

		null, err := rbac.ParsePermissionTree([]byte("null"))
		Expect(err).NotTo(HaveOccurred())
		Expect(null).NotTo(BeNil())
	})

	It("rejects malformed documents", func() {
		_, err := rbac.ParsePermissionTree([]byte(`{"tasks": 42}`))
		Expect(err).To(HaveOccurred())
	})

	It("writes leaves back as plain lists", func() {
		out, err := json.Marshal(tree)
		Expect(err).NotTo(HaveOccurred())

		var generic map[string]any
		Expect(json.Unmarshal(out, &generic)).To(Succeed())
		Expect(generic["tasks"]).To(ConsistOf("create", "assign"))
		Expect(generic["settings"]).To(HaveKey("children"))
	})
})

var _ = Describe("Evaluator", func() {
	var evaluator *rbac.Evaluator

	BeforeEach(func() {
		evaluator = rbac.NewEvaluator()
	})

	It("allows everything for permission_type all, whatever the map says", func() {
		role := rbac.Role{Name: "Ops", PermissionType: rbac.PermissionTypeAll}
		Expect(evaluator.Can(role, "tasks", "assign")).To(BeTrue())
		Expect(evaluator.Can(role, "anything.nested", "delete")).To(BeTrue())
	})

	It("allows everything for the Administrator role name", func() {
		role := rbac.Role{Name: rbac.RoleNameAdministrator, PermissionType: rbac.PermissionTypeCustom}
		Expect(evaluator.Can(role, "tasks", "assign")).To(BeTrue())
	})

	It("matches actions exactly and case-sensitively", func() {
		role := customRole("Employee", "create")
		Expect(evaluator.Can(role, "tasks", "create")).To(BeTrue())
		Expect(evaluator.Can(role, "tasks", "Create")).To(BeFalse())
		Expect(evaluator.Can(role, "tasks", "assign")).To(BeFalse())
	})

	It("denies by default when the module is absent", func() {
		role := rbac.Role{Name: "Employee", PermissionType: rbac.PermissionTypeCustom}
		Expect(evaluator.Can(role, "tasks", "create")).To(BeFalse())
	})

	It("accepts any of several actions", func() {
		role := customRole("Employee", "create")
		Expect(evaluator.CanAny(role, "tasks", "assign", "create")).To(BeTrue())
		Expect(evaluator.CanAny(role, "tasks", "assign", "manage_all")).To(BeFalse())
	})
})

var _ = Describe("ParseRole", func() {
	It("maps the canonical names and falls back to Other", func() {
		Expect(rbac.ParseRole("Administrator")).To(Equal(rbac.RoleAdministrator))
		Expect(rbac.ParseRole("Manager")).To(Equal(rbac.RoleManager))
		Expect(rbac.ParseRole("Lead")).To(Equal(rbac.RoleLead))
		Expect(rbac.ParseRole("Employee")).To(Equal(rbac.RoleEmployee))
		Expect(rbac.ParseRole("manager")).To(Equal(rbac.RoleOther))
		Expect(rbac.ParseRole("Sales Ops")).To(Equal(rbac.RoleOther))
	})
})
