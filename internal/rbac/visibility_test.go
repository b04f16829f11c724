package rbac_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/rbac"
)

var _ = Describe("VisibilityBuilder", func() {
	var (
		dir     *mockDirectory
		metrics *rbac.Metrics
		builder *rbac.VisibilityBuilder
	)

	BeforeEach(func() {
		dir = newMockDirectory()
		// Manager 10 has Leads 20 and 21 plus a direct Employee 40.
		dir.add(10, customRole(rbac.RoleNameManager), nil)
		dir.add(20, customRole(rbac.RoleNameLead), id(10))
		dir.add(21, customRole(rbac.RoleNameLead), id(10))
		dir.add(40, customRole(rbac.RoleNameEmployee), id(10))
		dir.add(30, customRole(rbac.RoleNameEmployee), id(20))
		dir.add(31, customRole(rbac.RoleNameEmployee), id(20))
		dir.add(32, customRole(rbac.RoleNameEmployee), id(21))
		dir.add(50, customRole(rbac.RoleNameLead), nil)

		metrics = rbac.NewMetrics(prometheus.NewRegistry())
		builder = rbac.NewVisibilityBuilder(dir, metrics, quietLogger())
	})

	It("leaves the Administrator unrestricted without touching the directory", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 1, "Administrator")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter.Unrestricted).To(BeTrue())
		Expect(filter.AnyOf).To(BeEmpty())
		Expect(filter.Matches(nil, nil)).To(BeTrue())
		Expect(dir.lookups).To(BeZero())
	})

	It("limits an Employee to tasks assigned to them", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 30, "Employee")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter).To(Equal(rbac.VisibilityFilter{
			AnyOf: []rbac.Condition{{Column: rbac.ColumnAssignedTo, Op: rbac.OpEquals, Values: []int64{30}}},
		}))

		Expect(filter.Matches(id(30), nil)).To(BeTrue())
		Expect(filter.Matches(id(31), id(30))).To(BeFalse())
		Expect(filter.Matches(nil, nil)).To(BeFalse())
	})

	It("falls back to the Employee filter for unknown roles", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 70, "Sales Ops")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter.AnyOf).To(HaveLen(1))
		Expect(filter.Matches(id(70), nil)).To(BeTrue())
		Expect(counterValue(metrics.VisibilityFilters.WithLabelValues("Other"))).To(Equal(1.0))
	})

	It("gives a Lead their own, delegated and direct-report tasks", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 20, "Lead")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter.Unrestricted).To(BeFalse())
		Expect(filter.AnyOf).To(ConsistOf(
			rbac.Condition{Column: rbac.ColumnAssignedTo, Op: rbac.OpEquals, Values: []int64{20}},
			rbac.Condition{Column: rbac.ColumnAssignedBy, Op: rbac.OpEquals, Values: []int64{20}},
			rbac.Condition{Column: rbac.ColumnAssignedTo, Op: rbac.OpIn, Values: []int64{30, 31}},
		))

		Expect(filter.Matches(id(99), id(20))).To(BeTrue())
		Expect(filter.Matches(id(32), nil)).To(BeFalse())
	})

	It("omits the membership condition for a Lead with no reports", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 50, "Lead")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter.AnyOf).To(HaveLen(2))
	})

	It("gives a Manager the two-level subtree under their Leads", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 10, "Manager")
		Expect(err).NotTo(HaveOccurred())
		Expect(filter.AnyOf).To(ContainElement(
			rbac.Condition{Column: rbac.ColumnAssignedTo, Op: rbac.OpIn, Values: []int64{20, 21, 30, 31, 32}},
		))

		// Employee 40 reports to the manager directly, not through a Lead.
		Expect(filter.Matches(id(40), nil)).To(BeFalse())
		Expect(filter.Matches(id(32), nil)).To(BeTrue())
		Expect(filter.Matches(id(10), nil)).To(BeTrue())
	})

	It("returns the directory error rather than a narrower filter", func() {
		dir.failWith = internal.ErrDirectoryUnavailable.WithCause(errors.New("dial tcp: timeout"))

		_, err := builder.GetVisibleTaskIds(ctx(), 10, "Manager")
		Expect(err).To(MatchError(internal.ErrDirectoryUnavailable))
	})

	It("serialises as a plain predicate description", func() {
		filter, err := builder.GetVisibleTaskIds(ctx(), 30, "Employee")
		Expect(err).NotTo(HaveOccurred())

		out, err := json.Marshal(filter)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchJSON(`{"unrestricted":false,"any_of":[{"column":"assigned_to_id","op":"eq","values":[30]}]}`))
	})
})
