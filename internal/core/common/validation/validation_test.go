package validation_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/core/common/validation"
)

func failures(err error) []internal.ValidationError {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.Errors
}

var _ = Describe("ValidationBuilder", func() {
	It("returns a nil error when every rule passes", func() {
		id := int64(4)
		v := validation.NewValidator()
		v.Field("title", "call back").Required().MaxLength(10, internal.ErrCodeInvalidTitle)
		v.Field("assignee_id", &id).Positive()

		Expect(v.Validate()).To(BeNil())
	})

	It("collects one failure per field", func() {
		v := validation.NewValidator()
		v.Field("title", "  ").Required().MaxLength(1, internal.ErrCodeInvalidTitle)
		v.Field("assignee_id", int64(0)).Required().Positive()

		errs := failures(v.Validate())
		Expect(errs).To(HaveLen(2))
		Expect(errs[0]).To(Equal(internal.ValidationError{
			Field: "title", Message: "title is required", Code: string(internal.ErrCodeValidationFailed),
		}))
		Expect(errs[1].Field).To(Equal("assignee_id"))
	})

	It("uses the caller's code for length violations", func() {
		v := validation.NewValidator()
		v.Field("title", strings.Repeat("x", 6)).MaxLength(5, internal.ErrCodeInvalidTitle)

		errs := failures(v.Validate())
		Expect(errs[0].Code).To(Equal(string(internal.ErrCodeInvalidTitle)))
	})

	DescribeTable("Positive",
		func(value interface{}, ok bool) {
			v := validation.NewValidator()
			v.Field("id", value).Positive()
			if ok {
				Expect(v.Validate()).To(Succeed())
			} else {
				Expect(v.Validate()).To(HaveOccurred())
			}
		},
		Entry("positive int64", int64(1), true),
		Entry("nil pointer is optional", (*int64)(nil), true),
		Entry("zero", int64(0), false),
		Entry("negative pointer", func() *int64 { n := int64(-2); return &n }(), false),
	)

	It("runs custom rules", func() {
		v := validation.NewValidator()
		v.Field("status", "archived").Custom(func(value interface{}) *internal.ValidationError {
			if value != "open" {
				return &internal.ValidationError{Field: "status", Message: "status must be open"}
			}
			return nil
		})

		Expect(v.Validate()).To(MatchError(ContainSubstring("status must be open")))
	})
})
