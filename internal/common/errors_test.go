package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ = Describe("AppError", func() {
	It("should unwrap to its cause", func() {
		err := NewAppError("NOT_FOUND", "invoice missing", ErrNotFound)
		Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		Expect(err.Error()).To(Equal("NOT_FOUND: invoice missing: resource not found"))
	})

	It("should format without a cause", func() {
		Expect(NewAppError("X", "y", nil).Error()).To(Equal("X: y"))
	})
})

var _ = Describe("WrapError", func() {
	It("should pass nil through", func() {
		Expect(WrapError(nil, "ctx")).To(BeNil())
	})

	It("should keep the chain", func() {
		err := WrapError(ErrDatabase, "insert invoice")
		Expect(err).To(MatchError(ErrDatabase))
		Expect(err.Error()).To(HavePrefix("insert invoice: "))
	})
})

var _ = Describe("ToStatus", func() {
	DescribeTable("codes",
		func(err error, want codes.Code) {
			Expect(status.Code(ToStatus(err))).To(Equal(want))
		},
		Entry("nil", nil, codes.OK),
		Entry("not found", fmt.Errorf("get: %w", ErrNotFound), codes.NotFound),
		Entry("validation", NewValidator().Field("id", "", Required).Error(), codes.InvalidArgument),
		Entry("invalid input", ErrInvalidInput, codes.InvalidArgument),
		Entry("ai unavailable", NewAppError("AI_CONFIG", "no key", ErrAIUnavailable), codes.Unavailable),
		Entry("no text", ErrNoText, codes.FailedPrecondition),
		Entry("deadline", fmt.Errorf("ocr: %w", context.DeadlineExceeded), codes.DeadlineExceeded),
		Entry("canceled", context.Canceled, codes.Canceled),
		Entry("other", ErrDatabase, codes.Internal),
	)
})

var _ = Describe("Validator", func() {
	It("should collect every failure", func() {
		v := NewValidator().
			Field("id", "nope", UUID).
			Field("status", "archived", OneOf("processing", "completed")).
			Field("name", "  ", Required)
		Expect(v.HasErrors()).To(BeTrue())
		Expect(v.Errors()).To(HaveLen(3))
		Expect(v.Error()).To(MatchError(ErrValidation))
		Expect(v.ErrorMessage()).To(ContainSubstring(`id must be a valid UUID (got "nope")`))

		var appErr *AppError
		Expect(errors.As(v.Error(), &appErr)).To(BeTrue())
		Expect(appErr.Code).To(Equal("VALIDATION_ERROR"))
	})

	It("should accept valid values and empty optional enums", func() {
		v := NewValidator().
			Field("id", uuid.NewString(), UUID).
			Field("status", "", OneOf("processing")).
			Field("name", "invoice.pdf", Required)
		Expect(v.Error()).NotTo(HaveOccurred())
	})

	DescribeTable("Extension",
		func(name string, ok bool) {
			err := Extension(map[string]struct{}{"pdf": {}, "png": {}})("file", name)
			if ok {
				Expect(err).To(BeNil())
			} else {
				Expect(err).NotTo(BeNil())
				Expect(err.Message).To(ContainSubstring("unsupported file type"))
			}
		},
		Entry("lower case", "scan.pdf", true),
		Entry("upper case", "SCAN.PNG", true),
		Entry("other type", "notes.docx", false),
		Entry("no extension", "README", false),
	)

	DescribeTable("DateLayout",
		func(value string, ok bool) {
			err := DateLayout("2006-01-02")("from", value)
			Expect(err == nil).To(Equal(ok))
		},
		Entry("empty", "", true),
		Entry("iso", "2024-01-15", true),
		Entry("padded", " 2024-01-15 ", true),
		Entry("slashes", "01/15/2024", false),
		Entry("impossible day", "2024-02-30", false),
	)
})

var _ = Describe("context helpers", func() {
	It("should round-trip request and invoice ids", func() {
		id := uuid.New()
		ctx := WithInvoiceID(WithRequestID(context.Background(), "rid-1"), id)
		Expect(RequestIDFromContext(ctx)).To(Equal("rid-1"))
		got, ok := InvoiceIDFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(id))
	})

	It("should report missing values", func() {
		Expect(RequestIDFromContext(context.Background())).To(BeEmpty())
		_, ok := InvoiceIDFromContext(context.Background())
		Expect(ok).To(BeFalse())
	})

	It("should tag a logger with the ids in context", func() {
		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, nil))
		id := uuid.New()
		ctx := WithInvoiceID(WithRequestID(context.Background(), "rid-2"), id)

		Logger(ctx, base).Info("x")
		var line map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
		Expect(line).To(HaveKeyWithValue("req_id", "rid-2"))
		Expect(line).To(HaveKeyWithValue("invoice_id", id.String()))
	})

	It("should return the base logger for a bare context", func() {
		base := slog.New(slog.NewTextHandler(io.Discard, nil))
		Expect(Logger(context.Background(), base)).To(BeIdenticalTo(base))
	})
})
