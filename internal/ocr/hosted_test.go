package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

var _ = Describe("OCRSpaceAcquirer", func() {
	var (
		server *httptest.Server
		reply  string
		form   map[string]string
		upload string
		path   string
	)

	BeforeEach(func() {
		form = map[string]string{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
			f, fh, err := r.FormFile("file")
			Expect(err).NotTo(HaveOccurred())
			b, _ := io.ReadAll(f)
			upload = fh.Filename + ":" + string(b)
			_, _ = w.Write([]byte(reply))
		}))
		path = writeFile(GinkgoT().TempDir(), "scan.pdf", "%PDF-1.4")
	})

	AfterEach(func() {
		server.Close()
	})

	It("should upload the file and derive metadata from the text", func() {
		reply = `{"ParsedResults":[{"ParsedText":"` + strings.ReplaceAll(richInvoiceText, "\n", `\r\n`) + `","FileParseExitCode":1}],"OCRExitCode":1,"IsErroredOnProcessing":false}`
		a := NewOCRSpaceAcquirer(OCRSpaceConfig{APIKey: "key", URL: server.URL}, nil)

		res, err := a.Acquire(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Method).To(Equal("ocrspace"))
		Expect(res.Text).To(ContainSubstring("Grand Total: $27.54"))
		Expect(res.Metadata).NotTo(BeNil())
		Expect(res.Metadata.IsImageOnlyPDF).To(BeFalse())
		Expect(form).To(HaveKeyWithValue("apikey", "key"))
		Expect(form).To(HaveKeyWithValue("OCREngine", "2"))
		Expect(form).To(HaveKeyWithValue("filetype", "PDF"))
		Expect(upload).To(Equal("scan.pdf:%PDF-1.4"))
	})

	It("should surface processing errors given as a list", func() {
		reply = `{"IsErroredOnProcessing":true,"ErrorMessage":["File failed validation","Page limit"]}`
		_, err := NewOCRSpaceAcquirer(OCRSpaceConfig{APIKey: "key", URL: server.URL}, nil).Acquire(context.Background(), path)
		Expect(err).To(MatchError(ContainSubstring("File failed validation; Page limit")))
	})

	It("should surface processing errors given as a string", func() {
		reply = `{"IsErroredOnProcessing":true,"ErrorMessage":"Timed out"}`
		_, err := NewOCRSpaceAcquirer(OCRSpaceConfig{APIKey: "key", URL: server.URL}, nil).Acquire(context.Background(), path)
		Expect(err).To(MatchError(ContainSubstring("Timed out")))
	})

	It("should require an api key", func() {
		_, err := NewOCRSpaceAcquirer(OCRSpaceConfig{URL: server.URL}, nil).Acquire(context.Background(), path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("AzureAcquirer", func() {
	It("should require endpoint and key", func() {
		_, err := NewAzureAcquirer(AzureConfig{Endpoint: "https://example"}, nil, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should recognize an image and flatten the regions", func() {
		var gotKey, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"language":"en","regions":[{"lines":[
				{"words":[{"text":"Invoice"},{"text":"#A-100"}]},
				{"words":[{"text":"Total"},{"text":"$9.99"}]}
			]}]}`))
		}))
		defer server.Close()

		a, err := NewAzureAcquirer(AzureConfig{Endpoint: server.URL, APIKey: "secret"}, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		path := writeFile(GinkgoT().TempDir(), "photo.jpg", "not decodable")

		res, err := a.Acquire(context.Background(), path)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Method).To(Equal("azure"))
		Expect(res.Text).To(Equal("Invoice #A-100\nTotal $9.99"))
		Expect(res.Metadata).NotTo(BeNil())
		Expect(res.Metadata.IsImageOnlyPDF).To(BeTrue())
		Expect(gotKey).To(Equal("secret"))
		Expect(gotPath).To(HaveSuffix("/ocr"))
	})

	It("should skip empty regions when flattening", func() {
		text := "Hi"
		lines := []computervision.OcrLine{{Words: &[]computervision.OcrWord{{Text: &text}}}, {}}
		regions := []computervision.OcrRegion{{Lines: &lines}, {}}
		Expect(ocrResultText(computervision.OcrResult{Regions: &regions})).To(Equal("Hi\n\n"))
		Expect(ocrResultText(computervision.OcrResult{})).To(BeEmpty())
	})
})

var _ = Describe("New", func() {
	It("should build each strategy", func() {
		a, err := New(common.OCRConfig{Strategy: "local"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeAssignableToTypeOf(&LocalAcquirer{}))

		a, err = New(common.OCRConfig{Strategy: "chain", OCRSpaceAPIKey: "k"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.(*Chain).steps).To(HaveLen(2))

		_, err = New(common.OCRConfig{Strategy: "azure"}, nil)
		Expect(err).To(HaveOccurred())

		_, err = New(common.OCRConfig{Strategy: "magic"}, nil)
		Expect(err).To(HaveOccurred())
	})
})
