package readability_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bookmarkhub/bookmarkhub/internal/readability"
)

func TestReadability(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Readability Suite")
}

var _ = Describe("Client.Process", func() {
	It("returns the cleaned article on success", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("text/html"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(readability.Result{
				Title:       "An Article",
				TextContent: "the cleaned body",
			})
		}))
		defer server.Close()

		c := readability.New(server.URL)
		result, err := c.Process(context.Background(), "<html>...</html>")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Title).To(Equal("An Article"))
		Expect(result.TextContent).To(Equal("the cleaned body"))
	})

	It("fails fatally without retrying on empty text content", func() {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(readability.Result{Title: "Empty"})
		}))
		defer server.Close()

		c := readability.New(server.URL)
		_, err := c.Process(context.Background(), "<html></html>")
		Expect(err).To(HaveOccurred())
		Expect(calls).To(Equal(1))
	})

	It("fails fatally without retrying on a 4xx response", func() {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := readability.New(server.URL)
		_, err := c.Process(context.Background(), "<html></html>")
		Expect(err).To(HaveOccurred())
		Expect(calls).To(Equal(1))
	})

	It("retries on a 5xx response and eventually succeeds", func() {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(readability.Result{Title: "Ok", TextContent: "body"})
		}))
		defer server.Close()

		c := readability.New(server.URL)
		result, err := c.Process(context.Background(), "<html></html>")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.TextContent).To(Equal("body"))
		Expect(calls).To(Equal(2))
	})
})
