package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("canonicalizeURL", func() {
	It("lowercases scheme and host", func() {
		u, err := canonicalizeURL("HTTPS://Example.COM/Path")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.String()).To(Equal("https://example.com/Path"))
	})

	It("strips default ports", func() {
		u, err := canonicalizeURL("http://example.com:80/a")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Host).To(Equal("example.com"))
	})

	It("keeps non-default ports", func() {
		u, err := canonicalizeURL("http://example.com:8080/a")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Host).To(Equal("example.com:8080"))
	})

	It("drops the fragment", func() {
		u, err := canonicalizeURL("https://example.com/a#section")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Fragment).To(BeEmpty())
	})

	It("sorts query parameters", func() {
		u1, err := canonicalizeURL("https://example.com/a?b=2&a=1")
		Expect(err).NotTo(HaveOccurred())
		u2, err := canonicalizeURL("https://example.com/a?a=1&b=2")
		Expect(err).NotTo(HaveOccurred())
		Expect(u1.RawQuery).To(Equal(u2.RawQuery))
	})

	It("rejects non-http(s) schemes", func() {
		_, err := canonicalizeURL("ftp://example.com/a")
		Expect(err).To(HaveOccurred())
	})

	It("rejects urls with no host", func() {
		_, err := canonicalizeURL("https:///a")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("makeBookmarkID", func() {
	It("is deterministic for the same canonical url", func() {
		u1, _ := canonicalizeURL("https://example.com/a?x=1")
		u2, _ := canonicalizeURL("https://EXAMPLE.com:443/a?x=1")
		Expect(makeBookmarkID(u1)).To(Equal(makeBookmarkID(u2)))
	})

	It("differs for different paths", func() {
		u1, _ := canonicalizeURL("https://example.com/a")
		u2, _ := canonicalizeURL("https://example.com/b")
		Expect(makeBookmarkID(u1)).NotTo(Equal(makeBookmarkID(u2)))
	})
})
