package imaginecmder

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/devchat/pkg/imagegen"
)

var _ = Describe("Imagine Command", func() {
	execute := func(args ...string) (string, error) {
		out := &bytes.Buffer{}
		cmd := NewImagineCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return strings.TrimSpace(out.String()), err
	}

	It("joins the arguments into one prompt", func() {
		url, err := execute("--seed", "42", "a", "red", "fox")
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal(imagegen.URLFor("a red fox", 42)))
	})

	It("picks a random seed by default", func() {
		url, err := execute("a red fox")
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix(imagegen.BaseURL))
		Expect(url).To(ContainSubstring("&seed="))
	})

	It("rejects seeds outside the range", func() {
		_, err := execute("--seed", "10000", "fox")
		Expect(err).To(HaveOccurred())
	})

	It("requires a prompt", func() {
		_, err := execute()
		Expect(err).To(HaveOccurred())
	})
})
