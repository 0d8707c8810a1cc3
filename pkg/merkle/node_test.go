package merkle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/devchat/pkg/merkle"
)

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a root node (no parent)", func() {
			It("creates a node with the given bucket", func() {
				bucket := text("hello world")
				node := merkle.NewNode(bucket, nil)

				Expect(node.Bucket).To(Equal(bucket))
			})

			It("sets ParentHash to nil for root nodes", func() {
				node := merkle.NewNode(text("test"), nil)

				Expect(node.ParentHash).To(BeNil())
			})

			It("produces consistent hashes for the same content", func() {
				node1 := merkle.NewNode(text("same content"), nil)
				node2 := merkle.NewNode(text("same content"), nil)

				Expect(node1.Hash).To(Equal(node2.Hash))
			})

			It("produces different hashes for different content", func() {
				node1 := merkle.NewNode(text("content A"), nil)
				node2 := merkle.NewNode(text("content B"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})

			It("distinguishes roles and message types", func() {
				user := merkle.NewNode(msg("user", "x"), nil)
				assistant := merkle.NewNode(msg("assistant", "x"), nil)
				image := msg("assistant", "x")
				image.MessageType = "image"

				Expect(user.Hash).NotTo(Equal(assistant.Hash))
				Expect(assistant.Hash).NotTo(Equal(merkle.NewNode(image, nil).Hash))
			})
		})

		Context("when creating a child node (with parent)", func() {
			var parent *merkle.Node

			BeforeEach(func() {
				parent = merkle.NewNode(text("parent content"), nil)
			})

			It("links the child to the parent via ParentHash", func() {
				child := merkle.NewNode(text("child content"), parent)

				Expect(child.ParentHash).NotTo(BeNil())
				Expect(*child.ParentHash).To(Equal(parent.Hash))
			})

			It("creates a chain of nodes", func() {
				child1 := merkle.NewNode(text("child 1"), parent)
				child2 := merkle.NewNode(text("child 2"), child1)

				Expect(parent.ParentHash).To(BeNil())
				Expect(*child1.ParentHash).To(Equal(parent.Hash))
				Expect(*child2.ParentHash).To(Equal(child1.Hash))
			})

			It("produces different hashes for same content with different parents", func() {
				parent2 := merkle.NewNode(text("different parent"), nil)
				child1 := merkle.NewNode(text("same content"), parent)
				child2 := merkle.NewNode(text("same content"), parent2)

				Expect(child1.Hash).NotTo(Equal(child2.Hash))
			})
		})
	})

	Describe("Hash computation", func() {
		It("produces a valid SHA-256 hex string (64 characters)", func() {
			node := merkle.NewNode(text("test"), nil)

			Expect(node.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})

		It("verifies untampered nodes and rejects tampered ones", func() {
			node := merkle.NewNode(text("test"), nil)
			Expect(node.Verify()).To(BeTrue())

			node.Bucket.Content = "tampered"
			Expect(node.Verify()).To(BeFalse())
		})
	})
})
