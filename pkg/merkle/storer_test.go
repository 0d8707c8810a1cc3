package merkle_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/devchat/pkg/merkle"
)

func storerBehaviour(newStorer func() merkle.Storer) {
	var (
		storer merkle.Storer
		ctx    context.Context
	)

	put := func(nodes ...*merkle.Node) {
		for _, n := range nodes {
			_, err := storer.Put(ctx, n)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		if storer != nil {
			storer.Close()
		}
	})

	Describe("Put and Get", func() {
		It("stores and retrieves a node", func() {
			node := merkle.NewNode(text("test content"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			retrieved, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(node.Hash))
			Expect(retrieved.Bucket).To(Equal(node.Bucket))
			Expect(retrieved.ParentHash).To(BeNil())
		})

		It("stores and retrieves a node with parent", func() {
			parent := merkle.NewNode(text("parent"), nil)
			child := merkle.NewNode(text("child"), parent)
			put(parent, child)

			retrieved, err := storer.Get(ctx, child.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ParentHash).NotTo(BeNil())
			Expect(*retrieved.ParentHash).To(Equal(parent.Hash))
		})

		It("returns ErrNotFound for non-existent hash", func() {
			_, err := storer.Get(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("is idempotent for duplicate puts", func() {
			node := merkle.NewNode(text("test"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			isNew, err = storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, _ := storer.List(ctx)
			Expect(nodes).To(HaveLen(1))
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil node"))
		})

		It("rejects nodes whose hash does not match their content", func() {
			node := merkle.NewNode(text("original"), nil)
			node.Bucket.Content = "forged"

			_, err := storer.Put(ctx, node)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Has", func() {
		It("reports existence", func() {
			node := merkle.NewNode(text("test"), nil)
			put(node)

			exists, err := storer.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = storer.Has(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("GetByParent", func() {
		It("returns children of a parent", func() {
			parent := merkle.NewNode(text("parent"), nil)
			child1 := merkle.NewNode(text("child1"), parent)
			child2 := merkle.NewNode(text("child2"), parent)
			put(parent, child1, child2)

			children, err := storer.GetByParent(ctx, &parent.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(2))
		})

		It("returns root nodes when parentHash is nil", func() {
			root1 := merkle.NewNode(text("root1"), nil)
			root2 := merkle.NewNode(text("root2"), nil)
			child := merkle.NewNode(text("child"), root1)
			put(root1, root2, child)

			roots, err := storer.GetByParent(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))
		})
	})

	Describe("List", func() {
		It("returns all nodes in insertion order", func() {
			node1 := merkle.NewNode(text("node1"), nil)
			node2 := merkle.NewNode(text("node2"), node1)
			node3 := merkle.NewNode(text("node3"), node2)
			put(node1, node2, node3)

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(3))
			Expect(nodes[0].Hash).To(Equal(node1.Hash))
			Expect(nodes[2].Hash).To(Equal(node3.Hash))
		})

		It("returns empty slice for empty store", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())
		})
	})

	Describe("Leaves", func() {
		It("returns all leaf nodes", func() {
			root := merkle.NewNode(text("root"), nil)
			child := merkle.NewNode(text("child"), root)
			leaf := merkle.NewNode(text("leaf"), child)
			put(root, child, leaf)

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(1))
			Expect(leaves[0].Hash).To(Equal(leaf.Hash))
		})
	})

	Describe("Ancestry, Descendants and Depth", func() {
		var root, child, grandchild *merkle.Node

		BeforeEach(func() {
			root = merkle.NewNode(text("root"), nil)
			child = merkle.NewNode(text("child"), root)
			grandchild = merkle.NewNode(text("grandchild"), child)
			put(root, child, grandchild)
		})

		It("returns path from node to root", func() {
			path, err := storer.Ancestry(ctx, grandchild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Bucket.Content).To(Equal("grandchild"))
			Expect(path[2].Bucket.Content).To(Equal("root"))
		})

		It("returns path from root to node", func() {
			path, err := storer.Descendants(ctx, grandchild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(3))
			Expect(path[0].Bucket.Content).To(Equal("root"))
			Expect(path[2].Bucket.Content).To(Equal("grandchild"))
		})

		It("returns the depth", func() {
			depth, err := storer.Depth(ctx, root.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(0))

			depth, err = storer.Depth(ctx, grandchild.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(2))
		})

		It("fails for unknown hashes", func() {
			_, err := storer.Ancestry(ctx, "nonexistent")
			Expect(err).To(BeAssignableToTypeOf(merkle.ErrNotFound{}))
		})
	})

	Describe("Content-addressable deduplication", func() {
		It("creates branches for different replies to the same prompt", func() {
			prompt := merkle.NewNode(msg("user", "What is 2+2?"), nil)
			branch1 := merkle.NewNode(msg("assistant", "4."), prompt)
			branch2 := merkle.NewNode(msg("assistant", "The answer is 4!"), prompt)
			put(prompt, branch1, branch2)

			children, _ := storer.GetByParent(ctx, &prompt.Hash)
			Expect(children).To(HaveLen(2))

			leaves, _ := storer.Leaves(ctx)
			Expect(leaves).To(HaveLen(2))
		})
	})
}

var _ = Describe("MemoryStorer", func() {
	storerBehaviour(func() merkle.Storer {
		return merkle.NewMemoryStorer()
	})
})

var _ = Describe("SQLiteStorer", func() {
	storerBehaviour(func() merkle.Storer {
		s, err := merkle.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a database file and keeps nodes across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "nested", "test.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())

		node := merkle.NewNode(text("persisted"), nil)
		_, err = s.Put(ctx, node)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		s, err = merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		got, err := s.Get(ctx, node.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Bucket.Content).To(Equal("persisted"))
	})
})
