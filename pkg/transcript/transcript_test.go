package transcript_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/merkle"
	"github.com/papercomputeco/devchat/pkg/transcript"
)

var _ = Describe("Recorder", func() {
	var (
		ctx      context.Context
		storer   *merkle.MemoryStorer
		recorder *transcript.Recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = merkle.NewMemoryStorer()
		recorder = transcript.NewRecorder(storer, "deepseek/deepseek-chat", zap.NewNop())
	})

	It("stores one node per message and returns the head hash", func() {
		log := []chat.Message{
			chat.Greeting(),
			chat.UserText("Write a Python calculator"),
			chat.AssistantText("def calc(): ..."),
		}

		head, err := recorder.Record(ctx, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(head).NotTo(BeEmpty())

		nodes, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(3))

		depth, err := storer.Depth(ctx, head)
		Expect(err).NotTo(HaveOccurred())
		Expect(depth).To(Equal(2))
	})

	It("only adds new messages when a growing log is recorded again", func() {
		log := []chat.Message{chat.Greeting(), chat.UserText("hi"), chat.AssistantText("hello")}
		_, err := recorder.Record(ctx, log)
		Expect(err).NotTo(HaveOccurred())

		log = append(log, chat.UserText("a red fox"), chat.AssistantImage("https://img/x", "a red fox"))
		_, err = recorder.Record(ctx, log)
		Expect(err).NotTo(HaveOccurred())

		nodes, _ := storer.List(ctx)
		Expect(nodes).To(HaveLen(5))

		leaves, _ := storer.Leaves(ctx)
		Expect(leaves).To(HaveLen(1))
	})

	It("returns an empty hash for an empty log", func() {
		head, err := recorder.Record(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(head).To(BeEmpty())
	})

	It("attributes only text replies to the model", func() {
		Expect(transcript.BucketFor(chat.AssistantText("x"), "m").Model).To(Equal("m"))
		Expect(transcript.BucketFor(chat.UserText("x"), "m").Model).To(BeEmpty())
		Expect(transcript.BucketFor(chat.AssistantImage("u", "p"), "m").Model).To(BeEmpty())
	})

	It("does not attribute built-in texts to the model", func() {
		Expect(transcript.BucketFor(chat.Greeting(), "m1").Model).To(BeEmpty())
		Expect(transcript.BucketFor(chat.AssistantText(chat.ConfigurationErrorReply), "m1").Model).To(BeEmpty())
		Expect(transcript.BucketFor(chat.AssistantText(chat.RequestErrorReply), "m1").Model).To(BeEmpty())
	})

	It("leaves a custom greeting unattributed", func() {
		log := []chat.Message{
			chat.AssistantText("Welcome back!"),
			chat.UserText("hi"),
			chat.AssistantText("hello"),
		}
		head, err := recorder.Record(ctx, log)
		Expect(err).NotTo(HaveOccurred())

		history, err := transcript.BuildHistory(ctx, storer, head)
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Messages[0].Model).To(BeEmpty())
		Expect(history.Messages[2].Model).To(Equal("deepseek/deepseek-chat"))
	})
})

var _ = Describe("BuildHistory", func() {
	var (
		ctx      context.Context
		storer   *merkle.MemoryStorer
		recorder *transcript.Recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = merkle.NewMemoryStorer()
		recorder = transcript.NewRecorder(storer, "test-model", nil)
	})

	It("returns messages oldest first and round-trips image prompts", func() {
		log := []chat.Message{
			chat.Greeting(),
			chat.UserText("a red fox"),
			chat.AssistantImage("https://image.pollinations.ai/prompt/x?seed=1", "a red fox"),
		}
		head, err := recorder.Record(ctx, log)
		Expect(err).NotTo(HaveOccurred())

		h, err := transcript.BuildHistory(ctx, storer, head)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.HeadHash).To(Equal(head))
		Expect(h.Depth).To(Equal(3))
		Expect(h.Messages[0].ParentHash).To(BeNil())

		for i, m := range h.Messages {
			Expect(m.Message()).To(Equal(log[i]))
		}
	})

	It("fails for unknown hashes", func() {
		_, err := transcript.BuildHistory(ctx, storer, "nonexistent")
		Expect(err).To(BeAssignableToTypeOf(merkle.ErrNotFound{}))
	})

	It("builds one history per leaf", func() {
		base := []chat.Message{chat.Greeting(), chat.UserText("What is 2+2?")}
		_, err := recorder.Record(ctx, append(append([]chat.Message{}, base...), chat.AssistantText("4.")))
		Expect(err).NotTo(HaveOccurred())
		_, err = recorder.Record(ctx, append(append([]chat.Message{}, base...), chat.AssistantText("Four!")))
		Expect(err).NotTo(HaveOccurred())

		histories, err := transcript.Histories(ctx, storer)
		Expect(err).NotTo(HaveOccurred())
		Expect(histories).To(HaveLen(2))
		for _, h := range histories {
			Expect(h.Depth).To(Equal(3))
		}
	})
})
