package stream_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/killallgit/streamir/pkg/stream"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recorder struct {
	mu        sync.Mutex
	chunks    []string
	completes []string
	errs      []error
}

func (r *recorder) OnChunk(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, string(chunk))
	return nil
}

func (r *recorder) OnComplete(final string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, final)
	return nil
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) terminalEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completes) + len(r.errs)
}

var _ = Describe("Consumer lifecycle", func() {
	var (
		rec      *recorder
		consumer *stream.Consumer
		pipe     *stream.Pipe
	)

	BeforeEach(func() {
		rec = &recorder{}
		consumer = stream.NewConsumer(stream.WithHandler(rec))
		pipe = stream.NewPipe()
	})

	AfterEach(func() {
		consumer.Cancel()
		Eventually(consumer.Done()).Should(BeClosed())
		Expect(pipe.Held()).To(BeFalse())
	})

	It("starts receiving with empty text", func() {
		consumer.Start(context.Background(), stream.FromPush(pipe))
		Expect(consumer.Receiving()).To(BeTrue())
		Expect(consumer.Text()).To(BeEmpty())
		Expect(consumer.State()).To(Equal(stream.StateStreaming))
		Eventually(pipe.Held).Should(BeTrue())
	})

	It("applies fragments in arrival order", func() {
		consumer.Start(context.Background(), stream.FromPush(pipe))
		for _, f := range []string{"The ", "quick ", "brown ", "fox"} {
			Expect(pipe.Write(f)).To(Succeed())
		}
		Expect(pipe.Close()).To(Succeed())

		Eventually(consumer.Done()).Should(BeClosed())
		Expect(consumer.Text()).To(Equal("The quick brown fox"))
		Expect(rec.chunks).To(Equal([]string{"The ", "quick ", "brown ", "fox"}))
		Expect(rec.completes).To(Equal([]string{"The quick brown fox"}))
		Expect(rec.errs).To(BeEmpty())
	})

	It("fires exactly one terminal event on failure", func() {
		consumer.Start(context.Background(), stream.FromPush(pipe))
		Expect(pipe.Write("par")).To(Succeed())
		Expect(pipe.CloseWithError(errors.New("socket closed"))).To(Succeed())

		Eventually(consumer.Done()).Should(BeClosed())
		Expect(consumer.Err()).To(MatchError("socket closed"))
		Expect(consumer.Receiving()).To(BeFalse())
		Consistently(rec.terminalEvents, 20*time.Millisecond).Should(Equal(1))
		Expect(rec.completes).To(BeEmpty())
	})

	It("drops a fragment that races with cancellation", func() {
		consumer.Start(context.Background(), stream.FromPush(pipe))
		Expect(pipe.Write("kept")).To(Succeed())
		Eventually(consumer.Text).Should(Equal("kept"))

		consumer.Cancel()
		Expect(pipe.Write("dropped")).To(Succeed())
		Expect(pipe.Close()).To(Succeed())

		Eventually(consumer.Done()).Should(BeClosed())
		Consistently(consumer.Text, 20*time.Millisecond).Should(Equal("kept"))
		Expect(consumer.State()).To(Equal(stream.StateCancelled))
		Expect(rec.terminalEvents()).To(BeZero())
	})

	Context("with the cursor", func() {
		It("shows the cursor only while receiving", func() {
			Expect(consumer.ShowCursor()).To(BeFalse())
			consumer.Start(context.Background(), stream.FromPush(pipe))
			Expect(consumer.ShowCursor()).To(BeTrue())
			Expect(pipe.Close()).To(Succeed())
			Eventually(consumer.ShowCursor).Should(BeFalse())
		})
	})

	Context("when restarted", func() {
		It("resets text and ignores the abandoned source", func() {
			old := stream.NewPipe()
			consumer.Start(context.Background(), stream.FromPush(old))
			Expect(old.Write("old")).To(Succeed())
			Eventually(consumer.Text).Should(Equal("old"))

			consumer.Start(context.Background(), stream.FromPush(pipe))
			Expect(consumer.Text()).To(BeEmpty())
			Expect(old.Write(" more")).To(Succeed())
			Expect(pipe.Write("new")).To(Succeed())
			Expect(pipe.Close()).To(Succeed())

			Eventually(consumer.Done()).Should(BeClosed())
			Expect(consumer.Text()).To(Equal("new"))
			Expect(rec.completes).To(Equal([]string{"new"}))
			Eventually(old.Held).Should(BeFalse())
		})
	})
})
