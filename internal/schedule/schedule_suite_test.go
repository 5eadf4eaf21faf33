package schedule_test

import (
	"io"
	"log/slog"
	"math/big"
	"math/rand"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fessim/internal/schedule"
)

func TestSchedule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Schedule Suite")
}

var _ = Describe("Scheduler", func() {
	var s *schedule.Scheduler

	BeforeEach(func() {
		s = schedule.New(schedule.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	DescribeTable("evenly spaced trains use one node per pulse",
		func(freq int64, horizon string) {
			h, err := schedule.ParseTime(horizon)
			Expect(err).NotTo(HaveOccurred())

			total := new(big.Rat).Mul(h, new(big.Rat).SetInt64(freq))
			Expect(total.IsInt()).To(BeTrue())
			n := total.Num().Int64()

			stims := make([]*big.Rat, n)
			for i := range stims {
				stims[i] = big.NewRat(int64(i), freq)
			}
			p, err := s.Plan(stims, h)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Nodes).To(Equal(int(n)))
		},
		Entry("10 Hz over 1 s", int64(10), "1"),
		Entry("30 Hz over 2 s", int64(30), "2"),
		Entry("40 Hz over 0.5 s", int64(40), "0.5"),
		Entry("12 Hz over 5/3 s", int64(12), "5/3"),
	)

	It("places every stimulation exactly on a node for random rational trains", func() {
		rng := rand.New(rand.NewSource(7))
		h := big.NewRat(3, 2)
		dens := []int64{10, 20, 25, 40, 50}

		for trial := 0; trial < 25; trial++ {
			var stims []*big.Rat
			cur := big.NewRat(0, 1)
			for len(stims) < 8 {
				step := big.NewRat(int64(rng.Intn(9)+1), dens[rng.Intn(len(dens))])
				cur = new(big.Rat).Add(cur, step)
				if cur.Cmp(h) > 0 {
					break
				}
				stims = append(stims, cur)
			}

			p, err := s.Plan(stims, h)
			Expect(err).NotTo(HaveOccurred())
			g := p.Grid(3)

			for j, r := range stims {
				Expect(g.NodeRat(g.StimNode(j)).Cmp(r)).To(Equal(0))
			}
			for i := 1; i <= g.Nodes; i++ {
				Expect(g.Last(i)).To(BeNumerically(">=", g.Last(i-1)))
				Expect(g.Window(i).Len()).To(BeNumerically("<=", 3))
			}
		}
	})

	It("keeps the scheduling decision exact for thirds", func() {
		n, err := s.NodeCount([]float64{0, 1.0 / 3, 2.0 / 3}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
	})

	It("warns without failing on high node counts", func() {
		p, err := s.PlanFloat([]float64{0, 0.0005}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Nodes).To(Equal(2000))
		Expect(p.Warnings).To(HaveLen(1))
	})
})
