package dynamo_test

import (
	"fmt"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%03d", n)
	}
}

func mustAdd(w *dynamo.World, x, y float64, el int) dynamo.AtomID {
	id, err := w.AddAtom(x, y, el)
	Expect(err).NotTo(HaveOccurred())
	return id
}

var _ = Describe("World", func() {
	var w *dynamo.World

	BeforeEach(func() {
		w = dynamo.NewWorld()
		w.SetIDSource(sequentialIDs())
	})

	Describe("AddAtom", func() {
		It("copies element attributes and starts at rest", func() {
			id := mustAdd(w, 10, 20, chem.Oxygen)
			a, ok := w.Atom(id)
			Expect(ok).To(BeTrue())
			Expect(a.Symbol).To(Equal("O"))
			Expect(a.Valency).To(Equal(2))
			Expect(a.Velocity()).To(Equal(dynamo.Vec2{}))
		})

		It("rejects unknown element types", func() {
			_, err := w.AddAtom(0, 0, 99)
			Expect(err).To(MatchError(dynamo.ErrUnknownElement))
			Expect(w.NumAtoms()).To(BeZero())
		})

		It("rejects duplicate ids on insert", func() {
			_, err := w.InsertAtom("x", dynamo.Vec2{}, dynamo.Vec2{}, chem.Carbon)
			Expect(err).NotTo(HaveOccurred())
			_, err = w.InsertAtom("x", dynamo.Vec2{}, dynamo.Vec2{}, chem.Carbon)
			Expect(err).To(HaveOccurred())
			Expect(w.NumAtoms()).To(Equal(1))
		})
	})

	Describe("Link", func() {
		It("ignores self links and unknown atoms", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			Expect(w.Link(c, c)).To(Equal(dynamo.LinkUnchanged))
			Expect(w.Link(c, "missing")).To(Equal(dynamo.LinkUnchanged))
			Expect(w.NumBonds()).To(BeZero())
		})

		It("cycles a carbon pair through single, double, triple and removal", func() {
			a := mustAdd(w, 0, 0, chem.Carbon)
			b := mustAdd(w, 40, 0, chem.Carbon)

			Expect(w.Link(a, b)).To(Equal(dynamo.LinkCreated))
			Expect(w.Link(b, a)).To(Equal(dynamo.LinkUpgraded))
			Expect(w.Link(a, b)).To(Equal(dynamo.LinkUpgraded))
			bond, ok := w.Bond(a, b)
			Expect(ok).To(BeTrue())
			Expect(bond.Order).To(Equal(3))

			Expect(w.Link(a, b)).To(Equal(dynamo.LinkRemoved))
			Expect(w.NumBonds()).To(BeZero())

			Expect(w.Link(a, b)).To(Equal(dynamo.LinkCreated))
			bond, _ = w.Bond(a, b)
			Expect(bond.Order).To(Equal(1))
		})

		It("leaves a bond unchanged when an upgrade would exceed valency", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			o := mustAdd(w, 40, 0, chem.Oxygen)

			Expect(w.Link(c, o)).To(Equal(dynamo.LinkCreated))
			Expect(w.Link(c, o)).To(Equal(dynamo.LinkUpgraded))
			Expect(w.Link(c, o)).To(Equal(dynamo.LinkUnchanged))

			bond, _ := w.Bond(c, o)
			Expect(bond.Order).To(Equal(2))
		})

		It("refuses new bonds on a saturated atom", func() {
			h := mustAdd(w, 0, 0, chem.Hydrogen)
			h2 := mustAdd(w, 30, 0, chem.Hydrogen)
			h3 := mustAdd(w, 60, 0, chem.Hydrogen)

			Expect(w.Link(h, h2)).To(Equal(dynamo.LinkCreated))
			Expect(w.Link(h, h2)).To(Equal(dynamo.LinkUnchanged))
			Expect(w.Link(h, h3)).To(Equal(dynamo.LinkUnchanged))
			Expect(w.NumBonds()).To(Equal(1))
		})

		It("sets the rest length from both radii", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			h := mustAdd(w, 30, 0, chem.Hydrogen)
			w.Link(c, h)

			ac, _ := w.Atom(c)
			ah, _ := w.Atom(h)
			bond, _ := w.Bond(h, c)
			Expect(bond.RestLength).To(BeNumerically("~", 1.2*(ac.Radius+ah.Radius), 1e-9))
		})

		It("never drives any atom over its valency", func() {
			rng := rand.New(rand.NewSource(7))
			kinds := []int{chem.Hydrogen, chem.Carbon, chem.Nitrogen, chem.Oxygen}
			var ids []dynamo.AtomID
			for i := 0; i < 12; i++ {
				ids = append(ids, mustAdd(w, float64(i*30), 0, kinds[i%len(kinds)]))
			}

			for i := 0; i < 2000; i++ {
				a := ids[rng.Intn(len(ids))]
				b := ids[rng.Intn(len(ids))]
				w.Link(a, b)

				report := dynamo.Validate(w)
				Expect(report.Count()).To(BeZero())
				for _, bond := range w.Bonds() {
					Expect(bond.Order).To(BeNumerically(">=", dynamo.MinBondOrder))
					Expect(bond.Order).To(BeNumerically("<=", dynamo.MaxBondOrder))
					Expect(bond.A).NotTo(Equal(bond.B))
				}
			}
		})
	})

	Describe("DeleteAtom", func() {
		It("removes the atom and every incident bond", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			var hs []dynamo.AtomID
			for i := 0; i < 4; i++ {
				h := mustAdd(w, float64(30*i), 30, chem.Hydrogen)
				Expect(w.Link(c, h)).To(Equal(dynamo.LinkCreated))
				hs = append(hs, h)
			}

			Expect(w.DeleteAtom(c)).To(Equal(4))
			Expect(w.HasAtom(c)).To(BeFalse())
			Expect(w.NumBonds()).To(BeZero())
			for _, h := range hs {
				Expect(w.HasAtom(h)).To(BeTrue())
				Expect(w.BondOrderSum(h)).To(BeZero())
			}
		})

		It("keeps bonds between surviving atoms addressable", func() {
			a := mustAdd(w, 0, 0, chem.Carbon)
			b := mustAdd(w, 40, 0, chem.Carbon)
			c := mustAdd(w, 80, 0, chem.Carbon)
			w.Link(a, b)
			w.Link(b, c)

			Expect(w.DeleteAtom(a)).To(Equal(1))
			bond, ok := w.Bond(c, b)
			Expect(ok).To(BeTrue())
			Expect(w.Link(b, c)).To(Equal(dynamo.LinkUpgraded))
			Expect(bond.Order).To(Equal(2))

			got, ok := w.Atom(c)
			Expect(ok).To(BeTrue())
			Expect(got.Pos.X).To(Equal(80.0))
		})

		It("is a no-op for unknown ids", func() {
			mustAdd(w, 0, 0, chem.Carbon)
			Expect(w.DeleteAtom("nope")).To(BeZero())
			Expect(w.NumAtoms()).To(Equal(1))
		})
	})

	Describe("SetElement", func() {
		It("re-derives attributes and can leave an atom over valency", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			o := mustAdd(w, 40, 0, chem.Oxygen)
			w.Link(c, o)
			w.Link(c, o)

			Expect(w.SetElement(o, chem.Hydrogen)).To(BeTrue())
			a, _ := w.Atom(o)
			Expect(a.Symbol).To(Equal("H"))

			report := dynamo.Validate(w)
			Expect(report.OverValency).To(HaveKey(o))
			Expect(report.OverValency).NotTo(HaveKey(c))
			Expect(report.Totals[o]).To(Equal(2))
		})

		It("rejects unknown atoms and element types", func() {
			c := mustAdd(w, 0, 0, chem.Carbon)
			Expect(w.SetElement("nope", chem.Carbon)).To(BeFalse())
			Expect(w.SetElement(c, -1)).To(BeFalse())
		})
	})

	Describe("InsertBond", func() {
		It("rejects self bonds, bad orders and duplicate pairs", func() {
			a := mustAdd(w, 0, 0, chem.Carbon)
			b := mustAdd(w, 40, 0, chem.Carbon)

			_, ok := w.InsertBond("", a, a, 1)
			Expect(ok).To(BeFalse())
			_, ok = w.InsertBond("", a, b, 4)
			Expect(ok).To(BeFalse())
			_, ok = w.InsertBond("", a, "ghost", 1)
			Expect(ok).To(BeFalse())

			_, ok = w.InsertBond("b1", a, b, 2)
			Expect(ok).To(BeTrue())
			_, ok = w.InsertBond("b2", b, a, 1)
			Expect(ok).To(BeFalse())
		})
	})

	DescribeTable("AtomAt",
		func(x, y float64, want string, wantOK bool) {
			mustAdd(w, 100, 100, chem.Hydrogen)
			mustAdd(w, 160, 100, chem.Carbon)
			id, ok := w.AtomAt(x, y, 5)
			Expect(ok).To(Equal(wantOK))
			Expect(id).To(Equal(dynamo.AtomID(want)))
		},
		Entry("centre", 100.0, 100.0, "id001", true),
		Entry("inside the radius", 115.0, 100.0, "id001", true),
		Entry("within the slack", 124.0, 100.0, "id001", true),
		Entry("nearest atom wins", 135.0, 100.0, "id002", true),
		Entry("empty space", 400.0, 400.0, "", false),
	)

	It("clears everything", func() {
		a := mustAdd(w, 0, 0, chem.Carbon)
		b := mustAdd(w, 40, 0, chem.Carbon)
		w.Link(a, b)
		w.Clear()
		Expect(w.NumAtoms()).To(BeZero())
		Expect(w.NumBonds()).To(BeZero())
		Expect(w.HasAtom(a)).To(BeFalse())
	})
})

var _ = Describe("Params", func() {
	It("defaults to a valid set", func() {
		Expect(dynamo.DefaultParams().Validate()).To(Succeed())
	})

	DescribeTable("rejects out of range values",
		func(name string, value float64) {
			p := dynamo.DefaultParams()
			Expect(p.SetParam(name, value)).To(MatchError(dynamo.ErrInvalidParams))
			Expect(p).To(Equal(dynamo.DefaultParams()))
		},
		Entry("negative friction", "friction", -0.1),
		Entry("zero time step", "time_step", 0.0),
		Entry("negative temperature", "temperature", -1.0),
		Entry("unknown name", "viscosity", 1.0),
	)

	It("round trips through GetParams", func() {
		p := dynamo.DefaultParams()
		Expect(p.SetParam("gravity", 0.5)).To(Succeed())
		Expect(p.GetParams()["gravity"]).To(Equal(0.5))
	})
})
