package netlist

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given the voltage divider netlist", t, func() {
		input := "* divider\nR1 1 2 100\nR2 2 0 200\n\nV1 1 0 10\n"

		Convey("When it is parsed", func() {
			elems, err := Parse(input)
			So(err, ShouldBeNil)

			Convey("Then every element comes back in netlist order", func() {
				So(elems, ShouldResemble, []Element{
					{Kind: Resistor, Name: "R1", NodeA: 1, NodeB: 2, Value: 100},
					{Kind: Resistor, Name: "R2", NodeA: 2, NodeB: 0, Value: 200},
					{Kind: VoltageSource, Name: "V1", NodeA: 1, NodeB: 0, Value: 10},
				})
			})
		})
	})

	Convey("Given comments of every style", t, func() {
		input := "# hash\n; semicolon\n* star\n   \nI1 0 3 2e-3 * trailing\n"

		Convey("Then only the element line is kept, without its comment", func() {
			elems, err := Parse(input)
			So(err, ShouldBeNil)
			So(elems, ShouldHaveLength, 1)
			So(elems[0].Kind, ShouldEqual, CurrentSource)
			So(elems[0].Value, ShouldAlmostEqual, 2e-3)
			So(elems[0].NodeB, ShouldEqual, 3)
		})
	})

	Convey("Given lower-case kind letters", t, func() {
		elems, err := Parse("r1 1 0 1k\nv1 1 0 5")

		Convey("Then the kind is still recognised", func() {
			So(err, ShouldBeNil)
			So(elems[0].Kind, ShouldEqual, Resistor)
			So(elems[0].Value, ShouldEqual, 1000.0)
			So(elems[1].Kind, ShouldEqual, VoltageSource)
		})
	})
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
	}{
		{"too few fields", "R1 1 2", 1},
		{"too many fields", "R1 1 2 100 extra", 1},
		{"bad node", "R1 1 x 100", 1},
		{"negative node", "V1 -1 0 5", 1},
		{"bad value", "R1 1 0 abc", 1},
		{"unknown kind", "C1 1 0 1u", 1},
		{"duplicate name", "R1 1 0 100\n\nr1 2 0 50", 3},
	}

	for _, tc := range cases {
		Convey("Given a netlist with "+tc.name, t, func() {
			_, err := Parse(tc.input)

			Convey("Then a ParseError names the offending line", func() {
				So(err, ShouldNotBeNil)
				var pe *ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Line, ShouldEqual, tc.line)
				So(errors.Is(err, ErrParse), ShouldBeTrue)
			})
		})
	}
}

func TestParseValue(t *testing.T) {
	Convey("Given values with and without scale suffixes", t, func() {
		cases := map[string]float64{
			"100":    100,
			"1e3":    1000,
			"-2.5":   -2.5,
			".5":     0.5,
			"4.7k":   4700,
			"2meg":   2e6,
			"10m":    10e-3,
			"1u":     1e-6,
			"3n":     3e-9,
			"1.5E-2": 1.5e-2,
		}
		for in, want := range cases {
			got, err := ParseValue(in)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, want, math.Abs(want)*1e-12+1e-18)
		}
	})

	Convey("Given malformed values", t, func() {
		for _, in := range []string{"", "k", "1x", "1.2.3", "NaN", "Inf", "0x10"} {
			_, err := ParseValue(in)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestFormatRoundTrip(t *testing.T) {
	Convey("Given parsed elements", t, func() {
		elems, err := Parse("R1 1 2 100\nV1 1 0 10\nI1 2 0 0.001")
		So(err, ShouldBeNil)

		Convey("Then Format produces text that parses back to the same elements", func() {
			again, err := Parse(Format(elems))
			So(err, ShouldBeNil)
			So(again, ShouldResemble, elems)
		})
	})
}
