package usb

import (
	"testing"

	"go.viam.com/test"
)

func TestSortDescriptions(t *testing.T) {
	descs := []Description{
		{Path: "/dev/hidraw10"},
		{Path: "/dev/hidraw2"},
		{Path: "DevSrvsID:4294969851"},
		{Path: "/dev/hidraw"},
		{Path: "/dev/hidraw0"},
		{Path: "DevSrvsID:4294969850"},
	}
	sortDescriptions(descs)
	var paths []string
	for _, d := range descs {
		paths = append(paths, d.Path)
	}
	test.That(t, paths, test.ShouldResemble, []string{
		"/dev/hidraw",
		"/dev/hidraw0",
		"/dev/hidraw2",
		"/dev/hidraw10",
		"DevSrvsID:4294969850",
		"DevSrvsID:4294969851",
	})
}

func TestSearchFilter(t *testing.T) {
	ursa := Identifier{Vendor: 0x4098, Product: 0xbc27}
	test.That(t, ursa.String(), test.ShouldEqual, "4098:bc27")
	test.That(t, SearchFilter{}.matches(ursa), test.ShouldBeTrue)
	test.That(t, SearchFilter{ID: ursa}.matches(ursa), test.ShouldBeTrue)
	test.That(t, SearchFilter{ID: Identifier{Vendor: 1, Product: 2}}.matches(ursa), test.ShouldBeFalse)
}
