// Package catalog holds the fixed list of pathology tests offered by the clinic,
// grouped by category, with the reference range printed next to each result.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category is an ordered group of tests.
type Category struct {
	Name  string
	Tests []string
}

// Limits is an inclusive numeric reference interval.
type Limits struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the interval.
func (l Limits) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Definition is the raw input used to build a Catalog.
type Definition struct {
	Categories []Category
	Ranges     map[string]string
	Limits     map[string]Limits
}

// Catalog is an immutable lookup of categories, tests and reference ranges.
// Build one at startup and pass it to whatever needs it.
type Catalog struct {
	categories []Category
	ranges     map[string]string
	limits     map[string]Limits
	categoryOf map[string]string
}

var (
	// ErrDuplicateTest is returned when a test is listed under more than one category.
	ErrDuplicateTest = errors.New("catalog: test listed in more than one category")
	// ErrEmptyName is returned for blank category or test names.
	ErrEmptyName = errors.New("catalog: blank category or test name")
)

// New validates def and returns a Catalog that copies everything it was given.
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		ranges:     make(map[string]string, len(def.Ranges)),
		limits:     make(map[string]Limits, len(def.Limits)),
		categoryOf: make(map[string]string),
	}
	seenCategory := map[string]struct{}{}
	for _, cat := range def.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return nil, ErrEmptyName
		}
		if _, dup := seenCategory[cat.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.Name)
		}
		seenCategory[cat.Name] = struct{}{}
		tests := make([]string, 0, len(cat.Tests))
		for _, test := range cat.Tests {
			if strings.TrimSpace(test) == "" {
				return nil, ErrEmptyName
			}
			if existing, dup := c.categoryOf[test]; dup {
				return nil, fmt.Errorf("%w: %q in %q and %q", ErrDuplicateTest, test, existing, cat.Name)
			}
			c.categoryOf[test] = cat.Name
			tests = append(tests, test)
		}
		c.categories = append(c.categories, Category{Name: cat.Name, Tests: tests})
	}
	for test, r := range def.Ranges {
		c.ranges[test] = r
	}
	for test, l := range def.Limits {
		if l.Min > l.Max {
			return nil, fmt.Errorf("catalog: limits for %q have min > max", test)
		}
		c.limits[test] = l
	}
	return c, nil
}

// MustNew is New that panics on error; for package-level tables known to be valid.
func MustNew(def Definition) *Catalog {
	c, err := New(def)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns a copy of the categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Tests: append([]string(nil), cat.Tests...)}
	}
	return out
}

// CategoryOf returns the category a test belongs to.
func (c *Catalog) CategoryOf(test string) (string, bool) {
	name, ok := c.categoryOf[test]
	return name, ok
}

// Contains reports whether test is part of the catalog.
func (c *Catalog) Contains(test string) bool {
	_, ok := c.categoryOf[test]
	return ok
}

// NormalRange returns the printed reference range for test.
func (c *Catalog) NormalRange(test string) (string, bool) {
	r, ok := c.ranges[test]
	return r, ok
}

// NumericLimits returns the interval used to flag numeric results for test.
// Only a handful of tests carry one.
func (c *Catalog) NumericLimits(test string) (Limits, bool) {
	l, ok := c.limits[test]
	return l, ok
}

// Size returns the number of tests in the catalog.
func (c *Catalog) Size() int {
	return len(c.categoryOf)
}
