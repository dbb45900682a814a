// Package catalog holds the status code lookup loaded once at startup.
package catalog

import (
	"fmt"

	"txdash/internal/core"
)

// Catalog maps status codes to display names. It is immutable after New.
type Catalog struct {
	options []core.StatusOption
	names   map[int]string
}

// New builds a catalog, rejecting duplicate codes and empty names.
func New(options []core.StatusOption) (*Catalog, error) {
	c := &Catalog{
		options: make([]core.StatusOption, 0, len(options)),
		names:   make(map[int]string, len(options)),
	}
	for _, opt := range options {
		if err := opt.Validate(); err != nil {
			return nil, fmt.Errorf("status %d: %w", opt.ID, err)
		}
		if _, dup := c.names[opt.ID]; dup {
			return nil, fmt.Errorf("duplicate status id %d", opt.ID)
		}
		c.names[opt.ID] = opt.Name
		c.options = append(c.options, opt)
	}
	return c, nil
}

// Empty returns a catalog with no entries; every code resolves to the fallback.
func Empty() *Catalog {
	return &Catalog{names: map[int]string{}}
}

// FallbackName is the label shown for a code missing from the catalog.
func FallbackName(code int) string {
	return fmt.Sprintf("Unknown (%d)", code)
}

// Name returns the display name for code, or FallbackName(code).
func (c *Catalog) Name(code int) string {
	if c != nil {
		if name, ok := c.names[code]; ok {
			return name
		}
	}
	return FallbackName(code)
}

func (c *Catalog) Has(code int) bool {
	if c == nil {
		return false
	}
	_, ok := c.names[code]
	return ok
}

// Options returns the entries in catalog order.
func (c *Catalog) Options() []core.StatusOption {
	if c == nil {
		return nil
	}
	return append([]core.StatusOption(nil), c.options...)
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.options)
}
