// Package validation collects problems found while checking the parameters
// of a transformation or action. Problems have two severities: warnings are
// reported but never fail, errors fail the owning operation.
package validation

import (
	"errors"
	"fmt"
	"sync"
)

type Context interface {
	VisitPropertyWarning(owner, property, message string)
	VisitWarning(message string)
	VisitPropertyError(owner, property, message string)
	VisitError(message string)
}

// Noop discards every problem.
var Noop Context = noop{}

type noop struct{}

func (noop) VisitPropertyWarning(string, string, string) {}
func (noop) VisitWarning(string)                         {}
func (noop) VisitPropertyError(string, string, string)   {}
func (noop) VisitError(string)                           {}

// DecorateMessage prefixes message with the property it concerns.
func DecorateMessage(owner, property, message string) string {
	if owner == "" {
		return fmt.Sprintf("Property '%s' %s.", property, message)
	}
	return fmt.Sprintf("Property '%s.%s' %s.", owner, property, message)
}

// Collector records every visited problem. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	warnings []string
	errs     []error
}

func (c *Collector) VisitPropertyWarning(owner, property, message string) {
	c.VisitWarning(DecorateMessage(owner, property, message))
}

func (c *Collector) VisitWarning(message string) {
	c.mu.Lock()
	c.warnings = append(c.warnings, message)
	c.mu.Unlock()
}

func (c *Collector) VisitPropertyError(owner, property, message string) {
	c.VisitError(DecorateMessage(owner, property, message))
}

func (c *Collector) VisitError(message string) {
	c.mu.Lock()
	c.errs = append(c.errs, errors.New(message))
	c.mu.Unlock()
}

func (c *Collector) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// Err joins all recorded errors, or returns nil when there are none.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}
