// Package errors provides the structured error type used across synthdom
// and a collector for per-node failures.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// NodeError is a failure attributed to a single synthetic node.
type NodeError struct {
	NodeID    string
	Name      string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (ne *NodeError) Error() string {
	return fmt.Sprintf("%s <%s>: %s: %s", ne.NodeID, ne.Name, ne.Severity, ne.Message)
}

// Collector collects node errors and general errors. It is safe for
// concurrent use.
type Collector struct {
	nodeErrors []NodeError
	errors     []error
	mutex      sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{
		nodeErrors: make([]NodeError, 0),
		errors:     make([]error, 0),
	}
}

// Add adds a node error to the collector
func (c *Collector) Add(err NodeError) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	c.nodeErrors = append(c.nodeErrors, err)
}

// AddError adds a general error to the collector
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// NodeErrors returns a copy of the collected node errors
func (c *Collector) NodeErrors() []NodeError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]NodeError, len(c.nodeErrors))
	copy(result, c.nodeErrors)
	return result
}

// AllErrors returns all collected errors, node errors first
func (c *Collector) AllErrors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	all := make([]error, 0, len(c.nodeErrors)+len(c.errors))
	for i := range c.nodeErrors {
		ne := c.nodeErrors[i]
		all = append(all, &ne)
	}
	all = append(all, c.errors...)

	return all
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.nodeErrors) > 0 || len(c.errors) > 0
}

// Clear clears all errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.nodeErrors = c.nodeErrors[:0]
	c.errors = c.errors[:0]
}

// ErrorsForNode returns the errors recorded for a specific node
func (c *Collector) ErrorsForNode(id string) []NodeError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var nodeErrors []NodeError
	for _, err := range c.nodeErrors {
		if err.NodeID == id {
			nodeErrors = append(nodeErrors, err)
		}
	}
	return nodeErrors
}
