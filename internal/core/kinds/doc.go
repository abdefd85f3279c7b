// Package kinds registers the import kinds with the core registry.
// Import it for side effects to make every kind available.
package kinds
