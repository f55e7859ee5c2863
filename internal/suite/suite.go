// Package suite describes the fixed set of test classes a dispatcher knows about.
//
// A class groups test methods under a fully qualified name. Listing a method in
// Class.Tests is what marks it as a test; helpers simply are not listed.
package suite

import (
	"reflect"
	"time"
)

// TestFunc is the body of a test method
type TestFunc func(t *T)

// Method is a single test method of a class
type Method struct {
	Name        string
	Description string        // Optional, printed in list mode
	Timeout     time.Duration // Zero means no timeout
	Func        TestFunc
}

// Class is a named group of test methods with optional per-method fixtures
type Class struct {
	Name   string
	Before TestFunc // Runs before every test method
	After  TestFunc // Runs after every test method, even when it failed
	Tests  []Method
}

// Declaration is the static list of test classes to scan
type Declaration struct {
	Classes []Class
}

// Declare builds a Declaration from the given classes
func Declare(classes ...Class) Declaration {
	return Declaration{Classes: classes}
}

// Test is a shorthand for a Method without description or timeout
func Test(name string, fn TestFunc) Method {
	return Method{Name: name, Func: fn}
}

// Described returns a copy of m with the given description
func (m Method) Described(description string) Method {
	m.Description = description
	return m
}

// WithTimeout returns a copy of m that fails when it runs longer than d
func (m Method) WithTimeout(d time.Duration) Method {
	m.Timeout = d
	return m
}

// ClassOf returns the fully qualified name of v's type, e.g.
// "itd/internal/suites.Arithmetic". Pointers are dereferenced.
func ClassOf(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
