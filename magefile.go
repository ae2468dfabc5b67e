//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "voxlate"
	mainPkg = "./cmd/voxlate"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the voxlate binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests
func Check() {
	mg.Deps(Vet, Test)
}

// Install installs voxlate into GOPATH/bin
func Install() error {
	mg.Deps(Check)
	return sh.RunV("go", "install", mainPkg)
}

// Clean removes the built binary
func Clean() error {
	fmt.Println("Cleaning")
	return os.RemoveAll(binary)
}
