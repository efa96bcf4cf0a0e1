// Package main provides the poissonreg command.
//
// poissonreg simulates count data from a Poisson log-linear model with
// two predictors, fits a Poisson regression to it and prints a report.
//
// Usage:
//
//	poissonreg
//	poissonreg --seed 7 --n 2000 --format markdown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
