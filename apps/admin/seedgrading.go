package main

import (
	"errors"

	"github.com/trezcool/shule/core/assessment"
)

// defaultGradingScale covers 0-100 with one non-overlapping range per letter.
var defaultGradingScale = []assessment.NewGradingRule{
	{Grade: "A+", Min: 95, Max: 100},
	{Grade: "A", Min: 90, Max: 94},
	{Grade: "A-", Min: 85, Max: 89},
	{Grade: "B+", Min: 80, Max: 84},
	{Grade: "B", Min: 75, Max: 79},
	{Grade: "B-", Min: 70, Max: 74},
	{Grade: "C+", Min: 65, Max: 69},
	{Grade: "C", Min: 60, Max: 64},
	{Grade: "C-", Min: 55, Max: 59},
	{Grade: "D+", Min: 50, Max: 54},
	{Grade: "D", Min: 45, Max: 49},
	{Grade: "D-", Min: 40, Max: 44},
	{Grade: "F+", Min: 30, Max: 39},
	{Grade: "F", Min: 20, Max: 29},
	{Grade: "F-", Min: 0, Max: 19},
}

func (cli *commandLine) seedGrading() error {
	rules, err := cli.assSvc.QueryAllGradingRules()
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		return errors.New("grading scale already configured")
	}
	for _, nr := range defaultGradingScale {
		if _, err := cli.assSvc.CreateGradingRule(nr); err != nil {
			return err
		}
	}
	return nil
}
