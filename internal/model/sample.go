package model

import "fmt"

// Shape of the generated sample data set
const (
	SampleProjects        = 5
	SampleItemsPerProject = 10
)

// SampleProjectTitle returns the title of the n-th sample project (1-based)
func SampleProjectTitle(n int) string {
	return fmt.Sprintf("Project %d", n)
}

// SampleItemTitle returns the title of the n-th sample item in a project (1-based)
func SampleItemTitle(n int) string {
	return fmt.Sprintf("Item %d", n)
}
